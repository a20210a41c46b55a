package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type RoomInfo struct {
	RoomID    string
	RoomLink  string
	Protected bool
}

func (r RoomInfo) View() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Primary).
		Padding(1, 2)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", OnAirStyle.Render("ON AIR"), BoldStyle.Render("Room is live"))
	fmt.Fprintf(&b, "%s Room ID:    %s", IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomID))
	if r.RoomLink != "" && r.RoomLink != r.RoomID {
		fmt.Fprintf(&b, "\n%s Room Link:  %s", IconWeb, MutedStyle.Render(r.RoomLink))
	}
	if r.Protected {
		fmt.Fprintf(&b, "\n%s Password protected", IconLock)
	}

	return boxStyle.Render(b.String())
}

func RenderRoomInfo(r RoomInfo) {
	fmt.Println(r.View())
}

// ListenerRow is one listener in the speaker's table.
type ListenerRow struct {
	ID    string
	Since time.Time
}

// ListenerTableView renders the connected listeners using lipgloss/table.
func ListenerTableView(rows []ListenerRow, now time.Time) string {
	if len(rows) == 0 {
		return MutedStyle.Render("No listeners yet")
	}

	data := make([][]string, 0, len(rows))
	for i, r := range rows {
		data = append(data, []string{
			fmt.Sprintf("%d", i+1),
			ShortID(r.ID),
			FormatDuration(now.Sub(r.Since)),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("#", "Listener", "Connected").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}
