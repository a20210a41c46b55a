package ui

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// SessionSummary is printed when speak or listen finishes.
type SessionSummary struct {
	Role      string
	RoomID    string
	Duration  time.Duration
	Lines     uint64
	Listeners int
	EndReason string
}

func SessionSummaryView(s SessionSummary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	t.SetTitle("Session Summary")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Role", s.Role},
		{"Room", s.RoomID},
		{"Duration", FormatDuration(s.Duration)},
		{"Lines", s.Lines},
	})
	if s.Role == "speaker" {
		t.AppendRow(table.Row{"Peak listeners", s.Listeners})
	}
	if s.EndReason != "" {
		t.AppendRow(table.Row{"Ended", s.EndReason})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: text.Colors{text.Bold}},
		{Number: 2, Align: text.AlignRight},
	})
	return t.Render()
}

func RenderSessionSummary(s SessionSummary) {
	fmt.Println()
	fmt.Println(SessionSummaryView(s))
}
