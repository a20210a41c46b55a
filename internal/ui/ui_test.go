package ui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		5 * time.Second:                 "5s",
		2*time.Minute + 3*time.Second:   "2m 3s",
		time.Hour + 4*time.Minute + 1e9: "1h 4m 1s",
	}
	for d, want := range tests {
		assert.Equal(t, want, FormatDuration(d))
	}
}

func TestShortIDAndTruncate(t *testing.T) {
	assert.Equal(t, "abc", ShortID("abc"))
	assert.Equal(t, "0123abcd", ShortID("0123abcd-9999"))
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "hel…", truncate("hello", 4))
}

func TestRoomInfoView(t *testing.T) {
	view := RoomInfo{RoomID: "brave-otter", RoomLink: "https://onair.example/r/brave-otter", Protected: true}.View()
	assert.Contains(t, view, "brave-otter")
	assert.Contains(t, view, "https://onair.example/r/brave-otter")
	assert.Contains(t, view, "Password protected")

	bare := RoomInfo{RoomID: "abc", RoomLink: "abc"}.View()
	assert.NotContains(t, bare, "Room Link")
}

func TestListenerTableView(t *testing.T) {
	now := time.Now()
	assert.Contains(t, ListenerTableView(nil, now), "No listeners")

	view := ListenerTableView([]ListenerRow{
		{ID: "11111111-aaaa", Since: now.Add(-90 * time.Second)},
		{ID: "22222222-bbbb", Since: now},
	}, now)
	assert.Contains(t, view, "11111111")
	assert.Contains(t, view, "1m 30s")
	assert.NotContains(t, view, "aaaa")
}

func TestSessionSummaryView(t *testing.T) {
	view := SessionSummaryView(SessionSummary{
		Role:      "speaker",
		RoomID:    "abc",
		Duration:  65 * time.Second,
		Lines:     12,
		Listeners: 3,
		EndReason: "speaker ended the room",
	})
	for _, want := range []string{"Session Summary", "abc", "1m 5s", "12", "Peak listeners", "speaker ended the room"} {
		assert.Contains(t, view, want)
	}

	listener := SessionSummaryView(SessionSummary{Role: "listener", RoomID: "abc"})
	assert.NotContains(t, listener, "Peak listeners")
}

func TestFeedModel(t *testing.T) {
	m := newFeedModel("abc")
	assert.Contains(t, m.View(), "Waiting for the speaker")

	m.Update(feedConnectedMsg{})
	assert.Contains(t, m.View(), "Nothing said yet")

	at := time.Date(2024, 1, 1, 12, 30, 0, 0, time.Local)
	for i := 1; i <= feedHistory+5; i++ {
		m.Update(feedLineMsg{Seq: uint64(i), Text: fmt.Sprintf("line %d", i), At: at})
	}
	require.Len(t, m.lines, feedHistory)
	assert.Equal(t, uint64(feedHistory+5), m.received)
	view := m.View()
	assert.Contains(t, view, "12:30:00")
	assert.Contains(t, view, fmt.Sprintf("line %d", feedHistory+5))
	assert.NotContains(t, view, "line 5\n")

	_, cmd := m.Update(feedEndedMsg{reason: "The speaker ended the room"})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, strings.Contains(m.View(), "The speaker ended the room"))
}

func TestFeedModel_Quit(t *testing.T) {
	m := newFeedModel("abc")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
	assert.NotContains(t, m.View(), "Press q")
}
