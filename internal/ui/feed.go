package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const feedHistory = 20

// FeedLine is one line received from the speaker.
type FeedLine struct {
	Seq  uint64
	Text string
	At   time.Time
}

type (
	feedConnectedMsg struct{}
	feedLineMsg      FeedLine
	feedEndedMsg     struct{ reason string }
)

// feedModel is the live listen view.
type feedModel struct {
	roomID    string
	spinner   spinner.Model
	lines     []FeedLine
	received  uint64
	connected bool
	ended     string
	quitting  bool
}

func newFeedModel(roomID string) *feedModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = SpinnerStyle
	return &feedModel{roomID: roomID, spinner: s}
}

func (m *feedModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *feedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case feedConnectedMsg:
		m.connected = true

	case feedLineMsg:
		m.received++
		m.lines = append(m.lines, FeedLine(msg))
		if len(m.lines) > feedHistory {
			m.lines = m.lines[len(m.lines)-feedHistory:]
		}

	case feedEndedMsg:
		m.ended = msg.reason
		return m, tea.Quit
	}

	return m, nil
}

func (m *feedModel) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s Listening to %s\n\n", IconListen, BoldStyle.Foreground(Primary).Render(m.roomID))

	if !m.connected {
		fmt.Fprintf(&b, "%s Waiting for the speaker...\n", m.spinner.View())
	} else if len(m.lines) == 0 {
		fmt.Fprintf(&b, "%s %s\n", OnAirStyle.Render("ON AIR"), MutedStyle.Render("Connected. Nothing said yet."))
	}

	for _, l := range m.lines {
		fmt.Fprintf(&b, "%s %s\n", MutedStyle.Render(l.At.Format("15:04:05")), truncate(l.Text, 200))
	}

	switch {
	case m.ended != "":
		fmt.Fprintf(&b, "\n%s\n", WarningStyle.Render(m.ended))
	case !m.quitting:
		b.WriteString("\n" + MutedStyle.Render("Press q to leave"))
	}

	return b.String()
}

// FeedUI runs the live listen view.
type FeedUI struct {
	program *tea.Program
	model   *feedModel
}

func NewFeedUI(roomID string) *FeedUI {
	model := newFeedModel(roomID)
	return &FeedUI{
		model:   model,
		program: tea.NewProgram(model),
	}
}

// Run blocks until the feed ends or the user quits. It reports whether the user quit.
func (f *FeedUI) Run() (bool, error) {
	if _, err := f.program.Run(); err != nil {
		return false, err
	}
	return f.model.quitting, nil
}

func (f *FeedUI) Connected() {
	f.program.Send(feedConnectedMsg{})
}

func (f *FeedUI) Push(line FeedLine) {
	f.program.Send(feedLineMsg(line))
}

func (f *FeedUI) End(reason string) {
	f.program.Send(feedEndedMsg{reason: reason})
}

// Received returns how many lines the feed has shown.
func (f *FeedUI) Received() uint64 {
	return f.model.received
}
