package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/onair/internal/protocol"
	"github.com/BioHazard786/onair/internal/roomname"
	"github.com/BioHazard786/onair/internal/signalclient"
	"github.com/BioHazard786/onair/internal/station"
	"github.com/BioHazard786/onair/internal/ui"
)

const (
	createAttempts = 3
	replyTimeout   = 10 * time.Second
)

var flagSpeakPassword string

var speakCmd = &cobra.Command{
	Use:     "speak [room-id]",
	Aliases: []string{"s"},
	Short:   "Open a room and broadcast what you type",
	Long: `Open a live room and broadcast every line typed on stdin to all listeners.

Type /listeners to see who is connected and /end (or Ctrl-D) to end the room.

Examples:
  onair speak
  onair speak team-standup -p s3cret
  echo "hello" | onair speak --server ws://localhost:4000/ws`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID := ""
		if len(args) == 1 {
			roomID = args[0]
		}
		return speak(cmd.Context(), roomID, flagSpeakPassword, os.Stdin)
	},
}

func speak(ctx context.Context, roomID, password string, in io.Reader) error {
	cfg, err := LoadConfig(flagConfig)
	if err != nil {
		return err
	}

	fmt.Println()
	conn, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	roomID, err = createRoom(ctx, conn.Handler, roomID, password)
	if err != nil {
		return err
	}

	ui.RenderRoomInfo(ui.RoomInfo{RoomID: roomID, RoomLink: cfg.GetRoomLink(roomID), Protected: password != ""})
	fmt.Println(ui.MutedStyle.Render("Type to broadcast. /listeners shows who is tuned in, /end ends the room."))

	speaker := station.NewSpeaker(conn.API, cfg, conn.Client, roomID)
	go conn.routeSignals(speaker.HandleSignal)

	s := &speakSession{
		conn:    conn,
		speaker: speaker,
		roomID:  roomID,
		started: time.Now(),
		since:   make(map[string]time.Time),
	}
	reason, err := s.run(ctx, readLines(in))

	speaker.Close()
	ui.RenderSessionSummary(ui.SessionSummary{
		Role:      "speaker",
		RoomID:    roomID,
		Duration:  time.Since(s.started),
		Lines:     speaker.Sent(),
		Listeners: s.peak,
		EndReason: reason,
	})
	return err
}

// createRoom opens roomID, or a generated id when roomID is empty. Generated ids
// that collide with a live room are retried.
func createRoom(ctx context.Context, h *signalclient.Handler, roomID, password string) (string, error) {
	generated := roomID == ""

	for attempt := 1; ; attempt++ {
		id := roomID
		if generated {
			id = roomname.Generate()
		}

		reqCtx, cancel := context.WithTimeout(ctx, replyTimeout)
		created, err := h.CreateRoom(reqCtx, id, password)
		cancel()
		if err == nil {
			return created.RoomID, nil
		}

		var serr *signalclient.ServerError
		if generated && attempt < createAttempts && errors.As(err, &serr) && serr.Message == protocol.MsgRoomExists {
			continue
		}
		return "", signalingError("create room", err)
	}
}

type speakSession struct {
	conn    *ConnectionContext
	speaker *station.Speaker
	roomID  string
	started time.Time
	since   map[string]time.Time
	peak    int
}

func (s *speakSession) run(ctx context.Context, lines <-chan string) (string, error) {
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return s.end()
			}
			switch strings.TrimSpace(line) {
			case "":
			case "/end":
				return s.end()
			case "/listeners":
				fmt.Println(ui.ListenerTableView(s.listenerRows(), time.Now()))
			default:
				n, err := s.speaker.Broadcast(line)
				if err != nil {
					ui.PrintWarning(err.Error())
					continue
				}
				fmt.Println(ui.MutedStyle.Render(fmt.Sprintf("  → %d listener(s)", n)))
			}

		case ev := <-s.speaker.Events():
			if ev.Connected {
				s.since[ev.ID] = ev.At
				s.peak = max(s.peak, len(s.since))
				ui.PrintSuccessf("%s Listener %s tuned in", ui.IconPeer, ui.ShortID(ev.ID))
			} else {
				delete(s.since, ev.ID)
				ui.PrintInfof("Listener %s left", ui.ShortID(ev.ID))
			}

		case msg := <-s.conn.Handler.Error:
			ui.PrintWarning(msg)

		case <-s.conn.Handler.RoomEnded:
			return "room ended by relay", nil

		case <-s.conn.Handler.Done():
			return "relay connection lost", station.NewError("speak", station.ErrPeerDisconnected)

		case <-ctx.Done():
			return s.end()
		}
	}
}

// end asks the relay to end the room and waits briefly for confirmation.
func (s *speakSession) end() (string, error) {
	if err := s.conn.Client.EndRoom(s.roomID); err != nil {
		return "relay connection lost", nil
	}

	select {
	case <-s.conn.Handler.RoomEnded:
	case msg := <-s.conn.Handler.Error:
		return "", station.WrapError("end room", station.ErrSignaling, msg)
	case <-s.conn.Handler.Done():
	case <-time.After(2 * time.Second):
	}
	return "speaker ended the room", nil
}

func (s *speakSession) listenerRows() []ui.ListenerRow {
	rows := make([]ui.ListenerRow, 0, len(s.since))
	for id, at := range s.since {
		rows = append(rows, ui.ListenerRow{ID: id, Since: at})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Since.Before(rows[j].Since) })
	return rows
}

// readLines feeds lines from r into a channel that closes at EOF.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func init() {
	rootCmd.AddCommand(speakCmd)

	speakCmd.Flags().StringVarP(&flagSpeakPassword, "password", "p", "", "Require this password to join")
}
