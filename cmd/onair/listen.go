package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/onair/internal/protocol"
	"github.com/BioHazard786/onair/internal/signalclient"
	"github.com/BioHazard786/onair/internal/station"
	"github.com/BioHazard786/onair/internal/ui"
)

const connectTimeout = 30 * time.Second

var flagListenPassword string

var listenCmd = &cobra.Command{
	Use:     "listen <room-id|url>",
	Aliases: []string{"l"},
	Short:   "Tune in to a live room",
	Long: `Join a live room and show everything the speaker says as it arrives.

Examples:
  onair listen brave-echo-otter
  onair listen https://onair.example/r/brave-echo-otter
  onair listen team-standup -p s3cret`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := parseRoomInput(args[0])
		if err != nil {
			return err
		}
		return listen(cmd.Context(), roomID, flagListenPassword)
	},
}

func listen(ctx context.Context, roomID, password string) error {
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

	joined, err := joinRoom(ctx, conn.Handler, roomID, password)
	if err != nil {
		return err
	}

	listener, err := station.NewListener(conn.API, cfg, conn.Client, roomID, joined.SpeakerID)
	if err != nil {
		return err
	}
	defer listener.Close()
	go conn.routeSignals(listener.HandleSignal)

	if err := listener.Start(); err != nil {
		return err
	}

	started := time.Now()
	feed := ui.NewFeedUI(roomID)
	result := make(chan feedResult, 1)
	go func() { result <- pump(ctx, conn, listener, feed) }()

	quit, err := feed.Run()
	if err != nil {
		return err
	}

	var res feedResult
	if quit {
		res.reason = "you left the room"
	} else {
		res = <-result
	}

	ui.RenderSessionSummary(ui.SessionSummary{
		Role:      "listener",
		RoomID:    roomID,
		Duration:  time.Since(started),
		Lines:     feed.Received(),
		EndReason: res.reason,
	})
	return res.err
}

type feedResult struct {
	reason string
	err    error
}

// pump moves frames and session events into the feed until the session ends.
func pump(ctx context.Context, conn *ConnectionContext, listener *station.Listener, feed *ui.FeedUI) feedResult {
	end := func(reason string, err error) feedResult {
		feed.End(reason)
		return feedResult{reason: reason, err: err}
	}

	timeout := time.NewTimer(connectTimeout)
	defer timeout.Stop()

	ready := listener.Ready()
	for {
		select {
		case <-ready:
			ready = nil
			timeout.Stop()
			feed.Connected()

		case f := <-listener.Frames():
			feed.Push(ui.FeedLine{Seq: f.Seq, Text: f.Text, At: f.Time()})

		case <-listener.Done():
			drainFrames(listener, feed)
			return end("The speaker went off air", nil)

		case <-conn.Handler.RoomEnded:
			drainFrames(listener, feed)
			return end("The speaker ended the room", nil)

		case <-conn.Handler.Done():
			return end("Lost connection to the relay", station.NewError("listen", station.ErrPeerDisconnected))

		case <-timeout.C:
			return end("Could not reach the speaker", station.WrapError("connect to speaker", station.ErrTimeout, "no data channel after 30s"))

		case <-ctx.Done():
			return end("Interrupted", nil)
		}
	}
}

func drainFrames(listener *station.Listener, feed *ui.FeedUI) {
	for {
		select {
		case f := <-listener.Frames():
			feed.Push(ui.FeedLine{Seq: f.Seq, Text: f.Text, At: f.Time()})
		default:
			return
		}
	}
}

func joinRoom(ctx context.Context, h *signalclient.Handler, roomID, password string) (protocol.RoomJoined, error) {
	reqCtx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	sp := ui.NewWaitingSpinner("Joining " + roomID + "...")
	sp.Start()
	joined, err := h.JoinRoom(reqCtx, roomID, password)
	if err != nil {
		sp.Stop()
		return protocol.RoomJoined{}, signalingError("join room", err)
	}
	sp.Success(fmt.Sprintf("%s Joined %s", ui.IconListen, roomID))
	return joined, nil
}

func parseRoomInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("room ID cannot be empty")
	}

	if strings.Contains(input, "://") {
		return extractRoomIDFromURL(input)
	}
	return input, nil
}

func extractRoomIDFromURL(urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", station.NewError("parse URL", err)
	}

	path := strings.TrimSuffix(parsedURL.Path, "/")
	parts := strings.Split(path, "/")

	for i, part := range parts {
		if part == "r" && i+1 < len(parts) && parts[i+1] != "" {
			return url.PathUnescape(parts[i+1])
		}
	}

	return "", fmt.Errorf("could not extract room ID from URL: %s", urlStr)
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().StringVarP(&flagListenPassword, "password", "p", "", "Room password")
}
