// Package signalclient speaks the relay protocol from the client side.
package signalclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/onair/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// DialTimeout bounds each candidate's handshake.
	DialTimeout = 5 * time.Second
)

var (
	ErrNoCandidates = errors.New("no relay endpoints to try")
	ErrClosed       = errors.New("signaling connection closed")
)

// Client manages the WebSocket connection to the signaling server.
type Client struct {
	conn     *websocket.Conn
	url      string
	incoming chan protocol.Outbound
	outgoing chan []byte
	done     chan struct{}

	closeOnce sync.Once
}

// Dial tries each candidate URL in order and keeps the first that completes a
// handshake within DialTimeout. The returned error joins every failure.
func Dial(ctx context.Context, candidates []string) (*Client, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: DialTimeout,
		NetDialContext:   dialContext,
	}

	var errs []error
	for _, u := range candidates {
		attemptCtx, cancel := context.WithTimeout(ctx, DialTimeout)
		conn, _, err := dialer.DialContext(attemptCtx, u, nil)
		cancel()
		if err == nil {
			slog.Debug("connected to relay", "url", u)
			return newClient(conn, u), nil
		}

		slog.Debug("relay candidate failed", "url", u, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", u, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("failed to connect: %w", errors.Join(errs...))
}

func newClient(conn *websocket.Conn, u string) *Client {
	c := &Client{
		conn:     conn,
		url:      u,
		incoming: make(chan protocol.Outbound, 16),
		outgoing: make(chan []byte, 16),
		done:     make(chan struct{}),
	}

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return c
}

// URL returns the endpoint the client connected to.
func (c *Client) URL() string {
	return c.url
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		c.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.DecodeOutbound(data)
		if err != nil || msg == nil {
			slog.Debug("ignoring relay frame", "bytes", len(data), "error", err)
			continue
		}

		select {
		case c.incoming <- msg:
		case <-c.done:
			return
		}
	}
}

// writePump writes messages to the WebSocket connection and sends periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send queues msg for the server.
func (c *Client) Send(msg protocol.Inbound) error {
	frame, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.outgoing <- frame:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

func (c *Client) CreateRoom(roomID, password string) error {
	return c.Send(protocol.CreateRoom{RoomID: roomID, Password: password})
}

func (c *Client) JoinRoom(roomID, password string) error {
	return c.Send(protocol.JoinRoom{RoomID: roomID, Password: password})
}

// Signal relays payload to member to of roomID, or to every other member when to is empty.
func (c *Client) Signal(roomID, to string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode signal payload: %w", err)
	}
	return c.Send(protocol.Signal{RoomID: roomID, To: to, Payload: raw})
}

func (c *Client) EndRoom(roomID string) error {
	return c.Send(protocol.EndRoom{RoomID: roomID})
}

// Incoming returns the channel for receiving messages. It is closed when the
// connection ends.
func (c *Client) Incoming() <-chan protocol.Outbound {
	return c.incoming
}

// Close sends a close frame and tears the connection down. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
