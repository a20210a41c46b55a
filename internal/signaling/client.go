package signaling

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// DefaultMaxMessageSize is enough for SDP offers with a full candidate list.
	DefaultMaxMessageSize = 64 * 1024

	// DefaultSendBuffer is the number of outbound frames queued per client.
	DefaultSendBuffer = 256
)

// Role is the part a client plays in its room.
type Role string

const (
	RoleNone    Role = ""
	RoleSpeaker Role = "speaker"
	RoleGuest   Role = "guest"
)

// Client is a wrapper for a single websocket connection (a browser or CLI endpoint).
type Client struct {
	// ID is assigned at connect time and never changes.
	ID string

	hub  *Hub
	conn *websocket.Conn

	// send is a buffered channel of encoded outbound frames. WritePump is its only reader.
	send chan []byte

	mu     sync.Mutex
	roomID string
	role   Role
	closed bool
}

// NewClient wraps conn for hub. conn may be nil when the client is driven without a transport.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	size := DefaultSendBuffer
	if hub != nil && hub.cfg.SendBuffer > 0 {
		size = hub.cfg.SendBuffer
	}
	return &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, size),
	}
}

// Binding returns the room the client is bound to and its role there.
func (c *Client) Binding() (string, Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID, c.role
}

func (c *Client) bind(roomID string, role Role) {
	c.mu.Lock()
	c.roomID = roomID
	c.role = role
	c.mu.Unlock()
}

func (c *Client) unbind() {
	c.bind("", RoleNone)
}

// Send queues data without blocking. It reports false when the frame was dropped
// because the client is closed or its buffer is full.
func (c *Client) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close stops accepting frames. WritePump flushes what is already queued, sends a
// close frame and shuts the connection down. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.maxMessageSize())
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read failed", "client_id", c.ID, "error", err)
			}
			return
		}

		if !c.hub.Submit(c, data) {
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The client was closed by the hub.
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("websocket write failed", "client_id", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
