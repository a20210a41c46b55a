package signaling

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/BioHazard786/onair/internal/events"
	"github.com/BioHazard786/onair/internal/metrics"
	"github.com/BioHazard786/onair/internal/protocol"
)

// Config carries the hub's collaborators and limits. Zero values fall back to defaults.
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Events         events.Publisher
	MaxMessageSize int64
	SendBuffer     int
}

// Hub is the central brain of the signaling server. Every inbound frame,
// registration and unregistration is handled on the single goroutine running Run,
// so messages from one client are processed in the order they were read.
type Hub struct {
	cfg      Config
	registry *Registry
	relay    relay
	logger   *slog.Logger
	metrics  *metrics.Metrics
	events   events.Publisher

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	done       chan struct{}

	// clients is owned by the Run goroutine.
	clients   map[*Client]struct{}
	connected atomic.Int64
}

type inboundFrame struct {
	client *Client
	data   []byte
}

// NewHub creates a new Hub instance.
func NewHub(cfg Config) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Events == nil {
		cfg.Events = events.Nop{}
	}

	return &Hub{
		cfg:        cfg,
		registry:   NewRegistry(),
		relay:      relay{metrics: cfg.Metrics},
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		events:     cfg.Events,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Registry exposes the room registry for read-only reporting.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Connections returns the number of registered clients.
func (h *Hub) Connections() int {
	return int(h.connected.Load())
}

func (h *Hub) maxMessageSize() int64 {
	if h.cfg.MaxMessageSize > 0 {
		return h.cfg.MaxMessageSize
	}
	return DefaultMaxMessageSize
}

// Register hands a new client to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister tells the hub the client's transport is gone.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Submit queues a raw frame read from c. It reports false once the hub has stopped.
func (h *Hub) Submit(c *Client, data []byte) bool {
	select {
	case h.inbound <- inboundFrame{client: c, data: data}:
		return true
	case <-h.done:
		return false
	}
}

// Run starts the hub's processing loop and blocks until ctx is cancelled. On the
// way out every room is ended and every client closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.connect(c)

		case c := <-h.unregister:
			h.disconnect(c)

		case f := <-h.inbound:
			h.handle(f.client, f.data)

		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

func (h *Hub) connect(c *Client) {
	h.clients[c] = struct{}{}
	h.connected.Add(1)
	h.metrics.Inc(metrics.ConnectionsOpened)
	h.logger.Debug("client connected", "client_id", c.ID)
}

// disconnect runs the transport-close transition. Redundant calls are no-ops.
func (h *Hub) disconnect(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.connected.Add(-1)
	h.metrics.Inc(metrics.ConnectionsClosed)
	c.Close()

	dep, ok := h.registry.Depart(c)
	if !ok {
		h.logger.Debug("client disconnected", "client_id", c.ID)
		return
	}

	if !dep.Ended {
		h.logger.Info("guest left room", "client_id", c.ID, "room_id", dep.RoomID)
		return
	}

	h.logger.Info("speaker left, ending room", "client_id", c.ID, "room_id", dep.RoomID, "members", len(dep.Evicted))
	h.endRoom(dep.RoomID, c.ID, dep.Evicted, events.ReasonSpeakerLeft)
}

// handle decodes one inbound frame and dispatches it by type.
func (h *Hub) handle(c *Client, data []byte) {
	if _, ok := h.clients[c]; !ok || c.Closed() {
		return
	}

	msg, err := protocol.DecodeInbound(data)
	if err != nil {
		h.metrics.Inc(metrics.MalformedDropped)
		h.logger.Debug("dropping malformed message", "client_id", c.ID, "bytes", len(data))
		return
	}

	switch m := msg.(type) {
	case protocol.CreateRoom:
		h.handleCreateRoom(c, m)
	case protocol.JoinRoom:
		h.handleJoinRoom(c, m)
	case protocol.Signal:
		h.handleSignal(c, m)
	case protocol.EndRoom:
		h.handleEndRoom(c, m)
	case protocol.Ignored:
		h.logger.Debug("ignoring message", "client_id", c.ID, "type", m.Type)
	}
}

func (h *Hub) handleCreateRoom(c *Client, m protocol.CreateRoom) {
	info, err := h.registry.CreateRoom(m.RoomID, c, m.Password)
	if err != nil {
		h.logger.Info("room create rejected", "client_id", c.ID, "room_id", m.RoomID, "error", err)
		h.reply(c, protocol.Error{Message: ReplyMessage(err)})
		return
	}

	h.metrics.Inc(metrics.RoomsCreated)
	h.logger.Info("room created", "client_id", c.ID, "room_id", info.ID, "password", info.HasPassword)
	h.reply(c, protocol.RoomCreated{RoomID: info.ID, ClientID: c.ID})
	h.publish(events.Event{Kind: events.RoomCreated, RoomID: info.ID, ClientID: c.ID, Members: len(info.Members)})
}

func (h *Hub) handleJoinRoom(c *Client, m protocol.JoinRoom) {
	info, err := h.registry.JoinRoom(m.RoomID, c, m.Password)
	if err != nil {
		h.metrics.Inc(metrics.JoinsRejected)
		h.logger.Info("room join rejected", "client_id", c.ID, "room_id", m.RoomID, "error", err)
		h.reply(c, protocol.Error{Message: ReplyMessage(err)})
		return
	}

	h.metrics.Inc(metrics.Joins)
	h.logger.Info("guest joined room", "client_id", c.ID, "room_id", info.ID, "members", len(info.Members))
	h.reply(c, protocol.RoomJoined{RoomID: info.ID, ClientID: c.ID, SpeakerID: info.SpeakerID})
	h.publish(events.Event{Kind: events.RoomJoined, RoomID: info.ID, ClientID: c.ID, Members: len(info.Members)})
}

func (h *Hub) handleSignal(c *Client, m protocol.Signal) {
	recipients, ok := h.registry.Recipients(m.RoomID, c.ID, m.To)
	if !ok {
		h.logger.Debug("dropping signal outside sender's room", "client_id", c.ID, "room_id", m.RoomID)
		return
	}
	if len(recipients) == 0 {
		return
	}

	frame, err := protocol.Encode(protocol.Relayed{From: c.ID, Payload: m.Payload})
	if err != nil {
		h.logger.Debug("dropping unencodable signal", "client_id", c.ID, "error", err)
		return
	}

	n := h.relay.fanOut(recipients, frame)
	h.metrics.Add(metrics.SignalsRelayed, uint64(n))
}

func (h *Hub) handleEndRoom(c *Client, m protocol.EndRoom) {
	members, err := h.registry.EndRoomBy(m.RoomID, c.ID)
	if err != nil {
		h.logger.Info("room end rejected", "client_id", c.ID, "room_id", m.RoomID, "error", err)
		h.reply(c, protocol.Error{Message: ReplyMessage(err)})
		return
	}

	h.logger.Info("room ended by speaker", "client_id", c.ID, "room_id", m.RoomID, "members", len(members))
	h.endRoom(m.RoomID, c.ID, members, events.ReasonSpeakerEnded)
}

// endRoom notifies and disconnects the former members of a room that has
// already been removed from the registry.
func (h *Hub) endRoom(roomID, clientID string, members []*Client, reason string) {
	h.relay.teardown(roomID, members)
	h.metrics.Inc(metrics.RoomsEnded)
	h.publish(events.Event{Kind: events.RoomEnded, RoomID: roomID, ClientID: clientID, Members: len(members), Reason: reason})
}

func (h *Hub) shutdown() {
	for roomID, members := range h.registry.EndAll() {
		h.endRoom(roomID, "", members, events.ReasonShutdown)
	}
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
	h.connected.Store(0)
	h.logger.Info("hub stopped")
}

func (h *Hub) reply(c *Client, msg protocol.Outbound) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		return
	}
	h.relay.deliver(c, frame)
}

func (h *Hub) publish(ev events.Event) {
	ev.At = time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := h.events.Publish(ctx, ev); err != nil {
		h.logger.Warn("publishing room event failed", "kind", ev.Kind, "room_id", ev.RoomID, "error", err)
	}
}
