package signalclient

import (
	"context"
	"fmt"

	"github.com/BioHazard786/onair/internal/protocol"
)

// ServerError is an error reply from the relay.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Handler routes incoming signaling messages to appropriate channels.
type Handler struct {
	client      *Client
	RoomCreated chan protocol.RoomCreated
	RoomJoined  chan protocol.RoomJoined
	Signal      chan protocol.Relayed
	RoomEnded   chan string
	Error       chan string

	done chan struct{}
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:      client,
		RoomCreated: make(chan protocol.RoomCreated, 1),
		RoomJoined:  make(chan protocol.RoomJoined, 1),
		Signal:      make(chan protocol.Relayed, 32),
		RoomEnded:   make(chan string, 1),
		Error:       make(chan string, 4),
		done:        make(chan struct{}),
	}
}

// Start begins listening to incoming messages and routing them. It returns when
// the connection ends.
func (h *Handler) Start() {
	defer close(h.done)

	for msg := range h.client.Incoming() {
		switch m := msg.(type) {
		case protocol.RoomCreated:
			h.RoomCreated <- m
		case protocol.RoomJoined:
			h.RoomJoined <- m
		case protocol.Relayed:
			h.Signal <- m
		case protocol.RoomEnded:
			select {
			case h.RoomEnded <- m.RoomID:
			default:
			}
		case protocol.Error:
			select {
			case h.Error <- m.Message:
			default:
			}
		}
	}
}

// Done is closed once the connection has ended and Start has returned.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// CreateRoom asks for roomID and waits for the relay's answer.
func (h *Handler) CreateRoom(ctx context.Context, roomID, password string) (protocol.RoomCreated, error) {
	if err := h.client.CreateRoom(roomID, password); err != nil {
		return protocol.RoomCreated{}, err
	}

	select {
	case created := <-h.RoomCreated:
		return created, nil
	case msg := <-h.Error:
		return protocol.RoomCreated{}, &ServerError{Message: msg}
	case <-h.done:
		return protocol.RoomCreated{}, ErrClosed
	case <-ctx.Done():
		return protocol.RoomCreated{}, fmt.Errorf("create room: %w", ctx.Err())
	}
}

// JoinRoom joins roomID and waits for the relay's answer.
func (h *Handler) JoinRoom(ctx context.Context, roomID, password string) (protocol.RoomJoined, error) {
	if err := h.client.JoinRoom(roomID, password); err != nil {
		return protocol.RoomJoined{}, err
	}

	select {
	case joined := <-h.RoomJoined:
		return joined, nil
	case msg := <-h.Error:
		return protocol.RoomJoined{}, &ServerError{Message: msg}
	case <-h.done:
		return protocol.RoomJoined{}, ErrClosed
	case <-ctx.Done():
		return protocol.RoomJoined{}, fmt.Errorf("join room: %w", ctx.Err())
	}
}
