// Package events publishes room lifecycle notifications for other services.
package events

import (
	"context"
	"time"
)

// Kinds of room event.
const (
	RoomCreated = "room.created"
	RoomJoined  = "room.joined"
	RoomEnded   = "room.ended"
)

// Reasons a room ended.
const (
	ReasonSpeakerEnded = "speaker_ended"
	ReasonSpeakerLeft  = "speaker_left"
	ReasonShutdown     = "shutdown"
)

// Event describes one change to a room. Passwords are never included.
type Event struct {
	Kind     string    `json:"kind"`
	RoomID   string    `json:"roomId"`
	ClientID string    `json:"clientId,omitempty"`
	Members  int       `json:"members"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher delivers events. Implementations must not block for long; the relay
// calls Publish from its routing goroutine.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
