// Package protocol defines the JSON messages exchanged between OnAir clients and the relay.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Message type constants.
const (
	TypeCreateRoom = "create-room"
	TypeJoinRoom   = "join-room"
	TypeSignal     = "signal"
	TypeEndRoom    = "end-room"

	TypeRoomCreated = "room-created"
	TypeRoomJoined  = "room-joined"
	TypeRoomEnded   = "room-ended"
	TypeError       = "error"
)

// ErrMalformed is returned for frames that are not a JSON object or lack a required field.
var ErrMalformed = errors.New("malformed message")

// envelope is the flat shape every frame is first decoded into.
type envelope struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"roomId"`
	Password  string          `json:"password"`
	To        string          `json:"to"`
	From      string          `json:"from"`
	ClientID  string          `json:"clientId"`
	SpeakerID string          `json:"speakerId"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload"`
}

func decodeEnvelope(data []byte) (*envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformed
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, ErrMalformed
	}
	return &env, nil
}
