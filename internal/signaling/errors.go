package signaling

import (
	"errors"

	"github.com/BioHazard786/onair/internal/protocol"
)

var (
	ErrRoomExists      = errors.New("room already exists")
	ErrRoomNotFound    = errors.New("room not found")
	ErrInvalidPassword = errors.New("invalid room password")
	ErrNotSpeaker      = errors.New("only the speaker can end the room")
	ErrAlreadyInRoom   = errors.New("client already bound to a room")
)

// ReplyMessage maps a registry error to the message reported to the requester.
func ReplyMessage(err error) string {
	switch {
	case errors.Is(err, ErrRoomExists):
		return protocol.MsgRoomExists
	case errors.Is(err, ErrRoomNotFound):
		return protocol.MsgRoomNotFound
	case errors.Is(err, ErrInvalidPassword):
		return protocol.MsgInvalidPassword
	case errors.Is(err, ErrNotSpeaker):
		return protocol.MsgNotSpeaker
	case errors.Is(err, ErrAlreadyInRoom):
		return protocol.MsgAlreadyInRoom
	default:
		return err.Error()
	}
}
