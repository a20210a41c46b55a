package station

import (
	"errors"
	"fmt"
)

var (
	ErrSignaling        = errors.New("signaling server error")
	ErrRoomEnded        = errors.New("room ended")
	ErrTimeout          = errors.New("timeout")
	ErrPeerDisconnected = errors.New("peer disconnected")
	ErrUnexpectedSignal = errors.New("unexpected signal")
	ErrChannelNotOpen   = errors.New("channel not open")
)

type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *SessionError {
	return &SessionError{Op: op, Err: err, Details: details}
}
