package protocol

import "encoding/json"

// Inbound is a message sent by a client to the relay. The set of variants is closed:
// CreateRoom, JoinRoom, Signal, EndRoom and Ignored.
type Inbound interface {
	inbound()
}

// CreateRoom asks the relay to open RoomID with the sender as speaker.
type CreateRoom struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password,omitempty"`
}

// JoinRoom asks the relay to add the sender to RoomID as a guest.
type JoinRoom struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password,omitempty"`
}

// Signal carries an opaque negotiation payload. An empty To broadcasts to the
// rest of the room.
type Signal struct {
	RoomID  string          `json:"roomId"`
	To      string          `json:"to,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// EndRoom asks the relay to tear RoomID down. Only the speaker may do this.
type EndRoom struct {
	RoomID string `json:"roomId"`
}

// Ignored is any well-formed message with an unrecognized type.
type Ignored struct {
	Type string `json:"-"`
}

func (CreateRoom) inbound() {}
func (JoinRoom) inbound()   {}
func (Signal) inbound()     {}
func (EndRoom) inbound()    {}
func (Ignored) inbound()    {}

func (m CreateRoom) MarshalJSON() ([]byte, error) {
	type wire CreateRoom
	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeCreateRoom, wire(m)})
}

func (m JoinRoom) MarshalJSON() ([]byte, error) {
	type wire JoinRoom
	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeJoinRoom, wire(m)})
}

func (m Signal) MarshalJSON() ([]byte, error) {
	type wire Signal
	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeSignal, wire(m)})
}

func (m EndRoom) MarshalJSON() ([]byte, error) {
	type wire EndRoom
	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeEndRoom, wire(m)})
}

// DecodeInbound parses a client frame. Frames that are not a JSON object, or that
// omit roomId on a recognized type, yield ErrMalformed. Unknown types decode to Ignored.
func DecodeInbound(data []byte) (Inbound, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeCreateRoom, TypeJoinRoom, TypeSignal, TypeEndRoom:
		if env.RoomID == "" {
			return nil, ErrMalformed
		}
	default:
		return Ignored{Type: env.Type}, nil
	}

	switch env.Type {
	case TypeCreateRoom:
		return CreateRoom{RoomID: env.RoomID, Password: env.Password}, nil
	case TypeJoinRoom:
		return JoinRoom{RoomID: env.RoomID, Password: env.Password}, nil
	case TypeSignal:
		return Signal{RoomID: env.RoomID, To: env.To, Payload: env.Payload}, nil
	default:
		return EndRoom{RoomID: env.RoomID}, nil
	}
}
