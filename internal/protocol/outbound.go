package protocol

import "encoding/json"

// Error messages sent to clients.
const (
	MsgRoomExists      = "Room already exists"
	MsgRoomNotFound    = "Room not found"
	MsgInvalidPassword = "Invalid room password"
	MsgNotSpeaker      = "Only speaker can end"
	MsgAlreadyInRoom   = "Already in a room"
)

// Outbound is a message sent by the relay to a client.
type Outbound interface {
	outbound()
}

type RoomCreated struct {
	RoomID   string `json:"roomId"`
	ClientID string `json:"clientId"`
}

type RoomJoined struct {
	RoomID    string `json:"roomId"`
	ClientID  string `json:"clientId"`
	SpeakerID string `json:"speakerId"`
}

// Relayed is a signal delivered to a recipient, stamped with the sender's id.
type Relayed struct {
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

type RoomEnded struct {
	RoomID string `json:"roomId"`
}

type Error struct {
	Message string `json:"message"`
}

func (RoomCreated) outbound() {}
func (RoomJoined) outbound()  {}
func (Relayed) outbound()     {}
func (RoomEnded) outbound()   {}
func (Error) outbound()       {}

func (m RoomCreated) MarshalJSON() ([]byte, error) {
	type wire RoomCreated
	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeRoomCreated, wire(m)})
}

func (m RoomJoined) MarshalJSON() ([]byte, error) {
	type wire RoomJoined
	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeRoomJoined, wire(m)})
}

func (m Relayed) MarshalJSON() ([]byte, error) {
	type wire Relayed
	if m.Payload == nil {
		m.Payload = json.RawMessage("null")
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeSignal, wire(m)})
}

func (m RoomEnded) MarshalJSON() ([]byte, error) {
	type wire RoomEnded
	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeRoomEnded, wire(m)})
}

func (m Error) MarshalJSON() ([]byte, error) {
	type wire Error
	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeError, wire(m)})
}

// Encode marshals an outbound message.
func Encode(m Outbound) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeOutbound parses a relay frame on the client side. Unknown types yield
// (nil, nil) so newer servers can add messages without breaking older clients.
func DecodeOutbound(data []byte) (Outbound, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeRoomCreated:
		return RoomCreated{RoomID: env.RoomID, ClientID: env.ClientID}, nil
	case TypeRoomJoined:
		return RoomJoined{RoomID: env.RoomID, ClientID: env.ClientID, SpeakerID: env.SpeakerID}, nil
	case TypeSignal:
		return Relayed{From: env.From, Payload: env.Payload}, nil
	case TypeRoomEnded:
		return RoomEnded{RoomID: env.RoomID}, nil
	case TypeError:
		return Error{Message: env.Message}, nil
	default:
		return nil, nil
	}
}
