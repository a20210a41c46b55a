package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BioHazard786/onair/internal/protocol"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    protocol.Inbound
		wantErr error
	}{
		{
			name: "create room with password",
			raw:  `{"type":"create-room","roomId":"talk","password":"x"}`,
			want: protocol.CreateRoom{RoomID: "talk", Password: "x"},
		},
		{
			name: "join room without password",
			raw:  `{"type":"join-room","roomId":"talk"}`,
			want: protocol.JoinRoom{RoomID: "talk"},
		},
		{
			name: "signal keeps payload bytes",
			raw:  `{"type":"signal","roomId":"talk","to":"abc","payload":{"sdp":{"type":"offer","sdp":"v=0"}}}`,
			want: protocol.Signal{RoomID: "talk", To: "abc", Payload: json.RawMessage(`{"sdp":{"type":"offer","sdp":"v=0"}}`)},
		},
		{
			name: "end room",
			raw:  `{"type":"end-room","roomId":"talk"}`,
			want: protocol.EndRoom{RoomID: "talk"},
		},
		{
			name: "unknown type is ignored",
			raw:  `{"type":"dance","roomId":"talk"}`,
			want: protocol.Ignored{Type: "dance"},
		},
		{
			name: "missing type is ignored",
			raw:  `{"roomId":"talk"}`,
			want: protocol.Ignored{},
		},
		{
			name:    "not json",
			raw:     `hello`,
			wantErr: protocol.ErrMalformed,
		},
		{
			name:    "truncated json",
			raw:     `{"type":"create-room","roomId":`,
			wantErr: protocol.ErrMalformed,
		},
		{
			name:    "json array",
			raw:     `[{"type":"create-room","roomId":"talk"}]`,
			wantErr: protocol.ErrMalformed,
		},
		{
			name:    "missing room id",
			raw:     `{"type":"join-room"}`,
			wantErr: protocol.ErrMalformed,
		},
		{
			name:    "wrong field type",
			raw:     `{"type":"join-room","roomId":7}`,
			wantErr: protocol.ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.DecodeInbound([]byte(tt.raw))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutboundWireShapes(t *testing.T) {
	tests := []struct {
		name string
		msg  protocol.Outbound
		want string
	}{
		{"room created", protocol.RoomCreated{RoomID: "talk", ClientID: "c1"}, `{"type":"room-created","roomId":"talk","clientId":"c1"}`},
		{"room joined", protocol.RoomJoined{RoomID: "talk", ClientID: "c2", SpeakerID: "c1"}, `{"type":"room-joined","roomId":"talk","clientId":"c2","speakerId":"c1"}`},
		{"signal", protocol.Relayed{From: "c2", Payload: json.RawMessage(`{"candidate":{}}`)}, `{"type":"signal","from":"c2","payload":{"candidate":{}}}`},
		{"signal without payload", protocol.Relayed{From: "c2"}, `{"type":"signal","from":"c2","payload":null}`},
		{"room ended", protocol.RoomEnded{RoomID: "talk"}, `{"type":"room-ended","roomId":"talk"}`},
		{"error", protocol.Error{Message: protocol.MsgNotSpeaker}, `{"type":"error","message":"Only speaker can end"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := protocol.Encode(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestInboundEncodingOmitsEmptyOptionals(t *testing.T) {
	data, err := json.Marshal(protocol.Signal{RoomID: "talk", Payload: json.RawMessage(`1`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"signal","roomId":"talk","payload":1}`, string(data))

	data, err = json.Marshal(protocol.JoinRoom{RoomID: "talk"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"join-room","roomId":"talk"}`, string(data))
}

func TestDecodeOutbound(t *testing.T) {
	msg, err := protocol.DecodeOutbound([]byte(`{"type":"room-joined","roomId":"talk","clientId":"c2","speakerId":"c1"}`))
	require.NoError(t, err)
	assert.Equal(t, protocol.RoomJoined{RoomID: "talk", ClientID: "c2", SpeakerID: "c1"}, msg)

	msg, err = protocol.DecodeOutbound([]byte(`{"type":"future-thing"}`))
	require.NoError(t, err)
	assert.Nil(t, msg)

	_, err = protocol.DecodeOutbound([]byte(`nope`))
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}
