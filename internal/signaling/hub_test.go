package signaling

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BioHazard786/onair/internal/events"
	"github.com/BioHazard786/onair/internal/metrics"
	"github.com/BioHazard786/onair/internal/protocol"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

type hubFixture struct {
	hub     *Hub
	metrics *metrics.Metrics
	events  *recordingPublisher
}

func newHubFixture(t *testing.T, sendBuffer int) *hubFixture {
	t.Helper()
	m := metrics.New()
	pub := &recordingPublisher{}
	return &hubFixture{
		hub:     NewHub(Config{Metrics: m, Events: pub, SendBuffer: sendBuffer}),
		metrics: m,
		events:  pub,
	}
}

// connect registers a transport-less client directly with the hub's state.
func (f *hubFixture) connect() *Client {
	c := NewClient(f.hub, nil)
	f.hub.connect(c)
	return c
}

func (f *hubFixture) send(c *Client, msg any) {
	data, ok := msg.(string)
	if !ok {
		b, err := json.Marshal(msg)
		if err != nil {
			panic(err)
		}
		data = string(b)
	}
	f.hub.handle(c, []byte(data))
}

// drain returns every frame queued for c and whether c has been closed.
func drain(t *testing.T, c *Client) ([]protocol.Outbound, bool) {
	t.Helper()
	var out []protocol.Outbound
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return out, true
			}
			msg, err := protocol.DecodeOutbound(frame)
			require.NoError(t, err)
			out = append(out, msg)
		default:
			return out, false
		}
	}
}

func TestHub_SpeakerGuestSession(t *testing.T) {
	f := newHubFixture(t, 0)
	s := f.connect()
	g1 := f.connect()
	g2 := f.connect()

	f.send(s, protocol.CreateRoom{RoomID: "abc", Password: "pw"})
	msgs, _ := drain(t, s)
	assert.Equal(t, []protocol.Outbound{protocol.RoomCreated{RoomID: "abc", ClientID: s.ID}}, msgs)

	f.send(g1, protocol.JoinRoom{RoomID: "abc", Password: "pw"})
	msgs, _ = drain(t, g1)
	assert.Equal(t, []protocol.Outbound{protocol.RoomJoined{RoomID: "abc", ClientID: g1.ID, SpeakerID: s.ID}}, msgs)

	offer := json.RawMessage(`{"sdp":{"type":"offer","sdp":"v=0"}}`)
	f.send(g1, protocol.Signal{RoomID: "abc", To: s.ID, Payload: offer})
	msgs, _ = drain(t, s)
	require.Len(t, msgs, 1)
	relayed := msgs[0].(protocol.Relayed)
	assert.Equal(t, g1.ID, relayed.From)
	assert.JSONEq(t, string(offer), string(relayed.Payload))

	answer := json.RawMessage(`{"sdp":{"type":"answer","sdp":"v=0"}}`)
	f.send(s, protocol.Signal{RoomID: "abc", To: g1.ID, Payload: answer})
	msgs, _ = drain(t, g1)
	require.Len(t, msgs, 1)
	assert.Equal(t, s.ID, msgs[0].(protocol.Relayed).From)

	f.send(g2, protocol.JoinRoom{RoomID: "abc", Password: "x"})
	msgs, _ = drain(t, g2)
	assert.Equal(t, []protocol.Outbound{protocol.Error{Message: protocol.MsgInvalidPassword}}, msgs)

	f.send(s, protocol.EndRoom{RoomID: "abc"})
	for _, c := range []*Client{s, g1} {
		msgs, closed := drain(t, c)
		assert.Equal(t, []protocol.Outbound{protocol.RoomEnded{RoomID: "abc"}}, msgs)
		assert.True(t, closed)
	}
	msgs, closed := drain(t, g2)
	assert.Empty(t, msgs)
	assert.False(t, closed, "rejected guest is untouched")

	_, ok := f.hub.Registry().Lookup("abc")
	assert.False(t, ok)
	assert.Equal(t, []string{events.RoomCreated, events.RoomJoined, events.RoomEnded}, f.events.kinds())
	assert.Equal(t, uint64(1), f.metrics.Get(metrics.JoinsRejected))
	assert.Equal(t, uint64(2), f.metrics.Get(metrics.SignalsRelayed))
}

func TestHub_CreateRoomTwice(t *testing.T) {
	f := newHubFixture(t, 0)
	a := f.connect()
	b := f.connect()

	f.send(a, protocol.CreateRoom{RoomID: "abc"})
	drain(t, a)

	f.send(b, protocol.CreateRoom{RoomID: "abc", Password: "other"})
	msgs, _ := drain(t, b)
	assert.Equal(t, []protocol.Outbound{protocol.Error{Message: protocol.MsgRoomExists}}, msgs)

	info, ok := f.hub.Registry().Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, a.ID, info.SpeakerID)
	assert.False(t, info.HasPassword)
}

func TestHub_JoinUnknownRoom(t *testing.T) {
	f := newHubFixture(t, 0)
	g := f.connect()

	f.send(g, protocol.JoinRoom{RoomID: "nope"})
	msgs, _ := drain(t, g)
	assert.Equal(t, []protocol.Outbound{protocol.Error{Message: protocol.MsgRoomNotFound}}, msgs)
}

func TestHub_RejectsSecondBinding(t *testing.T) {
	f := newHubFixture(t, 0)
	s := f.connect()
	g := f.connect()

	f.send(s, protocol.CreateRoom{RoomID: "a"})
	f.send(g, protocol.JoinRoom{RoomID: "a"})
	drain(t, s)
	drain(t, g)

	f.send(g, protocol.JoinRoom{RoomID: "a"})
	f.send(s, protocol.CreateRoom{RoomID: "b"})

	msgs, _ := drain(t, g)
	assert.Equal(t, []protocol.Outbound{protocol.Error{Message: protocol.MsgAlreadyInRoom}}, msgs)
	msgs, _ = drain(t, s)
	assert.Equal(t, []protocol.Outbound{protocol.Error{Message: protocol.MsgAlreadyInRoom}}, msgs)

	assert.Equal(t, Stats{Rooms: 1, Members: 2}, f.hub.Registry().Stats())
}

func TestHub_BroadcastExcludesSender(t *testing.T) {
	f := newHubFixture(t, 0)
	s := f.connect()
	g1 := f.connect()
	g2 := f.connect()

	f.send(s, protocol.CreateRoom{RoomID: "abc"})
	f.send(g1, protocol.JoinRoom{RoomID: "abc"})
	f.send(g2, protocol.JoinRoom{RoomID: "abc"})
	drain(t, s)
	drain(t, g1)
	drain(t, g2)

	f.send(s, protocol.Signal{RoomID: "abc", Payload: json.RawMessage(`{"candidate":{"candidate":"c"}}`)})

	msgs, _ := drain(t, s)
	assert.Empty(t, msgs)
	for _, g := range []*Client{g1, g2} {
		msgs, _ := drain(t, g)
		require.Len(t, msgs, 1)
		assert.Equal(t, s.ID, msgs[0].(protocol.Relayed).From)
	}
}

func TestHub_SignalToAbsentMemberIsDropped(t *testing.T) {
	f := newHubFixture(t, 0)
	s := f.connect()
	g := f.connect()

	f.send(s, protocol.CreateRoom{RoomID: "abc"})
	f.send(g, protocol.JoinRoom{RoomID: "abc"})
	drain(t, s)
	drain(t, g)

	f.send(g, protocol.Signal{RoomID: "abc", To: "someone-else", Payload: json.RawMessage(`{}`)})

	for _, c := range []*Client{s, g} {
		msgs, _ := drain(t, c)
		assert.Empty(t, msgs)
	}
}

func TestHub_SignalFromNonMemberIsDropped(t *testing.T) {
	f := newHubFixture(t, 0)
	s := f.connect()
	outsider := f.connect()

	f.send(s, protocol.CreateRoom{RoomID: "abc"})
	drain(t, s)

	f.send(outsider, protocol.Signal{RoomID: "abc", To: s.ID, Payload: json.RawMessage(`{}`)})
	f.send(outsider, protocol.Signal{RoomID: "missing", Payload: json.RawMessage(`{}`)})

	msgs, _ := drain(t, s)
	assert.Empty(t, msgs)
	msgs, _ = drain(t, outsider)
	assert.Empty(t, msgs)
}

func TestHub_EndRoomByGuest(t *testing.T) {
	f := newHubFixture(t, 0)
	s := f.connect()
	g := f.connect()

	f.send(s, protocol.CreateRoom{RoomID: "abc"})
	f.send(g, protocol.JoinRoom{RoomID: "abc"})
	drain(t, s)
	drain(t, g)

	f.send(g, protocol.EndRoom{RoomID: "abc"})
	msgs, closed := drain(t, g)
	assert.Equal(t, []protocol.Outbound{protocol.Error{Message: protocol.MsgNotSpeaker}}, msgs)
	assert.False(t, closed)

	msgs, closed = drain(t, s)
	assert.Empty(t, msgs)
	assert.False(t, closed)

	_, ok := f.hub.Registry().Lookup("abc")
	assert.True(t, ok)
}

func TestHub_EndUnknownRoom(t *testing.T) {
	f := newHubFixture(t, 0)
	c := f.connect()

	f.send(c, protocol.EndRoom{RoomID: "nope"})
	msgs, _ := drain(t, c)
	assert.Equal(t, []protocol.Outbound{protocol.Error{Message: protocol.MsgRoomNotFound}}, msgs)
}

func TestHub_GuestDisconnectKeepsRoom(t *testing.T) {
	f := newHubFixture(t, 0)
	s := f.connect()
	g := f.connect()

	f.send(s, protocol.CreateRoom{RoomID: "abc"})
	f.send(g, protocol.JoinRoom{RoomID: "abc"})
	drain(t, s)
	drain(t, g)

	f.hub.disconnect(g)

	msgs, closed := drain(t, s)
	assert.Empty(t, msgs, "remaining members are not told about a departing guest")
	assert.False(t, closed)

	info, ok := f.hub.Registry().Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, []string{s.ID}, info.Members)
	assert.Equal(t, 1, f.hub.Connections())
}

func TestHub_SpeakerDisconnectEndsRoom(t *testing.T) {
	f := newHubFixture(t, 0)
	s := f.connect()
	g1 := f.connect()
	g2 := f.connect()

	f.send(s, protocol.CreateRoom{RoomID: "abc"})
	f.send(g1, protocol.JoinRoom{RoomID: "abc"})
	f.send(g2, protocol.JoinRoom{RoomID: "abc"})
	drain(t, s)
	drain(t, g1)
	drain(t, g2)

	f.hub.disconnect(s)

	for _, g := range []*Client{g1, g2} {
		msgs, closed := drain(t, g)
		assert.Equal(t, []protocol.Outbound{protocol.RoomEnded{RoomID: "abc"}}, msgs)
		assert.True(t, closed)
	}
	_, ok := f.hub.Registry().Lookup("abc")
	assert.False(t, ok)

	f.hub.disconnect(s)
	assert.Equal(t, uint64(1), f.metrics.Get(metrics.RoomsEnded), "redundant disconnect is a no-op")
}

func TestHub_MalformedAndUnknownMessages(t *testing.T) {
	f := newHubFixture(t, 0)
	c := f.connect()

	f.send(c, "not json")
	f.send(c, `{"type":"create-room"}`)
	f.send(c, `["create-room"]`)
	f.send(c, `{"type":"hello","roomId":"abc"}`)

	msgs, closed := drain(t, c)
	assert.Empty(t, msgs)
	assert.False(t, closed)
	assert.Equal(t, uint64(3), f.metrics.Get(metrics.MalformedDropped))
	assert.Equal(t, Stats{}, f.hub.Registry().Stats())
}

func TestHub_SlowRecipientDoesNotBlockOthers(t *testing.T) {
	f := newHubFixture(t, 2)
	s := f.connect()
	slow := f.connect()
	fast := f.connect()

	f.send(s, protocol.CreateRoom{RoomID: "abc"})
	f.send(slow, protocol.JoinRoom{RoomID: "abc"})
	f.send(fast, protocol.JoinRoom{RoomID: "abc"})
	drain(t, s)
	drain(t, fast)

	// slow still holds its room-joined frame and never reads.
	for i := 0; i < 3; i++ {
		f.send(s, protocol.Signal{RoomID: "abc", Payload: json.RawMessage(`{}`)})
		msgs, _ := drain(t, fast)
		require.Len(t, msgs, 1)
	}

	msgs, closed := drain(t, slow)
	assert.Len(t, msgs, 2)
	assert.False(t, closed)
	assert.Equal(t, uint64(2), f.metrics.Get(metrics.DeliveryDropped))
}

func TestHub_RunLifecycle(t *testing.T) {
	f := newHubFixture(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	go f.hub.Run(ctx)

	s := NewClient(f.hub, nil)
	g := NewClient(f.hub, nil)
	require.True(t, f.hub.Register(s))
	require.True(t, f.hub.Register(g))

	create, err := json.Marshal(protocol.CreateRoom{RoomID: "abc"})
	require.NoError(t, err)
	join, err := json.Marshal(protocol.JoinRoom{RoomID: "abc"})
	require.NoError(t, err)
	require.True(t, f.hub.Submit(s, create))
	require.True(t, f.hub.Submit(g, join))

	assert.Eventually(t, func() bool {
		return f.hub.Registry().Stats() == Stats{Rooms: 1, Members: 2}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, f.hub.Connections())

	cancel()
	<-f.hub.done

	for _, c := range []*Client{s, g} {
		assert.True(t, c.Closed())
		msgs, _ := drain(t, c)
		require.NotEmpty(t, msgs)
		assert.Equal(t, protocol.RoomEnded{RoomID: "abc"}, msgs[len(msgs)-1])
	}
	assert.Equal(t, 0, f.hub.Connections())
	assert.False(t, f.hub.Register(NewClient(f.hub, nil)))
	assert.False(t, f.hub.Submit(s, create))
	f.hub.Unregister(s)
}
