package station

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/onair/internal/config"
)

// ListenerEvent reports a listener's data channel opening or going away.
type ListenerEvent struct {
	ID        string
	Connected bool
	At        time.Time
}

type listenerConn struct {
	*peer
	dc *pion.DataChannel
}

// Speaker answers every listener's offer and broadcasts frames to all of them.
type Speaker struct {
	api    *pion.API
	cfg    *config.Config
	sig    Signaler
	roomID string

	mu        sync.Mutex
	listeners map[string]*listenerConn
	seq       uint64
	sent      uint64
	closed    bool

	events chan ListenerEvent
}

// NewSpeaker creates a speaker for roomID.
func NewSpeaker(api *pion.API, cfg *config.Config, sig Signaler, roomID string) *Speaker {
	return &Speaker{
		api:       api,
		cfg:       cfg,
		sig:       sig,
		roomID:    roomID,
		listeners: make(map[string]*listenerConn),
		events:    make(chan ListenerEvent, 32),
	}
}

// Events delivers listener connect and disconnect notifications.
func (s *Speaker) Events() <-chan ListenerEvent {
	return s.events
}

// HandleSignal processes a payload relayed from listener from.
func (s *Speaker) HandleSignal(from string, raw json.RawMessage) error {
	payload, err := DecodeSignal(raw)
	if err != nil {
		return err
	}

	switch {
	case payload.SDP != nil:
		if payload.SDP.Type != pion.SDPTypeOffer {
			return WrapError("handle signal", ErrUnexpectedSignal, payload.SDP.Type.String())
		}
		return s.answer(from, *payload.SDP)

	case payload.Candidate != nil:
		s.mu.Lock()
		l := s.listeners[from]
		s.mu.Unlock()
		if l == nil {
			slog.Debug("candidate from unknown listener", "peer", from)
			return nil
		}
		return l.addCandidate(*payload.Candidate)
	}
	return nil
}

// answer builds a fresh peer connection for from, replacing any earlier one.
func (s *Speaker) answer(from string, offer pion.SessionDescription) error {
	pc, err := NewPeerConnection(s.api, s.cfg)
	if err != nil {
		return err
	}

	l := &listenerConn{peer: newPeer(from, pc)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		pc.Close()
		return NewError("answer", ErrPeerDisconnected)
	}
	old := s.listeners[from]
	s.listeners[from] = l
	s.mu.Unlock()

	if old != nil {
		old.close()
	}

	l.trickle(s.sig, s.roomID)

	pc.OnDataChannel(func(dc *pion.DataChannel) {
		if dc.Label() != DataChannelLabel {
			return
		}
		dc.OnOpen(func() {
			s.mu.Lock()
			l.dc = dc
			s.mu.Unlock()
			s.emit(ListenerEvent{ID: from, Connected: true, At: time.Now()})
		})
	})

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		switch state {
		case pion.PeerConnectionStateFailed, pion.PeerConnectionStateClosed, pion.PeerConnectionStateDisconnected:
			if s.drop(from, l) {
				s.emit(ListenerEvent{ID: from, Connected: false, At: time.Now()})
			}
		}
	})

	if err := l.setRemote(offer); err != nil {
		s.drop(from, l)
		return err
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		s.drop(from, l)
		return NewError("create answer", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		s.drop(from, l)
		return NewError("set local description", err)
	}

	return s.sig.Signal(s.roomID, from, SignalPayload{SDP: pc.LocalDescription()})
}

// drop removes l if it is still the current connection for id.
func (s *Speaker) drop(id string, l *listenerConn) bool {
	s.mu.Lock()
	current := s.listeners[id] == l
	if current {
		delete(s.listeners, id)
	}
	s.mu.Unlock()

	if current {
		go l.close()
	}
	return current
}

func (s *Speaker) emit(ev ListenerEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

// Broadcast sends text to every listener with an open channel and returns how
// many accepted it.
func (s *Speaker) Broadcast(text string) (int, error) {
	return s.send(Frame{Kind: FrameLine, Text: text})
}

func (s *Speaker) send(f Frame) (int, error) {
	s.mu.Lock()
	s.seq++
	f.Seq = s.seq
	f.SentAt = time.Now().UnixMilli()
	targets := make([]*pion.DataChannel, 0, len(s.listeners))
	for _, l := range s.listeners {
		if l.dc != nil {
			targets = append(targets, l.dc)
		}
	}
	s.mu.Unlock()

	data, err := EncodeFrame(f)
	if err != nil {
		return 0, NewError("encode frame", err)
	}

	delivered := 0
	for _, dc := range targets {
		if dc.ReadyState() != pion.DataChannelStateOpen {
			continue
		}
		if err := dc.Send(data); err != nil {
			slog.Debug("data channel send failed", "label", dc.Label(), "error", err)
			continue
		}
		delivered++
	}

	s.mu.Lock()
	if f.Kind == FrameLine {
		s.sent++
	}
	s.mu.Unlock()
	return delivered, nil
}

// Listeners returns the ids of listeners whose channel is open, sorted.
func (s *Speaker) Listeners() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.listeners))
	for id, l := range s.listeners {
		if l.dc != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Sent returns how many lines have been broadcast.
func (s *Speaker) Sent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// Close says goodbye to every listener and closes their connections.
func (s *Speaker) Close() {
	s.send(Frame{Kind: FrameBye})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	listeners := s.listeners
	s.listeners = make(map[string]*listenerConn)
	s.mu.Unlock()

	for _, l := range listeners {
		l.close()
	}
}
