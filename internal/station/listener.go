package station

import (
	"encoding/json"
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/onair/internal/config"
)

// Listener offers a data channel to the room's speaker and receives its frames.
type Listener struct {
	sig       Signaler
	roomID    string
	speakerID string
	peer      *peer
	dc        *pion.DataChannel

	frames chan Frame
	ready  chan struct{}
	done   chan struct{}

	readyOnce sync.Once
	doneOnce  sync.Once
}

// NewListener prepares a peer connection toward speakerID. Call Start to send the offer.
func NewListener(api *pion.API, cfg *config.Config, sig Signaler, roomID, speakerID string) (*Listener, error) {
	pc, err := NewPeerConnection(api, cfg)
	if err != nil {
		return nil, err
	}

	ordered := true
	dc, err := pc.CreateDataChannel(DataChannelLabel, &pion.DataChannelInit{Ordered: &ordered})
	if err != nil {
		pc.Close()
		return nil, NewError("create data channel", err)
	}

	l := &Listener{
		sig:       sig,
		roomID:    roomID,
		speakerID: speakerID,
		peer:      newPeer(speakerID, pc),
		dc:        dc,
		frames:    make(chan Frame, 64),
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}

	l.peer.trickle(sig, roomID)

	dc.OnOpen(func() {
		l.readyOnce.Do(func() { close(l.ready) })
	})
	dc.OnClose(l.finish)
	dc.OnMessage(func(msg pion.DataChannelMessage) {
		f, err := DecodeFrame(msg.Data)
		if err != nil {
			slog.Debug("dropping undecodable frame", "bytes", len(msg.Data), "error", err)
			return
		}
		if f.Kind == FrameBye {
			l.finish()
			return
		}
		select {
		case l.frames <- f:
		case <-l.done:
		}
	})

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		switch state {
		case pion.PeerConnectionStateFailed, pion.PeerConnectionStateClosed, pion.PeerConnectionStateDisconnected:
			l.finish()
		}
	})

	return l, nil
}

// Start creates the offer and sends it to the speaker.
func (l *Listener) Start() error {
	pc := l.peer.pc
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return NewError("create offer", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return NewError("set local description", err)
	}
	return l.sig.Signal(l.roomID, l.speakerID, SignalPayload{SDP: pc.LocalDescription()})
}

// HandleSignal processes a payload relayed from from. Anything not sent by the
// speaker is ignored.
func (l *Listener) HandleSignal(from string, raw json.RawMessage) error {
	if from != l.speakerID {
		return nil
	}

	payload, err := DecodeSignal(raw)
	if err != nil {
		return err
	}

	switch {
	case payload.SDP != nil:
		if payload.SDP.Type != pion.SDPTypeAnswer {
			return WrapError("handle signal", ErrUnexpectedSignal, payload.SDP.Type.String())
		}
		return l.peer.setRemote(*payload.SDP)
	case payload.Candidate != nil:
		return l.peer.addCandidate(*payload.Candidate)
	}
	return nil
}

// Frames delivers the speaker's lines in order.
func (l *Listener) Frames() <-chan Frame {
	return l.frames
}

// Ready is closed once the data channel is open.
func (l *Listener) Ready() <-chan struct{} {
	return l.ready
}

// Done is closed when the speaker says goodbye or the connection goes away.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

func (l *Listener) finish() {
	l.doneOnce.Do(func() { close(l.done) })
}

// Close tears the peer connection down.
func (l *Listener) Close() {
	l.finish()
	l.peer.close()
}
