// Package station runs the WebRTC side of a session: a speaker answering each
// listener's offer and broadcasting over data channels, and a listener receiving.
package station

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/transport/v3"
	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/onair/internal/config"
)

// DataChannelLabel names the channel a listener opens toward the speaker.
const DataChannelLabel = "onair"

// Signaler relays a negotiation payload to one member of a room.
type Signaler interface {
	Signal(roomID, to string, payload any) error
}

// SignalPayload is the body of a relayed signal: a session description or a
// trickled ICE candidate.
type SignalPayload struct {
	SDP       *pion.SessionDescription `json:"sdp,omitempty"`
	Candidate *pion.ICECandidateInit   `json:"candidate,omitempty"`
}

// DecodeSignal parses a relayed payload.
func DecodeSignal(raw json.RawMessage) (SignalPayload, error) {
	var p SignalPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return SignalPayload{}, WrapError("decode signal", ErrUnexpectedSignal, err.Error())
	}
	return p, nil
}

// Options tune how peer connections are built.
type Options struct {
	// Net replaces the host network, e.g. with a virtual one.
	Net transport.Net
	// LoggerFactory receives pion's internal logs. Defaults to errors on stderr.
	LoggerFactory logging.LoggerFactory
}

// NewAPI builds the pion API every peer connection in a session is created from.
func NewAPI(opts Options) *pion.API {
	se := pion.SettingEngine{}
	if opts.Net != nil {
		se.SetNet(opts.Net)
	}

	if opts.LoggerFactory != nil {
		se.LoggerFactory = opts.LoggerFactory
	} else {
		f := logging.NewDefaultLoggerFactory()
		f.DefaultLogLevel = logging.LogLevelError
		f.Writer = os.Stderr
		se.LoggerFactory = f
	}

	return pion.NewAPI(pion.WithSettingEngine(se))
}

// NewPeerConnection creates a peer connection using the configured ICE servers.
func NewPeerConnection(api *pion.API, cfg *config.Config) (*pion.PeerConnection, error) {
	var iceServers []pion.ICEServer
	if stun := cfg.GetSTUNServers(); stun != nil {
		iceServers = append(iceServers, pion.ICEServer{URLs: stun})
	}

	turnServers := cfg.GetTURNServers()
	if turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	policy := pion.ICETransportPolicyAll
	if turnServers != nil && (cfg.ForceRelay || behindTunnel()) {
		if !cfg.ForceRelay {
			slog.Debug("tunnel interface detected, forcing relay")
		}
		policy = pion.ICETransportPolicyRelay
	}

	pc, err := api.NewPeerConnection(pion.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}
	return pc, nil
}

// peer is one negotiated connection. Candidates that arrive before the remote
// description are held until it is set.
type peer struct {
	id string
	pc *pion.PeerConnection

	mu        sync.Mutex
	remoteSet bool
	pending   []pion.ICECandidateInit
}

func newPeer(id string, pc *pion.PeerConnection) *peer {
	return &peer{id: id, pc: pc}
}

// trickle forwards local candidates to the remote side as they are gathered.
func (p *peer) trickle(sig Signaler, roomID string) {
	p.pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		cand := c.ToJSON()
		if err := sig.Signal(roomID, p.id, SignalPayload{Candidate: &cand}); err != nil {
			slog.Debug("failed to send ICE candidate", "peer", p.id, "error", err)
		}
	})
}

func (p *peer) setRemote(desc pion.SessionDescription) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return NewError("set remote description", err)
	}
	p.remoteSet = true

	for _, c := range p.pending {
		if err := p.pc.AddICECandidate(c); err != nil {
			slog.Debug("dropping queued ICE candidate", "peer", p.id, "error", err)
		}
	}
	p.pending = nil
	return nil
}

func (p *peer) addCandidate(c pion.ICECandidateInit) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.remoteSet {
		p.pending = append(p.pending, c)
		return nil
	}
	if err := p.pc.AddICECandidate(c); err != nil {
		return NewError("add ICE candidate", err)
	}
	return nil
}

func (p *peer) close() {
	if err := p.pc.Close(); err != nil {
		slog.Debug("closing peer connection", "peer", p.id, "error", err)
	}
}
