// Package metrics keeps in-process event counters for the relay.
package metrics

import "sync"

// Counter names.
const (
	ConnectionsOpened = "connections_opened"
	ConnectionsClosed = "connections_closed"
	RoomsCreated      = "rooms_created"
	RoomsEnded        = "rooms_ended"
	Joins             = "joins"
	JoinsRejected     = "joins_rejected"
	SignalsRelayed    = "signals_relayed"
	DeliveryDropped   = "delivery_dropped"
	MalformedDropped  = "malformed_dropped"
)

// Metrics is a concurrency-safe counter registry. A nil *Metrics discards everything.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	m.Add(name, 1)
}

func (m *Metrics) Add(name string, n uint64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.m[name] += n
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() map[string]uint64 {
	out := make(map[string]uint64)
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
