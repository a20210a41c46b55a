package signaling

import (
	"github.com/BioHazard786/onair/internal/metrics"
	"github.com/BioHazard786/onair/internal/protocol"
)

// relay fans encoded frames out to clients. Delivery is fire-and-forget: a client
// whose buffer is full or closed loses that frame and nothing else notices.
type relay struct {
	metrics *metrics.Metrics
}

// deliver queues one frame for c and reports whether it was accepted.
func (rl relay) deliver(c *Client, frame []byte) bool {
	if c.Send(frame) {
		return true
	}
	rl.metrics.Inc(metrics.DeliveryDropped)
	return false
}

// fanOut queues frame for every recipient and returns how many accepted it.
func (rl relay) fanOut(recipients []*Client, frame []byte) int {
	delivered := 0
	for _, c := range recipients {
		if rl.deliver(c, frame) {
			delivered++
		}
	}
	return delivered
}

// teardown notifies each former member that roomID ended, then closes it.
// Members are handled independently.
func (rl relay) teardown(roomID string, members []*Client) {
	frame, err := protocol.Encode(protocol.RoomEnded{RoomID: roomID})
	if err != nil {
		return
	}
	for _, c := range members {
		rl.deliver(c, frame)
		c.Close()
	}
}
