package signaling

import (
	"sync"
	"time"
)

// Registry is the authoritative map of live rooms. Every method runs as a single
// critical section, so check-and-insert and snapshot-and-delete are atomic.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
	now   func() time.Time
}

// Stats is a registry-wide count of rooms and bound clients.
type Stats struct {
	Rooms   int `json:"rooms"`
	Members int `json:"members"`
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
		now:   time.Now,
	}
}

// CreateRoom opens roomID with speaker as its only member. It fails with
// ErrRoomExists, leaving the existing room untouched, when the id is taken.
func (r *Registry) CreateRoom(roomID string, speaker *Client, password string) (RoomInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; ok {
		return RoomInfo{}, ErrRoomExists
	}
	if id, _ := speaker.Binding(); id != "" {
		return RoomInfo{}, ErrAlreadyInRoom
	}

	rm := &room{
		id:        roomID,
		speakerID: speaker.ID,
		password:  password,
		members:   map[string]*Client{speaker.ID: speaker},
		createdAt: r.now(),
	}
	r.rooms[roomID] = rm
	speaker.bind(roomID, RoleSpeaker)

	return rm.info(), nil
}

// JoinRoom adds guest to roomID. A room with a password requires an exact match;
// an empty supplied password never matches.
func (r *Registry) JoinRoom(roomID string, guest *Client, password string) (RoomInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}
	if !rm.checkPassword(password) {
		return RoomInfo{}, ErrInvalidPassword
	}
	if id, _ := guest.Binding(); id != "" {
		return RoomInfo{}, ErrAlreadyInRoom
	}

	rm.members[guest.ID] = guest
	guest.bind(roomID, RoleGuest)

	return rm.info(), nil
}

// RemoveMember unbinds c from its room and returns the room as it is afterwards.
// It reports false when c was not bound to a live room.
func (r *Registry) RemoveMember(c *Client) (RoomInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.roomOf(c)
	if rm == nil {
		return RoomInfo{}, false
	}

	delete(rm.members, c.ID)
	c.unbind()

	return rm.info(), true
}

// EndRoom removes roomID and returns everyone who was a member, all unbound.
func (r *Registry) EndRoom(roomID string) ([]*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r.evict(rm), nil
}

// EndRoomBy ends roomID on behalf of requesterID, which must be the room's speaker.
func (r *Registry) EndRoomBy(roomID, requesterID string) ([]*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if rm.speakerID != requesterID {
		return nil, ErrNotSpeaker
	}
	return r.evict(rm), nil
}

// Departure describes what a transport close did to the registry.
type Departure struct {
	RoomID string
	// Ended is set when the departing client was the speaker.
	Ended bool
	// Evicted holds the remaining members of an ended room.
	Evicted []*Client
}

// Depart applies the transport-close transition for c in one step: a guest is
// removed and the room kept, a speaker is removed and the room ended.
func (r *Registry) Depart(c *Client) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.roomOf(c)
	if rm == nil {
		return Departure{}, false
	}

	delete(rm.members, c.ID)
	c.unbind()

	if rm.speakerID != c.ID {
		return Departure{RoomID: rm.id}, true
	}
	return Departure{RoomID: rm.id, Ended: true, Evicted: r.evict(rm)}, true
}

// Recipients resolves the delivery set for a signal from senderID in roomID.
// A non-empty to selects that member alone. The sender must itself be a member.
func (r *Registry) Recipients(roomID, senderID, to string) ([]*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	if _, ok := rm.members[senderID]; !ok {
		return nil, false
	}

	if to != "" {
		target, ok := rm.members[to]
		if !ok {
			return nil, true
		}
		return []*Client{target}, true
	}

	recipients := make([]*Client, 0, len(rm.members))
	for id, c := range rm.members {
		if id != senderID {
			recipients = append(recipients, c)
		}
	}
	return recipients, true
}

// Lookup returns a snapshot of roomID.
func (r *Registry) Lookup(roomID string) (RoomInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return RoomInfo{}, false
	}
	return rm.info(), true
}

// Stats counts live rooms and their members.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{Rooms: len(r.rooms)}
	for _, rm := range r.rooms {
		s.Members += len(rm.members)
	}
	return s
}

// EndAll removes every room, returning each one's former members keyed by room id.
func (r *Registry) EndAll() map[string][]*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	ended := make(map[string][]*Client, len(r.rooms))
	for id, rm := range r.rooms {
		ended[id] = r.evict(rm)
	}
	return ended
}

// roomOf finds the live room c is bound to. Caller holds r.mu.
func (r *Registry) roomOf(c *Client) *room {
	roomID, _ := c.Binding()
	if roomID == "" {
		return nil
	}
	rm, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	if _, member := rm.members[c.ID]; !member {
		return nil
	}
	return rm
}

// evict deletes rm and unbinds its members. Caller holds r.mu.
func (r *Registry) evict(rm *room) []*Client {
	members := rm.snapshot()
	for _, c := range members {
		c.unbind()
	}
	delete(r.rooms, rm.id)
	return members
}
