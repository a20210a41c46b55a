package signaling

import (
	"crypto/subtle"
	"sort"
	"time"
)

// room is the registry's private record. Nothing outside the registry holds one.
type room struct {
	id        string
	speakerID string
	password  string
	members   map[string]*Client
	createdAt time.Time
}

func (r *room) checkPassword(supplied string) bool {
	if r.password == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(r.password), []byte(supplied)) == 1
}

func (r *room) snapshot() []*Client {
	clients := make([]*Client, 0, len(r.members))
	for _, c := range r.members {
		clients = append(clients, c)
	}
	return clients
}

func (r *room) info() RoomInfo {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return RoomInfo{
		ID:          r.id,
		SpeakerID:   r.speakerID,
		HasPassword: r.password != "",
		Members:     ids,
		CreatedAt:   r.createdAt,
	}
}

// RoomInfo is a point-in-time copy of a room's state.
type RoomInfo struct {
	ID          string    `json:"roomId"`
	SpeakerID   string    `json:"speakerId"`
	HasPassword bool      `json:"hasPassword"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasMember reports whether id was a member when the snapshot was taken.
func (ri RoomInfo) HasMember(id string) bool {
	i := sort.SearchStrings(ri.Members, id)
	return i < len(ri.Members) && ri.Members[i] == id
}
