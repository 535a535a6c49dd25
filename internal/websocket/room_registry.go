package websocket

import (
	"sync"

	"ai-meeting/pkg/logger"
)

// RoomRegistry tracks meeting membership: room code -> user -> the single live
// connection that user is reachable on in that room. The registry, not the
// database, is authoritative for who is live right now.
//
// Invariant: a room has an entry iff its member map is non-empty.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[int]*Client
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]map[int]*Client),
	}
}

// Join inserts or overwrites the mapping for userID in room. Overwriting is
// reconnect semantics: the superseded client is returned to the caller, which
// decides how to close it. The registry never closes connections itself.
func (r *RoomRegistry) Join(room string, userID int, c *Client) (replaced *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[int]*Client)
		r.rooms[room] = members
	}
	replaced = members[userID]
	members[userID] = c
	return replaced
}

// Leave removes userID from room. When c is non-nil the mapping is only
// removed if it still points at c, so a superseded connection's cleanup cannot
// evict its replacement. Returns whether a mapping was removed.
func (r *RoomRegistry) Leave(room string, userID int, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	current, ok := members[userID]
	if !ok {
		return false
	}
	if c != nil && current != c {
		return false
	}

	delete(members, userID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	return true
}

// Members returns a snapshot of the user IDs currently live in room.
func (r *RoomRegistry) Members(room string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.rooms[room]))
	for userID := range r.rooms[room] {
		ids = append(ids, userID)
	}
	return ids
}

// BroadcastExcept delivers payload to every member of room other than
// senderID. Absent rooms are a silent no-op. Membership is snapshotted under
// the lock; sends happen outside it, and a failure on one connection does not
// affect the others.
func (r *RoomRegistry) BroadcastExcept(room string, senderID int, payload []byte) {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.rooms[room]))
	for userID, c := range r.rooms[room] {
		if userID != senderID {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(payload) {
			logger.Error("Dropping broadcast frame in room %s for user %d: send queue full", room, c.userID)
		}
	}
}

// SendToMember delivers payload to exactly one member of room; silent no-op if
// the room or the member is absent.
func (r *RoomRegistry) SendToMember(room string, userID int, payload []byte) {
	r.mu.RLock()
	c := r.rooms[room][userID]
	r.mu.RUnlock()

	if c == nil {
		return
	}
	if !c.enqueue(payload) {
		logger.Error("Dropping targeted frame in room %s for user %d: send queue full", room, userID)
	}
}
