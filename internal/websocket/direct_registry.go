package websocket

import (
	"sync"

	"ai-meeting/pkg/logger"
)

// DirectRegistry tracks which connections belong to which user for direct
// messages. A user may hold several connections at once (multiple tabs or
// devices); each delivery fans out to all of them.
//
// Invariant: a user has an entry iff its connection set is non-empty, so
// "is this user online" is a plain existence check.
type DirectRegistry struct {
	mu    sync.RWMutex
	conns map[int]map[*Client]bool
}

func NewDirectRegistry() *DirectRegistry {
	return &DirectRegistry{
		conns: make(map[int]map[*Client]bool),
	}
}

func (r *DirectRegistry) Register(userID int, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[*Client]bool)
		r.conns[userID] = set
	}
	set[c] = true
}

// Unregister is a no-op if the user or connection is absent, so disconnect
// cleanup stays safe under races with delivery.
func (r *DirectRegistry) Unregister(userID int, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, userID)
	}
}

// Deliver sends payload to every live connection of userID. An offline target
// is a silent no-op: there is no offline mailbox for direct messages. The
// target set is snapshotted under the lock and sends happen outside it.
func (r *DirectRegistry) Deliver(userID int, payload []byte) {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.conns[userID]))
	for c := range r.conns[userID] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(payload) {
			logger.Error("Dropping direct message for user %d: send queue full", userID)
		}
	}
}

func (r *DirectRegistry) IsOnline(userID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conns[userID]
	return ok
}
