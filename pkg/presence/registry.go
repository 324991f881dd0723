package presence

import (
	"sort"
	"sync"
)

// Registry maps user ids to their single live connection handle. It is the
// only mutable shared structure in the delivery core; all access goes
// through the four methods below.
//
// At most one handle is held per user: a new registration for the same user
// replaces the previous one, which models "logging in elsewhere steals
// deliverability" without touching the older socket. Unregister compares
// handle identity so a late disconnect of an already replaced connection
// leaves the newer entry alone.
type Registry[H comparable] struct {
	mu    sync.RWMutex
	conns map[string]H
}

func NewRegistry[H comparable]() *Registry[H] {
	return &Registry[H]{conns: make(map[string]H)}
}

// Register inserts or overwrites the entry for userID and returns the
// replaced handle, if any.
func (r *Registry[H]) Register(userID string, handle H) (prev H, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, replaced = r.conns[userID]
	r.conns[userID] = handle
	return prev, replaced
}

// Unregister removes the entry for userID only if the stored handle is the
// given one. It reports whether an entry was removed.
func (r *Registry[H]) Unregister(userID string, handle H) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[userID]; ok && cur == handle {
		delete(r.conns, userID)
		return true
	}
	return false
}

// Lookup returns the current handle for userID, if the user is reachable.
func (r *Registry[H]) Lookup(userID string) (H, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.conns[userID]
	return h, ok
}

// OnlineUserIDs returns a sorted snapshot of the users with a live handle.
func (r *Registry[H]) OnlineUserIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Len returns the number of registered users.
func (r *Registry[H]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
