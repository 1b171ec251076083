package chat

import (
	"sync"
)

// Registry is the in-memory userID -> live session map, the source of
// truth for "is this user currently reachable". At most one session per
// user: a reconnect overwrites, and Register hands the superseded client
// back so the caller can close it instead of leaking the handle.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]*Client)}
}

func (r *Registry) Register(userID string, c *Client) (prev *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev = r.byUser[userID]
	r.byUser[userID] = c
	if prev == c {
		return nil
	}
	return prev
}

// Unregister removes the mapping only while c is still the current
// session, so the delayed teardown of a superseded connection cannot evict
// its replacement. Reports whether the entry was removed.
func (r *Registry) Unregister(userID string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byUser[userID]; ok && cur == c {
		delete(r.byUser, userID)
		return true
	}
	return false
}

func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

func (r *Registry) ListOnline() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	return out
}
