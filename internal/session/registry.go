package session

import (
	"sync"
	"time"
)

// Registry tracks every live connection regardless of which file, if any,
// it is viewing.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Add registers a fresh connection with the default identity and returns
// the live connection count including it.
func (r *Registry) Add(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &Connection{
		ID:       id,
		Username: DefaultUsername,
		JoinedAt: time.Now(),
	}
	return len(r.conns)
}

// Remove drops the connection and returns its final state.
func (r *Registry) Remove(id string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	delete(r.conns, id)
	return *c, true
}

// Get returns a copy of the connection entry.
func (r *Registry) Get(id string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// SetIdentity records the display name a client announced.
func (r *Registry) SetIdentity(id, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[id]; ok {
		c.Username = username
	}
}

// SetCurrentFile records which file the connection is viewing; empty
// clears it.
func (r *Registry) SetCurrentFile(id, filename string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[id]; ok {
		c.CurrentFile = filename
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
