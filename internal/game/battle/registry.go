package battle

import (
	"sort"
	"sync"
)

// Registry tracks the battles running in one process by ID.
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	battles map[string]*Manager
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{battles: make(map[string]*Manager)}
}

// Add registers m under its ID and returns that ID.
//
// Precondition: m must be non-nil.
// Postcondition: Get(m.ID()) returns m.
func (r *Registry) Add(m *Manager) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.battles[m.ID()] = m
	return m.ID()
}

// Get returns the battle with the given ID.
func (r *Registry) Get(id string) (*Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.battles[id]
	return m, ok
}

// Remove drops the battle with the given ID. Removing an unknown ID is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.battles, id)
}

// Len returns the number of registered battles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.battles)
}

// Sweep removes every battle that has reached a terminal phase.
//
// Postcondition: returns the removed IDs in sorted order.
func (r *Registry) Sweep() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var done []string
	for id, m := range r.battles {
		if m.Phase().Terminal() {
			done = append(done, id)
			delete(r.battles, id)
		}
	}
	sort.Strings(done)
	return done
}
