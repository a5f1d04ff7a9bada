package llm

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a thread-safe mapping from participant id to Provider. The
// binding happens once, when the debate is configured; stages never inspect
// model names to pick a transport.
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register binds a participant id to a provider. An existing binding for
// the same id is replaced.
func (r *Registry) Register(participantID string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[participantID] = p
}

// Get retrieves the provider bound to a participant.
func (r *Registry) Get(participantID string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[participantID]
	return p, ok
}

// Participants returns the sorted ids of all bound participants.
func (r *Registry) Participants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of bound participants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// Unregister removes a participant binding. Returns an error if the id is
// not bound.
func (r *Registry) Unregister(participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[participantID]; !ok {
		return fmt.Errorf("participant %q not registered", participantID)
	}
	delete(r.providers, participantID)
	return nil
}
