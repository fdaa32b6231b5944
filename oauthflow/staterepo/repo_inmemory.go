package staterepo

import (
	"errors"
	"sync"
	"time"
)

// ErrStateNotFound is returned by Get for unknown or consumed states.
var ErrStateNotFound = errors.New("state not found")

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*Entry
}

// NewInMemoryRepo creates a new in-memory state repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]*Entry),
	}
}

// Upsert stores or updates a state entry
func (r *InMemoryRepo) Upsert(state string, entry *Entry) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if entry == nil {
		return errors.New("entry cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to prevent external modifications
	e := *entry
	r.states[state] = &e
	return nil
}

// Get retrieves a state entry
func (r *InMemoryRepo) Get(state string) (*Entry, error) {
	if state == "" {
		return nil, ErrStateNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.states[state]
	if !exists {
		return nil, ErrStateNotFound
	}
	e := *entry
	return &e, nil
}

// Delete removes a state entry
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

func (r *InMemoryRepo) DeleteExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	swept := 0
	for state, entry := range r.states {
		if entry.Expired(now) {
			delete(r.states, state)
			swept++
		}
	}
	return swept
}

// Len returns the number of live entries.
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}
