package server

import (
	"errors"
	"sync"
)

// ErrNameTaken is returned by Reserve when another live connection holds the name.
var ErrNameTaken = errors.New("username is taken")

// NameRegistry is the process-wide set of display names in use. Names are
// compared exactly and case-sensitively.
type NameRegistry struct {
	mu    sync.Mutex
	names map[string]struct{}
}

func NewNameRegistry() *NameRegistry {
	return &NameRegistry{names: make(map[string]struct{})}
}

// Reserve atomically claims name.
func (r *NameRegistry) Reserve(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.names[name]; taken {
		return ErrNameTaken
	}
	r.names[name] = struct{}{}
	return nil
}

// Release frees name. Releasing an unknown name is a no-op.
func (r *NameRegistry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.names, name)
}

// Len returns the number of reserved names.
func (r *NameRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}
