// Package predicates provides a concurrency-safe collection of named
// condition predicates. Hosts assemble one registry at startup and share a
// snapshot across every engine they build.
package predicates

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tmarche/fabula/pkg/domain"
)

// Registry manages named predicates.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]domain.Predicate
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]domain.Predicate),
	}
}

// Register adds a predicate under name.
// If a predicate with the same name exists, it is overwritten.
func (r *Registry) Register(name string, p domain.Predicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = p
}

// Evaluate looks up a predicate by name and runs it against the flags.
// Returns an error if the predicate is not found.
func (r *Registry) Evaluate(name string, flags map[string]any) (bool, error) {
	r.mu.RLock()
	p, ok := r.funcs[name]
	r.mu.RUnlock()

	if !ok {
		return false, fmt.Errorf("predicate not found: %s", name)
	}

	return p(flags)
}

// Names lists the registered predicate names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the current contents, shaped for engine construction.
// Registrations after the snapshot do not reach engines built from it.
func (r *Registry) Snapshot() map[string]domain.Predicate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Predicate, len(r.funcs))
	for name, p := range r.funcs {
		out[name] = p
	}
	return out
}
