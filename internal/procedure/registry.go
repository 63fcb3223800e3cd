package procedure

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknown is returned by Get for unregistered names.
var ErrUnknown = errors.New("unknown procedure")

// Registry maps procedure names to implementations.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu    sync.RWMutex
	procs map[string]Procedure
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[string]Procedure)}
}

// Builtins returns a registry holding every built-in procedure.
func Builtins() *Registry {
	r := NewRegistry()
	r.Register(NewAncestors())
	r.Register(NewDescendants())
	r.Register(NewDSep())
	return r
}

// Register adds a procedure. Panics on duplicate names to surface
// misconfiguration early.
func (r *Registry) Register(p Procedure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.procs[p.Name()]; exists {
		panic(fmt.Sprintf("procedure registry: duplicate name %q", p.Name()))
	}
	r.procs[p.Name()] = p
}

// Get returns the procedure registered under name.
func (r *Registry) Get(name string) (Procedure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknown, name)
	}
	return p, nil
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.procs))
	for k := range r.procs {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
