package game

import (
	"fmt"
	"sync"

	"telegram-arcade-bot/internal/session"
)

// Registry manages engine registration and lookup, keyed by session kind.
// It is the dispatch table the manager consults instead of branching per game.
type Registry struct {
	engines map[session.Kind]Engine
	mu      sync.RWMutex
}

// NewRegistry creates an empty engine registry.
func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[session.Kind]Engine),
	}
}

// Register adds an engine under its kind. Registering a second engine for the
// same kind replaces the first.
func (r *Registry) Register(e Engine) error {
	if e == nil {
		return fmt.Errorf("cannot register nil engine")
	}
	if !e.Kind().Valid() {
		return fmt.Errorf("engine kind %q is not a known game kind", e.Kind())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.Kind()] = e
	return nil
}

// Get retrieves the engine for a kind.
func (r *Registry) Get(kind session.Kind) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[kind]
	return e, ok
}

// List returns all registered engines in kind display order.
func (r *Registry) List() []Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	engines := make([]Engine, 0, len(r.engines))
	for _, kind := range session.AllKinds() {
		if e, ok := r.engines[kind]; ok {
			engines = append(engines, e)
		}
	}
	return engines
}

// Kinds returns the kinds with a registered engine.
func (r *Registry) Kinds() []session.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]session.Kind, 0, len(r.engines))
	for _, kind := range session.AllKinds() {
		if _, ok := r.engines[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Count returns the number of registered engines.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}
