package session

import (
	"errors"
	"sync"
	"time"
)

// ErrAlreadyActive is returned by Put when a live session of the same kind
// exists for the owner and overwrite was not requested.
var ErrAlreadyActive = errors.New("session already active")

type registryKey struct {
	owner string
	kind  Kind
}

// Registry manages the live sessions, keyed by (owner, kind).
// It is safe for concurrent use; all mutation goes through Get/Put/Remove.
type Registry struct {
	mu       sync.RWMutex
	sessions map[registryKey]Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[registryKey]Session),
	}
}

// Get retrieves the live session for (owner, kind).
// Expiry is not checked here; callers decide how to surface expired sessions.
func (r *Registry) Get(owner string, kind Kind) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[registryKey{owner, kind}]
	return s, ok
}

// Put stores a session for (owner, kind). It fails with ErrAlreadyActive if
// one exists and overwrite is false.
func (r *Registry) Put(owner string, kind Kind, s Session, overwrite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := registryKey{owner, kind}
	if _, exists := r.sessions[k]; exists && !overwrite {
		return ErrAlreadyActive
	}
	r.sessions[k] = s
	return nil
}

// Remove deletes and returns the session for (owner, kind).
func (r *Registry) Remove(owner string, kind Kind) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := registryKey{owner, kind}
	s, ok := r.sessions[k]
	if ok {
		delete(r.sessions, k)
	}
	return s, ok
}

// ActiveKinds returns the kinds with a live session for the owner.
func (r *Registry) ActiveKinds(owner string) []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var kinds []Kind
	for _, k := range AllKinds() {
		if _, ok := r.sessions[registryKey{owner, k}]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ExpiredSessions returns the sessions whose deadline has passed at now.
// Nothing is removed: callers re-check and remove under their own
// serialization, so a session refreshed between scan and removal survives.
func (r *Registry) ExpiredSessions(now time.Time) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []Session
	for _, s := range r.sessions {
		if Expired(s, now) {
			expired = append(expired, s)
		}
	}
	return expired
}
