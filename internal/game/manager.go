package game

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-arcade-bot/internal/pkg/lock"
	"telegram-arcade-bot/internal/session"
)

// Verb is a chat command routed through Dispatch.
type Verb string

const (
	VerbStart  Verb = "start"
	VerbSubmit Verb = "submit"
	VerbHint   Verb = "hint"
	VerbStop   Verb = "stop"
	VerbStatus Verb = "status"
)

// Command is the per-message tuple consumed from the chat transport.
type Command struct {
	Owner   string
	Kind    session.Kind
	Verb    Verb
	Payload string // raw trailing text: difficulty, guess, bet amount, skill name
}

// Manager orchestrates the engines: it routes a command to the right engine,
// consults and updates the session registry, and returns a renderable result.
//
// All session mutation for one (owner, kind) pair is serialized through the
// keyed lock, so concurrent commands from the same player cannot interleave
// inside a session.
type Manager struct {
	engines   *Registry
	sessions  *session.Registry
	locks     *lock.KeyedLock
	exclusive bool

	// onExpired receives terminal summaries for sessions whose expiry was
	// detected lazily while a different command was being processed.
	onExpired func(*Result, session.Session)
}

// NewManager creates a manager over the given engine and session registries.
// When exclusive is true a player may only run one game kind at a time.
func NewManager(engines *Registry, sessions *session.Registry, locks *lock.KeyedLock, exclusive bool) *Manager {
	return &Manager{
		engines:   engines,
		sessions:  sessions,
		locks:     locks,
		exclusive: exclusive,
	}
}

// SetExpiryNotifier installs the callback for lazily-detected expiries.
// The sweep path delivers its summaries through SweepExpired instead.
func (m *Manager) SetExpiryNotifier(fn func(*Result, session.Session)) {
	m.onExpired = fn
}

func lockKey(owner string, kind session.Kind) string {
	return owner + "/" + string(kind)
}

// Dispatch routes a command tuple to the matching typed operation.
func (m *Manager) Dispatch(ctx context.Context, cmd Command) (*Result, error) {
	switch cmd.Verb {
	case VerbStart:
		return m.Start(ctx, cmd.Owner, cmd.Kind, cmd.Payload)
	case VerbSubmit:
		return m.Submit(ctx, cmd.Owner, cmd.Kind, cmd.Payload)
	case VerbHint:
		return m.Hint(ctx, cmd.Owner, cmd.Kind)
	case VerbStop:
		return m.Stop(ctx, cmd.Owner, cmd.Kind)
	case VerbStatus:
		return m.Status(cmd.Owner, cmd.Kind)
	default:
		return nil, fmt.Errorf("%w: verb %q", ErrInvalidInput, cmd.Verb)
	}
}

// Start creates a new session of the given kind for owner. A live session of
// the same kind is rejected with ErrAlreadyActive and its current prompt; an
// expired one is summarized through the expiry notifier and replaced.
func (m *Manager) Start(ctx context.Context, owner string, kind session.Kind, arg string) (*Result, error) {
	engine, ok := m.engines.Get(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	key := lockKey(owner, kind)
	m.locks.Lock(key)
	defer m.locks.Unlock(key)

	if existing, live := m.lazyExpire(owner, kind, engine); live {
		res := engine.Status(existing)
		return res, fmt.Errorf("%w: %s", ErrAlreadyActive, kind)
	}

	if m.exclusive {
		for _, other := range m.sessions.ActiveKinds(owner) {
			if other == kind {
				continue
			}
			// Carry the blocking session's prompt so the chat layer can
			// show the player what they are in the middle of.
			res := &Result{Text: fmt.Sprintf("You have a %s game running.", other)}
			if otherEngine, ok := m.engines.Get(other); ok {
				if existing, ok := m.sessions.Get(owner, other); ok {
					res = otherEngine.Status(existing)
				}
			}
			return res, fmt.Errorf("%w: finish your %s game first", ErrAlreadyActive, other)
		}
	}

	s, res, err := engine.Start(ctx, owner, arg)
	if err != nil {
		return nil, err
	}

	if err := m.sessions.Put(owner, kind, s, false); err != nil {
		if existing, ok := m.sessions.Get(owner, kind); ok {
			return engine.Status(existing), fmt.Errorf("%w: %s", ErrAlreadyActive, kind)
		}
		return nil, err
	}

	log.Debug().Str("owner", owner).Str("kind", string(kind)).Msg("Session started")
	return res, nil
}

// Submit processes the player's input against their live session of kind.
// When the session turns out to be expired, the terminal summary is returned
// together with ErrSessionExpired so the timeout is never silently dropped.
func (m *Manager) Submit(ctx context.Context, owner string, kind session.Kind, input string) (*Result, error) {
	return m.mutate(kind, owner, func(engine Engine, s session.Session) (*Result, error) {
		return engine.Submit(ctx, s, input)
	})
}

// Hint consumes one hint on the live session of kind.
func (m *Manager) Hint(ctx context.Context, owner string, kind session.Kind) (*Result, error) {
	return m.mutate(kind, owner, func(engine Engine, s session.Session) (*Result, error) {
		return engine.Hint(ctx, s)
	})
}

// Stop ends the live session of kind and returns its terminal summary.
func (m *Manager) Stop(ctx context.Context, owner string, kind session.Kind) (*Result, error) {
	return m.mutate(kind, owner, func(engine Engine, s session.Session) (*Result, error) {
		return engine.Stop(ctx, s)
	})
}

// Status renders the current prompt of the live session of kind.
func (m *Manager) Status(owner string, kind session.Kind) (*Result, error) {
	return m.mutate(kind, owner, func(engine Engine, s session.Session) (*Result, error) {
		return engine.Status(s), nil
	})
}

// Active returns the kinds with a live session for owner.
func (m *Manager) Active(owner string) []session.Kind {
	return m.sessions.ActiveKinds(owner)
}

// Engines returns the engine registry, for listing available games.
func (m *Manager) Engines() *Registry {
	return m.engines
}

// SweepExpired removes every session whose deadline passed at now and hands
// each terminal summary to notify. Removal happens under the same keyed lock
// that serializes commands, with the deadline re-checked after acquiring it:
// a session refreshed by a racing command survives, and a session a racing
// command already expired lazily is not summarized a second time.
func (m *Manager) SweepExpired(now time.Time, notify func(*Result, session.Session)) int {
	swept := 0
	for _, candidate := range m.sessions.ExpiredSessions(now) {
		owner, kind := candidate.Owner(), candidate.Kind()

		key := lockKey(owner, kind)
		m.locks.Lock(key)

		s, ok := m.sessions.Get(owner, kind)
		if !ok || !session.Expired(s, now) {
			m.locks.Unlock(key)
			continue
		}
		m.sessions.Remove(owner, kind)

		res := &Result{Text: "Game over.", Done: true}
		if engine, ok := m.engines.Get(kind); ok {
			res = engine.Expire(s)
		}
		m.locks.Unlock(key)

		if notify != nil {
			notify(res, s)
		}
		swept++
	}
	return swept
}

// mutate runs op against the live session of (owner, kind) under the keyed
// lock, removing the session when the result is terminal.
func (m *Manager) mutate(kind session.Kind, owner string, op func(Engine, session.Session) (*Result, error)) (*Result, error) {
	engine, ok := m.engines.Get(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	key := lockKey(owner, kind)
	m.locks.Lock(key)
	defer m.locks.Unlock(key)

	s, exists := m.sessions.Get(owner, kind)
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoActiveSession, kind)
	}

	if session.Expired(s, time.Now()) {
		m.sessions.Remove(owner, kind)
		res := engine.Expire(s)
		return res, fmt.Errorf("%w: %s", ErrSessionExpired, kind)
	}

	res, err := op(engine, s)
	if err != nil {
		return nil, err
	}

	if res.Done {
		m.sessions.Remove(owner, kind)
		log.Debug().Str("owner", owner).Str("kind", string(kind)).Msg("Session ended")
	}
	return res, nil
}

// lazyExpire checks owner's existing session of kind. An expired one is
// removed and summarized through the notifier; the second return value
// reports whether a live session remains.
func (m *Manager) lazyExpire(owner string, kind session.Kind, engine Engine) (session.Session, bool) {
	s, exists := m.sessions.Get(owner, kind)
	if !exists {
		return nil, false
	}

	if session.Expired(s, time.Now()) {
		m.sessions.Remove(owner, kind)
		res := engine.Expire(s)
		if m.onExpired != nil {
			m.onExpired(res, s)
		}
		return nil, false
	}

	return s, true
}
