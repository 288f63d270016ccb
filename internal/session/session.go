// Package session holds the live set of game sessions and their lifecycle
// bookkeeping. The registry is the only shared mutable structure in the engine
// core; engines never reach into another engine's session state.
package session

import (
	"time"
)

// Kind identifies a game variant. Exactly one session per (owner, kind) may be
// live at any time.
type Kind string

const (
	KindMathQuiz     Kind = "mathquiz"
	KindWordGuess    Kind = "wordguess"
	KindPictureGuess Kind = "pictureguess"
	KindSlots        Kind = "slots"
	KindBattle       Kind = "battle"
)

// AllKinds returns every known game kind in display order.
func AllKinds() []Kind {
	return []Kind{KindMathQuiz, KindWordGuess, KindPictureGuess, KindSlots, KindBattle}
}

// Valid reports whether k is a known game kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMathQuiz, KindWordGuess, KindPictureGuess, KindSlots, KindBattle:
		return true
	}
	return false
}

// Session is the opaque handle the registry stores per (owner, kind). Concrete
// session shapes live in the engine packages.
type Session interface {
	Owner() string
	Kind() Kind
	CreatedAt() time.Time
	LastActivityAt() time.Time

	// Deadline is the absolute time after which the session counts as
	// abandoned. A zero deadline means the session never expires by timeout.
	Deadline() time.Time
}

// Base carries the lifecycle fields shared by all concrete sessions. Engine
// session structs embed it and refresh the deadline only on the events their
// rules define.
type Base struct {
	OwnerID  string
	GameKind Kind
	Created  time.Time
	Activity time.Time
	Expiry   time.Time
}

// NewBase initializes lifecycle fields for a session created at now. A zero
// ttl produces a session exempt from timeout expiry.
func NewBase(owner string, kind Kind, now time.Time, ttl time.Duration) Base {
	b := Base{
		OwnerID:  owner,
		GameKind: kind,
		Created:  now,
		Activity: now,
	}
	if ttl > 0 {
		b.Expiry = now.Add(ttl)
	}
	return b
}

func (b *Base) Owner() string             { return b.OwnerID }
func (b *Base) Kind() Kind                { return b.GameKind }
func (b *Base) CreatedAt() time.Time      { return b.Created }
func (b *Base) LastActivityAt() time.Time { return b.Activity }
func (b *Base) Deadline() time.Time       { return b.Expiry }

// Touch records activity at now without moving the deadline.
func (b *Base) Touch(now time.Time) {
	b.Activity = now
}

// ResetDeadline records activity and pushes the deadline ttl past now. Engines
// call this only on their defined refresh events.
func (b *Base) ResetDeadline(now time.Time, ttl time.Duration) {
	b.Activity = now
	if ttl > 0 {
		b.Expiry = now.Add(ttl)
	}
}

// Expired reports whether the session's deadline has passed at now.
func Expired(s Session, now time.Time) bool {
	d := s.Deadline()
	return !d.IsZero() && d.Before(now)
}

// EndReason describes why a session terminated.
type EndReason string

const (
	EndCompleted EndReason = "completed"
	EndStopped   EndReason = "stopped"
	EndExpired   EndReason = "expired"
)

// ScoreRecord is the terminal summary of a completed session, handed back to
// the caller for experience crediting. The engine core holds no persistent
// storage of its own.
type ScoreRecord struct {
	Owner     string
	Kind      Kind
	Score     int64
	Accuracy  float64 // correct answers / attempts, 0 when not applicable
	Attempts  int
	Duration  time.Duration
	MaxStreak int
	Level     int // battle sessions only
	Won       bool
	Reason    EndReason
}
