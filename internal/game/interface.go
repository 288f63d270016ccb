// Package game defines the engine contract, the engine registry, and the
// manager that routes chat commands to the right engine. Adding a game means
// implementing the Engine interface and registering it under its kind.
package game

import (
	"context"

	"telegram-arcade-bot/internal/session"
)

// Result is what an engine hands back for rendering. The engine core never
// performs transport I/O; the chat layer formats and delivers Text.
type Result struct {
	// Text is the display string, already formatted with score/state.
	Text string

	// Attachment optionally references an image to send along with Text
	// (picture-guess rounds).
	Attachment string

	// Done reports that the session terminated with this result.
	Done bool

	// Score is the terminal summary, set exactly when Done is true and the
	// session produced a creditable outcome.
	Score *session.ScoreRecord
}

// Engine is the contract every game variant implements. All methods are
// synchronous and free of I/O; randomness comes from the injected rng.Source.
//
// Engines receive their own session values back from the registry and may
// assume the manager has serialized access per (owner, kind). A session of the
// wrong concrete type is a programming defect and is reported as
// ErrCorruptSession.
type Engine interface {
	// Kind returns the session kind this engine owns.
	Kind() session.Kind

	// Name returns the game's display name (e.g., "Arithmetic Quiz").
	Name() string

	// Description returns a one-line description for the games list.
	Description() string

	// Start creates a fresh session for owner. arg is the raw trailing text
	// of the start command: a difficulty name, a bet amount, a character
	// class. The returned Result is the opening prompt.
	Start(ctx context.Context, owner string, arg string) (session.Session, *Result, error)

	// Submit processes the player's raw input against their live session.
	Submit(ctx context.Context, s session.Session, input string) (*Result, error)

	// Hint consumes one hint if the game supports them, otherwise
	// ErrHintUnsupported.
	Hint(ctx context.Context, s session.Session) (*Result, error)

	// Stop ends the session on player request and produces the terminal
	// summary.
	Stop(ctx context.Context, s session.Session) (*Result, error)

	// Status renders the session's current prompt without mutating it.
	Status(s session.Session) *Result

	// Expire produces the terminal summary for a session removed by timeout.
	Expire(s session.Session) *Result
}
