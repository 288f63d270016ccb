package game

import (
	"errors"

	"telegram-arcade-bot/internal/session"
)

// Error taxonomy for the engine core. All of these are recoverable at the
// manager boundary and translated into a user-facing message, except
// ErrCorruptSession which marks a programming defect rather than bad input.
var (
	// ErrNoActiveSession: submit/hint/stop with no live session of that kind.
	ErrNoActiveSession = errors.New("no active session")

	// ErrAlreadyActive: start while a session of that kind is live.
	ErrAlreadyActive = session.ErrAlreadyActive

	// ErrUnknownKind: a command referenced a kind with no registered engine.
	ErrUnknownKind = errors.New("unknown game kind")

	// ErrInvalidDifficulty: start with an unrecognized difficulty/parameter.
	ErrInvalidDifficulty = errors.New("invalid difficulty")

	// ErrInvalidInput: submit payload that doesn't parse as an expected
	// letter/number/word. The session is unchanged and no attempt consumed.
	ErrInvalidInput = errors.New("input not understood")

	// ErrInsufficientResource: balance too low, no healing item, hints spent.
	ErrInsufficientResource = errors.New("insufficient resource")

	// ErrSessionExpired: the session's deadline passed before the command.
	// Surfaced together with the terminal summary, never silently dropped.
	ErrSessionExpired = errors.New("session expired")

	// ErrHintUnsupported: the game has no hint mechanic.
	ErrHintUnsupported = errors.New("game has no hints")

	// ErrCorruptSession: an engine received a session payload of the wrong
	// shape. Distinct from user-input errors so tests can tell them apart.
	ErrCorruptSession = errors.New("corrupt session state")
)
