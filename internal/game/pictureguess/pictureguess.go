// Package pictureguess implements the picture guessing game: one image, one
// clue, whole-answer guesses only, three attempts.
package pictureguess

import (
	"context"
	"fmt"
	"strings"
	"time"

	"telegram-arcade-bot/internal/game"
	"telegram-arcade-bot/internal/rng"
	"telegram-arcade-bot/internal/session"
)

const (
	// MaxAttempts is the fixed attempt budget.
	MaxAttempts = 3

	// BaseScore is the score before attempt deductions.
	BaseScore = 100

	// AttemptCost is deducted per attempt used.
	AttemptCost = 20

	// TimeLimit is the idle deadline, refreshed on every consumed attempt.
	TimeLimit = 90 * time.Second
)

// puzzle is an image/answer/clue tuple. The image reference is handed to the
// chat layer as an attachment; the engine never fetches it.
type puzzle struct {
	Image  string
	Answer string // uppercase
	Clue   string
}

var puzzles = []puzzle{
	{"https://upload.wikimedia.org/wikipedia/commons/3/3a/Cat03.jpg", "CAT", "A common pet that purrs"},
	{"https://upload.wikimedia.org/wikipedia/commons/e/e9/Felis_silvestris_silvestris_small_gradual_decrease_of_quality.png", "WILDCAT", "Its domesticated cousin lives on your couch"},
	{"https://upload.wikimedia.org/wikipedia/commons/d/d9/Collage_of_Nine_Dogs.jpg", "DOG", "Man's best friend"},
	{"https://upload.wikimedia.org/wikipedia/commons/b/b6/Image_created_with_a_mobile_phone.png", "SUNSET", "The sky turns orange when this happens"},
	{"https://upload.wikimedia.org/wikipedia/commons/1/15/Red_Apple.jpg", "APPLE", "A fruit that comes in red and green"},
	{"https://upload.wikimedia.org/wikipedia/commons/4/45/Eopsaltria_australis_-_Mogo_Campground.jpg", "BIRD", "It sings from the trees at dawn"},
}

// Session is the live state of one picture-guess round.
type Session struct {
	session.Base
	Image    string
	Answer   string
	Clue     string
	Attempts int
}

// Engine implements game.Engine for the picture guess.
type Engine struct {
	src rng.Source
	now func() time.Time
}

// New creates a picture-guess engine drawing puzzles from src.
func New(src rng.Source) *Engine {
	return &Engine{src: src, now: time.Now}
}

// Kind returns the session kind this engine owns.
func (e *Engine) Kind() session.Kind {
	return session.KindPictureGuess
}

// Name returns the game's display name.
func (e *Engine) Name() string {
	return "Picture Guess"
}

// Description returns a one-line description for the games list.
func (e *Engine) Description() string {
	return "Guess what's in the picture. Three attempts, fewer tries means more points."
}

// Start draws a puzzle and returns its image and clue.
func (e *Engine) Start(ctx context.Context, owner string, arg string) (session.Session, *game.Result, error) {
	p := puzzles[e.src.Intn(len(puzzles))]
	now := e.now()
	s := &Session{
		Base:   session.NewBase(owner, session.KindPictureGuess, now, TimeLimit),
		Image:  p.Image,
		Answer: p.Answer,
		Clue:   p.Clue,
	}

	res := &game.Result{
		Text:       fmt.Sprintf("🖼 Picture Guess\n💡 Clue: %s\n\nWhat is it? You have %d attempts.", s.Clue, MaxAttempts),
		Attachment: s.Image,
	}
	return s, res, nil
}

// Submit compares the whole answer, case-insensitive and trimmed.
func (e *Engine) Submit(ctx context.Context, raw session.Session, input string) (*game.Result, error) {
	s, ok := raw.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: pictureguess got %T", game.ErrCorruptSession, raw)
	}

	guess := strings.ToUpper(strings.TrimSpace(input))
	if guess == "" {
		return nil, fmt.Errorf("%w: empty guess", game.ErrInvalidInput)
	}

	s.Attempts++

	if guess == s.Answer {
		score := int64(BaseScore - AttemptCost*(s.Attempts-1))
		if score < AttemptCost {
			score = AttemptCost
		}
		return e.finish(s, score, true, session.EndCompleted,
			fmt.Sprintf("🎉 Correct! It was %s.\n🏆 Score: %d", s.Answer, score)), nil
	}

	if s.Attempts >= MaxAttempts {
		return e.finish(s, 0, false, session.EndCompleted,
			fmt.Sprintf("💀 Out of attempts! It was %s.", s.Answer)), nil
	}

	s.ResetDeadline(e.now(), TimeLimit)
	return &game.Result{
		Text: fmt.Sprintf("❌ Not %q. %d attempts left.\n💡 Clue: %s", guess, MaxAttempts-s.Attempts, s.Clue),
	}, nil
}

// Hint is not part of the picture guess; the clue is shown upfront.
func (e *Engine) Hint(ctx context.Context, raw session.Session) (*game.Result, error) {
	return nil, game.ErrHintUnsupported
}

// Stop ends the round, revealing the answer.
func (e *Engine) Stop(ctx context.Context, raw session.Session) (*game.Result, error) {
	s, ok := raw.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: pictureguess got %T", game.ErrCorruptSession, raw)
	}
	return e.finish(s, 0, false, session.EndStopped,
		fmt.Sprintf("🛑 Stopped. It was %s.", s.Answer)), nil
}

// Status re-sends the clue and attempts left.
func (e *Engine) Status(raw session.Session) *game.Result {
	s, ok := raw.(*Session)
	if !ok {
		return &game.Result{Text: "Picture guess state unavailable."}
	}
	return &game.Result{
		Text:       fmt.Sprintf("🖼 Picture Guess\n💡 Clue: %s\n%d attempts left.", s.Clue, MaxAttempts-s.Attempts),
		Attachment: s.Image,
	}
}

// Expire produces the timeout summary.
func (e *Engine) Expire(raw session.Session) *game.Result {
	s, ok := raw.(*Session)
	if !ok {
		return &game.Result{Text: "Picture guess over.", Done: true}
	}
	return e.finish(s, 0, false, session.EndExpired,
		fmt.Sprintf("⏰ Time's up! It was %s.", s.Answer))
}

func (e *Engine) finish(s *Session, score int64, won bool, reason session.EndReason, text string) *game.Result {
	accuracy := 0.0
	if won && s.Attempts > 0 {
		accuracy = 1.0 / float64(s.Attempts)
	}

	return &game.Result{
		Text: text,
		Done: true,
		Score: &session.ScoreRecord{
			Owner:    s.Owner(),
			Kind:     session.KindPictureGuess,
			Score:    score,
			Accuracy: accuracy,
			Attempts: s.Attempts,
			Duration: e.now().Sub(s.CreatedAt()),
			Won:      won,
			Reason:   reason,
		},
	}
}
