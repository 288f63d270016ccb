// Package wordguess implements the word guessing game. Players reveal a
// hidden word letter by letter or risk a whole-word guess; hints uncover a
// letter at the cost of score.
package wordguess

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"telegram-arcade-bot/internal/game"
	"telegram-arcade-bot/internal/rng"
	"telegram-arcade-bot/internal/session"
)

const (
	// DefaultMaxAttempts is the wrong-attempt budget per session.
	DefaultMaxAttempts = 6

	// DefaultMaxHints is the hint budget per session.
	DefaultMaxHints = 2

	// DefaultTimeLimit is the idle deadline, refreshed on every consumed
	// attempt or hint.
	DefaultTimeLimit = 3 * time.Minute

	// AttemptPenalty is subtracted from the win score per wrong attempt.
	AttemptPenalty = 10

	// HintPenalty is subtracted from the win score per hint used.
	HintPenalty = 25

	// MaxTimeBonus scales with the fraction of the deadline left on the win.
	MaxTimeBonus = 50

	// MinWinScore floors the score of any won session.
	MinWinScore = 10

	// WordGuessMultiplier doubles the base score when the win came from a
	// direct full-word guess.
	WordGuessMultiplier = 2
)

// Level is a word-guess difficulty.
type Level string

const (
	LevelEasy   Level = "easy"
	LevelMedium Level = "medium"
	LevelHard   Level = "hard"
)

// entry is a word/hint/category tuple.
type entry struct {
	Word     string
	Hint     string
	Category string
}

var baseScores = map[Level]int64{
	LevelEasy:   100,
	LevelMedium: 200,
	LevelHard:   300,
}

var words = map[Level][]entry{
	LevelEasy: {
		{"APPLE", "Keeps the doctor away", "Food"},
		{"RIVER", "Flows to the sea", "Nature"},
		{"CHAIR", "You sit on it", "Household"},
		{"TIGER", "Striped big cat", "Animals"},
		{"BREAD", "Baked from flour", "Food"},
		{"CLOUD", "Floats in the sky", "Nature"},
	},
	LevelMedium: {
		{"KOMPUTER", "Machine that processes data", "Technology"},
		{"VOLCANO", "Mountain that erupts", "Nature"},
		{"BICYCLE", "Two wheels, no engine", "Transport"},
		{"PENGUIN", "Bird that cannot fly but swims", "Animals"},
		{"LIBRARY", "Building full of books", "Places"},
		{"THUNDER", "You hear it after lightning", "Nature"},
	},
	LevelHard: {
		{"LABYRINTH", "Easy to enter, hard to leave", "Places"},
		{"XYLOPHONE", "Percussion instrument with bars", "Music"},
		{"SUBMARINE", "Ship that travels underwater", "Transport"},
		{"ALGORITHM", "Step-by-step recipe for computers", "Technology"},
		{"CHAMELEON", "Lizard that changes color", "Animals"},
		{"HURRICANE", "Giant spinning storm", "Nature"},
	},
}

// Config tunes attempt/hint budgets and the idle deadline.
type Config struct {
	MaxAttempts int
	MaxHints    int
	TimeLimit   time.Duration
}

// Session is the live state of one word-guess run.
type Session struct {
	session.Base
	Level    Level
	Word     string // uppercase
	Hint     string
	Category string

	Guessed  map[rune]bool // every letter guessed, right or wrong
	Revealed map[rune]bool // letters shown in the masked display

	WrongAttempts int
	MaxAttempts   int
	HintsUsed     int
	MaxHints      int
}

// Masked renders the display string, one placeholder per hidden letter with
// spaces preserved.
func (s *Session) Masked() string {
	var sb strings.Builder
	for i, r := range s.Word {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch {
		case r == ' ':
			sb.WriteString(" ")
		case s.Revealed[r]:
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// Progress returns distinct revealed letters over distinct letters in the word.
func (s *Session) Progress() float64 {
	total := len(distinctLetters(s.Word))
	if total == 0 {
		return 0
	}
	revealed := 0
	for r := range s.Revealed {
		if strings.ContainsRune(s.Word, r) {
			revealed++
		}
	}
	return float64(revealed) / float64(total)
}

func (s *Session) solved() bool {
	for _, r := range distinctLetters(s.Word) {
		if !s.Revealed[r] {
			return false
		}
	}
	return true
}

func distinctLetters(word string) []rune {
	seen := make(map[rune]bool)
	var letters []rune
	for _, r := range word {
		if r != ' ' && !seen[r] {
			seen[r] = true
			letters = append(letters, r)
		}
	}
	return letters
}

// Engine implements game.Engine for the word guess.
type Engine struct {
	src rng.Source
	cfg Config
	now func() time.Time
}

// New creates a word-guess engine. Zero Config fields fall back to defaults.
func New(src rng.Source, cfg *Config) *Engine {
	c := Config{
		MaxAttempts: DefaultMaxAttempts,
		MaxHints:    DefaultMaxHints,
		TimeLimit:   DefaultTimeLimit,
	}
	if cfg != nil {
		if cfg.MaxAttempts > 0 {
			c.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.MaxHints > 0 {
			c.MaxHints = cfg.MaxHints
		}
		if cfg.TimeLimit > 0 {
			c.TimeLimit = cfg.TimeLimit
		}
	}
	return &Engine{src: src, cfg: c, now: time.Now}
}

// Kind returns the session kind this engine owns.
func (e *Engine) Kind() session.Kind {
	return session.KindWordGuess
}

// Name returns the game's display name.
func (e *Engine) Name() string {
	return "Word Guess"
}

// Description returns a one-line description for the games list.
func (e *Engine) Description() string {
	return "Guess the hidden word letter by letter, or go all-in on the full word for double points."
}

// Start picks a word for the requested difficulty and masks it.
func (e *Engine) Start(ctx context.Context, owner string, arg string) (session.Session, *game.Result, error) {
	level := Level(strings.ToLower(strings.TrimSpace(arg)))
	if level == "" {
		level = LevelEasy
	}
	list, ok := words[level]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q (valid: easy, medium, hard)", game.ErrInvalidDifficulty, arg)
	}

	picked := list[e.src.Intn(len(list))]
	now := e.now()
	s := &Session{
		Base:        session.NewBase(owner, session.KindWordGuess, now, e.cfg.TimeLimit),
		Level:       level,
		Word:        picked.Word,
		Hint:        picked.Hint,
		Category:    picked.Category,
		Guessed:     make(map[rune]bool),
		Revealed:    make(map[rune]bool),
		MaxAttempts: e.cfg.MaxAttempts,
		MaxHints:    e.cfg.MaxHints,
	}

	res := &game.Result{
		Text: fmt.Sprintf("🔤 Word Guess (%s)\n📂 Category: %s\n💡 %s\n\n%s\n\nGuess a letter or the whole word. ❌ 0/%d",
			level, s.Category, s.Hint, s.Masked(), s.MaxAttempts),
	}
	return s, res, nil
}

// Submit handles a single-letter reveal or a whole-word attempt. Any
// multi-character guess is always evaluated as a whole-word attempt.
func (e *Engine) Submit(ctx context.Context, raw session.Session, input string) (*game.Result, error) {
	s, ok := raw.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: wordguess got %T", game.ErrCorruptSession, raw)
	}

	guess := strings.ToUpper(strings.TrimSpace(input))
	if guess == "" {
		return nil, fmt.Errorf("%w: empty guess", game.ErrInvalidInput)
	}

	runes := []rune(guess)
	if len(runes) == 1 {
		return e.submitLetter(s, runes[0])
	}
	return e.submitWord(s, guess)
}

func (e *Engine) submitLetter(s *Session, letter rune) (*game.Result, error) {
	if !unicode.IsLetter(letter) {
		return nil, fmt.Errorf("%w: %q is not a letter", game.ErrInvalidInput, letter)
	}
	if s.Guessed[letter] {
		// Repeats are a no-op: no attempt consumed, no state change.
		return nil, fmt.Errorf("%w: letter %c was already guessed", game.ErrInvalidInput, letter)
	}

	now := e.now()
	s.Guessed[letter] = true

	if strings.ContainsRune(s.Word, letter) {
		s.Revealed[letter] = true
		if s.solved() {
			return e.win(s, false), nil
		}
		s.ResetDeadline(now, e.cfg.TimeLimit)

		return &game.Result{
			Text: fmt.Sprintf("✅ %c is in the word!\n\n%s\n\n❌ %d/%d | Progress: %.0f%%",
				letter, s.Masked(), s.WrongAttempts, s.MaxAttempts, s.Progress()*100),
		}, nil
	}

	return e.wrongAttempt(s, fmt.Sprintf("❌ No %c in the word.", letter)), nil
}

func (e *Engine) submitWord(s *Session, guess string) (*game.Result, error) {
	if guess == s.Word {
		for _, r := range distinctLetters(s.Word) {
			s.Revealed[r] = true
		}
		return e.win(s, true), nil
	}
	return e.wrongAttempt(s, fmt.Sprintf("❌ %q is not the word.", guess)), nil
}

// wrongAttempt consumes one attempt and ends the game when the budget runs
// out.
func (e *Engine) wrongAttempt(s *Session, note string) *game.Result {
	now := e.now()
	s.WrongAttempts++
	s.ResetDeadline(now, e.cfg.TimeLimit)

	if s.WrongAttempts >= s.MaxAttempts {
		return e.lose(s)
	}

	return &game.Result{
		Text: fmt.Sprintf("%s\n\n%s\n\n❌ %d/%d", note, s.Masked(), s.WrongAttempts, s.MaxAttempts),
	}
}

// Hint reveals one previously-unrevealed letter at a random position.
func (e *Engine) Hint(ctx context.Context, raw session.Session) (*game.Result, error) {
	s, ok := raw.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: wordguess got %T", game.ErrCorruptSession, raw)
	}
	if s.HintsUsed >= s.MaxHints {
		return nil, fmt.Errorf("%w: no hints left (%d used)", game.ErrInsufficientResource, s.HintsUsed)
	}

	var hidden []rune
	for _, r := range distinctLetters(s.Word) {
		if !s.Revealed[r] {
			hidden = append(hidden, r)
		}
	}
	if len(hidden) == 0 {
		return nil, fmt.Errorf("%w: nothing left to reveal", game.ErrInsufficientResource)
	}

	letter := hidden[e.src.Intn(len(hidden))]
	s.Revealed[letter] = true
	s.Guessed[letter] = true
	s.HintsUsed++

	if s.solved() {
		return e.win(s, false), nil
	}
	s.ResetDeadline(e.now(), e.cfg.TimeLimit)

	return &game.Result{
		Text: fmt.Sprintf("💡 Hint: the word contains %c.\n\n%s\n\n💡 %d/%d hints used",
			letter, s.Masked(), s.HintsUsed, s.MaxHints),
	}, nil
}

// Stop ends the session, revealing the word.
func (e *Engine) Stop(ctx context.Context, raw session.Session) (*game.Result, error) {
	s, ok := raw.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: wordguess got %T", game.ErrCorruptSession, raw)
	}
	return e.finish(s, 0, false, session.EndStopped,
		fmt.Sprintf("🛑 Stopped. The word was %s.", s.Word)), nil
}

// Status renders the masked word and counters without mutating the session.
func (e *Engine) Status(raw session.Session) *game.Result {
	s, ok := raw.(*Session)
	if !ok {
		return &game.Result{Text: "Word guess state unavailable."}
	}
	return &game.Result{
		Text: fmt.Sprintf("🔤 Word Guess (%s)\n📂 %s\n\n%s\n\n❌ %d/%d | 💡 %d/%d | Progress: %.0f%%",
			s.Level, s.Category, s.Masked(), s.WrongAttempts, s.MaxAttempts,
			s.HintsUsed, s.MaxHints, s.Progress()*100),
	}
}

// Expire produces the timeout summary.
func (e *Engine) Expire(raw session.Session) *game.Result {
	s, ok := raw.(*Session)
	if !ok {
		return &game.Result{Text: "Word guess over.", Done: true}
	}
	return e.finish(s, 0, false, session.EndExpired,
		fmt.Sprintf("⏰ Time's up! The word was %s.", s.Word))
}

// win scores a solved word: base times the full-word multiplier, minus
// attempt and hint penalties, plus the time bonus, floored at MinWinScore.
func (e *Engine) win(s *Session, direct bool) *game.Result {
	base := baseScores[s.Level]
	if direct {
		base *= WordGuessMultiplier
	}

	score := base -
		int64(s.WrongAttempts)*AttemptPenalty -
		int64(s.HintsUsed)*HintPenalty +
		e.timeBonus(s)
	if score < MinWinScore {
		score = MinWinScore
	}

	how := "letter by letter"
	if direct {
		how = "with a direct word guess (2× base)"
	}
	return e.finish(s, score, true, session.EndCompleted,
		fmt.Sprintf("🎉 You got it %s! The word was %s.\n🏆 Score: %d", how, s.Word, score))
}

func (e *Engine) lose(s *Session) *game.Result {
	return e.finish(s, 0, false, session.EndCompleted,
		fmt.Sprintf("💀 Out of attempts! The word was %s.", s.Word))
}

func (e *Engine) finish(s *Session, score int64, won bool, reason session.EndReason, text string) *game.Result {
	attempts := s.WrongAttempts
	if won {
		attempts++
	}
	accuracy := 0.0
	if attempts > 0 && won {
		accuracy = 1.0 / float64(attempts)
	}

	return &game.Result{
		Text: text,
		Done: true,
		Score: &session.ScoreRecord{
			Owner:    s.Owner(),
			Kind:     session.KindWordGuess,
			Score:    score,
			Accuracy: accuracy,
			Attempts: attempts,
			Duration: e.now().Sub(s.CreatedAt()),
			Won:      won,
			Reason:   reason,
		},
	}
}

// timeBonus scales MaxTimeBonus by the fraction of the idle deadline left.
func (e *Engine) timeBonus(s *Session) int64 {
	d := s.Deadline()
	if d.IsZero() {
		return 0
	}
	left := d.Sub(e.now())
	if left <= 0 {
		return 0
	}
	if left > e.cfg.TimeLimit {
		left = e.cfg.TimeLimit
	}
	return int64(float64(left) / float64(e.cfg.TimeLimit) * float64(MaxTimeBonus))
}
