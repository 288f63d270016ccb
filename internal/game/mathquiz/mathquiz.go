// Package mathquiz implements the arithmetic quiz game. Each question is a
// single operation with four answer options; correct answers chain into a
// streak, wrong answers reset it, and every new question refreshes the
// session deadline.
package mathquiz

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"telegram-arcade-bot/internal/game"
	"telegram-arcade-bot/internal/rng"
	"telegram-arcade-bot/internal/session"
)

const (
	// MaxWrongPerQuestion is how many wrong answers one question absorbs
	// before the answer is revealed and the quiz auto-advances.
	MaxWrongPerQuestion = 2

	// StreakBonusStep is the per-answer score bonus for each point of streak
	// held before the answer.
	StreakBonusStep = 10

	// StreakBonusCap bounds the streak bonus.
	StreakBonusCap = 100

	// OptionCount is the number of answer options per question.
	OptionCount = 4
)

// Operator is an arithmetic operation a question can use.
type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
)

// Symbol returns the display symbol for the operator.
func (o Operator) Symbol() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "×"
	default:
		return "÷"
	}
}

// Level is a quiz difficulty.
type Level string

const (
	LevelEasy   Level = "easy"
	LevelMedium Level = "medium"
	LevelHard   Level = "hard"
)

// levelSpec fixes the numeric range, allowed operators, time budget and
// scoring of a difficulty.
type levelSpec struct {
	MaxOperand int
	MulMax     int // bound on multiplication operands, keeps products presentable
	DivMax     int // bound on quotient and divisor
	Ops        []Operator
	TimeLimit  time.Duration
	BaseScore  int64
	MaxBonus   int64
	Spread     int // distractor offset window around the answer
}

var levels = map[Level]levelSpec{
	LevelEasy: {
		MaxOperand: 10,
		Ops:        []Operator{OpAdd, OpSub},
		TimeLimit:  30 * time.Second,
		BaseScore:  50,
		MaxBonus:   25,
		Spread:     5,
	},
	LevelMedium: {
		MaxOperand: 50,
		MulMax:     12,
		Ops:        []Operator{OpAdd, OpSub, OpMul},
		TimeLimit:  20 * time.Second,
		BaseScore:  100,
		MaxBonus:   50,
		Spread:     10,
	},
	LevelHard: {
		MaxOperand: 100,
		MulMax:     15,
		DivMax:     12,
		Ops:        []Operator{OpAdd, OpSub, OpMul, OpDiv},
		TimeLimit:  15 * time.Second,
		BaseScore:  200,
		MaxBonus:   100,
		Spread:     20,
	},
}

// Levels returns the valid difficulty names.
func Levels() []Level {
	return []Level{LevelEasy, LevelMedium, LevelHard}
}

// Question is one quiz round.
type Question struct {
	A, B    int
	Op      Operator
	Answer  int
	Options [OptionCount]int
	AskedAt time.Time
}

// Text renders the question body.
func (q Question) Text() string {
	return fmt.Sprintf("%d %s %d = ?", q.A, q.Op.Symbol(), q.B)
}

// Session is the live state of one quiz run.
type Session struct {
	session.Base
	Level    Level
	Question Question

	Score     int64
	Streak    int
	MaxStreak int
	Correct   int
	Attempts  int

	// WrongOnCurrent counts wrong answers against the current question.
	WrongOnCurrent int
}

// Engine implements game.Engine for the arithmetic quiz.
type Engine struct {
	src rng.Source
	now func() time.Time
}

// New creates a quiz engine drawing from src.
func New(src rng.Source) *Engine {
	return &Engine{src: src, now: time.Now}
}

// Kind returns the session kind this engine owns.
func (e *Engine) Kind() session.Kind {
	return session.KindMathQuiz
}

// Name returns the game's display name.
func (e *Engine) Name() string {
	return "Arithmetic Quiz"
}

// Description returns a one-line description for the games list.
func (e *Engine) Description() string {
	return "Solve arithmetic questions against the clock. Streaks multiply your score!"
}

// Start begins a quiz at the requested difficulty.
func (e *Engine) Start(ctx context.Context, owner string, arg string) (session.Session, *game.Result, error) {
	level := Level(strings.ToLower(strings.TrimSpace(arg)))
	if level == "" {
		level = LevelEasy
	}
	spec, ok := levels[level]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q (valid: easy, medium, hard)", game.ErrInvalidDifficulty, arg)
	}

	now := e.now()
	s := &Session{
		Base:  session.NewBase(owner, session.KindMathQuiz, now, spec.TimeLimit),
		Level: level,
	}
	s.Question = e.generate(spec, now)

	res := &game.Result{
		Text: fmt.Sprintf("🧮 Arithmetic Quiz (%s) — %d points per answer, %ds per question.\n\n%s",
			level, spec.BaseScore, int(spec.TimeLimit.Seconds()), renderQuestion(s.Question)),
	}
	return s, res, nil
}

// Submit accepts either an option index (1-4) or the literal numeric answer.
func (e *Engine) Submit(ctx context.Context, raw session.Session, input string) (*game.Result, error) {
	s, ok := raw.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: mathquiz got %T", game.ErrCorruptSession, raw)
	}
	spec := levels[s.Level]

	value, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", game.ErrInvalidInput, input)
	}

	now := e.now()
	q := s.Question

	// A submission equal to the correct value always counts as the literal
	// answer; other values in 1..4 select an option.
	guessed := value
	if value != q.Answer && value >= 1 && value <= OptionCount {
		guessed = q.Options[value-1]
	}

	s.Attempts++

	if guessed == q.Answer {
		bonus := timeBonus(now.Sub(q.AskedAt), spec.TimeLimit, spec.MaxBonus)
		streakBonus := streakBonus(s.Streak)
		gained := spec.BaseScore + bonus + streakBonus

		s.Score += gained
		s.Correct++
		s.Streak++
		if s.Streak > s.MaxStreak {
			s.MaxStreak = s.Streak
		}
		s.WrongOnCurrent = 0
		s.Question = e.generate(spec, now)
		s.ResetDeadline(now, spec.TimeLimit)

		return &game.Result{
			Text: fmt.Sprintf("✅ Correct! +%d points (base %d, time +%d, streak +%d)\n🔥 Streak: %d | Score: %d\n\n%s",
				gained, spec.BaseScore, bonus, streakBonus, s.Streak, s.Score, renderQuestion(s.Question)),
		}, nil
	}

	s.Streak = 0
	s.WrongOnCurrent++
	s.Touch(now)

	if s.WrongOnCurrent >= MaxWrongPerQuestion {
		answer := q.Answer
		s.WrongOnCurrent = 0
		s.Question = e.generate(spec, now)
		s.ResetDeadline(now, spec.TimeLimit)

		return &game.Result{
			Text: fmt.Sprintf("❌ Wrong again! The answer was %d.\n\n%s", answer, renderQuestion(s.Question)),
		}, nil
	}

	left := MaxWrongPerQuestion - s.WrongOnCurrent
	return &game.Result{
		Text: fmt.Sprintf("❌ Wrong! %d attempt left.\n\n%s", left, renderQuestion(q)),
	}, nil
}

// Hint is not part of the quiz.
func (e *Engine) Hint(ctx context.Context, raw session.Session) (*game.Result, error) {
	return nil, game.ErrHintUnsupported
}

// Stop ends the quiz and returns the summary.
func (e *Engine) Stop(ctx context.Context, raw session.Session) (*game.Result, error) {
	s, ok := raw.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: mathquiz got %T", game.ErrCorruptSession, raw)
	}
	return e.summarize(s, session.EndStopped), nil
}

// Status renders the current question without mutating the session.
func (e *Engine) Status(raw session.Session) *game.Result {
	s, ok := raw.(*Session)
	if !ok {
		return &game.Result{Text: "Quiz state unavailable."}
	}
	return &game.Result{
		Text: fmt.Sprintf("🧮 Quiz in progress — score %d, streak %d.\n\n%s",
			s.Score, s.Streak, renderQuestion(s.Question)),
	}
}

// Expire produces the timeout summary.
func (e *Engine) Expire(raw session.Session) *game.Result {
	s, ok := raw.(*Session)
	if !ok {
		return &game.Result{Text: "Quiz over.", Done: true}
	}
	return e.summarize(s, session.EndExpired)
}

func (e *Engine) summarize(s *Session, reason session.EndReason) *game.Result {
	accuracy := 0.0
	if s.Attempts > 0 {
		accuracy = float64(s.Correct) / float64(s.Attempts)
	}

	record := &session.ScoreRecord{
		Owner:     s.Owner(),
		Kind:      session.KindMathQuiz,
		Score:     s.Score,
		Accuracy:  accuracy,
		Attempts:  s.Attempts,
		Duration:  e.now().Sub(s.CreatedAt()),
		MaxStreak: s.MaxStreak,
		Won:       s.Correct > 0,
		Reason:    reason,
	}

	header := "🏁 Quiz finished!"
	if reason == session.EndExpired {
		header = "⏰ Time's up!"
	}

	return &game.Result{
		Text: fmt.Sprintf("%s\n📊 Score: %d | Correct: %d/%d (%.0f%%) | Best streak: %d",
			header, s.Score, s.Correct, s.Attempts, accuracy*100, s.MaxStreak),
		Done:  true,
		Score: record,
	}
}

// generate draws a fresh question. Subtraction never yields a negative
// result, division always has an integer quotient (quotient and divisor are
// drawn first), and multiplication operands stay within the level bound.
func (e *Engine) generate(spec levelSpec, now time.Time) Question {
	op := spec.Ops[e.src.Intn(len(spec.Ops))]

	var a, b, answer int
	switch op {
	case OpAdd:
		a = 1 + e.src.Intn(spec.MaxOperand)
		b = 1 + e.src.Intn(spec.MaxOperand)
		answer = a + b
	case OpSub:
		a = 1 + e.src.Intn(spec.MaxOperand)
		b = 1 + e.src.Intn(a)
		answer = a - b
	case OpMul:
		a = 2 + e.src.Intn(spec.MulMax-1)
		b = 2 + e.src.Intn(spec.MulMax-1)
		answer = a * b
	case OpDiv:
		answer = 2 + e.src.Intn(spec.DivMax-1)
		b = 2 + e.src.Intn(spec.DivMax-1)
		a = answer * b
	}

	q := Question{A: a, B: b, Op: op, Answer: answer, AskedAt: now}
	q.Options = e.options(answer, spec.Spread)
	return q
}

// options builds the answer plus three deduplicated distractors within the
// level's offset window, then shuffles the four.
func (e *Engine) options(answer, spread int) [OptionCount]int {
	opts := [OptionCount]int{answer}
	seen := map[int]bool{answer: true}

	i := 1
	for i < OptionCount {
		cand := answer + e.src.Intn(2*spread+1) - spread
		if cand < 0 || seen[cand] {
			continue
		}
		seen[cand] = true
		opts[i] = cand
		i++
	}

	e.src.Shuffle(OptionCount, func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
	return opts
}

func renderQuestion(q Question) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "❓ %s\n", q.Text())
	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "%d) %d\n", i+1, opt)
	}
	sb.WriteString("Reply with an option number or the answer itself.")
	return sb.String()
}

// timeBonus scales the level's max bonus by the fraction of the time budget
// left, floored at zero.
func timeBonus(elapsed, limit time.Duration, maxBonus int64) int64 {
	if elapsed >= limit {
		return 0
	}
	left := limit - elapsed
	return int64(float64(left) / float64(limit) * float64(maxBonus))
}

// streakBonus rewards the streak held before the current answer.
func streakBonus(streak int) int64 {
	bonus := int64(streak) * StreakBonusStep
	if bonus > StreakBonusCap {
		bonus = StreakBonusCap
	}
	return bonus
}
