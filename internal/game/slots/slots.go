// Package slots implements the session slot machine: a persistent balance, a
// fixed bet per spin, a weighted three-symbol reel and a payout table, plus a
// rare jackpot roll on top of any win. The session only ends on cash-out.
package slots

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
	// DefaultInitialBalance seeds a fresh session.
	DefaultInitialBalance = 1000

	// DefaultJackpotAmount is added when the jackpot roll hits.
	DefaultJackpotAmount = 10000

	// JackpotOdds is the denominator of the jackpot probability: after any
	// winning spin, 1 in JackpotOdds spins also pays the jackpot.
	JackpotOdds = 1000

	// TwoMatchMultiplier pays any two matching symbols.
	TwoMatchMultiplier = 2

	// DiamondConsolationMultiplier returns the bet when a single 💎 shows
	// without any other match.
	DiamondConsolationMultiplier = 1
)

// Symbol is one reel face.
type Symbol string

const (
	SymbolCherry     Symbol = "🍒"
	SymbolLemon      Symbol = "🍋"
	SymbolOrange     Symbol = "🍊"
	SymbolWatermelon Symbol = "🍉"
	SymbolStar       Symbol = "⭐"
	SymbolDiamond    Symbol = "💎"
)

// reelEntry pairs a symbol with its draw weight.
type reelEntry struct {
	Symbol Symbol
	Weight int
}

// reel is the weighted symbol set each of the three draws uses.
var reel = []reelEntry{
	{SymbolCherry, 30},
	{SymbolLemon, 25},
	{SymbolOrange, 20},
	{SymbolWatermelon, 15},
	{SymbolStar, 7},
	{SymbolDiamond, 3},
}

// tripleMultipliers maps a three-of-a-kind to its payout multiplier.
var tripleMultipliers = map[Symbol]int64{
	SymbolCherry:     5,
	SymbolLemon:      8,
	SymbolOrange:     10,
	SymbolWatermelon: 15,
	SymbolStar:       25,
	SymbolDiamond:    50,
}

// Config tunes the session economy.
type Config struct {
	InitialBalance int64
	JackpotAmount  int64
}

// Session is the live state of one slot run. It never expires by timeout;
// the only exit is cash-out.
type Session struct {
	session.Base
	Balance        int64
	Bet            int64
	InitialBalance int64

	Spins        int
	WinningSpins int
	TotalWagered int64
	TotalWon     int64
	JackpotHits  int
}

// Engine implements game.Engine for the slot machine.
type Engine struct {
	src rng.Source
	cfg Config
	now func() time.Time
}

// New creates a slot engine. Zero Config fields fall back to defaults.
func New(src rng.Source, cfg *Config) *Engine {
	c := Config{
		InitialBalance: DefaultInitialBalance,
		JackpotAmount:  DefaultJackpotAmount,
	}
	if cfg != nil {
		if cfg.InitialBalance > 0 {
			c.InitialBalance = cfg.InitialBalance
		}
		if cfg.JackpotAmount > 0 {
			c.JackpotAmount = cfg.JackpotAmount
		}
	}
	return &Engine{src: src, cfg: c, now: time.Now}
}

// Kind returns the session kind this engine owns.
func (e *Engine) Kind() session.Kind {
	return session.KindSlots
}

// Name returns the game's display name.
func (e *Engine) Name() string {
	return "Slot Machine"
}

// Description returns a one-line description for the games list.
func (e *Engine) Description() string {
	return "Spin the reels! Three of a kind pays big, and every win can trigger the jackpot."
}

// Start opens a slot session. arg is "<bet>" or "<bet> <balance>".
func (e *Engine) Start(ctx context.Context, owner string, arg string) (session.Session, *game.Result, error) {
	bet := int64(10)
	balance := e.cfg.InitialBalance

	fields := strings.Fields(arg)
	if len(fields) >= 1 {
		v, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil || v <= 0 {
			return nil, nil, fmt.Errorf("%w: bet %q must be a positive number", game.ErrInvalidInput, fields[0])
		}
		bet = v
	}
	if len(fields) >= 2 {
		v, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || v <= 0 {
			return nil, nil, fmt.Errorf("%w: balance %q must be a positive number", game.ErrInvalidInput, fields[1])
		}
		balance = v
	}
	if bet > balance {
		return nil, nil, fmt.Errorf("%w: bet %d exceeds starting balance %d", game.ErrInsufficientResource, bet, balance)
	}

	s := &Session{
		// Zero ttl: slot sessions are exempt from timeout sweeps.
		Base:           session.NewBase(owner, session.KindSlots, e.now(), 0),
		Balance:        balance,
		Bet:            bet,
		InitialBalance: balance,
	}

	res := &game.Result{
		Text: fmt.Sprintf("🎰 Slot Machine\n💰 Balance: %d | Bet per spin: %d\nSend \"spin\" to play, \"bet <n>\" to change your bet, or /stop to cash out.",
			s.Balance, s.Bet),
	}
	return s, res, nil
}

// Submit handles "spin" (or an empty message) and "bet <n>".
func (e *Engine) Submit(ctx context.Context, raw session.Session, input string) (*game.Result, error) {
	s, ok := raw.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: slots got %T", game.ErrCorruptSession, raw)
	}

	fields := strings.Fields(strings.ToLower(input))
	switch {
	case len(fields) == 0 || fields[0] == "spin":
		return e.spin(s)
	case fields[0] == "bet" && len(fields) == 2:
		v, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%w: bet %q must be a positive number", game.ErrInvalidInput, fields[1])
		}
		s.Bet = v
		s.Touch(e.now())
		return &game.Result{Text: fmt.Sprintf("🎯 Bet set to %d. Balance: %d", s.Bet, s.Balance)}, nil
	default:
		return nil, fmt.Errorf("%w: %q (try \"spin\" or \"bet <n>\")", game.ErrInvalidInput, input)
	}
}

// spin deducts the bet, draws three symbols and resolves the payout. The
// jackpot is rolled only after a winning spin.
func (e *Engine) spin(s *Session) (*game.Result, error) {
	if s.Balance < s.Bet {
		return nil, fmt.Errorf("%w: balance %d is below the bet %d", game.ErrInsufficientResource, s.Balance, s.Bet)
	}

	s.Balance -= s.Bet
	s.Spins++
	s.TotalWagered += s.Bet
	s.Touch(e.now())

	symbols := [3]Symbol{e.draw(), e.draw(), e.draw()}
	multiplier := Payout(symbols)
	win := s.Bet * multiplier

	jackpot := int64(0)
	if win > 0 {
		s.WinningSpins++
		if e.src.Intn(JackpotOdds) == 0 {
			jackpot = e.cfg.JackpotAmount
			s.JackpotHits++
		}
	}

	s.Balance += win + jackpot
	s.TotalWon += win + jackpot

	display := fmt.Sprintf("%s %s %s", symbols[0], symbols[1], symbols[2])
	var text string
	switch {
	case jackpot > 0:
		text = fmt.Sprintf("🎰 %s\n💥 JACKPOT! +%d on top of a %d win!\n💰 Balance: %d", display, jackpot, win, s.Balance)
	case multiplier >= TwoMatchMultiplier+1:
		text = fmt.Sprintf("🎰 %s\n🎊 Three of a kind! You won %d!\n💰 Balance: %d", display, win, s.Balance)
	case win > s.Bet:
		text = fmt.Sprintf("🎰 %s\n🎉 Two of a kind! You won %d!\n💰 Balance: %d", display, win, s.Balance)
	case win > 0:
		text = fmt.Sprintf("🎰 %s\n✨ A diamond saved your bet (+%d).\n💰 Balance: %d", display, win, s.Balance)
	default:
		text = fmt.Sprintf("🎰 %s\n😢 No match, -%d.\n💰 Balance: %d", display, s.Bet, s.Balance)
	}

	if s.Balance < s.Bet {
		text += fmt.Sprintf("\n⚠️ Balance below your bet of %d — lower it with \"bet <n>\" or /stop to cash out.", s.Bet)
	}
	return &game.Result{Text: text}, nil
}

// draw picks one symbol from the weighted reel.
func (e *Engine) draw() Symbol {
	total := 0
	for _, entry := range reel {
		total += entry.Weight
	}

	roll := e.src.Intn(total)
	for _, entry := range reel {
		roll -= entry.Weight
		if roll < 0 {
			return entry.Symbol
		}
	}
	return reel[len(reel)-1].Symbol
}

// Payout resolves the multiplier for a three-symbol draw: three of a kind
// from the payout table, any two matching symbols, or a lone diamond.
func Payout(symbols [3]Symbol) int64 {
	a, b, c := symbols[0], symbols[1], symbols[2]

	if a == b && b == c {
		return tripleMultipliers[a]
	}
	if a == b || b == c || a == c {
		return TwoMatchMultiplier
	}
	if a == SymbolDiamond || b == SymbolDiamond || c == SymbolDiamond {
		return DiamondConsolationMultiplier
	}
	return 0
}

// Hint is not part of the slot machine.
func (e *Engine) Hint(ctx context.Context, raw session.Session) (*game.Result, error) {
	return nil, game.ErrHintUnsupported
}

// Stop cashes out: the terminal summary reports the final balance and net
// profit.
func (e *Engine) Stop(ctx context.Context, raw session.Session) (*game.Result, error) {
	s, ok := raw.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: slots got %T", game.ErrCorruptSession, raw)
	}
	return e.cashOut(s, session.EndStopped), nil
}

// Status reports the session's balance and lifetime stats.
func (e *Engine) Status(raw session.Session) *game.Result {
	s, ok := raw.(*Session)
	if !ok {
		return &game.Result{Text: "Slot state unavailable."}
	}
	return &game.Result{
		Text: fmt.Sprintf("🎰 Slot Machine\n💰 Balance: %d | Bet: %d\n🎡 Spins: %d | Wagered: %d | Won: %d",
			s.Balance, s.Bet, s.Spins, s.TotalWagered, s.TotalWon),
	}
}

// Expire also cashes out; slot sessions carry no deadline, so this only runs
// for sessions force-removed by the caller.
func (e *Engine) Expire(raw session.Session) *game.Result {
	s, ok := raw.(*Session)
	if !ok {
		return &game.Result{Text: "Slot session over.", Done: true}
	}
	return e.cashOut(s, session.EndExpired)
}

func (e *Engine) cashOut(s *Session, reason session.EndReason) *game.Result {
	profit := s.Balance - s.InitialBalance

	accuracy := 0.0
	if s.Spins > 0 {
		accuracy = float64(s.WinningSpins) / float64(s.Spins)
	}

	sign := "+"
	if profit < 0 {
		sign = ""
	}
	return &game.Result{
		Text: fmt.Sprintf("💸 Cashed out at %d (%s%d net)\n🎡 Spins: %d | Wagered: %d | Won: %d | Jackpots: %d",
			s.Balance, sign, profit, s.Spins, s.TotalWagered, s.TotalWon, s.JackpotHits),
		Done: true,
		Score: &session.ScoreRecord{
			Owner:    s.Owner(),
			Kind:     session.KindSlots,
			Score:    profit,
			Accuracy: accuracy,
			Attempts: s.Spins,
			Duration: e.now().Sub(s.CreatedAt()),
			Won:      profit > 0,
			Reason:   reason,
		},
	}
}
