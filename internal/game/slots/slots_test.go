package slots

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"telegram-arcade-bot/internal/game"
	"telegram-arcade-bot/internal/rng"
	"telegram-arcade-bot/internal/session"
)

// scriptedSource replays a fixed list of draws. The reel weights sum to 100,
// so draw values map to symbols as: 0-29 🍒, 30-54 🍋, 55-74 🍊, 75-89 🍉,
// 90-96 ⭐, 97-99 💎. Winning spins also consume one value for the jackpot
// roll (0 hits).
type scriptedSource struct{ queue []int }

func (s *scriptedSource) Intn(n int) int {
	if len(s.queue) == 0 {
		return 1
	}
	v := s.queue[0]
	s.queue = s.queue[1:]
	return v % n
}

func (s *scriptedSource) Shuffle(n int, swap func(i, j int)) {}

func startSlots(t *testing.T, src rng.Source, arg string) (*Engine, *Session) {
	t.Helper()
	e := New(src, nil)
	raw, res, err := e.Start(context.Background(), "42", arg)
	require.NoError(t, err)
	require.Contains(t, res.Text, "Balance")
	s, ok := raw.(*Session)
	require.True(t, ok)
	return e, s
}

func TestStart_Defaults(t *testing.T) {
	_, s := startSlots(t, rng.New(1), "")
	assert.Equal(t, int64(DefaultInitialBalance), s.Balance)
	assert.Equal(t, int64(10), s.Bet)
}

func TestStart_BetAndBalanceArgs(t *testing.T) {
	_, s := startSlots(t, rng.New(1), "25 500")
	assert.Equal(t, int64(500), s.Balance)
	assert.Equal(t, int64(25), s.Bet)
}

func TestStart_RejectsBadArgs(t *testing.T) {
	e := New(rng.New(1), nil)

	_, _, err := e.Start(context.Background(), "42", "zero")
	assert.ErrorIs(t, err, game.ErrInvalidInput)

	_, _, err = e.Start(context.Background(), "42", "-5")
	assert.ErrorIs(t, err, game.ErrInvalidInput)

	_, _, err = e.Start(context.Background(), "42", "200 100")
	assert.ErrorIs(t, err, game.ErrInsufficientResource)
}

func TestSlotSessionNeverExpires(t *testing.T) {
	_, s := startSlots(t, rng.New(1), "")
	assert.False(t, session.Expired(s, time.Now().Add(365*24*time.Hour)))
}

func TestSpin_TripleDiamond(t *testing.T) {
	// Three 💎 draws, then a missed jackpot roll.
	src := &scriptedSource{queue: []int{97, 98, 99, 1}}
	e, s := startSlots(t, src, "10 100")

	res, err := e.Submit(context.Background(), s, "spin")
	require.NoError(t, err)

	// 100 - 10 bet + 10*50 win = 590
	assert.Equal(t, int64(590), s.Balance)
	assert.Equal(t, 1, s.WinningSpins)
	assert.Equal(t, 0, s.JackpotHits)
	assert.Contains(t, res.Text, "Three of a kind")
}

func TestSpin_JackpotOnTopOfWin(t *testing.T) {
	// Triple cherry, then a jackpot roll of 0.
	src := &scriptedSource{queue: []int{0, 1, 2, 0}}
	e, s := startSlots(t, src, "10 100")

	res, err := e.Submit(context.Background(), s, "spin")
	require.NoError(t, err)

	// 100 - 10 + 10*5 + 10000 jackpot
	assert.Equal(t, int64(10140), s.Balance)
	assert.Equal(t, 1, s.JackpotHits)
	assert.Contains(t, res.Text, "JACKPOT")
}

func TestSpin_TwoOfAKind(t *testing.T) {
	// 🍒 🍒 🍋, then a missed jackpot roll.
	src := &scriptedSource{queue: []int{0, 5, 30, 1}}
	e, s := startSlots(t, src, "10 100")

	res, err := e.Submit(context.Background(), s, "spin")
	require.NoError(t, err)

	// 100 - 10 + 10*2 = 110
	assert.Equal(t, int64(110), s.Balance)
	assert.Contains(t, res.Text, "Two of a kind")
}

func TestSpin_LoneDiamondReturnsBet(t *testing.T) {
	// 💎 🍋 🍊, then a missed jackpot roll (a consolation is still a win).
	src := &scriptedSource{queue: []int{97, 30, 55, 1}}
	e, s := startSlots(t, src, "10 100")

	res, err := e.Submit(context.Background(), s, "spin")
	require.NoError(t, err)

	assert.Equal(t, int64(100), s.Balance)
	assert.Equal(t, 1, s.WinningSpins)
	assert.Contains(t, res.Text, "diamond")
}

func TestSpin_NoMatchLosesBet(t *testing.T) {
	// 🍒 🍋 🍊: a losing spin never rolls the jackpot.
	src := &scriptedSource{queue: []int{0, 30, 55}}
	e, s := startSlots(t, src, "10 100")

	res, err := e.Submit(context.Background(), s, "")
	require.NoError(t, err)

	assert.Equal(t, int64(90), s.Balance)
	assert.Equal(t, 0, s.WinningSpins)
	assert.Empty(t, src.queue, "losing spin must consume exactly three draws")
	assert.Contains(t, res.Text, "No match")
}

func TestSpin_BalanceBelowBet(t *testing.T) {
	e, s := startSlots(t, rng.New(1), "10 100")
	s.Balance = 5

	_, err := e.Submit(context.Background(), s, "spin")
	assert.ErrorIs(t, err, game.ErrInsufficientResource)
	assert.Equal(t, int64(5), s.Balance, "a rejected spin must not touch the balance")
	assert.Equal(t, 0, s.Spins)
}

func TestSubmit_BetCommand(t *testing.T) {
	e, s := startSlots(t, rng.New(1), "10 100")

	res, err := e.Submit(context.Background(), s, "bet 25")
	require.NoError(t, err)
	assert.Equal(t, int64(25), s.Bet)
	assert.Contains(t, res.Text, "25")

	_, err = e.Submit(context.Background(), s, "bet nope")
	assert.ErrorIs(t, err, game.ErrInvalidInput)

	_, err = e.Submit(context.Background(), s, "lever")
	assert.ErrorIs(t, err, game.ErrInvalidInput)
}

func TestSpin_DeterministicForSeed(t *testing.T) {
	run := func() ([]int64, int64) {
		e, s := startSlots(t, rng.New(99), "10 1000")
		balances := make([]int64, 0, 20)
		for i := 0; i < 20; i++ {
			_, err := e.Submit(context.Background(), s, "spin")
			require.NoError(t, err)
			balances = append(balances, s.Balance)
		}
		return balances, s.TotalWon
	}

	first, firstWon := run()
	second, secondWon := run()
	assert.Equal(t, first, second)
	assert.Equal(t, firstWon, secondWon)
}

func TestPayout(t *testing.T) {
	tests := []struct {
		name    string
		symbols [3]Symbol
		want    int64
	}{
		{"triple cherry", [3]Symbol{SymbolCherry, SymbolCherry, SymbolCherry}, 5},
		{"triple lemon", [3]Symbol{SymbolLemon, SymbolLemon, SymbolLemon}, 8},
		{"triple orange", [3]Symbol{SymbolOrange, SymbolOrange, SymbolOrange}, 10},
		{"triple watermelon", [3]Symbol{SymbolWatermelon, SymbolWatermelon, SymbolWatermelon}, 15},
		{"triple star", [3]Symbol{SymbolStar, SymbolStar, SymbolStar}, 25},
		{"triple diamond", [3]Symbol{SymbolDiamond, SymbolDiamond, SymbolDiamond}, 50},
		{"leading pair", [3]Symbol{SymbolCherry, SymbolCherry, SymbolLemon}, 2},
		{"trailing pair", [3]Symbol{SymbolLemon, SymbolCherry, SymbolCherry}, 2},
		{"split pair", [3]Symbol{SymbolCherry, SymbolLemon, SymbolCherry}, 2},
		{"lone diamond first", [3]Symbol{SymbolDiamond, SymbolCherry, SymbolLemon}, 1},
		{"lone diamond middle", [3]Symbol{SymbolCherry, SymbolDiamond, SymbolLemon}, 1},
		{"diamond pair beats consolation", [3]Symbol{SymbolDiamond, SymbolDiamond, SymbolLemon}, 2},
		{"no match", [3]Symbol{SymbolCherry, SymbolLemon, SymbolOrange}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Payout(tt.symbols))
		})
	}
}

func TestStop_CashOutProfit(t *testing.T) {
	src := &scriptedSource{queue: []int{97, 98, 99, 1}}
	e, s := startSlots(t, src, "10 100")

	_, err := e.Submit(context.Background(), s, "spin")
	require.NoError(t, err)

	res, err := e.Stop(context.Background(), s)
	require.NoError(t, err)
	require.True(t, res.Done)
	require.NotNil(t, res.Score)

	assert.Equal(t, int64(490), res.Score.Score, "score is net profit, not balance")
	assert.Equal(t, session.KindSlots, res.Score.Kind)
	assert.Equal(t, 1, res.Score.Attempts)
	assert.InDelta(t, 1.0, res.Score.Accuracy, 1e-9)
	assert.True(t, res.Score.Won)
	assert.Equal(t, session.EndStopped, res.Score.Reason)
}

func TestStop_CashOutAtLoss(t *testing.T) {
	src := &scriptedSource{queue: []int{0, 30, 55}}
	e, s := startSlots(t, src, "10 100")

	_, err := e.Submit(context.Background(), s, "spin")
	require.NoError(t, err)

	res, err := e.Stop(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(-10), res.Score.Score)
	assert.False(t, res.Score.Won)
}

func TestExpire_CashesOut(t *testing.T) {
	e, s := startSlots(t, rng.New(1), "10 100")

	res := e.Expire(s)
	require.True(t, res.Done)
	require.NotNil(t, res.Score)
	assert.Equal(t, session.EndExpired, res.Score.Reason)
	assert.Equal(t, int64(0), res.Score.Score)
	assert.Zero(t, res.Score.Accuracy)
}

func TestHint_Unsupported(t *testing.T) {
	e, s := startSlots(t, rng.New(1), "")
	_, err := e.Hint(context.Background(), s)
	assert.ErrorIs(t, err, game.ErrHintUnsupported)
}

func TestStatus(t *testing.T) {
	src := &scriptedSource{queue: []int{0, 30, 55}}
	e, s := startSlots(t, src, "10 100")

	_, err := e.Submit(context.Background(), s, "spin")
	require.NoError(t, err)

	res := e.Status(s)
	assert.Contains(t, res.Text, "Balance: 90")
	assert.Contains(t, res.Text, "Spins: 1")
}

// TestDrawReelMembershipProperty checks that every draw lands on a reel
// symbol regardless of seed.
func TestDrawReelMembershipProperty(t *testing.T) {
	valid := make(map[Symbol]bool)
	for _, entry := range reel {
		valid[entry.Symbol] = true
	}

	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		e := New(rng.New(seed), nil)

		for i := 0; i < 100; i++ {
			sym := e.draw()
			if !valid[sym] {
				t.Fatalf("draw produced %q, not on the reel", sym)
			}
		}
	})
}
