// Package rng provides an injectable source of randomness for the game engines.
// Every draw the engines make goes through a Source so outcomes can be scripted
// or seeded deterministically in tests.
package rng

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the randomness contract consumed by the game engines.
type Source interface {
	// Intn returns a uniform int in [0, n). Panics if n <= 0.
	Intn(n int) int

	// Shuffle pseudo-randomizes the order of n elements via swap.
	Shuffle(n int, swap func(i, j int))
}

// lockedSource wraps math/rand with a mutex so a single Source can be shared
// across handler goroutines.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a Source seeded with the given value. Two Sources created with
// the same seed produce identical draw sequences.
func New(seed int64) Source {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSeeded returns a Source seeded from the wall clock.
func NewTimeSeeded() Source {
	return New(time.Now().UnixNano())
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

func (s *lockedSource) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}
