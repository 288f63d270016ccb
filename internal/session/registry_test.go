package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// testSession is a minimal session for registry tests.
type testSession struct {
	Base
}

func newTestSession(owner string, kind Kind, ttl time.Duration) *testSession {
	return &testSession{Base: NewBase(owner, kind, time.Now(), ttl)}
}

func TestRegistry_PutGetRemove(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("42", KindMathQuiz, time.Minute)

	require.NoError(t, r.Put("42", KindMathQuiz, s, false))

	got, ok := r.Get("42", KindMathQuiz)
	require.True(t, ok)
	assert.Same(t, Session(s), got)

	_, ok = r.Get("42", KindSlots)
	assert.False(t, ok, "kinds are independent slots")
	_, ok = r.Get("7", KindMathQuiz)
	assert.False(t, ok, "owners are independent")

	removed, ok := r.Remove("42", KindMathQuiz)
	require.True(t, ok)
	assert.Same(t, Session(s), removed)

	_, ok = r.Get("42", KindMathQuiz)
	assert.False(t, ok)
	_, ok = r.Remove("42", KindMathQuiz)
	assert.False(t, ok)
}

func TestRegistry_PutConflict(t *testing.T) {
	r := NewRegistry()
	first := newTestSession("42", KindMathQuiz, time.Minute)
	second := newTestSession("42", KindMathQuiz, time.Minute)

	require.NoError(t, r.Put("42", KindMathQuiz, first, false))
	assert.ErrorIs(t, r.Put("42", KindMathQuiz, second, false), ErrAlreadyActive)

	got, _ := r.Get("42", KindMathQuiz)
	assert.Same(t, Session(first), got, "a rejected put must not replace the live session")

	require.NoError(t, r.Put("42", KindMathQuiz, second, true))
	got, _ = r.Get("42", KindMathQuiz)
	assert.Same(t, Session(second), got)
}

func TestRegistry_ActiveKindsOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Put("42", KindBattle, newTestSession("42", KindBattle, 0), false))
	require.NoError(t, r.Put("42", KindMathQuiz, newTestSession("42", KindMathQuiz, 0), false))
	require.NoError(t, r.Put("7", KindSlots, newTestSession("7", KindSlots, 0), false))

	// Display order, not insertion order.
	assert.Equal(t, []Kind{KindMathQuiz, KindBattle}, r.ActiveKinds("42"))
	assert.Equal(t, []Kind{KindSlots}, r.ActiveKinds("7"))
	assert.Empty(t, r.ActiveKinds("99"))
	assert.Equal(t, 3, r.Count())
}

func TestRegistry_ExpiredSessions(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	fresh := &testSession{Base: NewBase("1", KindMathQuiz, now, time.Hour)}
	stale := &testSession{Base: NewBase("2", KindMathQuiz, now.Add(-2*time.Minute), time.Minute)}
	eternal := &testSession{Base: NewBase("3", KindSlots, now.Add(-100*time.Hour), 0)}

	require.NoError(t, r.Put("1", KindMathQuiz, fresh, false))
	require.NoError(t, r.Put("2", KindMathQuiz, stale, false))
	require.NoError(t, r.Put("3", KindSlots, eternal, false))

	expired := r.ExpiredSessions(now)
	require.Len(t, expired, 1)
	assert.Same(t, Session(stale), expired[0])

	// The scan is read-only: removal is the caller's job, done under its
	// own serialization.
	assert.Equal(t, 3, r.Count())
	_, ok := r.Get("2", KindMathQuiz)
	assert.True(t, ok)
	_, ok = r.Get("3", KindSlots)
	assert.True(t, ok, "sessions without a deadline never report expired")
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			owner := fmt.Sprintf("%d", i)
			s := newTestSession(owner, KindMathQuiz, time.Minute)
			_ = r.Put(owner, KindMathQuiz, s, false)
			r.Get(owner, KindMathQuiz)
			r.ActiveKinds(owner)
			r.Remove(owner, KindMathQuiz)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count())
}

func TestRegistryModelProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewRegistry()
		model := make(map[string]Session)

		owners := rapid.SliceOfN(rapid.StringMatching(`[0-9]{1,3}`), 1, 5).Draw(t, "owners")
		kinds := AllKinds()

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			owner := rapid.SampledFrom(owners).Draw(t, "owner")
			kind := rapid.SampledFrom(kinds).Draw(t, "kind")
			key := owner + "/" + string(kind)

			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0: // put without overwrite
				s := newTestSession(owner, kind, time.Minute)
				err := r.Put(owner, kind, s, false)
				if _, exists := model[key]; exists {
					assert.ErrorIs(t, err, ErrAlreadyActive)
				} else {
					assert.NoError(t, err)
					model[key] = s
				}
			case 1: // remove
				got, ok := r.Remove(owner, kind)
				want, exists := model[key]
				assert.Equal(t, exists, ok)
				if exists {
					assert.Same(t, want, got)
					delete(model, key)
				}
			case 2: // get
				got, ok := r.Get(owner, kind)
				want, exists := model[key]
				assert.Equal(t, exists, ok)
				if exists {
					assert.Same(t, want, got)
				}
			}
		}

		assert.Equal(t, len(model), r.Count())
	})
}
