package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindValid(t *testing.T) {
	for _, k := range AllKinds() {
		assert.True(t, k.Valid(), "%s", k)
	}
	assert.False(t, Kind("chess").Valid())
	assert.False(t, Kind("").Valid())
}

func TestNewBase_DeadlineFromTTL(t *testing.T) {
	now := time.Now()
	b := NewBase("42", KindMathQuiz, now, 5*time.Minute)

	assert.Equal(t, "42", b.Owner())
	assert.Equal(t, KindMathQuiz, b.Kind())
	assert.Equal(t, now, b.CreatedAt())
	assert.Equal(t, now, b.LastActivityAt())
	assert.Equal(t, now.Add(5*time.Minute), b.Deadline())
}

func TestNewBase_ZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	b := NewBase("42", KindSlots, now, 0)

	assert.True(t, b.Deadline().IsZero())
	assert.False(t, Expired(&b, now.Add(1000*time.Hour)))
}

func TestTouch_DoesNotMoveDeadline(t *testing.T) {
	now := time.Now()
	b := NewBase("42", KindWordGuess, now, time.Minute)

	later := now.Add(30 * time.Second)
	b.Touch(later)

	assert.Equal(t, later, b.LastActivityAt())
	assert.Equal(t, now.Add(time.Minute), b.Deadline())
}

func TestResetDeadline(t *testing.T) {
	now := time.Now()
	b := NewBase("42", KindWordGuess, now, time.Minute)

	later := now.Add(45 * time.Second)
	b.ResetDeadline(later, time.Minute)

	assert.Equal(t, later, b.LastActivityAt())
	assert.Equal(t, later.Add(time.Minute), b.Deadline())
}

func TestResetDeadline_ZeroTTLKeepsDeadline(t *testing.T) {
	now := time.Now()
	b := NewBase("42", KindSlots, now, 0)

	b.ResetDeadline(now.Add(time.Minute), 0)
	assert.True(t, b.Deadline().IsZero())
}

func TestExpired(t *testing.T) {
	now := time.Now()
	b := NewBase("42", KindBattle, now, time.Minute)

	assert.False(t, Expired(&b, now))
	assert.False(t, Expired(&b, now.Add(time.Minute)), "the deadline itself is not yet expired")
	assert.True(t, Expired(&b, now.Add(time.Minute+time.Nanosecond)))
}
