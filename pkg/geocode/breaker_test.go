package geocode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})

	b.Record(assert.AnError)
	assert.Equal(t, BreakerClosed, b.State())
	assert.NoError(t, b.Allow())

	b.Record(assert.AnError)
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen)
}

func TestBreaker_NoResultDoesNotTrip(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1})
	b.Record(ErrNoResult)
	b.Record(ErrInvalidCoordinates)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Second})
	b.nowFunc = func() time.Time { return now }

	b.Record(assert.AnError)
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen)

	now = now.Add(11 * time.Second)
	assert.Equal(t, BreakerHalfOpen, b.State())
	assert.NoError(t, b.Allow())

	// A failed trial request reopens immediately.
	b.Record(assert.AnError)
	assert.Equal(t, BreakerOpen, b.State())

	now = now.Add(11 * time.Second)
	assert.NoError(t, b.Allow())
	b.Record(nil)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", BreakerClosed.String())
	assert.Equal(t, "open", BreakerOpen.String())
	assert.Equal(t, "half-open", BreakerHalfOpen.String())
	assert.Equal(t, "unknown", BreakerState(9).String())
}
