package safety

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_StartsFull(t *testing.T) {
	rl := NewRateLimiter("test", 3, 1)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow(), "an empty bucket must deny")
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter("test", 2, 2)
	rl.Allow()
	rl.Allow()
	require.False(t, rl.Allow())

	// Refill happens at whole-second granularity.
	rl.lastRefill = time.Now().Add(-time.Second)
	assert.True(t, rl.Allow())
}

func TestRateLimiter_RefillCapsAtCapacity(t *testing.T) {
	rl := NewRateLimiter("test", 2, 10)
	rl.lastRefill = time.Now().Add(-time.Minute)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter("test", 1, 1)
	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestGuard_PropagatesResult(t *testing.T) {
	g := NewGuard("test", 10, 10, CircuitBreakerConfig{FailureThreshold: 5})

	require.NoError(t, g.Do(context.Background(), func() error { return nil }))

	boom := errors.New("boom")
	err := g.Do(context.Background(), func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestGuard_BreakerTripsThroughGuard(t *testing.T) {
	g := NewGuard("test", 10, 10, CircuitBreakerConfig{
		FailureThreshold: 2,
		Timeout:          time.Minute,
	})
	boom := errors.New("boom")

	g.Do(context.Background(), func() error { return boom })
	g.Do(context.Background(), func() error { return boom })

	err := g.Do(context.Background(), func() error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}
