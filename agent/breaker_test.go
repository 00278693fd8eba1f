package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andishehs/MetaGen/core"
)

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("down")
	inner := core.CapabilityFunc(func(context.Context, string, []core.TranscriptEntry) (string, error) {
		calls.Add(1)
		return "", boom
	})

	b := WithCircuitBreaker("planner", inner, func(o *BreakerOptions) {
		o.Failures = 2
		o.Timeout = time.Minute
	})

	for i := 0; i < 2; i++ {
		_, err := b.Respond(context.Background(), "planner", nil)
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Respond(context.Background(), "planner", nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCircuitBreaker_Recovers(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	inner := core.CapabilityFunc(func(context.Context, string, []core.TranscriptEntry) (string, error) {
		if failing.Load() {
			return "", errors.New("down")
		}
		return "recovered", nil
	})

	b := WithCircuitBreaker("critic", inner, func(o *BreakerOptions) {
		o.Failures = 1
		o.Timeout = 50 * time.Millisecond
	})

	_, _ = b.Respond(context.Background(), "critic", nil)
	assert.Equal(t, gobreaker.StateOpen, b.State())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, b.State())

	failing.Store(false)
	reply, err := b.Respond(context.Background(), "critic", nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestCircuitBreaker_CancellationDoesNotTrip(t *testing.T) {
	inner := core.CapabilityFunc(func(ctx context.Context, _ string, _ []core.TranscriptEntry) (string, error) {
		return "", ctx.Err()
	})
	b := WithCircuitBreaker("a", inner, func(o *BreakerOptions) { o.Failures = 1 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := b.Respond(ctx, "a", nil)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestRateLimit(t *testing.T) {
	var calls atomic.Int32
	inner := core.CapabilityFunc(func(context.Context, string, []core.TranscriptEntry) (string, error) {
		calls.Add(1)
		return "ok", nil
	})

	t.Run("disabled returns inner", func(t *testing.T) {
		c := WithRateLimit(inner, 0, 0)
		_, isLimited := c.(*RateLimited)
		assert.False(t, isLimited)
	})

	t.Run("waits beyond burst", func(t *testing.T) {
		c := WithRateLimit(inner, 1, 1)
		_, err := c.Respond(context.Background(), "a", nil)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = c.Respond(ctx, "a", nil)
		assert.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}
