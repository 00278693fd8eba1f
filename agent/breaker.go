package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/andishehs/MetaGen/core"
	"github.com/andishehs/MetaGen/logging"
)

// Default circuit breaker settings.
const (
	defaultBreakerFailures uint32        = 5
	defaultBreakerTimeout  time.Duration = 60 * time.Second
	defaultBreakerInterval time.Duration = 60 * time.Second
)

// ErrCircuitOpen is returned while a guarded capability is failing fast.
var ErrCircuitOpen = errors.New("circuit open")

// BreakerOptions configures WithCircuitBreaker.
type BreakerOptions struct {
	// Failures is the number of consecutive failures before the circuit opens.
	Failures uint32
	// Timeout is how long the circuit stays open before half-opening.
	Timeout time.Duration
	// Interval is the cyclic period after which closed-state counts reset.
	Interval time.Duration
	Logger   logging.Logger
}

// Breaker is a capability guarded by a circuit breaker. Once the inner
// capability has failed repeatedly, calls fail fast with ErrCircuitOpen
// until the open timeout elapses and a probe succeeds.
type Breaker struct {
	inner   core.Capability
	breaker *gobreaker.CircuitBreaker[string]
}

// WithCircuitBreaker wraps inner. Cancelled calls do not count as failures.
func WithCircuitBreaker(name string, inner core.Capability, optFns ...func(o *BreakerOptions)) *Breaker {
	opts := BreakerOptions{
		Failures: defaultBreakerFailures,
		Timeout:  defaultBreakerTimeout,
		Interval: defaultBreakerInterval,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Failures == 0 {
		opts.Failures = defaultBreakerFailures
	}

	logger := opts.Logger
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "capability:" + name,
		MaxRequests: 1,
		Interval:    opts.Interval,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("capability.breaker.state",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Breaker{inner: inner, breaker: cb}
}

// Respond implements core.Capability.
func (b *Breaker) Respond(ctx context.Context, agentID string, history []core.TranscriptEntry) (string, error) {
	reply, err := b.breaker.Execute(func() (string, error) {
		return b.inner.Respond(ctx, agentID, history)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %s: %w", ErrCircuitOpen, b.breaker.Name(), err)
		}
		return "", err
	}
	return reply, nil
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State { return b.breaker.State() }
