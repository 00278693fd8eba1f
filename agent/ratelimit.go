package agent

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/andishehs/MetaGen/core"
)

// RateLimited is a capability whose calls are paced by a token bucket.
type RateLimited struct {
	inner   core.Capability
	limiter *rate.Limiter
}

// WithRateLimit wraps inner so that it is invoked at most perSecond times per
// second with the given burst. A non-positive perSecond returns inner
// unchanged.
func WithRateLimit(inner core.Capability, perSecond float64, burst int) core.Capability {
	if perSecond <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Respond implements core.Capability. Waiting for a token honours ctx.
func (r *RateLimited) Respond(ctx context.Context, agentID string, history []core.TranscriptEntry) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait for %s: %w", agentID, err)
	}
	return r.inner.Respond(ctx, agentID, history)
}
