package dispatch

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces channel starts.
type Limiter interface {
	Wait(ctx context.Context) error
}

type limiterAdapter struct {
	limiter *rate.Limiter
}

// NewTokenBucketLimiter returns a token bucket limiter, or nil when
// ratePerSecond is not positive (pacing off).
func NewTokenBucketLimiter(ratePerSecond float64, burst int) Limiter {
	if ratePerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	return &limiterAdapter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (l *limiterAdapter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
