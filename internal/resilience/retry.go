// Package resilience provides retry and breaker helpers for calls to
// enrichment vendors.
package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls retries with exponential backoff and jitter.
type Policy struct {
	// Attempts is the total number of tries including the first. Default 3.
	Attempts int
	// Base is the delay before the first retry. Default 500ms.
	Base time.Duration
	// Max caps any single delay. Default 10s.
	Max time.Duration
	// Jitter is the +/- fraction applied to each delay. Default 0.25.
	Jitter float64
	// Retryable overrides IsTransient.
	Retryable func(error) bool
	// OnRetry runs before each sleep.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy is tuned for HTTP calls to LLM and search vendors.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Base: 500 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.25}
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Base <= 0 {
		p.Base = 500 * time.Millisecond
	}
	if p.Max <= 0 {
		p.Max = 10 * time.Second
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// delay returns the sleep before retry number n (0-based).
func (p Policy) delay(n int) time.Duration {
	d := p.Base << n
	if d <= 0 || d > p.Max {
		d = p.Max
	}
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d += time.Duration((rand.Float64()*2 - 1) * spread)
	}
	if d < 0 {
		return 0
	}
	return d
}

// Retry runs fn until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx is done. The last error is returned unchanged.
func Retry[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()
	var zero T
	for attempt := 0; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !p.Retryable(err) || attempt+1 >= p.Attempts {
			return zero, err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}
		t := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, err
		case <-t.C:
		}
	}
}

// Do is Retry for functions without a result.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Retry(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// LogRetries returns an OnRetry hook that logs through the global logger.
func LogRetries(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying call",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
