package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrBreakerOpen is returned while a breaker is rejecting calls.
var ErrBreakerOpen = eris.New("resilience: breaker open")

// Breaker stops calling a vendor after Threshold consecutive transient
// failures, then lets one probe through after Cooldown.
type Breaker struct {
	Threshold int
	Cooldown  time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	now      func() time.Time
}

// NewBreaker returns a breaker with the given limits (defaults 5 and 30s).
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{Threshold: threshold, Cooldown: cooldown, now: time.Now}
}

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openLocked()
}

func (b *Breaker) openLocked() bool {
	return b.failures >= b.Threshold && b.now().Sub(b.openedAt) < b.Cooldown
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil || !IsTransient(err) {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.Threshold {
		b.openedAt = b.now()
	}
}

// Call runs fn unless the breaker is open, and records its outcome.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	if b == nil {
		return fn(ctx)
	}
	if b.Open() {
		var zero T
		return zero, ErrBreakerOpen
	}
	val, err := fn(ctx)
	b.record(err)
	return val, err
}
