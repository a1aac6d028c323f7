package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	now := time.Unix(1000, 0)
	b := NewBreaker(2, time.Minute)
	b.now = func() time.Time { return now }

	fail := func(context.Context) (int, error) { return 0, NewTransientError(errors.New("503"), 503) }
	ctx := context.Background()

	_, err := Call(ctx, b, fail)
	assert.NotErrorIs(t, err, ErrBreakerOpen)
	_, _ = Call(ctx, b, fail)
	assert.True(t, b.Open())

	calls := 0
	_, err = Call(ctx, b, func(context.Context) (int, error) { calls++; return 1, nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 0, calls)

	now = now.Add(2 * time.Minute)
	assert.False(t, b.Open())
	v, err := Call(ctx, b, func(context.Context) (int, error) { return 7, nil })
	assert.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.False(t, b.Open())
}

func TestBreaker_PermanentErrorsDoNotTrip(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	_, _ = Call(context.Background(), b, func(context.Context) (int, error) { return 0, errors.New("400") })
	assert.False(t, b.Open())
}

func TestBreaker_Nil(t *testing.T) {
	v, err := Call(context.Background(), nil, func(context.Context) (string, error) { return "x", nil })
	assert.NoError(t, err)
	assert.Equal(t, "x", v)
}
