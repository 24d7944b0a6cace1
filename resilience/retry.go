// Package resilience provides the retry-with-backoff and circuit-breaker
// primitives that wrap external calls made from processor init-owned
// workers (spec §7's ExternalError: "logged; worker sleeps briefly and
// retries; never crashes the processor").
package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/lookatitude/beluga-ai/core"
)

// RetryPolicy configures Retry's backoff schedule and which errors it
// considers worth retrying.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls to fn, including the first.
	// Zero is normalized to the default.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration
	// BackoffFactor multiplies the delay after every attempt.
	BackoffFactor float64
	// Jitter randomizes each delay in [0, delay) to avoid thundering herds.
	Jitter bool
	// RetryableErrors overrides core.IsRetryable's default set. When set, a
	// *core.Error is retried only if its Code is in this list.
	RetryableErrors []core.ErrorCode
}

// DefaultRetryPolicy returns the default policy. Retry replaces each
// non-positive MaxAttempts, InitialBackoff, MaxBackoff or BackoffFactor of
// the policy it is given with the value from here; Jitter is used as given.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         true,
	}
}

func (p RetryPolicy) normalize() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = d.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = d.BackoffFactor
	}
	return p
}

func (p RetryPolicy) retryable(err error) bool {
	if len(p.RetryableErrors) == 0 {
		return core.IsRetryable(err)
	}
	var e *core.Error
	if !errors.As(err, &e) {
		return false
	}
	for _, code := range p.RetryableErrors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Retry calls fn until it succeeds, a non-retryable error is returned, ctx
// is cancelled, or policy.MaxAttempts is exhausted, backing off between
// attempts per policy.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	policy = policy.normalize()

	var zero T
	delay := policy.InitialBackoff

	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt >= policy.MaxAttempts || !policy.retryable(err) {
			return zero, err
		}

		wait := delay
		if policy.Jitter {
			wait = time.Duration(rand.Int64N(int64(wait) + 1))
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return zero, ctx.Err()
		}

		delay = time.Duration(float64(delay) * policy.BackoffFactor)
		if delay > policy.MaxBackoff {
			delay = policy.MaxBackoff
		}
	}
}
