// Package retry provides a generic exponential-backoff wrapper around
// fallible operations. It knows nothing about the callers' domain; the
// caller supplies the retryability classification.
package retry

import (
	"context"
	"time"
)

// Options controls one retry loop. Zero values are normalized by Do.
type Options struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// InitialDelay is the sleep after the first failed attempt.
	InitialDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Multiplier scales the delay after each failed attempt.
	Multiplier float64
	// Classify reports whether an error is worth retrying. A nil
	// Classify retries every error.
	Classify func(error) bool
	// OnRetry is invoked before each sleep with the attempt that just
	// failed (1-based), the upcoming delay, and the error.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func (o Options) normalized() Options {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.Multiplier < 1 {
		o.Multiplier = 2
	}
	return o
}

// Do runs op up to opts.MaxAttempts times. Between attempt n and n+1 it
// sleeps min(InitialDelay × Multiplier^(n-1), MaxDelay). Non-retryable
// errors propagate immediately. When every attempt fails, the last
// error is returned unchanged so callers can distinguish "gave up" from
// "succeeded". Do keeps no state between calls and is safe to invoke
// concurrently for independent operations.
func Do[T any](ctx context.Context, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	opts = opts.normalized()

	var zero T
	var lastErr error
	delay := opts.InitialDelay

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if opts.Classify != nil && !opts.Classify(err) {
			return zero, err
		}
		if attempt == opts.MaxAttempts {
			break
		}

		if opts.MaxDelay > 0 && delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, delay, err)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}

		delay = time.Duration(float64(delay) * opts.Multiplier)
	}

	return zero, lastErr
}
