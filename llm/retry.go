package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMaxAttempts marks an operation that failed on every attempt allowed by
// its retry policy. The last underlying error is wrapped alongside it.
var ErrMaxAttempts = errors.New("all retry attempts exhausted")

// BackoffFunc computes the delay to wait after a failed attempt.
// attempt is 1-based.
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff returns a backoff that grows linearly: base after the first
// failure, 2*base after the second, and so on.
func LinearBackoff(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// Policy bounds how many times an operation is attempted and how long to wait
// between attempts.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
}

// DefaultPolicy is the standard generation retry policy: five attempts with
// a 2s linear backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Backoff:     LinearBackoff(2 * time.Second),
	}
}

// Do runs op up to MaxAttempts times, sleeping per the backoff between failed
// attempts. The first nil return wins. After the final failure no backoff is
// paid; the last error is wrapped with ErrMaxAttempts.
//
// The sleep is context-aware: cancellation during backoff aborts immediately
// with the context's error.
func (p Policy) Do(ctx context.Context, op func(attempt int) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxAttempts {
			break
		}

		if p.Backoff != nil {
			select {
			case <-time.After(p.Backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrMaxAttempts, p.MaxAttempts, lastErr)
}
