// Package retry provides an explicit retry policy consumed by a generic
// executor, so backoff behaviour is configured and tested independently of
// the call sites that use it.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// Delays is the per-attempt backoff schedule. Attempt n waits
	// Delays[n] before retrying; the last entry repeats for attempts
	// beyond the schedule length. An empty schedule retries immediately.
	Delays []time.Duration
}

// ExhaustedError reports an operation that failed after all retries.
// It carries enough context for the caller to decide whether to abort
// the enclosing ingestion or query operation.
type ExhaustedError struct {
	// Op is the operation name.
	Op string

	// Attempts is the total number of attempts made.
	Attempts int

	// Last is the error from the final attempt.
	Last error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: failed after %d attempts: %v", e.Op, e.Attempts, e.Last)
}

// Unwrap returns the final attempt's error.
func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Do runs fn until it succeeds, the policy is exhausted, or the context is
// cancelled. It returns the number of retries performed (0 when the first
// attempt succeeds). On exhaustion the returned error is an *ExhaustedError
// wrapping the last failure; on cancellation it is the context error.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) (int, error) {
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := p.wait(ctx, attempt-1); err != nil {
				return attempt - 1, err
			}
		}

		if err := ctx.Err(); err != nil {
			return attempt, err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}
	}

	return p.MaxRetries, &ExhaustedError{
		Op:       op,
		Attempts: p.MaxRetries + 1,
		Last:     lastErr,
	}
}

// wait sleeps for the delay assigned to the given attempt index,
// aborting early if the context is cancelled.
func (p Policy) wait(ctx context.Context, attempt int) error {
	d := p.delay(attempt)
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// delay returns the backoff for the given attempt index.
func (p Policy) delay(attempt int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if attempt >= len(p.Delays) {
		attempt = len(p.Delays) - 1
	}
	return p.Delays[attempt]
}
