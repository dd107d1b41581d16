// Package retry runs operations with exponential backoff and jitter.
// The hub uses it to reach PostgreSQL and Redis at start-up, when the
// backing services may still be coming up, and for short score board writes.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MARKERS
// ══════════════════════════════════════════════════════════════════════════════

// markedError carries the caller's verdict about an error.
type markedError struct {
	err       error
	permanent bool
}

func (e *markedError) Error() string { return e.err.Error() }
func (e *markedError) Unwrap() error { return e.err }

// Retryable marks err as worth another attempt.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err}
}

// Permanent marks err as final: Do returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err, permanent: true}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var m *markedError
	return errors.As(err, &m) && !m.permanent
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var m *markedError
	return errors.As(err, &m) && m.permanent
}

// unmark strips the outer marker so callers see the original error.
func unmark(err error) error {
	var m *markedError
	if errors.As(err, &m) && err == error(m) {
		return m.err
	}
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// POLICY
// ══════════════════════════════════════════════════════════════════════════════

// Policy describes how an operation is retried. The zero value makes a
// single attempt.
type Policy struct {
	// Attempts is the total number of attempts, the first one included.
	Attempts int

	// Initial is the delay before the first retry; each further retry
	// multiplies it by Multiplier, capped at Max.
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64

	// Jitter spreads each delay by ±Jitter of its value (0..1).
	Jitter float64

	// RetryAll retries every error except Permanent ones. Otherwise only
	// errors marked Retryable are retried.
	RetryAll bool

	// OnRetry is called before sleeping between attempts.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Startup returns the policy for connecting to a backing service at
// start-up. Every error is retried except Permanent ones.
func Startup(attempts int, onRetry func(attempt int, err error, delay time.Duration)) Policy {
	return Policy{
		Attempts:   attempts,
		Initial:    250 * time.Millisecond,
		Max:        5 * time.Second,
		Multiplier: 2,
		Jitter:     0.2,
		RetryAll:   true,
		OnRetry:    onRetry,
	}
}

// Store returns the policy for short store writes such as score board
// updates. Only Retryable errors are retried.
func Store() Policy {
	return Policy{
		Attempts:   3,
		Initial:    50 * time.Millisecond,
		Max:        time.Second,
		Multiplier: 2,
		Jitter:     0.05,
	}
}

// Do runs op until it succeeds, the policy gives up or ctx is done.
// The returned error is the last one op produced, without its marker.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := max(p.Attempts, 1)

	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return unmark(last)
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err

		if !p.shouldRetry(err) || attempt >= attempts {
			return unmark(err)
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, unmark(err), delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return unmark(last)
		case <-timer.C:
		}
	}
}

func (p Policy) shouldRetry(err error) bool {
	if IsPermanent(err) {
		return false
	}
	return p.RetryAll || IsRetryable(err)
}

// Delay returns the pause after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	d := float64(p.Initial) * math.Pow(multiplier, float64(attempt-1))
	if p.Max > 0 && d > float64(p.Max) {
		d = float64(p.Max)
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(math.Max(d, 0))
}

// Value runs op under p and returns its result.
func Value[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = op(ctx)
		return err
	})
	return result, err
}
