// Package retry implements the bounded retry-with-backoff policy every
// upstream adapter applies before surfacing a fatal error.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

// Policy bounds retries with exponential backoff. The clock is injectable
// so tests run without real sleeps.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Clock          clockwork.Clock
}

// Default returns the standard adapter policy: 3 attempts, 200ms initial
// backoff doubling to a 5s cap.
func Default(clock clockwork.Clock) Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Clock:          clock,
	}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks an error as non-retryable: Do stops immediately and
// returns the wrapped error. Use it for semantic failures (bad payloads)
// as opposed to transient network faults.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op up to MaxAttempts times, sleeping with exponential backoff
// between attempts. It returns the last error together with the number of
// attempts made. Context cancellation and permanent errors stop the loop.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) (attempts int, err error) {
	backoff := p.InitialBackoff
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return attempt, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return attempt, perm.err
		}
		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}
		if attempt == p.MaxAttempts {
			return attempt, err
		}

		if !p.sleep(ctx, backoff) {
			return attempt, ctx.Err()
		}
		backoff = nextBackoff(backoff, p.MaxBackoff)
	}
	return p.MaxAttempts, err
}

func (p Policy) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := p.Clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
