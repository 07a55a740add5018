// Package retry provides the bounded retry policy used around
// collaborator calls. The policy is an explicit value with an injectable
// clock so callers get deterministic tests instead of implicit
// sleep loops.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds retries of a collaborator call. The zero value retries
// nothing; use Default for the standard collaborator policy.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64
	// InitialDelay is the first backoff interval.
	InitialDelay time.Duration
	// MaxDelay caps the backoff interval.
	MaxDelay time.Duration
	// Multiplier grows the interval between attempts.
	Multiplier float64
	// Clock is injectable for tests. Nil uses the system clock.
	Clock backoff.Clock
}

// Default is the standard policy for recognition and scoring calls:
// short, bounded, and never long enough to stall a conversation turn.
func Default() Policy {
	return Policy{
		MaxRetries:   2,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
	}
}

// Do runs op with bounded exponential backoff. Context cancellation
// stops retrying immediately; the last error is returned.
func (p Policy) Do(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	if p.InitialDelay > 0 {
		b.InitialInterval = p.InitialDelay
	}
	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	}
	if p.Multiplier > 0 {
		b.Multiplier = p.Multiplier
	}
	b.MaxElapsedTime = 0
	if p.Clock != nil {
		b.Clock = p.Clock
	}
	b.Reset()

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx))
}
