// Package retry provides the single retry policy used for remote store
// calls: a fixed number of attempts separated by a constant delay, with
// no exponential growth. Every call site that retries goes through this
// package so the budget is applied uniformly.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// defaultAttempts is the total attempt budget, including the first try.
	defaultAttempts = 3

	// defaultDelay is the fixed wait between attempts.
	defaultDelay = 2 * time.Second
)

// Policy retries an operation a fixed number of times with a constant
// delay between attempts. The zero value is not usable; construct with
// Default or NewPolicy.
type Policy struct {
	attempts uint64
	delay    time.Duration
}

// Default returns the standard policy: 3 attempts, 2 seconds apart.
func Default() Policy {
	return NewPolicy(defaultAttempts, defaultDelay)
}

// NewPolicy builds a policy with the given total attempt budget and
// inter-attempt delay. Attempts below 1 are clamped to 1.
func NewPolicy(attempts int, delay time.Duration) Policy {
	if attempts < 1 {
		attempts = 1
	}

	return Policy{attempts: uint64(attempts), delay: delay}
}

// Permanent marks err as non-retryable. Do stops immediately and returns
// the underlying error. A nil err is returned as-is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return backoff.Permanent(err)
}

// Do runs fn up to the policy's attempt budget, waiting the fixed delay
// between failures. It stops early when fn succeeds, when fn returns an
// error marked Permanent, or when ctx is cancelled. The returned error
// is fn's last error, unwrapped from any Permanent marker.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, name string, fn func() error) error {
	if logger == nil {
		logger = slog.Default()
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.delay), p.attempts-1),
		ctx,
	)

	attempt := 0

	return backoff.RetryNotify(
		func() error {
			attempt++
			return fn()
		},
		b,
		func(err error, wait time.Duration) {
			logger.Warn("retrying after failure",
				slog.String("call", name),
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait),
				slog.String("error", err.Error()),
			)
		},
	)
}
