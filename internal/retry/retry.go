// Package retry runs store operations under a bounded exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/allisson/viewvault/internal/errors"
)

// Policy bounds a retried operation.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first one.
	MaxAttempts int
	// InitialInterval is the delay before the second attempt.
	InitialInterval time.Duration
	// MaxInterval caps the delay between attempts.
	MaxInterval time.Duration
	// OnRetry, when set, is called before each delay with the error that triggered it.
	OnRetry func(err error, next time.Duration)
}

// DefaultPolicy is 3 attempts, 100ms doubling up to 1s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// Do calls fn until it succeeds, returns a non-transient error, the attempts are
// exhausted or ctx is done. Only errors wrapping ErrUnavailable are retried; any
// other error is returned immediately. The last error is returned on exhaustion.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.InitialInterval
	exp.MaxInterval = policy.MaxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)

	operation := func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !apperrors.Is(err, apperrors.ErrUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		if policy.OnRetry != nil {
			policy.OnRetry(err, next)
		}
	}

	return backoff.RetryNotify(operation, b, notify)
}
