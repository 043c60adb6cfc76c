package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/viewvault/internal/errors"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	retries := 0
	policy := fastPolicy(3)
	policy.OnRetry = func(err error, next time.Duration) {
		retries++
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	}

	err := Do(context.Background(), policy, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return apperrors.Wrap(apperrors.ErrUnavailable, "connection reset")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		return apperrors.ErrUnavailable
	})
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryPermanentErrors(t *testing.T) {
	boom := errors.New("constraint violated")
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDo_CryptoFailureIsNeverRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		return apperrors.ErrCryptoFailed
	})
	assert.ErrorIs(t, err, apperrors.ErrCryptoFailed)
	assert.Equal(t, 1, calls)
}

func TestDo_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := Policy{MaxAttempts: 10, InitialInterval: 50 * time.Millisecond, MaxInterval: time.Second}

	err := Do(ctx, policy, func(ctx context.Context) error {
		calls++
		cancel()
		return apperrors.ErrUnavailable
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{}, func(ctx context.Context) error {
		calls++
		return apperrors.ErrUnavailable
	})
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.Equal(t, 1, calls)
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, p.InitialInterval)
	assert.Equal(t, time.Second, p.MaxInterval)
}
