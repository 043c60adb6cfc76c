package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/allisson/viewvault/internal/errors"
	"github.com/allisson/viewvault/internal/metrics"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordRecords(ctx context.Context, tier, outcome string, n int64) {
	m.Called(ctx, tier, outcome, n)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

func TestAnalyticsMetricsDecorator(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := &mockAnalyticsRepository{}
		m := &mockBusinessMetrics{}
		uc := NewAnalyticsUseCaseWithMetrics(newTestUseCase(repo, 10), m)

		repo.On("DeleteByProfile", ctx, "p1").Return(int64(1), nil).Once()
		m.On("RecordOperation", ctx, "analytics", "analytics_delete_profile", "success").Once()
		m.On("RecordDuration", ctx, "analytics", "analytics_delete_profile", mock.AnythingOfType("time.Duration"), "success").
			Once()

		_, err := uc.DeleteProfile(ctx, "p1")
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})

	t.Run("error", func(t *testing.T) {
		repo := &mockAnalyticsRepository{}
		m := &mockBusinessMetrics{}
		uc := NewAnalyticsUseCaseWithMetrics(newTestUseCase(repo, 10), m)
		now := time.Now()

		repo.On("DeleteOlderThan", ctx, mock.Anything, 10).Return(int64(0), apperrors.ErrUnavailable).Once()
		m.On("RecordOperation", ctx, "analytics", "analytics_purge", "error").Once()
		m.On("RecordDuration", ctx, "analytics", "analytics_purge", mock.AnythingOfType("time.Duration"), "error").Once()

		_, err := uc.PurgeExpired(ctx, now)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		m.AssertExpectations(t)
	})
}
