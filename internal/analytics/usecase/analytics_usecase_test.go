package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	analyticsDomain "github.com/allisson/viewvault/internal/analytics/domain"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

type mockAnalyticsRepository struct {
	mock.Mock
}

func (m *mockAnalyticsRepository) Create(ctx context.Context, record *analyticsDomain.AnalyticsRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockAnalyticsRepository) CountBy(
	ctx context.Context,
	q analyticsDomain.DashboardQuery,
) ([]analyticsDomain.Bucket, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analyticsDomain.Bucket), args.Error(1)
}

func (m *mockAnalyticsRepository) CountByProfile(ctx context.Context, profileID string) (int64, error) {
	args := m.Called(ctx, profileID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAnalyticsRepository) DeleteByProfile(ctx context.Context, profileID string) (int64, error) {
	args := m.Called(ctx, profileID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAnalyticsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).(int64), args.Error(1)
}

func newTestUseCase(repo AnalyticsRepository, batch int) AnalyticsUseCase {
	return NewAnalyticsUseCase(
		repo,
		Retention{AnalyticsDays: 730, ComplianceMonths: 12, PurgeBatchSize: batch},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestAnalyticsUseCase_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("stores valid record", func(t *testing.T) {
		repo := &mockAnalyticsRepository{}
		uc := newTestUseCase(repo, 10)
		record := &analyticsDomain.AnalyticsRecord{
			ViewID: uuid.New(), ProfileID: "p1", ViewedAt: time.Now().UTC(),
			Country: "Unknown", Province: "Unknown", City: "Unknown",
			Browser: "Chrome", OS: "Android", Device: "mobile",
		}
		repo.On("Create", ctx, record).Return(nil).Once()

		require.NoError(t, uc.Record(ctx, record))
		repo.AssertExpectations(t)
	})

	t.Run("rejects invalid record before storage", func(t *testing.T) {
		repo := &mockAnalyticsRepository{}
		uc := newTestUseCase(repo, 10)

		err := uc.Record(ctx, &analyticsDomain.AnalyticsRecord{ViewID: uuid.New()})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAnalyticsUseCase_Dashboard(t *testing.T) {
	ctx := context.Background()
	repo := &mockAnalyticsRepository{}
	uc := newTestUseCase(repo, 10)
	q := analyticsDomain.DashboardQuery{
		ProfileID: "p1",
		From:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		GroupBy:   analyticsDomain.GroupByBrowser,
	}
	expected := []analyticsDomain.Bucket{{Bucket: "Chrome", Count: 3}}
	repo.On("CountBy", ctx, q).Return(expected, nil).Once()

	buckets, err := uc.Dashboard(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, expected, buckets)

	q.GroupBy = "viewer"
	_, err = uc.Dashboard(ctx, q)
	assert.ErrorIs(t, err, analyticsDomain.ErrInvalidQuery)
	repo.AssertExpectations(t)
}

func TestAnalyticsUseCase_PrivacySummary(t *testing.T) {
	ctx := context.Background()
	to := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	from := to.Add(-analyticsDomain.PrivacyWindow)

	t.Run("aggregates the last window", func(t *testing.T) {
		repo := &mockAnalyticsRepository{}
		uc := newTestUseCase(repo, 10)

		cities := []analyticsDomain.Bucket{{Bucket: "Lisbon", Count: 3}}
		devices := []analyticsDomain.Bucket{{Bucket: "mobile", Count: 2}, {Bucket: "desktop", Count: 1}}
		browsers := []analyticsDomain.Bucket{{Bucket: "Safari", Count: 3}}
		query := func(groupBy analyticsDomain.GroupBy) analyticsDomain.DashboardQuery {
			return analyticsDomain.DashboardQuery{ProfileID: "p1", From: from, To: to, GroupBy: groupBy}
		}

		repo.On("CountByProfile", ctx, "p1").Return(int64(42), nil).Once()
		repo.On("CountBy", ctx, query(analyticsDomain.GroupByCity)).Return(cities, nil).Once()
		repo.On("CountBy", ctx, query(analyticsDomain.GroupByDevice)).Return(devices, nil).Once()
		repo.On("CountBy", ctx, query(analyticsDomain.GroupByBrowser)).Return(browsers, nil).Once()

		summary, err := uc.PrivacySummary(ctx, analyticsDomain.PrivacyQuery{Owner: "p1", ProfileID: "p1", To: to})
		require.NoError(t, err)
		assert.Equal(t, int64(42), summary.TotalViews)
		assert.Equal(t, from, summary.From)
		assert.Equal(t, cities, summary.ByCity)
		assert.Equal(t, devices, summary.ByDevice)
		assert.Equal(t, browsers, summary.ByBrowser)
		assert.Equal(t, 730, summary.AnalyticsRetentionDays)
		assert.Equal(t, 12, summary.ComplianceRetentionMonths)
		repo.AssertExpectations(t)
	})

	t.Run("other owner is forbidden", func(t *testing.T) {
		repo := &mockAnalyticsRepository{}
		uc := newTestUseCase(repo, 10)

		_, err := uc.PrivacySummary(ctx, analyticsDomain.PrivacyQuery{Owner: "p2", ProfileID: "p1", To: to})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		_, err = uc.PrivacySummary(ctx, analyticsDomain.PrivacyQuery{ProfileID: "p1", To: to})
		assert.ErrorIs(t, err, analyticsDomain.ErrNotProfileOwner)
		repo.AssertNotCalled(t, "CountByProfile", mock.Anything, mock.Anything)
	})

	t.Run("missing profile", func(t *testing.T) {
		uc := newTestUseCase(&mockAnalyticsRepository{}, 10)
		_, err := uc.PrivacySummary(ctx, analyticsDomain.PrivacyQuery{To: to})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := &mockAnalyticsRepository{}
		uc := newTestUseCase(repo, 10)
		repo.On("CountByProfile", ctx, "p1").Return(int64(0), apperrors.ErrUnavailable).Once()

		_, err := uc.PrivacySummary(ctx, analyticsDomain.PrivacyQuery{Owner: "p1", ProfileID: "p1", To: to})
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	})
}

func TestAnalyticsUseCase_DeleteProfile(t *testing.T) {
	ctx := context.Background()
	repo := &mockAnalyticsRepository{}
	uc := newTestUseCase(repo, 10)
	repo.On("DeleteByProfile", ctx, "p1").Return(int64(3), nil).Once()

	deleted, err := uc.DeleteProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestAnalyticsUseCase_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	cutoff := now.AddDate(0, 0, -730)

	t.Run("loops until a short batch", func(t *testing.T) {
		repo := &mockAnalyticsRepository{}
		uc := newTestUseCase(repo, 10)
		repo.On("DeleteOlderThan", ctx, cutoff, 10).Return(int64(10), nil).Twice()
		repo.On("DeleteOlderThan", ctx, cutoff, 10).Return(int64(4), nil).Once()

		deleted, err := uc.PurgeExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(24), deleted)
		repo.AssertNumberOfCalls(t, "DeleteOlderThan", 3)
	})

	t.Run("nothing expired", func(t *testing.T) {
		repo := &mockAnalyticsRepository{}
		uc := newTestUseCase(repo, 10)
		repo.On("DeleteOlderThan", ctx, cutoff, 10).Return(int64(0), nil).Once()

		deleted, err := uc.PurgeExpired(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})

	t.Run("reports progress on failure", func(t *testing.T) {
		repo := &mockAnalyticsRepository{}
		uc := newTestUseCase(repo, 10)
		repo.On("DeleteOlderThan", ctx, cutoff, 10).Return(int64(10), nil).Once()
		repo.On("DeleteOlderThan", ctx, cutoff, 10).Return(int64(0), apperrors.ErrUnavailable).Once()

		deleted, err := uc.PurgeExpired(ctx, now)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		assert.Equal(t, int64(10), deleted)
	})
}
