package usecase

import (
	"context"
	"time"

	analyticsDomain "github.com/allisson/viewvault/internal/analytics/domain"
	"github.com/allisson/viewvault/internal/metrics"
)

// analyticsUseCaseWithMetrics decorates AnalyticsUseCase with metrics instrumentation.
type analyticsUseCaseWithMetrics struct {
	next    AnalyticsUseCase
	metrics metrics.BusinessMetrics
}

// NewAnalyticsUseCaseWithMetrics wraps an AnalyticsUseCase with metrics recording.
func NewAnalyticsUseCaseWithMetrics(useCase AnalyticsUseCase, m metrics.BusinessMetrics) AnalyticsUseCase {
	return &analyticsUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *analyticsUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "analytics", operation, status)
	a.metrics.RecordDuration(ctx, "analytics", operation, time.Since(start), status)
}

// Record records metrics for analytics record writes.
func (a *analyticsUseCaseWithMetrics) Record(ctx context.Context, record *analyticsDomain.AnalyticsRecord) error {
	start := time.Now()
	err := a.next.Record(ctx, record)
	a.record(ctx, "analytics_record", start, err)
	return err
}

// Dashboard records metrics for dashboard reads.
func (a *analyticsUseCaseWithMetrics) Dashboard(
	ctx context.Context,
	q analyticsDomain.DashboardQuery,
) ([]analyticsDomain.Bucket, error) {
	start := time.Now()
	buckets, err := a.next.Dashboard(ctx, q)
	a.record(ctx, "analytics_dashboard", start, err)
	return buckets, err
}

// PrivacySummary records metrics for privacy summary reads.
func (a *analyticsUseCaseWithMetrics) PrivacySummary(
	ctx context.Context,
	q analyticsDomain.PrivacyQuery,
) (*analyticsDomain.PrivacySummary, error) {
	start := time.Now()
	summary, err := a.next.PrivacySummary(ctx, q)
	a.record(ctx, "analytics_privacy_summary", start, err)
	return summary, err
}

// DeleteProfile records metrics for owner account deletions.
func (a *analyticsUseCaseWithMetrics) DeleteProfile(ctx context.Context, profileID string) (int64, error) {
	start := time.Now()
	deleted, err := a.next.DeleteProfile(ctx, profileID)
	a.record(ctx, "analytics_delete_profile", start, err)
	return deleted, err
}

// PurgeExpired records metrics for retention purges.
func (a *analyticsUseCaseWithMetrics) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	start := time.Now()
	deleted, err := a.next.PurgeExpired(ctx, now)
	a.record(ctx, "analytics_purge", start, err)
	return deleted, err
}
