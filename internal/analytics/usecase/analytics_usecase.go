package usecase

import (
	"context"
	"log/slog"
	"time"

	analyticsDomain "github.com/allisson/viewvault/internal/analytics/domain"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

// Retention describes the retention windows reported to profile owners.
type Retention struct {
	AnalyticsDays    int
	ComplianceMonths int
	// PurgeBatchSize bounds each delete statement of a purge.
	PurgeBatchSize int
}

type analyticsUseCase struct {
	repo      AnalyticsRepository
	retention Retention
	logger    *slog.Logger
}

// NewAnalyticsUseCase creates an AnalyticsUseCase.
func NewAnalyticsUseCase(repo AnalyticsRepository, retention Retention, logger *slog.Logger) AnalyticsUseCase {
	if retention.PurgeBatchSize < 1 {
		retention.PurgeBatchSize = 500
	}
	return &analyticsUseCase{
		repo:      repo,
		retention: retention,
		logger:    logger,
	}
}

func (a *analyticsUseCase) Record(ctx context.Context, record *analyticsDomain.AnalyticsRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	return a.repo.Create(ctx, record)
}

func (a *analyticsUseCase) Dashboard(
	ctx context.Context,
	q analyticsDomain.DashboardQuery,
) ([]analyticsDomain.Bucket, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return a.repo.CountBy(ctx, q)
}

func (a *analyticsUseCase) PrivacySummary(
	ctx context.Context,
	q analyticsDomain.PrivacyQuery,
) (*analyticsDomain.PrivacySummary, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	to := q.To.UTC()
	summary := &analyticsDomain.PrivacySummary{
		ProfileID:                 q.ProfileID,
		From:                      to.Add(-analyticsDomain.PrivacyWindow),
		To:                        to,
		AnalyticsRetentionDays:    a.retention.AnalyticsDays,
		ComplianceRetentionMonths: a.retention.ComplianceMonths,
	}

	total, err := a.repo.CountByProfile(ctx, q.ProfileID)
	if err != nil {
		return nil, err
	}
	summary.TotalViews = total

	breakdowns := []struct {
		groupBy analyticsDomain.GroupBy
		into    *[]analyticsDomain.Bucket
	}{
		{analyticsDomain.GroupByCity, &summary.ByCity},
		{analyticsDomain.GroupByDevice, &summary.ByDevice},
		{analyticsDomain.GroupByBrowser, &summary.ByBrowser},
	}
	for _, b := range breakdowns {
		buckets, err := a.repo.CountBy(ctx, analyticsDomain.DashboardQuery{
			ProfileID: q.ProfileID,
			From:      summary.From,
			To:        summary.To,
			GroupBy:   b.groupBy,
		})
		if err != nil {
			return nil, err
		}
		*b.into = buckets
	}

	return summary, nil
}

func (a *analyticsUseCase) DeleteProfile(ctx context.Context, profileID string) (int64, error) {
	if profileID == "" {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "profile id is required")
	}

	deleted, err := a.repo.DeleteByProfile(ctx, profileID)
	if err != nil {
		return 0, err
	}

	a.logger.Info("deleted profile analytics", slog.Int64("deleted", deleted))
	return deleted, nil
}

// PurgeExpired deletes in batches until a batch comes back short, so a large
// backlog never holds one long-running delete.
func (a *analyticsUseCase) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.UTC().AddDate(0, 0, -a.retention.AnalyticsDays)

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		deleted, err := a.repo.DeleteOlderThan(ctx, cutoff, a.retention.PurgeBatchSize)
		if err != nil {
			return total, err
		}
		total += deleted

		if deleted < int64(a.retention.PurgeBatchSize) {
			break
		}
	}

	a.logger.Info("purged expired analytics",
		slog.Int64("deleted", total),
		slog.Time("cutoff", cutoff),
	)
	return total, nil
}
