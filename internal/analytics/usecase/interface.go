// Package usecase implements the Tier-1 analytics operations: recording coarse views,
// the owner dashboard and retention purges. Nothing here ever touches Tier-2.
package usecase

import (
	"context"
	"time"

	analyticsDomain "github.com/allisson/viewvault/internal/analytics/domain"
)

// AnalyticsRepository defines the interface for analytics record persistence.
type AnalyticsRepository interface {
	Create(ctx context.Context, record *analyticsDomain.AnalyticsRecord) error
	CountBy(ctx context.Context, q analyticsDomain.DashboardQuery) ([]analyticsDomain.Bucket, error)
	CountByProfile(ctx context.Context, profileID string) (int64, error)
	DeleteByProfile(ctx context.Context, profileID string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// AnalyticsUseCase defines the Tier-1 business operations.
type AnalyticsUseCase interface {
	// Record stores one analytics record.
	Record(ctx context.Context, record *analyticsDomain.AnalyticsRecord) error

	// Dashboard aggregates a profile's views. Results carry bucket labels and counts only.
	Dashboard(ctx context.Context, q analyticsDomain.DashboardQuery) ([]analyticsDomain.Bucket, error)

	// PrivacySummary reports, as counts only, what is held about a profile's viewers.
	// The query must be scoped to the profile owner.
	PrivacySummary(ctx context.Context, q analyticsDomain.PrivacyQuery) (*analyticsDomain.PrivacySummary, error)

	// DeleteProfile removes every Tier-1 view of a profile on owner account deletion.
	DeleteProfile(ctx context.Context, profileID string) (int64, error)

	// PurgeExpired removes views older than the analytics retention window.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
