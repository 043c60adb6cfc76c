package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	analyticsDomain "github.com/allisson/viewvault/internal/analytics/domain"
	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

// MySQLAnalyticsRepository implements analytics persistence for MySQL.
// Uses BINARY(16) for UUID storage.
type MySQLAnalyticsRepository struct {
	db *sql.DB
}

// NewMySQLAnalyticsRepository creates a new MySQL analytics repository.
func NewMySQLAnalyticsRepository(db *sql.DB) *MySQLAnalyticsRepository {
	return &MySQLAnalyticsRepository{db: db}
}

// Create inserts an analytics record.
func (m *MySQLAnalyticsRepository) Create(
	ctx context.Context,
	record *analyticsDomain.AnalyticsRecord,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := record.ViewID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal view id")
	}

	query := `INSERT INTO profile_view_analytics (view_id, profile_id, viewed_at, country, province, city,
			  browser, os, device)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		record.ProfileID,
		record.ViewedAt,
		record.Country,
		record.Province,
		record.City,
		record.Browser,
		record.OS,
		record.Device,
	)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to create analytics record")
	}
	return nil
}

var mysqlBucketExpr = map[analyticsDomain.GroupBy]string{
	analyticsDomain.GroupByCity:    "city",
	analyticsDomain.GroupByDevice:  "device",
	analyticsDomain.GroupByBrowser: "browser",
	analyticsDomain.GroupByHour:    "DATE_FORMAT(viewed_at, '%H')",
}

// CountBy aggregates a profile's views over an inclusive window, largest bucket first.
// Timestamps are stored in UTC.
func (m *MySQLAnalyticsRepository) CountBy(
	ctx context.Context,
	q analyticsDomain.DashboardQuery,
) ([]analyticsDomain.Bucket, error) {
	expr, ok := mysqlBucketExpr[q.GroupBy]
	if !ok {
		return nil, analyticsDomain.ErrInvalidQuery
	}

	querier := database.GetTx(ctx, m.db)

	query := fmt.Sprintf(`SELECT %[1]s AS bucket, COUNT(*) AS total
			  FROM profile_view_analytics
			  WHERE profile_id = ? AND viewed_at >= ? AND viewed_at <= ?
			  GROUP BY bucket
			  ORDER BY total DESC, bucket ASC`, expr)

	rows, err := querier.QueryContext(ctx, query, q.ProfileID, q.From, q.To)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to count analytics records")
	}
	return scanBuckets(rows)
}

// CountByProfile returns the number of views held for a profile.
func (m *MySQLAnalyticsRepository) CountByProfile(ctx context.Context, profileID string) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	var total int64
	err := querier.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM profile_view_analytics WHERE profile_id = ?`,
		profileID,
	).Scan(&total)
	if err != nil {
		return 0, apperrors.Wrap(database.ClassifyError(err), "failed to count profile views")
	}
	return total, nil
}

// DeleteByProfile removes every view of a profile.
func (m *MySQLAnalyticsRepository) DeleteByProfile(ctx context.Context, profileID string) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM profile_view_analytics WHERE profile_id = ?`,
		profileID,
	)
	if err != nil {
		return 0, apperrors.Wrap(database.ClassifyError(err), "failed to delete profile views")
	}
	return result.RowsAffected()
}

// DeleteOlderThan removes up to limit views recorded before cutoff.
func (m *MySQLAnalyticsRepository) DeleteOlderThan(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM profile_view_analytics WHERE viewed_at < ? LIMIT ?`,
		cutoff,
		limit,
	)
	if err != nil {
		return 0, apperrors.Wrap(database.ClassifyError(err), "failed to purge analytics records")
	}
	return result.RowsAffected()
}
