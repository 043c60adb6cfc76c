// Package repository implements Tier-1 analytics persistence for PostgreSQL and MySQL.
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

// PostgreSQLAnalyticsRepository implements analytics persistence for PostgreSQL.
type PostgreSQLAnalyticsRepository struct {
	db *sql.DB
}

// NewPostgreSQLAnalyticsRepository creates a new PostgreSQL analytics repository.
func NewPostgreSQLAnalyticsRepository(db *sql.DB) *PostgreSQLAnalyticsRepository {
	return &PostgreSQLAnalyticsRepository{db: db}
}

// Create inserts an analytics record.
func (p *PostgreSQLAnalyticsRepository) Create(
	ctx context.Context,
	record *analyticsDomain.AnalyticsRecord,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO profile_view_analytics (view_id, profile_id, viewed_at, country, province, city,
			  browser, os, device)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ViewID,
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

// postgresBucketExpr maps a grouping to its SQL expression.
var postgresBucketExpr = map[analyticsDomain.GroupBy]string{
	analyticsDomain.GroupByCity:    "city",
	analyticsDomain.GroupByDevice:  "device",
	analyticsDomain.GroupByBrowser: "browser",
	analyticsDomain.GroupByHour:    "to_char(viewed_at AT TIME ZONE 'UTC', 'HH24')",
}

// CountBy aggregates a profile's views over an inclusive window, largest bucket first.
func (p *PostgreSQLAnalyticsRepository) CountBy(
	ctx context.Context,
	q analyticsDomain.DashboardQuery,
) ([]analyticsDomain.Bucket, error) {
	expr, ok := postgresBucketExpr[q.GroupBy]
	if !ok {
		return nil, analyticsDomain.ErrInvalidQuery
	}

	querier := database.GetTx(ctx, p.db)

	query := fmt.Sprintf(`SELECT %[1]s AS bucket, COUNT(*) AS total
			  FROM profile_view_analytics
			  WHERE profile_id = $1 AND viewed_at >= $2 AND viewed_at <= $3
			  GROUP BY %[1]s
			  ORDER BY total DESC, bucket ASC`, expr)

	rows, err := querier.QueryContext(ctx, query, q.ProfileID, q.From, q.To)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to count analytics records")
	}
	return scanBuckets(rows)
}

// CountByProfile returns the number of views held for a profile.
func (p *PostgreSQLAnalyticsRepository) CountByProfile(ctx context.Context, profileID string) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var total int64
	err := querier.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM profile_view_analytics WHERE profile_id = $1`,
		profileID,
	).Scan(&total)
	if err != nil {
		return 0, apperrors.Wrap(database.ClassifyError(err), "failed to count profile views")
	}
	return total, nil
}

// DeleteByProfile removes every view of a profile.
func (p *PostgreSQLAnalyticsRepository) DeleteByProfile(ctx context.Context, profileID string) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM profile_view_analytics WHERE profile_id = $1`,
		profileID,
	)
	if err != nil {
		return 0, apperrors.Wrap(database.ClassifyError(err), "failed to delete profile views")
	}
	return result.RowsAffected()
}

// DeleteOlderThan removes up to limit views recorded before cutoff.
func (p *PostgreSQLAnalyticsRepository) DeleteOlderThan(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM profile_view_analytics
			  WHERE view_id IN (
				  SELECT view_id FROM profile_view_analytics
				  WHERE viewed_at < $1
				  LIMIT $2
			  )`

	result, err := querier.ExecContext(ctx, query, cutoff, limit)
	if err != nil {
		return 0, apperrors.Wrap(database.ClassifyError(err), "failed to purge analytics records")
	}
	return result.RowsAffected()
}

func scanBuckets(rows *sql.Rows) ([]analyticsDomain.Bucket, error) {
	defer func() {
		_ = rows.Close()
	}()

	buckets := make([]analyticsDomain.Bucket, 0)
	for rows.Next() {
		var b analyticsDomain.Bucket
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan analytics bucket")
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to iterate analytics buckets")
	}
	return buckets, nil
}
