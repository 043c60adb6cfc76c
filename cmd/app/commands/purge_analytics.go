package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	analyticsUseCase "github.com/allisson/viewvault/internal/analytics/usecase"
)

// RunPurgeAnalytics removes Tier-1 views older than the analytics retention window.
func RunPurgeAnalytics(
	ctx context.Context,
	analytics analyticsUseCase.AnalyticsUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("purging expired analytics")

	count, err := analytics.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to purge analytics: %w", err)
	}

	if format == "json" {
		jsonBytes, err := json.MarshalIndent(map[string]interface{}{"deleted_count": count}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Deleted %d expired analytics record(s)\n", count)
	}

	logger.Info("purge completed", slog.Int64("count", count))
	return nil
}
