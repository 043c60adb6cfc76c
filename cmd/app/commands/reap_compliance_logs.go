package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	complianceUseCase "github.com/allisson/viewvault/internal/compliance/usecase"
)

// RunReapComplianceLogs deletes every Tier-2 record past its retention expiry that is
// not under investigation. Each deletion is audited as DELETE_T2 by the sweep itself.
// An overlapping run finds the reaper lock taken and exits cleanly without touching
// anything. Returns an error when some records could not be deleted.
func RunReapComplianceLogs(
	ctx context.Context,
	compliance complianceUseCase.ComplianceUseCase,
	logger *slog.Logger,
	writer io.Writer,
	batchSize int,
	dryRun bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if batchSize < 1 {
		return fmt.Errorf("batch size must be a positive number, got: %d", batchSize)
	}

	logger.Info("reaping compliance logs",
		slog.Int("batch_size", batchSize),
		slog.Bool("dry_run", dryRun),
	)

	result, err := compliance.Sweep(ctx, complianceDomain.SweepOptions{
		BatchSize: batchSize,
		DryRun:    dryRun,
		Now:       time.Now().UTC(),
	})
	if errors.Is(err, complianceDomain.ErrReaperBusy) {
		logger.Warn("another reaper holds the sweep lock, skipping this run")
		_, _ = fmt.Fprintln(writer, "Another reaper is running, nothing done.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to reap compliance logs: %w", err)
	}

	if format == "json" {
		if err := outputReapJSON(writer, result); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputReapText(writer, result)
	}

	logger.Info("reap completed",
		slog.Int64("deleted", result.DeletedCount),
		slog.Int64("skipped_investigations", result.SkippedInvestigations),
		slog.Int64("failed", result.FailedCount),
		slog.Bool("dry_run", result.DryRun),
	)

	if result.FailedCount > 0 {
		return fmt.Errorf("%d compliance record(s) could not be reaped", result.FailedCount)
	}
	return nil
}

func outputReapText(writer io.Writer, result *complianceDomain.SweepResult) {
	if result.DryRun {
		_, _ = fmt.Fprintf(writer, "Dry run: %d expired compliance record(s) would be deleted\n", result.DeletedCount)
	} else {
		_, _ = fmt.Fprintf(writer, "Deleted %d expired compliance record(s)\n", result.DeletedCount)
	}
	_, _ = fmt.Fprintf(writer, "Kept %d expired record(s) under investigation\n", result.SkippedInvestigations)
	if result.FailedCount > 0 {
		_, _ = fmt.Fprintf(writer, "WARNING: %d record(s) failed and will be retried on the next run\n", result.FailedCount)
	}
}

func outputReapJSON(writer io.Writer, result *complianceDomain.SweepResult) error {
	out := map[string]interface{}{
		"deleted_count":          result.DeletedCount,
		"skipped_investigations": result.SkippedInvestigations,
		"failed_count":           result.FailedCount,
		"dry_run":                result.DryRun,
	}

	jsonBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
