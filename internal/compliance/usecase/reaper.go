package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
)

// errNotReapable rolls back a per-record transaction whose record was held or
// deleted after it was selected.
var errNotReapable = errors.New("record no longer reapable")

// Sweep runs one reaper pass. Each record is deleted in its own transaction together
// with its DELETE_T2 audit append, so one failure never aborts the sweep and a
// record is never deleted without its audit line. Records are walked in id order
// with a keyset cursor, so a record that fails is not retried within the same pass.
func (c *complianceUseCase) Sweep(
	ctx context.Context,
	opts complianceDomain.SweepOptions,
) (*complianceDomain.SweepResult, error) {
	if opts.BatchSize < 1 {
		opts.BatchSize = defaultSweepBatch
	}
	if opts.Actor == "" {
		opts.Actor = auditDomain.SystemActor
	}
	now := opts.Now.UTC()
	if opts.Now.IsZero() {
		now = time.Now().UTC()
	}

	release, acquired, err := c.locker.TryLock(ctx, reaperLockName)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, complianceDomain.ErrReaperBusy
	}
	defer func() {
		if err := release(); err != nil {
			c.logger.Error("failed to release reaper lock", slog.Any("error", err))
		}
	}()

	stats, err := c.repo.CountStats(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &complianceDomain.SweepResult{
		SkippedInvestigations: stats.HeldExpired,
		DryRun:                opts.DryRun,
	}
	if opts.DryRun {
		result.DeletedCount = stats.Expired
		return result, nil
	}

	cursor := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ids, err := c.repo.ListReapableIDs(ctx, now, cursor, opts.BatchSize)
		if err != nil {
			return result, err
		}

		for _, id := range ids {
			deleted, err := c.reapOne(ctx, opts.Actor, id, now)
			switch {
			case err != nil:
				result.FailedCount++
				c.logger.Error("failed to reap compliance record",
					slog.String("log_id", id.String()),
					slog.Any("error", err),
				)
			case deleted:
				result.DeletedCount++
			}
		}

		if len(ids) < opts.BatchSize {
			break
		}
		cursor = ids[len(ids)-1]
	}

	c.logger.Info("compliance sweep finished",
		slog.Int64("deleted", result.DeletedCount),
		slog.Int64("skipped_investigations", result.SkippedInvestigations),
		slog.Int64("failed", result.FailedCount),
	)
	return result, nil
}

func (c *complianceUseCase) reapOne(ctx context.Context, actor string, id uuid.UUID, now time.Time) (bool, error) {
	err := c.txManager.WithTx(ctx, func(ctx context.Context) error {
		deleted, err := c.repo.DeleteIfReapable(ctx, id, now)
		if err != nil {
			return err
		}
		if !deleted {
			return errNotReapable
		}

		return c.auditor.Append(ctx, auditDomain.Entry{
			Actor:    actor,
			Action:   auditDomain.ActionDeleteT2,
			TargetID: id.String(),
			Reason:   reaperDeleteReason,
			Outcome:  auditDomain.OutcomeSuccess,
		})
	})
	if errors.Is(err, errNotReapable) {
		return false, nil
	}
	return err == nil, err
}
