package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

const (
	// maxQueryRecords caps how many records one profile query decrypts.
	maxQueryRecords = 1000

	reaperLockName     = "viewvault:compliance-reaper"
	defaultSweepBatch  = 500
	statsAuditTarget   = "legal_compliance_logs"
	reaperDeleteReason = "retention expired"
)

type complianceUseCase struct {
	txManager database.TxManager
	repo      ComplianceRepository
	decrypter Decrypter
	auditor   Auditor
	locker    database.Locker
	logger    *slog.Logger
}

// NewComplianceUseCase creates a ComplianceUseCase. txManager and locker must be
// bound to the compliance store.
func NewComplianceUseCase(
	txManager database.TxManager,
	repo ComplianceRepository,
	decrypter Decrypter,
	auditor Auditor,
	locker database.Locker,
	logger *slog.Logger,
) ComplianceUseCase {
	return &complianceUseCase{
		txManager: txManager,
		repo:      repo,
		decrypter: decrypter,
		auditor:   auditor,
		locker:    locker,
		logger:    logger,
	}
}

func (c *complianceUseCase) Store(ctx context.Context, record *complianceDomain.ComplianceRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return c.repo.Create(ctx, record)
}

func (c *complianceUseCase) Query(
	ctx context.Context,
	actor string,
	filter complianceDomain.QueryFilter,
	reason string,
) ([]*complianceDomain.DecryptedView, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	records, err := c.lookup(ctx, filter)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			c.auditFailure(ctx, actor, auditDomain.ActionDecryptT2, filter.Target(), reason, err)
		}
		return nil, err
	}

	views := make([]*complianceDomain.DecryptedView, 0, len(records))
	logIDs := make([]string, 0, len(records))
	for _, record := range records {
		view, err := c.decrypt(record)
		if err != nil {
			complianceDomain.WipeViews(views)
			c.auditFailure(ctx, actor, auditDomain.ActionDecryptT2, filter.Target(), reason, err)
			return nil, err
		}
		views = append(views, view)
		logIDs = append(logIDs, record.ID.String())
	}

	err = c.auditor.Append(ctx, auditDomain.Entry{
		Actor:    actor,
		Action:   auditDomain.ActionDecryptT2,
		TargetID: filter.Target(),
		Reason:   reason,
		Outcome:  auditDomain.OutcomeSuccess,
		Metadata: map[string]any{"log_ids": logIDs, "count": len(logIDs)},
	})
	if err != nil {
		complianceDomain.WipeViews(views)
		return nil, apperrors.Wrap(err, "failed to audit compliance query")
	}

	return views, nil
}

// lookup returns the records a filter selects. An empty result is NOT_FOUND and is
// not audited.
func (c *complianceUseCase) lookup(
	ctx context.Context,
	filter complianceDomain.QueryFilter,
) ([]*complianceDomain.ComplianceRecord, error) {
	if filter.ViewID != nil {
		record, err := c.repo.GetByViewID(ctx, *filter.ViewID)
		if err != nil {
			return nil, err
		}
		return []*complianceDomain.ComplianceRecord{record}, nil
	}

	records, err := c.repo.ListByProfile(ctx, filter.ProfileID, filter.From, filter.To, maxQueryRecords)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, complianceDomain.ErrRecordNotFound
	}
	return records, nil
}

// decrypt opens all three fields of a record, wiping what was opened if a later field fails.
func (c *complianceUseCase) decrypt(record *complianceDomain.ComplianceRecord) (*complianceDomain.DecryptedView, error) {
	view := &complianceDomain.DecryptedView{
		LogID:    record.ID,
		ViewID:   record.ViewID,
		ViewedAt: record.ViewedAt,
	}

	var err error
	if view.IP, err = c.decrypter.DecryptCompliance(record.EncryptedIP); err != nil {
		return nil, err
	}
	if view.UserAgent, err = c.decrypter.DecryptCompliance(record.EncryptedUserAgent); err != nil {
		view.Wipe()
		return nil, err
	}
	if view.Referrer, err = c.decrypter.DecryptCompliance(record.EncryptedReferrer); err != nil {
		view.Wipe()
		return nil, err
	}
	return view, nil
}

func (c *complianceUseCase) SetInvestigation(
	ctx context.Context,
	actor string,
	logID uuid.UUID,
	held bool,
	reason string,
) (*complianceDomain.ComplianceRecord, error) {
	if reason == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "a reason is required to change an investigation hold")
	}

	action := auditDomain.ActionInvestigationCleared
	if held {
		action = auditDomain.ActionInvestigationSet
	}

	var record *complianceDomain.ComplianceRecord
	err := c.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		record, err = c.repo.Get(ctx, logID)
		if err != nil {
			return err
		}

		if err := c.repo.SetUnderInvestigation(ctx, logID, held); err != nil {
			return err
		}
		record.UnderInvestigation = held

		return c.auditor.Append(ctx, auditDomain.Entry{
			Actor:    actor,
			Action:   action,
			TargetID: logID.String(),
			Reason:   reason,
			Outcome:  auditDomain.OutcomeSuccess,
			Metadata: map[string]any{"view_id": record.ViewID.String()},
		})
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("investigation hold changed",
		slog.String("log_id", logID.String()),
		slog.Bool("held", held),
	)
	return record, nil
}

func (c *complianceUseCase) Stats(ctx context.Context, actor string, now time.Time) (*complianceDomain.Stats, error) {
	stats, err := c.repo.CountStats(ctx, now.UTC())
	if err != nil {
		return nil, err
	}

	err = c.auditor.Append(ctx, auditDomain.Entry{
		Actor:    actor,
		Action:   auditDomain.ActionReadT2,
		TargetID: statsAuditTarget,
		Outcome:  auditDomain.OutcomeSuccess,
		Metadata: map[string]any{"operation": "stats"},
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to audit compliance stats")
	}
	return stats, nil
}

// auditFailure records a failed privileged operation. The original error is what the
// caller sees; a failed failure-audit is only logged.
func (c *complianceUseCase) auditFailure(
	ctx context.Context,
	actor string,
	action auditDomain.Action,
	target, reason string,
	cause error,
) {
	err := c.auditor.Append(ctx, auditDomain.Entry{
		Actor:       actor,
		Action:      action,
		TargetID:    target,
		Reason:      reason,
		Outcome:     auditDomain.OutcomeFailure,
		FailureKind: string(apperrors.KindOf(cause)),
	})
	if err != nil {
		c.logger.Error("failed to audit failed operation",
			slog.String("action", string(action)),
			slog.Any("error", err),
		)
	}
}
