package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	auditService "github.com/allisson/viewvault/internal/audit/service"
	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

const verifyPageSize = 1000

// ErrSigningKeyNotConfigured is returned by VerifyBatch when signed records exist
// but no signing key is loaded.
var ErrSigningKeyNotConfigured = apperrors.Wrap(
	apperrors.ErrConfigInvalid,
	"audit signing key is not configured",
)

type auditUseCase struct {
	repo       AuditRepository
	signer     auditService.Signer
	signingKey *cryptoDomain.Key
	logger     *slog.Logger
}

// NewAuditUseCase creates an AuditUseCase. signingKey may be nil, in which case
// records are stored unsigned.
func NewAuditUseCase(
	repo AuditRepository,
	signer auditService.Signer,
	signingKey *cryptoDomain.Key,
	logger *slog.Logger,
) AuditUseCase {
	return &auditUseCase{
		repo:       repo,
		signer:     signer,
		signingKey: signingKey,
		logger:     logger,
	}
}

// keyID names the signing key a record was signed with.
func (a *auditUseCase) keyID() string {
	return fmt.Sprintf("audit-v%d", a.signingKey.Version())
}

func (a *auditUseCase) Append(ctx context.Context, entry auditDomain.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	// Stored timestamps have microsecond precision; truncating keeps signatures verifiable.
	record := &auditDomain.AuditRecord{
		ID:          uuid.Must(uuid.NewV7()),
		Actor:       entry.Actor,
		Action:      entry.Action,
		TargetID:    entry.TargetID,
		Reason:      entry.Reason,
		Outcome:     entry.Outcome,
		FailureKind: entry.FailureKind,
		Metadata:    entry.Metadata,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	if a.signingKey != nil {
		err := a.signingKey.Use(func(secret []byte) error {
			sig, err := a.signer.Sign(secret, record)
			if err != nil {
				return err
			}
			record.Signature = sig
			return nil
		})
		if err != nil {
			return apperrors.Wrap(err, "failed to sign audit record")
		}
		keyID := a.keyID()
		record.KeyID = &keyID
	}

	if err := a.repo.Create(ctx, record); err != nil {
		return apperrors.Wrap(err, "failed to append audit record")
	}

	if a.logger != nil {
		a.logger.Info("audit record appended",
			slog.String("audit_id", record.ID.String()),
			slog.String("action", string(record.Action)),
			slog.String("outcome", string(record.Outcome)),
			slog.String("actor", record.Actor),
		)
	}

	return nil
}

func (a *auditUseCase) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditRecord, error) {
	records, err := a.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit records")
	}
	return records, nil
}

func (a *auditUseCase) VerifyBatch(ctx context.Context, start, end time.Time) (*VerificationReport, error) {
	report := &VerificationReport{InvalidLogs: make([]uuid.UUID, 0)}

	for offset := 0; ; offset += verifyPageSize {
		records, err := a.repo.List(ctx, auditDomain.ListFilter{
			From:   &start,
			To:     &end,
			Offset: offset,
			Limit:  verifyPageSize,
		})
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list audit records")
		}

		for _, record := range records {
			report.TotalChecked++

			if !record.IsSigned() {
				report.UnsignedCount++
				continue
			}
			report.SignedCount++

			if a.signingKey == nil {
				return nil, ErrSigningKeyNotConfigured
			}

			if err := a.verify(record); err != nil {
				report.InvalidCount++
				report.InvalidLogs = append(report.InvalidLogs, record.ID)
				continue
			}
			report.ValidCount++
		}

		if len(records) < verifyPageSize {
			return report, nil
		}
	}
}

func (a *auditUseCase) verify(record *auditDomain.AuditRecord) error {
	if *record.KeyID != a.keyID() {
		return auditDomain.ErrSignatureInvalid
	}
	return a.signingKey.Use(func(secret []byte) error {
		return a.signer.Verify(secret, record)
	})
}
