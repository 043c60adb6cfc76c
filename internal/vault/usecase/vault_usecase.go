package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
	cryptoService "github.com/allisson/viewvault/internal/crypto/service"
	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

type vaultUseCase struct {
	txManager  database.TxManager
	caseRepo   CaseRepository
	vaultRepo  VaultRepository
	compliance ComplianceReader
	keys       KeyManager
	auditor    Auditor
	logger     *slog.Logger
}

// NewVaultUseCase creates a VaultUseCase. txManager must be bound to the vault store.
func NewVaultUseCase(
	txManager database.TxManager,
	caseRepo CaseRepository,
	vaultRepo VaultRepository,
	compliance ComplianceReader,
	keys KeyManager,
	auditor Auditor,
	logger *slog.Logger,
) VaultUseCase {
	return &vaultUseCase{
		txManager:  txManager,
		caseRepo:   caseRepo,
		vaultRepo:  vaultRepo,
		compliance: compliance,
		keys:       keys,
		auditor:    auditor,
		logger:     logger,
	}
}

func (v *vaultUseCase) StorePending(ctx context.Context, record *vaultDomain.VaultRecord) error {
	if !record.Pending() {
		return apperrors.Wrap(vaultDomain.ErrInvalidRecord, "a record stored at ingest must be pending")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := record.Validate(); err != nil {
		return err
	}

	err := v.vaultRepo.Create(ctx, record)
	if apperrors.Is(err, apperrors.ErrConflict) {
		v.logger.Debug("pending vault record already stored", slog.String("record_id", record.ID.String()))
		return nil
	}
	return err
}

func (v *vaultUseCase) Seal(ctx context.Context, in vaultDomain.SealInput) (*vaultDomain.SealResult, error) {
	in.Authorizers = vaultDomain.NormalizeAuthorizers(in.Authorizers)
	if err := vaultDomain.ValidateAuthorizers(in.Authorizers); err != nil {
		v.auditFailure(ctx, in.Actor, auditDomain.ActionSealT3, in.CaseID, in.Reason, in.Authorizers, err)
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &vaultDomain.SealResult{}
	var auditErr error

	err := v.txManager.WithTx(ctx, func(ctx context.Context) error {
		legalCase, err := v.openCase(ctx, in, now)
		if err != nil {
			return err
		}
		result.Case = legalCase

		fromCompliance := make([]*complianceDomain.ComplianceRecord, 0, len(in.ViewIDs))
		for _, viewID := range distinct(in.ViewIDs) {
			sealed, err := v.vaultRepo.ExistsInCase(ctx, in.CaseID, viewID)
			if err != nil {
				return err
			}
			if sealed {
				result.AlreadySealed++
				continue
			}

			claimed, err := v.claimPending(ctx, viewID, in, now)
			if err != nil {
				return err
			}
			if claimed {
				result.Claimed++
				continue
			}

			record, err := v.compliance.GetByViewID(ctx, viewID)
			if err != nil {
				return err
			}
			fromCompliance = append(fromCompliance, record)
		}

		if len(fromCompliance) > 0 {
			err := v.keys.WithVaultKey(ctx, func(vault cryptoService.VaultCipher) error {
				for _, source := range fromCompliance {
					record, err := v.reseal(vault, source, in, now)
					if err != nil {
						return err
					}
					if err := v.vaultRepo.Create(ctx, record); err != nil {
						return err
					}
					result.Sealed++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		auditErr = v.auditor.Append(ctx, auditDomain.Entry{
			Actor:    in.Actor,
			Action:   auditDomain.ActionSealT3,
			TargetID: in.CaseID,
			Reason:   in.Reason,
			Outcome:  auditDomain.OutcomeSuccess,
			Metadata: map[string]any{
				"authorizers":     in.Authorizers,
				"order_reference": in.OrderReference,
				"sealed":          result.Sealed,
				"claimed":         result.Claimed,
				"already_sealed":  result.AlreadySealed,
			},
		})
		if auditErr != nil {
			return apperrors.Wrap(auditErr, "failed to audit vault seal")
		}
		return nil
	})
	if err != nil {
		if auditErr == nil {
			v.auditFailure(ctx, in.Actor, auditDomain.ActionSealT3, in.CaseID, in.Reason, in.Authorizers, err)
		}
		return nil, err
	}

	v.logger.Info("views sealed into legal case",
		slog.String("case_id", in.CaseID),
		slog.Int("sealed", result.Sealed),
		slog.Int("claimed", result.Claimed),
		slog.Int("already_sealed", result.AlreadySealed),
	)
	return result, nil
}

// openCase locks the case for the rest of the transaction, creating it on first use.
func (v *vaultUseCase) openCase(
	ctx context.Context,
	in vaultDomain.SealInput,
	now time.Time,
) (*vaultDomain.LegalCase, error) {
	legalCase, err := v.caseRepo.GetForUpdate(ctx, in.CaseID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		legalCase = &vaultDomain.LegalCase{
			ID:             in.CaseID,
			OrderReference: in.OrderReference,
			Status:         vaultDomain.CaseStatusOpen,
			OpenedBy:       in.Actor,
			CreatedAt:      now,
		}
		if err := v.caseRepo.Create(ctx, legalCase); err != nil {
			return nil, err
		}
		return legalCase, nil
	}
	if err != nil {
		return nil, err
	}

	if legalCase.Closed() {
		return nil, vaultDomain.ErrCaseClosed
	}
	if legalCase.OrderReference != in.OrderReference {
		return nil, vaultDomain.ErrOrderMismatch
	}
	return legalCase, nil
}

// claimPending attaches the pending legal-hold record of a view, if one exists.
func (v *vaultUseCase) claimPending(
	ctx context.Context,
	viewID uuid.UUID,
	in vaultDomain.SealInput,
	now time.Time,
) (bool, error) {
	pending, err := v.vaultRepo.GetPendingByViewID(ctx, viewID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v.vaultRepo.Claim(ctx, pending.ID, in.CaseID, in.Authorizers, now)
}

// reseal moves the identifying fields of a Tier-2 record under the vault key.
func (v *vaultUseCase) reseal(
	vault cryptoService.VaultCipher,
	source *complianceDomain.ComplianceRecord,
	in vaultDomain.SealInput,
	now time.Time,
) (*vaultDomain.VaultRecord, error) {
	caseID := in.CaseID
	record := &vaultDomain.VaultRecord{
		ID:          uuid.Must(uuid.NewV7()),
		CaseID:      &caseID,
		LogID:       source.ID,
		ViewID:      source.ViewID,
		ProfileID:   source.ProfileID,
		Authorizers: in.Authorizers,
		CreatedAt:   now,
		SealedAt:    &now,
	}

	var err error
	if record.EncryptedIP, err = v.reencrypt(vault, source.EncryptedIP); err != nil {
		return nil, err
	}
	if record.EncryptedUserAgent, err = v.reencrypt(vault, source.EncryptedUserAgent); err != nil {
		return nil, err
	}
	if record.EncryptedReferrer, err = v.reencrypt(vault, source.EncryptedReferrer); err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

func (v *vaultUseCase) reencrypt(vault cryptoService.VaultCipher, blob []byte) ([]byte, error) {
	plaintext, err := v.keys.DecryptCompliance(blob)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.SecureWipe(plaintext)
	return vault.Encrypt(plaintext)
}

func (v *vaultUseCase) Export(ctx context.Context, in vaultDomain.ExportInput) (*vaultDomain.Export, error) {
	in.Authorizers = vaultDomain.NormalizeAuthorizers(in.Authorizers)
	if err := vaultDomain.ValidateAuthorizers(in.Authorizers); err != nil {
		v.auditFailure(ctx, in.Actor, auditDomain.ActionExportT3, in.CaseID, in.Reason, in.Authorizers, err)
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var export *vaultDomain.Export
	var auditErr error

	err := v.txManager.WithTx(ctx, func(ctx context.Context) error {
		legalCase, err := v.caseRepo.GetForUpdate(ctx, in.CaseID)
		if err != nil {
			return err
		}
		if legalCase.Closed() {
			return vaultDomain.ErrCaseClosed
		}

		records, err := v.selectRecords(ctx, in)
		if err != nil {
			return err
		}

		export, err = v.decryptAll(ctx, in.CaseID, records)
		if err != nil {
			return err
		}

		recordIDs := make([]string, 0, len(records))
		for _, r := range records {
			recordIDs = append(recordIDs, r.ID.String())
		}
		auditErr = v.auditor.Append(ctx, auditDomain.Entry{
			Actor:    in.Actor,
			Action:   auditDomain.ActionExportT3,
			TargetID: in.CaseID,
			Reason:   in.Reason,
			Outcome:  auditDomain.OutcomeSuccess,
			Metadata: map[string]any{
				"authorizers": in.Authorizers,
				"record_ids":  recordIDs,
				"count":       len(recordIDs),
			},
		})
		if auditErr != nil {
			return apperrors.Wrap(auditErr, "failed to audit vault export")
		}
		return nil
	})
	if err != nil {
		export.Wipe()
		if auditErr == nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			v.auditFailure(ctx, in.Actor, auditDomain.ActionExportT3, in.CaseID, in.Reason, in.Authorizers, err)
		}
		return nil, err
	}

	v.logger.Info("vault records exported",
		slog.String("case_id", in.CaseID),
		slog.Int("count", len(export.Records)),
	)
	return export, nil
}

// selectRecords returns the records an export names. A case with nothing sealed
// into it is NOT_FOUND.
func (v *vaultUseCase) selectRecords(
	ctx context.Context,
	in vaultDomain.ExportInput,
) ([]*vaultDomain.VaultRecord, error) {
	records, err := v.vaultRepo.ListByCase(ctx, in.CaseID)
	if err != nil {
		return nil, err
	}

	if in.RecordID != nil {
		for _, r := range records {
			if r.ID == *in.RecordID {
				return []*vaultDomain.VaultRecord{r}, nil
			}
		}
		return nil, vaultDomain.ErrRecordNotFound
	}

	if len(records) == 0 {
		return nil, vaultDomain.ErrRecordNotFound
	}
	return records, nil
}

// decryptAll opens every record under the vault key. On failure nothing decrypted
// so far survives.
func (v *vaultUseCase) decryptAll(
	ctx context.Context,
	caseID string,
	records []*vaultDomain.VaultRecord,
) (*vaultDomain.Export, error) {
	export := &vaultDomain.Export{
		CaseID:   caseID,
		Records:  make([]*vaultDomain.ExportedRecord, 0, len(records)),
		IssuedAt: time.Now().UTC(),
	}

	err := v.keys.WithVaultKey(ctx, func(vault cryptoService.VaultCipher) error {
		for _, r := range records {
			exported := &vaultDomain.ExportedRecord{RecordID: r.ID, LogID: r.LogID, ViewID: r.ViewID}
			export.Records = append(export.Records, exported)

			var err error
			if exported.IP, err = vault.Decrypt(r.EncryptedIP); err != nil {
				return err
			}
			if exported.UserAgent, err = vault.Decrypt(r.EncryptedUserAgent); err != nil {
				return err
			}
			if exported.Referrer, err = vault.Decrypt(r.EncryptedReferrer); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		export.Wipe()
		return nil, err
	}
	return export, nil
}

func (v *vaultUseCase) CloseCase(ctx context.Context, in vaultDomain.CloseInput) (*vaultDomain.CloseResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &vaultDomain.CloseResult{}
	var auditErr error

	err := v.txManager.WithTx(ctx, func(ctx context.Context) error {
		legalCase, err := v.caseRepo.GetForUpdate(ctx, in.CaseID)
		if err != nil {
			return err
		}
		if legalCase.Closed() {
			return vaultDomain.ErrCaseClosed
		}

		if result.DestroyedCount, err = v.vaultRepo.DeleteByCase(ctx, in.CaseID); err != nil {
			return err
		}
		if err := v.caseRepo.Close(ctx, in.CaseID, now); err != nil {
			return err
		}
		legalCase.Status = vaultDomain.CaseStatusClosed
		legalCase.ClosedAt = &now
		result.Case = legalCase

		auditErr = v.auditor.Append(ctx, auditDomain.Entry{
			Actor:    in.Actor,
			Action:   auditDomain.ActionDestroyT3,
			TargetID: in.CaseID,
			Reason:   in.Reason,
			Outcome:  auditDomain.OutcomeSuccess,
			Metadata: map[string]any{
				"order_reference": legalCase.OrderReference,
				"destroyed_count": result.DestroyedCount,
			},
		})
		if auditErr != nil {
			return apperrors.Wrap(auditErr, "failed to audit case closure")
		}
		return nil
	})
	if err != nil {
		if auditErr == nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			v.auditFailure(ctx, in.Actor, auditDomain.ActionDestroyT3, in.CaseID, in.Reason, nil, err)
		}
		return nil, err
	}

	v.logger.Info("legal case closed",
		slog.String("case_id", in.CaseID),
		slog.Int64("destroyed", result.DestroyedCount),
	)
	return result, nil
}

// auditFailure records a refused or failed vault operation. A failed failure-audit
// is only logged; the caller sees the original error.
func (v *vaultUseCase) auditFailure(
	ctx context.Context,
	actor string,
	action auditDomain.Action,
	caseID, reason string,
	authorizers []string,
	cause error,
) {
	if actor == "" {
		actor = auditDomain.SystemActor
	}
	entry := auditDomain.Entry{
		Actor:       actor,
		Action:      action,
		TargetID:    caseID,
		Reason:      reason,
		Outcome:     auditDomain.OutcomeFailure,
		FailureKind: string(apperrors.KindOf(cause)),
	}
	if authorizers != nil {
		entry.Metadata = map[string]any{"authorizers": authorizers}
	}
	if err := v.auditor.Append(ctx, entry); err != nil {
		v.logger.Error("failed to audit failed operation",
			slog.String("action", string(action)),
			slog.Any("error", err),
		)
	}
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
