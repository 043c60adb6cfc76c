package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	analyticsDomain "github.com/allisson/viewvault/internal/analytics/domain"
	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
	cryptoService "github.com/allisson/viewvault/internal/crypto/service"
	apperrors "github.com/allisson/viewvault/internal/errors"
	"github.com/allisson/viewvault/internal/geoip"
	pipelineDomain "github.com/allisson/viewvault/internal/pipeline/domain"
	"github.com/allisson/viewvault/internal/retry"
	"github.com/allisson/viewvault/internal/useragent"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

// Config holds the ingest knobs.
type Config struct {
	ComplianceRetentionMonths int
	Retry                     retry.Policy
}

// pipelineUseCase implements PipelineUseCase.
type pipelineUseCase struct {
	analytics  AnalyticsRecorder
	compliance ComplianceStore
	vault      VaultStore
	queue      SealQueue
	keys       KeyManager
	geo        geoip.Resolver
	auditor    Auditor
	config     Config
	logger     *slog.Logger
}

// NewPipelineUseCase creates the ingest orchestrator.
func NewPipelineUseCase(
	analytics AnalyticsRecorder,
	compliance ComplianceStore,
	vault VaultStore,
	queue SealQueue,
	keys KeyManager,
	geo geoip.Resolver,
	auditor Auditor,
	config Config,
	logger *slog.Logger,
) PipelineUseCase {
	if config.ComplianceRetentionMonths < 1 {
		config.ComplianceRetentionMonths = 12
	}
	if config.Retry.MaxAttempts < 1 {
		config.Retry = retry.DefaultPolicy()
	}
	return &pipelineUseCase{
		analytics:  analytics,
		compliance: compliance,
		vault:      vault,
		queue:      queue,
		keys:       keys,
		geo:        geo,
		auditor:    auditor,
		config:     config,
		logger:     logger,
	}
}

func (p *pipelineUseCase) Record(ctx context.Context, event *pipelineDomain.ProfileViewEvent) (uuid.UUID, error) {
	defer event.Wipe()

	if err := event.Validate(); err != nil {
		return uuid.Nil, err
	}

	viewID := uuid.New()
	logID := uuid.Must(uuid.NewV7())

	// Everything is encrypted up front so a crypto failure aborts before any write.
	record, err := p.encryptCompliance(event, viewID, logID)
	if err != nil {
		return uuid.Nil, err
	}
	var pending *vaultDomain.VaultRecord
	if event.LegalHold {
		if pending, err = p.encryptVault(ctx, event, viewID, logID); err != nil {
			return uuid.Nil, err
		}
	}

	view := p.analyticsRecord(ctx, event, viewID)
	event.Wipe()

	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	if err := p.storeAnalytics(ctx, view); err != nil {
		return uuid.Nil, err
	}

	// Tier-1 is committed. The rest runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	if err := p.storeCompliance(ctx, record); err != nil {
		p.auditDangling(ctx, record, err)
		return viewID, err
	}

	if pending != nil {
		p.storeVault(ctx, pending)
	}

	return viewID, nil
}

// analyticsRecord builds the Tier-1 record from coarse derived values only.
func (p *pipelineUseCase) analyticsRecord(
	ctx context.Context,
	event *pipelineDomain.ProfileViewEvent,
	viewID uuid.UUID,
) *analyticsDomain.AnalyticsRecord {
	loc := p.resolve(ctx, event)
	ua := useragent.Parse(event.UserAgent)

	return &analyticsDomain.AnalyticsRecord{
		ViewID:    viewID,
		ProfileID: event.ProfileID,
		ViewedAt:  event.ViewedAt.UTC(),
		Country:   loc.Country,
		Province:  loc.Province,
		City:      loc.City,
		Browser:   ua.Browser,
		OS:        ua.OS,
		Device:    ua.Device,
	}
}

// resolve looks up the viewer location, falling back to Unknown on any failure.
func (p *pipelineUseCase) resolve(ctx context.Context, event *pipelineDomain.ProfileViewEvent) geoip.Location {
	ip := event.ParseIP()
	if ip == nil {
		return geoip.UnknownLocation()
	}
	defer cryptoDomain.SecureWipe(ip)

	loc, err := p.geo.Lookup(ctx, ip)
	if err != nil {
		p.logger.Debug("geoip lookup failed", slog.Any("error", err))
		return geoip.UnknownLocation()
	}
	return loc
}

func (p *pipelineUseCase) encryptCompliance(
	event *pipelineDomain.ProfileViewEvent,
	viewID, logID uuid.UUID,
) (*complianceDomain.ComplianceRecord, error) {
	version := p.keys.CurrentComplianceVersion()

	encIP, err := p.keys.EncryptCompliance(event.IP)
	if err != nil {
		return nil, err
	}
	encUA, err := p.keys.EncryptCompliance(event.UserAgent)
	if err != nil {
		return nil, err
	}
	encRef, err := p.keys.EncryptCompliance(event.Referrer)
	if err != nil {
		return nil, err
	}

	viewedAt := event.ViewedAt.UTC()
	return &complianceDomain.ComplianceRecord{
		ID:                 logID,
		ViewID:             viewID,
		ProfileID:          event.ProfileID,
		ViewerID:           event.ViewerID,
		ViewedAt:           viewedAt,
		EncryptedIP:        encIP,
		EncryptedUserAgent: encUA,
		EncryptedReferrer:  encRef,
		KeyVersion:         version,
		RetentionExpiry:    complianceDomain.RetentionExpiry(viewedAt, p.config.ComplianceRetentionMonths),
		CreatedAt:          time.Now().UTC(),
	}, nil
}

func (p *pipelineUseCase) encryptVault(
	ctx context.Context,
	event *pipelineDomain.ProfileViewEvent,
	viewID, logID uuid.UUID,
) (*vaultDomain.VaultRecord, error) {
	record := &vaultDomain.VaultRecord{
		ID:        uuid.Must(uuid.NewV7()),
		LogID:     logID,
		ViewID:    viewID,
		ProfileID: event.ProfileID,
		CreatedAt: time.Now().UTC(),
	}

	err := p.keys.WithVaultKey(ctx, func(vault cryptoService.VaultCipher) error {
		var err error
		if record.EncryptedIP, err = vault.Encrypt(event.IP); err != nil {
			return err
		}
		if record.EncryptedUserAgent, err = vault.Encrypt(event.UserAgent); err != nil {
			return err
		}
		record.EncryptedReferrer, err = vault.Encrypt(event.Referrer)
		return err
	})
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrCryptoFailed) {
			err = apperrors.Wrap(apperrors.ErrCryptoFailed, err.Error())
		}
		return nil, err
	}
	return record, nil
}

// storeAnalytics commits the Tier-1 record with retries. The view id is fresh, so
// a conflict means an earlier attempt landed without being acknowledged.
func (p *pipelineUseCase) storeAnalytics(ctx context.Context, view *analyticsDomain.AnalyticsRecord) error {
	return retry.Do(ctx, p.retryPolicy("analytics"), func(ctx context.Context) error {
		err := p.analytics.Record(ctx, view)
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil
		}
		return err
	})
}

// storeCompliance commits the Tier-2 record with retries. The id is fresh, so a
// conflict means an earlier attempt landed without being acknowledged.
func (p *pipelineUseCase) storeCompliance(ctx context.Context, record *complianceDomain.ComplianceRecord) error {
	return retry.Do(ctx, p.retryPolicy("compliance"), func(ctx context.Context) error {
		err := p.compliance.Store(ctx, record)
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil
		}
		return err
	})
}

// storeVault commits the pending Tier-3 record, falling back to the seal queue. It
// never fails the ingest.
func (p *pipelineUseCase) storeVault(ctx context.Context, record *vaultDomain.VaultRecord) {
	err := retry.Do(ctx, p.retryPolicy("vault"), func(ctx context.Context) error {
		return p.vault.StorePending(ctx, record)
	})
	if err == nil {
		return
	}

	p.logger.Warn("vault commit failed, queueing for retry",
		slog.String("view_id", record.ViewID.String()),
		slog.Any("error", err),
	)
	if qerr := p.queue.EnqueueVaultSeal(ctx, record); qerr != nil {
		p.logger.Error("failed to queue vault record",
			slog.String("view_id", record.ViewID.String()),
			slog.Any("error", qerr),
		)
	}
}

// auditDangling marks a Tier-1 record whose Tier-2 counterpart could not be committed.
func (p *pipelineUseCase) auditDangling(ctx context.Context, record *complianceDomain.ComplianceRecord, cause error) {
	p.logger.Error("compliance commit failed after analytics commit",
		slog.String("view_id", record.ViewID.String()),
		slog.Any("error", cause),
	)

	err := p.auditor.Append(ctx, auditDomain.Entry{
		Actor:       auditDomain.SystemActor,
		Action:      auditDomain.ActionDanglingT1,
		TargetID:    record.ViewID.String(),
		Outcome:     auditDomain.OutcomeFailure,
		FailureKind: string(apperrors.KindOf(cause)),
		Metadata: map[string]any{
			"profile_id": record.ProfileID,
			"log_id":     record.ID.String(),
		},
	})
	if err != nil {
		p.logger.Error("failed to audit dangling analytics record",
			slog.String("view_id", record.ViewID.String()),
			slog.Any("error", err),
		)
	}
}

func (p *pipelineUseCase) retryPolicy(tier string) retry.Policy {
	policy := p.config.Retry
	policy.OnRetry = func(err error, next time.Duration) {
		p.logger.Warn("store commit failed, retrying",
			slog.String("tier", tier),
			slog.Duration("backoff", next),
			slog.Any("error", err),
		)
	}
	return policy
}
