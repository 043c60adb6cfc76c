package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/viewvault/internal/outbox/domain"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

// PendingVaultStore persists pending legal-hold records.
type PendingVaultStore interface {
	StorePending(ctx context.Context, record *vaultDomain.VaultRecord) error
}

// VaultSealProcessor replays queued vault.seal events into the vault.
type VaultSealProcessor struct {
	vault  PendingVaultStore
	logger *slog.Logger
}

// NewVaultSealProcessor creates a new VaultSealProcessor
func NewVaultSealProcessor(vault PendingVaultStore, logger *slog.Logger) *VaultSealProcessor {
	return &VaultSealProcessor{vault: vault, logger: logger}
}

// Process stores the queued record. StorePending is idempotent, so a replay after a
// commit that was not acknowledged is harmless.
func (p *VaultSealProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	record, err := event.VaultRecord()
	if err != nil {
		return err
	}

	if err := p.vault.StorePending(ctx, record); err != nil {
		return fmt.Errorf("failed to store vault record %s: %w", record.ID, err)
	}

	if p.logger != nil {
		p.logger.Info("vault record stored from outbox",
			slog.String("event_id", event.ID.String()),
			slog.String("view_id", record.ViewID.String()),
		)
	}
	return nil
}
