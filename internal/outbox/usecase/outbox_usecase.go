// Package usecase implements the outbox worker: the durable retry path for Tier-3
// writes that failed at ingest.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
	"github.com/allisson/viewvault/internal/outbox/domain"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

// Config holds outbox use case configuration
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxEventRepository defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
	CountByStatus(ctx context.Context) (map[domain.OutboxEventStatus]int64, error)
}

// EventProcessor defines the interface for processing different event types
type EventProcessor interface {
	Process(ctx context.Context, event *domain.OutboxEvent) error
}

// UseCase defines the interface for outbox use cases
type UseCase interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
	EnqueueVaultSeal(ctx context.Context, record *vaultDomain.VaultRecord) error
	Stats(ctx context.Context) (map[domain.OutboxEventStatus]int64, error)
}

// OutboxUseCase implements business logic for processing outbox events
type OutboxUseCase struct {
	config         Config
	txManager      database.TxManager
	outboxRepo     OutboxEventRepository
	eventProcessor EventProcessor
	logger         *slog.Logger
}

// NewOutboxUseCase creates a new OutboxUseCase
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	eventProcessor EventProcessor,
	logger *slog.Logger,
) *OutboxUseCase {
	return &OutboxUseCase{
		config:         config,
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		eventProcessor: eventProcessor,
		logger:         logger,
	}
}

// Start runs the processing loop until ctx is cancelled.
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting vault seal worker",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping vault seal worker")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to process events", slog.Any("error", err))
				}
			}
		}
	}
}

// EnqueueVaultSeal queues a pending vault record for the worker.
func (uc *OutboxUseCase) EnqueueVaultSeal(ctx context.Context, record *vaultDomain.VaultRecord) error {
	event, err := domain.NewVaultSealEvent(record)
	if err != nil {
		return err
	}
	if err := uc.outboxRepo.Create(ctx, event); err != nil {
		return err
	}

	if uc.logger != nil {
		uc.logger.Warn("vault record queued for retry",
			slog.String("event_id", event.ID.String()),
			slog.String("view_id", record.ViewID.String()),
		)
	}
	return nil
}

// Stats reports the event count per status.
func (uc *OutboxUseCase) Stats(ctx context.Context) (map[domain.OutboxEventStatus]int64, error) {
	return uc.outboxRepo.CountByStatus(ctx)
}

// ProcessEvents claims a batch of pending events and processes them in one transaction.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.outboxRepo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Info("processing events", slog.Int("count", len(events)))
		}

		for _, event := range events {
			if err := uc.eventProcessor.Process(ctx, event); err != nil {
				uc.fail(event, err)
				if err := uc.outboxRepo.Update(ctx, event); err != nil {
					return err
				}
				continue
			}

			event.Processed(time.Now().UTC())
			if err := uc.outboxRepo.Update(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
}

// fail records a failed attempt. Invalid events are given up on at once.
func (uc *OutboxUseCase) fail(event *domain.OutboxEvent, err error) {
	maxRetries := uc.config.MaxRetries
	if apperrors.Is(err, apperrors.ErrInvalidInput) {
		maxRetries = 0
	}
	event.Fail(err, maxRetries)

	if uc.logger == nil {
		return
	}
	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.Int("retries", event.Retries),
		slog.Any("error", err),
	}
	if event.Status == domain.OutboxEventStatusFailed {
		uc.logger.Error("outbox event failed permanently", attrs...)
		return
	}
	uc.logger.Warn("failed to process event", attrs...)
}
