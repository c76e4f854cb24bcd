package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"carteira/internal/core"
	"carteira/internal/storage"
)

// SyncPublisher notifies the mirror worker that an entry was written.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64) error
	Close() error
}

// Service orchestrates ledger operations across SQLite and AMQP. The
// database write is the source of truth; the sync message is best
// effort and the periodic worker sweep covers lost messages.
type Service struct {
	storage   *storage.SQLiteRepository
	publisher SyncPublisher
}

func NewService(storage *storage.SQLiteRepository, publisher SyncPublisher) *Service {
	return &Service{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateTransaction saves the entry locally and publishes a sync
// message. A publish failure never fails the request, the entry is
// already durable.
func (s *Service) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	saved, err := s.storage.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.publishSyncMessage(ctx, saved.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", saved.ID, "error", err)
	}

	return saved, nil
}

// ListTransactions returns every entry, newest first.
func (s *Service) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx)
}

func (s *Service) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishTransactionSync(ctx, id, version)
}

// Close closes both storage and AMQP connections.
func (s *Service) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
