package worker

import (
	"context"
	"fmt"
	"log/slog"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/sheets"
	"carteira/internal/storage"
)

// SyncWorker mirrors ledger entries from SQLite to the spreadsheet.
// The AMQP consumer is the fast path; the pending sweep covers
// messages lost to broker or worker downtime.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	writer    sheets.TransactionWriter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, writer sheets.TransactionWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	tx, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.mirrorTransaction(ctx, tx.ID, tx); err != nil {
		return fmt.Errorf("mirror transaction: %w", err)
	}

	return nil
}

// ProcessPending mirrors entries that have no mirror timestamp yet.
// Runs periodically as a backup for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.PendingMirror(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))

	for _, entry := range pending {
		tx, err := w.storage.GetTransaction(ctx, entry.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "id", entry.ID, "error", err)
			if err := w.storage.MarkMirrorError(ctx, entry.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark mirror error", "id", entry.ID, "error", err)
			}
			continue
		}

		if err := w.mirrorTransaction(ctx, entry.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction", "id", entry.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupCheck sweeps a larger batch once at worker startup to recover
// from downtime.
func (w *SyncWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.PendingMirror(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending entries for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending entries on startup", "count", len(pending))

	successCount := 0
	errorCount := 0

	for _, entry := range pending {
		tx, err := w.storage.GetTransaction(ctx, entry.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction for startup sync",
				"id", entry.ID, "error", err)
			if err := w.storage.MarkMirrorError(ctx, entry.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark mirror error", "id", entry.ID, "error", err)
			}
			errorCount++
			continue
		}

		if err := w.mirrorTransaction(ctx, entry.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction during startup",
				"id", entry.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) mirrorTransaction(ctx context.Context, id int64, tx core.Transaction) error {
	ref, err := w.writer.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkMirrorError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkMirrored(ctx, id); err != nil {
		// The append worked, the next sweep would duplicate the row if
		// we reported failure here.
		slog.ErrorContext(ctx, "Failed to mark as mirrored", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"id", id,
		"sheet_ref", ref,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents)

	return nil
}
