package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"carteira/internal/core"

	_ "modernc.org/sqlite"
)

// ErrStorageUnavailable wraps failures to reach or query the database,
// as opposed to rejections of the record being written.
var ErrStorageUnavailable = errors.New("storage unavailable")

// SQLiteRepository is the ledger store. The connection is opened once
// at process start and shared for the life of the process.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction persists a new ledger entry, assigning its ID.
// A zero date defaults to the current time. Field-level problems return
// the core validation sentinels; database failures return
// ErrStorageUnavailable.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.Date.IsZero() {
		tx.Date = time.Now()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (description, amount_cents, type, date_unix_nano, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		tx.Description, tx.Amount.Cents, string(tx.Type), tx.Date.UnixNano(), time.Now().UnixNano(),
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: insert transaction: %v", ErrStorageUnavailable, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: last insert id: %v", ErrStorageUnavailable, err)
	}
	tx.ID = id

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents,
		"type", string(tx.Type))

	return tx, nil
}

// ListTransactions returns every ledger entry ordered by date
// descending, newest first. Equal dates fall back to id descending so
// the order is deterministic.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, type, date_unix_nano
		 FROM transactions
		 ORDER BY date_unix_nano DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		var (
			tx       core.Transaction
			txType   string
			dateNano int64
		)
		if err := rows.Scan(&tx.ID, &tx.Description, &tx.Amount.Cents, &txType, &dateNano); err != nil {
			return nil, fmt.Errorf("%w: scan transaction: %v", ErrStorageUnavailable, err)
		}
		tx.Type = core.TransactionType(txType)
		tx.Date = time.Unix(0, dateNano)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %v", ErrStorageUnavailable, err)
	}

	return txs, nil
}

// GetTransaction retrieves a single entry by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var (
		tx       core.Transaction
		txType   string
		dateNano int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, description, amount_cents, type, date_unix_nano
		 FROM transactions WHERE id = ?`, id,
	).Scan(&tx.ID, &tx.Description, &tx.Amount.Cents, &txType, &dateNano)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d not found", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: get transaction: %v", ErrStorageUnavailable, err)
	}
	tx.Type = core.TransactionType(txType)
	tx.Date = time.Unix(0, dateNano)
	return tx, nil
}

// PendingMirrorEntry identifies a row the worker still has to mirror.
type PendingMirrorEntry struct {
	ID        int64
	CreatedAt time.Time
}

// PendingMirror returns up to limit entries not yet mirrored, oldest
// first so the spreadsheet keeps insertion order.
func (r *SQLiteRepository) PendingMirror(ctx context.Context, limit int) ([]PendingMirrorEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM transactions
		 WHERE mirrored_at IS NULL AND mirror_error = 0
		 ORDER BY id ASC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: pending mirror: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var pending []PendingMirrorEntry
	for rows.Next() {
		var (
			entry       PendingMirrorEntry
			createdNano int64
		)
		if err := rows.Scan(&entry.ID, &createdNano); err != nil {
			return nil, fmt.Errorf("%w: scan pending entry: %v", ErrStorageUnavailable, err)
		}
		entry.CreatedAt = time.Unix(0, createdNano)
		pending = append(pending, entry)
	}
	return pending, rows.Err()
}

// MarkMirrored records a successful mirror of the given entry.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirrored_at = ?, mirror_error = 0 WHERE id = ?`,
		time.Now().UnixNano(), id,
	); err != nil {
		return fmt.Errorf("%w: mark mirrored: %v", ErrStorageUnavailable, err)
	}
	slog.InfoContext(ctx, "Transaction marked as mirrored", "id", id)
	return nil
}

// MarkMirrorError flags an entry so the periodic sweep stops retrying it.
func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirror_error = 1 WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("%w: mark mirror error: %v", ErrStorageUnavailable, err)
	}
	slog.WarnContext(ctx, "Transaction marked with mirror error", "id", id)
	return nil
}
