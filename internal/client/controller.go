package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"carteira/internal/core"
)

// ErrUserInput marks a submission rejected before any network call.
var ErrUserInput = errors.New("invalid input")

// Backend is the API surface the controller needs. *API satisfies it.
type Backend interface {
	ListTransactions(ctx context.Context) ([]Record, error)
	CreateTransaction(ctx context.Context, description string, amount float64, txType string, date time.Time) (Record, error)
}

// Controller holds the loaded transaction sequence and its derived
// balance. The balance is never mutated incrementally, every change to
// the sequence recomputes it with a full fold, so the two can never
// drift apart.
type Controller struct {
	backend Backend

	mu      sync.Mutex
	records []Record
	balance core.Money
}

func NewController(backend Backend) *Controller {
	return &Controller{backend: backend}
}

// Load replaces the sequence with the server's current list. On
// failure the previous state stays untouched.
func (c *Controller) Load(ctx context.Context) error {
	records, err := c.backend.ListTransactions(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load transactions", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = records
	c.balance = deriveBalance(c.records)
	return nil
}

// Add validates the inputs, submits the entry with the current
// timestamp, and prepends the persisted record. Validation failures
// return ErrUserInput without touching the network; a failed
// submission leaves the state unchanged.
func (c *Controller) Add(ctx context.Context, description, amountText, txType string) (Record, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Record{}, fmt.Errorf("%w: description is required", ErrUserInput)
	}

	cents, err := core.ParseDecimalToCents(amountText)
	if err != nil {
		return Record{}, fmt.Errorf("%w: amount %q is not a positive decimal", ErrUserInput, amountText)
	}

	if txType != TypeIncoming && txType != TypeOutgoing {
		return Record{}, fmt.Errorf("%w: type must be %q or %q", ErrUserInput, TypeIncoming, TypeOutgoing)
	}

	record, err := c.backend.CreateTransaction(ctx, description, core.Money{Cents: cents}.Reais(), txType, time.Now())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to submit transaction", "error", err)
		return Record{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append([]Record{record}, c.records...)
	c.balance = deriveBalance(c.records)
	return record, nil
}

// Records returns a copy of the current sequence, newest first.
func (c *Controller) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), c.records...)
}

// Balance returns the derived balance of the loaded sequence.
func (c *Controller) Balance() core.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance
}

func deriveBalance(records []Record) core.Money {
	txs := make([]core.Transaction, 0, len(records))
	for _, r := range records {
		txs = append(txs, toCore(r))
	}
	return core.Balance(txs)
}

func toCore(r Record) core.Transaction {
	txType := core.Incoming
	if r.Type == TypeOutgoing || r.Type == "saida" {
		txType = core.Outgoing
	}
	return core.Transaction{
		ID:          r.ID,
		Description: r.Description,
		Amount:      core.MoneyFromReais(r.Amount),
		Type:        txType,
		Date:        r.Date,
	}
}
