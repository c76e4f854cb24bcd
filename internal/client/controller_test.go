package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeBackend struct {
	records   []Record
	nextID    int64
	listErr   error
	createErr error
	createN   int
}

func (f *fakeBackend) ListTransactions(context.Context) ([]Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Record(nil), f.records...), nil
}

func (f *fakeBackend) CreateTransaction(_ context.Context, description string, amount float64, txType string, date time.Time) (Record, error) {
	f.createN++
	if f.createErr != nil {
		return Record{}, f.createErr
	}
	f.nextID++
	rec := Record{
		ID:          f.nextID,
		Description: description,
		Amount:      amount,
		Type:        txType,
		Date:        date,
	}
	f.records = append([]Record{rec}, f.records...)
	return rec, nil
}

func TestLoadReplacesState(t *testing.T) {
	backend := &fakeBackend{records: []Record{
		{ID: 2, Description: "Aluguel", Amount: 1200, Type: TypeOutgoing},
		{ID: 1, Description: "Salário", Amount: 5000, Type: TypeIncoming},
	}}
	c := NewController(backend)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := len(c.Records()); got != 2 {
		t.Fatalf("records = %d, want 2", got)
	}
	// 5000.00 - 1200.00 in cents
	if got := c.Balance().Cents; got != 380000 {
		t.Fatalf("balance = %d cents, want 380000", got)
	}
}

func TestLoadFailureKeepsState(t *testing.T) {
	backend := &fakeBackend{records: []Record{
		{ID: 1, Description: "Salário", Amount: 5000, Type: TypeIncoming},
	}}
	c := NewController(backend)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	backend.listErr = ErrNetwork
	if err := c.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}

	if got := len(c.Records()); got != 1 {
		t.Fatalf("records = %d, prior state should survive a failed load", got)
	}
	if got := c.Balance().Cents; got != 500000 {
		t.Fatalf("balance = %d, want 500000", got)
	}
}

func TestAddPrependsAndRecomputes(t *testing.T) {
	backend := &fakeBackend{records: []Record{
		{ID: 1, Description: "Salário", Amount: 5000, Type: TypeIncoming},
	}}
	c := NewController(backend)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	rec, err := c.Add(context.Background(), "Mercado", "250,75", TypeOutgoing)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec.Amount != 250.75 {
		t.Errorf("amount = %v, want 250.75", rec.Amount)
	}

	records := c.Records()
	if len(records) != 2 || records[0].Description != "Mercado" {
		t.Fatalf("new record must be first, got %v", records)
	}
	if got := c.Balance().Cents; got != 500000-25075 {
		t.Fatalf("balance = %d, want %d", got, 500000-25075)
	}
}

func TestAddValidatesBeforeNetwork(t *testing.T) {
	tests := []struct {
		name        string
		description string
		amount      string
		txType      string
	}{
		{"empty description", "", "10", TypeIncoming},
		{"whitespace description", "   ", "10", TypeIncoming},
		{"empty amount", "x", "", TypeIncoming},
		{"garbage amount", "x", "abc", TypeIncoming},
		{"zero amount", "x", "0", TypeIncoming},
		{"negative amount", "x", "-5", TypeOutgoing},
		{"bad type", "x", "10", "transferência"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			c := NewController(backend)

			_, err := c.Add(context.Background(), tt.description, tt.amount, tt.txType)
			if !errors.Is(err, ErrUserInput) {
				t.Fatalf("expected ErrUserInput, got %v", err)
			}
			if backend.createN != 0 {
				t.Fatal("rejected input must not reach the network")
			}
		})
	}
}

func TestAddNetworkFailureLeavesState(t *testing.T) {
	backend := &fakeBackend{createErr: ErrNetwork}
	c := NewController(backend)

	_, err := c.Add(context.Background(), "Mercado", "10", TypeOutgoing)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if got := len(c.Records()); got != 0 {
		t.Fatalf("records = %d, want 0", got)
	}
	if got := c.Balance().Cents; got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
}

func TestBalanceOrderIndependent(t *testing.T) {
	a := []Record{
		{ID: 1, Description: "a", Amount: 10, Type: TypeIncoming},
		{ID: 2, Description: "b", Amount: 3.5, Type: TypeOutgoing},
		{ID: 3, Description: "c", Amount: 7, Type: TypeIncoming},
	}
	b := []Record{a[2], a[0], a[1]}

	if x, y := deriveBalance(a), deriveBalance(b); x != y {
		t.Fatalf("balance depends on order: %v vs %v", x, y)
	}
	if got := deriveBalance(a).Cents; got != 1350 {
		t.Fatalf("balance = %d, want 1350", got)
	}
}

func TestFormSubmitClearsOnSuccessOnly(t *testing.T) {
	backend := &fakeBackend{}
	c := NewController(backend)

	form := NewForm()
	form.Description = "Mercado"
	form.AmountText = "abc"
	form.Type = TypeOutgoing

	if _, err := form.Submit(context.Background(), c); !errors.Is(err, ErrUserInput) {
		t.Fatalf("expected ErrUserInput, got %v", err)
	}
	if form.Description != "Mercado" || form.AmountText != "abc" {
		t.Fatal("fields must survive a failed submit")
	}

	form.AmountText = "12,50"
	if _, err := form.Submit(context.Background(), c); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if form.Description != "" || form.AmountText != "" || form.Type != TypeIncoming {
		t.Fatalf("form not reset after success: %+v", form)
	}
}
