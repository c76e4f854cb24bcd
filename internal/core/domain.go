package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Incoming adds to the balance, Outgoing subtracts from it.
	Incoming TransactionType = "incoming"
	Outgoing TransactionType = "outgoing"
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	// Transaction is a single ledger entry. The ID is assigned by the
	// store on creation and is zero until then.
	Transaction struct {
		ID          int64
		Description string
		Amount      Money
		Type        TransactionType
		Date        time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidDate        = errors.New("invalid date")
)

func (t TransactionType) Validate() error {
	switch t {
	case Incoming, Outgoing:
		return nil
	default:
		return ErrInvalidType
	}
}

// Signed returns the amount in cents with the sign implied by the type.
func (t Transaction) Signed() int64 {
	if t.Type == Outgoing {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsValidationError reports whether err is one of the field-level
// validation sentinels, as opposed to a storage or transport failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEmptyDescription) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrDescriptionTooLong)
}
