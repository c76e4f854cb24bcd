package http

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carteira/internal/core"
)

// Wire vocabulary for the transaction type. The API speaks Portuguese;
// the mapping to the internal enum happens only here.
const (
	wireTypeIncoming = "entrada"
	wireTypeOutgoing = "saída"
)

type createTransactionRequest struct {
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Date        string      `json:"date"`
}

// toCore maps the request onto a domain transaction. The amount arrives
// as a decimal number and is converted to cents; the date is optional
// RFC 3339 and defaults downstream to the creation time.
func (req createTransactionRequest) toCore() (core.Transaction, error) {
	txType, err := typeFromWire(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}

	if req.Amount.String() == "" {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		return core.Transaction{}, err
	}

	var date time.Time
	if strings.TrimSpace(req.Date) != "" {
		date, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("%w: %q is not RFC 3339", core.ErrInvalidDate, req.Date)
		}
	}

	return core.Transaction{
		Description: strings.TrimSpace(req.Description),
		Amount:      core.Money{Cents: cents},
		Type:        txType,
		Date:        date,
	}, nil
}

type transactionRecord struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
}

func recordFromCore(tx core.Transaction) transactionRecord {
	return transactionRecord{
		ID:          tx.ID,
		Description: tx.Description,
		Amount:      tx.Amount.Reais(),
		Type:        wireType(tx.Type),
		Date:        tx.Date,
	}
}

func recordsFromCore(txs []core.Transaction) []transactionRecord {
	records := make([]transactionRecord, 0, len(txs))
	for _, tx := range txs {
		records = append(records, recordFromCore(tx))
	}
	return records
}

func wireType(t core.TransactionType) string {
	if t == core.Outgoing {
		return wireTypeOutgoing
	}
	return wireTypeIncoming
}

// typeFromWire accepts the accented spelling and its ASCII fallback.
func typeFromWire(s string) (core.TransactionType, error) {
	switch strings.TrimSpace(s) {
	case wireTypeIncoming:
		return core.Incoming, nil
	case wireTypeOutgoing, "saida":
		return core.Outgoing, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrInvalidType, s)
	}
}
