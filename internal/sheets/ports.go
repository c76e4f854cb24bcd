package sheets

import (
	"context"

	"carteira/internal/core"
)

// TransactionWriter is the outbound port for mirroring ledger entries
// to a spreadsheet or any other append-only destination.
type TransactionWriter interface {
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
