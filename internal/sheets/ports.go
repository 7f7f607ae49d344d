// Package sheets exports transactions to an external spreadsheet.
package sheets

import (
	"context"

	"finanze/internal/core"
)

// TransactionWriter appends one transaction row to the export target.
type TransactionWriter interface {
	Append(ctx context.Context, t core.Transaction) error
}
