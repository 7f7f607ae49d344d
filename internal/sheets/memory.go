package sheets

import (
	"context"
	"sync"

	"finanze/internal/core"
)

// MemoryWriter collects appended rows in memory. Used in tests and as a
// stand-in when no spreadsheet is configured.
type MemoryWriter struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var _ TransactionWriter = (*MemoryWriter)(nil)

func (w *MemoryWriter) Append(_ context.Context, t core.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, t)
	return nil
}

func (w *MemoryWriter) Rows() []core.Transaction {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]core.Transaction, len(w.rows))
	copy(out, w.rows)
	return out
}
