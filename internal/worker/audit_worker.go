// Package worker consumes change events and turns them into audit records
// and optional spreadsheet exports.
package worker

import (
	"context"
	"fmt"
	"time"

	"finanze/internal/amqp"
	"finanze/internal/core"
	"finanze/internal/log"
	"finanze/internal/sheets"
	"finanze/internal/storage"
)

// AuditStore is the slice of the repository the worker writes to.
type AuditStore interface {
	InsertAuditEntry(ctx context.Context, e storage.AuditEntry) error
	GetTransaction(ctx context.Context, id, userID int64) (*core.Transaction, error)
}

// AuditWorker records every change event in the audit log. Created
// transactions are additionally exported to the spreadsheet when an exporter
// is configured.
type AuditWorker struct {
	store    AuditStore
	exporter sheets.TransactionWriter
	logger   *log.Logger
	now      func() time.Time
}

func NewAuditWorker(store AuditStore, exporter sheets.TransactionWriter, logger *log.Logger) *AuditWorker {
	return &AuditWorker{
		store:    store,
		exporter: exporter,
		logger:   logger.WithComponent("audit_worker"),
		now:      time.Now,
	}
}

// HandleChangeEvent processes one event. A returned error requeues the
// delivery, so only the audit insert is allowed to fail the handler; export
// problems are logged and skipped to keep the audit log free of duplicates.
func (w *AuditWorker) HandleChangeEvent(ctx context.Context, event *amqp.ChangeEvent) error {
	entry := storage.AuditEntry{
		Entity:     event.Entity,
		Action:     event.Action,
		EntityID:   event.EntityID,
		UserID:     event.UserID,
		OccurredAt: event.OccurredAt,
		RecordedAt: w.now().UTC(),
	}
	if err := w.store.InsertAuditEntry(ctx, entry); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	w.logger.DebugContext(ctx, "Audit entry recorded",
		"entity", event.Entity,
		"action", event.Action,
		"entity_id", event.EntityID,
		"user_id", event.UserID)

	if w.exporter != nil && event.Entity == "transaction" && event.Action == "created" {
		w.exportTransaction(ctx, event)
	}
	return nil
}

func (w *AuditWorker) exportTransaction(ctx context.Context, event *amqp.ChangeEvent) {
	t, err := w.store.GetTransaction(ctx, event.EntityID, event.UserID)
	if err != nil || t == nil {
		w.logger.WarnContext(ctx, "Transaction gone before export",
			"id", event.EntityID, "error", err)
		return
	}
	if err := w.exporter.Append(ctx, *t); err != nil {
		w.logger.ErrorContext(ctx, "Failed to export transaction",
			"id", event.EntityID, "error", err)
	}
}
