package storage

import (
	"context"
	"fmt"
	"time"
)

// AuditEntry is a single recorded change event.
type AuditEntry struct {
	ID         int64
	Entity     string
	Action     string
	EntityID   int64
	UserID     int64
	OccurredAt time.Time
	RecordedAt time.Time
}

func (r *SQLiteRepository) InsertAuditEntry(ctx context.Context, e AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (entity, action, entity_id, user_id, occurred_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Entity, e.Action, e.EntityID, e.UserID, fmtTime(e.OccurredAt), fmtTime(e.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListAuditEntries(ctx context.Context, userID int64, limit int) ([]AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entity, action, entity_id, user_id, occurred_at, recorded_at
		FROM audit_log WHERE user_id = ?
		ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var occurredAt, recordedAt string
		if err := rows.Scan(&e.ID, &e.Entity, &e.Action, &e.EntityID, &e.UserID, &occurredAt, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if e.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, err
		}
		if e.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
