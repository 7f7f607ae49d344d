package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"finanze/internal/core"
)

// TransactionUpdate carries the fields of a partial transaction update.
type TransactionUpdate struct {
	Description *string
	Amount      *float64
	Date        *core.Date
	ControlDate *core.Date
	Category    *string
	Account     *string
}

func (u TransactionUpdate) Empty() bool {
	return u.Description == nil && u.Amount == nil && u.Date == nil &&
		u.ControlDate == nil && u.Category == nil && u.Account == nil
}

const transactionColumns = `id, description, amount, date, control_date, category, account, user_id, create_by, create_date, update_by, update_date`

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (description, amount, date, control_date, category, account, user_id, create_by, create_date, update_by, update_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Description, t.Amount, fmtDate(t.Date), fmtDate(t.ControlDate), t.Category, t.Account,
		t.UserID, t.CreateBy, fmtTime(t.CreateDate), t.UpdateBy, fmtTime(t.UpdateDate),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	return id, nil
}

// InsertTransactionsBulk inserts all rows in one transaction; either every
// row lands or none does.
func (r *SQLiteRepository) InsertTransactionsBulk(ctx context.Context, ts []core.Transaction) (int, error) {
	if len(ts) == 0 {
		return 0, nil
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (description, amount, date, control_date, category, account, user_id, create_by, create_date, update_by, update_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare bulk insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range ts {
			if _, err := stmt.ExecContext(ctx,
				t.Description, t.Amount, fmtDate(t.Date), fmtDate(t.ControlDate), t.Category, t.Account,
				t.UserID, t.CreateBy, fmtTime(t.CreateDate), t.UpdateBy, fmtTime(t.UpdateDate),
			); err != nil {
				return fmt.Errorf("bulk insert transaction: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ts), nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id, userID int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ? AND user_id = ?`, id, userID)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// ListTransactions returns a page of the user's transactions ordered by
// control date, then date, both descending.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ?
		ORDER BY control_date DESC, date DESC, id DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var ts []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		ts = append(ts, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return ts, nil
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// UpdateTransaction applies a partial update. Returns false when no row
// belongs to the user.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id, userID int64, update TransactionUpdate, audit core.Audit) (bool, error) {
	set := []string{"update_by = ?", "update_date = ?"}
	args := []any{audit.UpdateBy, fmtTime(audit.UpdateDate)}
	if update.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Amount != nil {
		set = append(set, "amount = ?")
		args = append(args, *update.Amount)
	}
	if update.Date != nil {
		set = append(set, "date = ?")
		args = append(args, fmtDate(*update.Date))
	}
	if update.ControlDate != nil {
		set = append(set, "control_date = ?")
		args = append(args, fmtDate(*update.ControlDate))
	}
	if update.Category != nil {
		set = append(set, "category = ?")
		args = append(args, *update.Category)
	}
	if update.Account != nil {
		set = append(set, "account = ?")
		args = append(args, *update.Account)
	}
	args = append(args, id, userID)

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET `+strings.Join(set, ", ")+`
		WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return false, fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var t core.Transaction
	var date, controlDate, createDate, updateDate string
	var createBy, updateBy int64
	if err := row.Scan(&t.ID, &t.Description, &t.Amount, &date, &controlDate, &t.Category, &t.Account,
		&t.UserID, &createBy, &createDate, &updateBy, &updateDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	var err error
	if t.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	if t.ControlDate, err = parseDate(controlDate); err != nil {
		return nil, err
	}
	audit, err := scanAudit(createBy, createDate, updateBy, updateDate)
	if err != nil {
		return nil, err
	}
	t.Audit = audit
	return &t, nil
}
