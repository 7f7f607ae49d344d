package storage

import (
	"context"
	"database/sql"
	"fmt"

	"finanze/internal/core"
)

func (r *SQLiteRepository) GetControlDate(ctx context.Context, userID int64) (*core.ControlDate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, year, month, control_date, create_by, create_date, update_by, update_date
		FROM control_dates WHERE user_id = ?`, userID)

	var cd core.ControlDate
	var date string
	var createBy, updateBy int64
	var createDate, updateDate string
	err := row.Scan(&cd.ID, &cd.UserID, &cd.Year, &cd.Month, &date, &createBy, &createDate, &updateBy, &updateDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan control date: %w", err)
	}
	if cd.ControlDate, err = parseDate(date); err != nil {
		return nil, err
	}
	audit, err := scanAudit(createBy, createDate, updateBy, updateDate)
	if err != nil {
		return nil, err
	}
	cd.Audit = audit
	return &cd, nil
}

// UpsertControlDate sets the user's single control date, creating the row on
// first use and updating it afterwards. Returns the stored record.
func (r *SQLiteRepository) UpsertControlDate(ctx context.Context, cd core.ControlDate) (*core.ControlDate, error) {
	var stored *core.ControlDate
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM control_dates WHERE user_id = ?`, cd.UserID).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			res, err := tx.ExecContext(ctx, `
				INSERT INTO control_dates (user_id, year, month, control_date, create_by, create_date, update_by, update_date)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				cd.UserID, cd.Year, cd.Month, fmtDate(cd.ControlDate),
				cd.CreateBy, fmtTime(cd.CreateDate), cd.UpdateBy, fmtTime(cd.UpdateDate))
			if err != nil {
				return fmt.Errorf("insert control date: %w", err)
			}
			if cd.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("control date id: %w", err)
			}
			stored = &cd
			return nil
		case err != nil:
			return fmt.Errorf("check control date: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE control_dates SET year = ?, month = ?, control_date = ?, update_by = ?, update_date = ?
			WHERE id = ?`,
			cd.Year, cd.Month, fmtDate(cd.ControlDate), cd.UpdateBy, fmtTime(cd.UpdateDate), id); err != nil {
			return fmt.Errorf("update control date: %w", err)
		}
		cd.ID = id
		stored = &cd
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}
