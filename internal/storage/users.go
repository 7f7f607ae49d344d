package storage

import (
	"context"
	"database/sql"
	"fmt"

	"finanze/internal/core"
)

func (r *SQLiteRepository) InsertUser(ctx context.Context, u core.User) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, hashed_password, create_by, create_date, update_by, update_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.HashedPassword,
		u.CreateBy, fmtTime(u.CreateDate), u.UpdateBy, fmtTime(u.UpdateDate),
	)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	return r.getUser(ctx, `username = ?`, username)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (*core.User, error) {
	return r.getUser(ctx, `id = ?`, id)
}

func (r *SQLiteRepository) getUser(ctx context.Context, where string, arg any) (*core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, hashed_password, create_by, create_date, update_by, update_date
		FROM users WHERE `+where, arg)

	var u core.User
	var createBy, updateBy int64
	var createDate, updateDate string
	err := row.Scan(&u.ID, &u.Username, &u.HashedPassword, &createBy, &createDate, &updateBy, &updateDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	audit, err := scanAudit(createBy, createDate, updateBy, updateDate)
	if err != nil {
		return nil, err
	}
	u.Audit = audit
	return &u, nil
}
