package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"finanze/internal/core"
)

// CategoryAssignment is one (category, preference) ownership pair, used by
// the overlap check.
type CategoryAssignment struct {
	Category           string
	BudgetPreferenceID int64
}

// BudgetPreferenceUpdate carries the fields of a partial update. Nil pointers
// leave the column untouched; a nil Categories slice keeps the current set.
type BudgetPreferenceUpdate struct {
	Name       *string
	Percentage *float64
	Categories []string
}

func (u BudgetPreferenceUpdate) Empty() bool {
	return u.Name == nil && u.Percentage == nil && u.Categories == nil
}

const budgetPreferenceColumns = `id, name, percentage, user_id, create_by, create_date, update_by, update_date`

// InsertBudgetPreference writes the preference row and its category rows in
// one transaction and returns the generated id.
func (r *SQLiteRepository) InsertBudgetPreference(ctx context.Context, p core.BudgetPreference) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO budget_preferences (name, percentage, user_id, create_by, create_date, update_by, update_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.Percentage, p.UserID,
			p.CreateBy, fmtTime(p.CreateDate), p.UpdateBy, fmtTime(p.UpdateDate),
		)
		if err != nil {
			return fmt.Errorf("insert budget preference: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("budget preference id: %w", err)
		}
		return insertCategories(ctx, tx, id, p.Categories, p.CreateBy, fmtTime(p.CreateDate))
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func insertCategories(ctx context.Context, tx *sql.Tx, prefID int64, categories []string, createBy int64, createDate string) error {
	for _, category := range categories {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO budget_preference_categories (budget_preference_id, category, create_by, create_date)
			VALUES (?, ?, ?, ?)`,
			prefID, category, createBy, createDate,
		); err != nil {
			return fmt.Errorf("insert category %q: %w", category, err)
		}
	}
	return nil
}

// GetBudgetPreference returns the preference with its category list, or nil
// when no row belongs to the user.
func (r *SQLiteRepository) GetBudgetPreference(ctx context.Context, id, userID int64) (*core.BudgetPreference, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+budgetPreferenceColumns+`
		FROM budget_preferences
		WHERE id = ? AND user_id = ?`, id, userID)

	p, err := scanBudgetPreference(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT category FROM budget_preference_categories
		WHERE budget_preference_id = ?
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		p.Categories = append(p.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return p, nil
}

// ListBudgetPreferences returns all of the user's preferences ordered by
// creation time ascending, each with its category list. Categories are
// fetched in a single query to avoid per-preference round trips.
func (r *SQLiteRepository) ListBudgetPreferences(ctx context.Context, userID int64) ([]core.BudgetPreference, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+budgetPreferenceColumns+`
		FROM budget_preferences
		WHERE user_id = ?
		ORDER BY create_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query budget preferences: %w", err)
	}
	defer rows.Close()

	var prefs []core.BudgetPreference
	index := make(map[int64]int)
	for rows.Next() {
		p, err := scanBudgetPreference(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(prefs)
		prefs = append(prefs, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget preferences: %w", err)
	}
	if len(prefs) == 0 {
		return nil, nil
	}

	catRows, err := r.db.QueryContext(ctx, `
		SELECT bpc.budget_preference_id, bpc.category
		FROM budget_preference_categories bpc
		JOIN budget_preferences bp ON bp.id = bpc.budget_preference_id
		WHERE bp.user_id = ?
		ORDER BY bpc.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var prefID int64
		var category string
		if err := catRows.Scan(&prefID, &category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if i, ok := index[prefID]; ok {
			prefs[i].Categories = append(prefs[i].Categories, category)
		}
	}
	if err := catRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return prefs, nil
}

// CategoryAssignments returns every (category, preference) pair of the user,
// optionally excluding one preference. excludeID 0 excludes nothing.
func (r *SQLiteRepository) CategoryAssignments(ctx context.Context, userID, excludeID int64) ([]CategoryAssignment, error) {
	query := `
		SELECT bpc.category, bpc.budget_preference_id
		FROM budget_preference_categories bpc
		JOIN budget_preferences bp ON bp.id = bpc.budget_preference_id
		WHERE bp.user_id = ?`
	args := []any{userID}
	if excludeID != 0 {
		query += ` AND bpc.budget_preference_id != ?`
		args = append(args, excludeID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query category assignments: %w", err)
	}
	defer rows.Close()

	var assignments []CategoryAssignment
	for rows.Next() {
		var a CategoryAssignment
		if err := rows.Scan(&a.Category, &a.BudgetPreferenceID); err != nil {
			return nil, fmt.Errorf("scan category assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category assignments: %w", err)
	}
	return assignments, nil
}

// SumPercentages totals the user's allocation shares, optionally excluding
// one preference. excludeID 0 excludes nothing.
func (r *SQLiteRepository) SumPercentages(ctx context.Context, userID, excludeID int64) (float64, error) {
	query := `SELECT COALESCE(SUM(percentage), 0) FROM budget_preferences WHERE user_id = ?`
	args := []any{userID}
	if excludeID != 0 {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	var total float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum percentages: %w", err)
	}
	return total, nil
}

// UpdateBudgetPreference applies a partial update in one transaction. When
// Categories is non-nil the full membership set is replaced (delete all,
// insert new), not diffed. Returns false when no row belongs to the user.
func (r *SQLiteRepository) UpdateBudgetPreference(ctx context.Context, id, userID int64, update BudgetPreferenceUpdate, audit core.Audit) (bool, error) {
	var updated bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		// Ownership check first: the categories table is keyed by preference
		// id alone, so rewriting it by id without the check would let one
		// user replace another's membership rows.
		var one int
		err := tx.QueryRowContext(ctx, `
			SELECT 1 FROM budget_preferences WHERE id = ? AND user_id = ?`, id, userID).Scan(&one)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("check budget preference: %w", err)
		}

		if update.Categories != nil {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM budget_preference_categories WHERE budget_preference_id = ?`, id); err != nil {
				return fmt.Errorf("delete categories: %w", err)
			}
			if err := insertCategories(ctx, tx, id, update.Categories, audit.UpdateBy, fmtTime(audit.UpdateDate)); err != nil {
				return err
			}
		}

		set := []string{"update_by = ?", "update_date = ?"}
		args := []any{audit.UpdateBy, fmtTime(audit.UpdateDate)}
		if update.Name != nil {
			set = append(set, "name = ?")
			args = append(args, *update.Name)
		}
		if update.Percentage != nil {
			set = append(set, "percentage = ?")
			args = append(args, *update.Percentage)
		}
		args = append(args, id, userID)

		if _, err := tx.ExecContext(ctx, `
			UPDATE budget_preferences SET `+strings.Join(set, ", ")+`
			WHERE id = ? AND user_id = ?`, args...); err != nil {
			return fmt.Errorf("update budget preference: %w", err)
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// DeleteBudgetPreference removes the preference and its category rows in one
// transaction. Returns false when no row belongs to the user.
func (r *SQLiteRepository) DeleteBudgetPreference(ctx context.Context, id, userID int64) (bool, error) {
	var deleted bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		// Ownership check first: the categories table is keyed by preference
		// id alone, so deleting by id without it would let one user strip
		// another's membership rows.
		var one int
		err := tx.QueryRowContext(ctx, `
			SELECT 1 FROM budget_preferences WHERE id = ? AND user_id = ?`, id, userID).Scan(&one)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("check budget preference: %w", err)
		}

		// Membership rows go first to satisfy the foreign key.
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM budget_preference_categories WHERE budget_preference_id = ?`, id); err != nil {
			return fmt.Errorf("delete categories: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM budget_preferences WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("delete budget preference: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBudgetPreference(row rowScanner) (*core.BudgetPreference, error) {
	var p core.BudgetPreference
	var createBy, updateBy int64
	var createDate, updateDate string
	if err := row.Scan(&p.ID, &p.Name, &p.Percentage, &p.UserID, &createBy, &createDate, &updateBy, &updateDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan budget preference: %w", err)
	}
	audit, err := scanAudit(createBy, createDate, updateBy, updateDate)
	if err != nil {
		return nil, err
	}
	p.Audit = audit
	return &p, nil
}
