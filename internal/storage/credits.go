package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"finanze/internal/core"
)

// CreditUpdate carries the fields of a partial credit update.
type CreditUpdate struct {
	Name         *string
	MonthlyValue *float64
	PaymentDay   *int
	TotalAmount  *float64
}

func (u CreditUpdate) Empty() bool {
	return u.Name == nil && u.MonthlyValue == nil && u.PaymentDay == nil && u.TotalAmount == nil
}

// CreditPaymentUpdate carries the fields of a partial payment update.
type CreditPaymentUpdate struct {
	Value *float64
	Date  *core.Date
	Type  *core.PaymentType
}

func (u CreditPaymentUpdate) Empty() bool {
	return u.Value == nil && u.Date == nil && u.Type == nil
}

// CreditWithPayments pairs a credit with all of its payments.
type CreditWithPayments struct {
	core.Credit
	Payments []core.CreditPayment `json:"payments"`
}

const creditColumns = `id, name, monthly_value, payment_day, total_amount, user_id, create_by, create_date, update_by, update_date`
const paymentColumns = `id, credit_id, value, date, type, create_by, create_date, update_by, update_date`

func (r *SQLiteRepository) InsertCredit(ctx context.Context, c core.Credit) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO credits (name, monthly_value, payment_day, total_amount, user_id, create_by, create_date, update_by, update_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.MonthlyValue, c.PaymentDay, c.TotalAmount, c.UserID,
		c.CreateBy, fmtTime(c.CreateDate), c.UpdateBy, fmtTime(c.UpdateDate),
	)
	if err != nil {
		return 0, fmt.Errorf("insert credit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("credit id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetCredit(ctx context.Context, id, userID int64) (*core.Credit, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+creditColumns+` FROM credits WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCredit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *SQLiteRepository) ListCredits(ctx context.Context, userID int64) ([]core.Credit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+creditColumns+` FROM credits WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query credits: %w", err)
	}
	defer rows.Close()

	var credits []core.Credit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		credits = append(credits, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credits: %w", err)
	}
	return credits, nil
}

// ListCreditsWithPayments returns every credit of the user with its payments
// attached, fetching all payments in a single query.
func (r *SQLiteRepository) ListCreditsWithPayments(ctx context.Context, userID int64) ([]CreditWithPayments, error) {
	credits, err := r.ListCredits(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(credits) == 0 {
		return nil, nil
	}

	result := make([]CreditWithPayments, len(credits))
	index := make(map[int64]int, len(credits))
	for i, c := range credits {
		result[i] = CreditWithPayments{Credit: c}
		index[c.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+qualifyColumns("cp", paymentColumns)+`
		FROM credit_payments cp
		JOIN credits c ON c.id = cp.credit_id
		WHERE c.user_id = ?
		ORDER BY cp.date DESC, cp.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query credit payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanCreditPayment(rows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[p.CreditID]; ok {
			result[i].Payments = append(result[i].Payments, *p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit payments: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) UpdateCredit(ctx context.Context, id, userID int64, update CreditUpdate, audit core.Audit) (bool, error) {
	set := []string{"update_by = ?", "update_date = ?"}
	args := []any{audit.UpdateBy, fmtTime(audit.UpdateDate)}
	if update.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *update.Name)
	}
	if update.MonthlyValue != nil {
		set = append(set, "monthly_value = ?")
		args = append(args, *update.MonthlyValue)
	}
	if update.PaymentDay != nil {
		set = append(set, "payment_day = ?")
		args = append(args, *update.PaymentDay)
	}
	if update.TotalAmount != nil {
		set = append(set, "total_amount = ?")
		args = append(args, *update.TotalAmount)
	}
	args = append(args, id, userID)

	res, err := r.db.ExecContext(ctx, `
		UPDATE credits SET `+strings.Join(set, ", ")+`
		WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return false, fmt.Errorf("update credit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteCredit removes the credit and all of its payments in one
// transaction. Returns false when no row belongs to the user.
func (r *SQLiteRepository) DeleteCredit(ctx context.Context, id, userID int64) (bool, error) {
	var deleted bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `
			SELECT 1 FROM credits WHERE id = ? AND user_id = ?`, id, userID).Scan(&one)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("check credit: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM credit_payments WHERE credit_id = ?`, id); err != nil {
			return fmt.Errorf("delete credit payments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM credits WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("delete credit: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (r *SQLiteRepository) InsertCreditPayment(ctx context.Context, p core.CreditPayment) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO credit_payments (credit_id, value, date, type, create_by, create_date, update_by, update_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CreditID, p.Value, fmtDate(p.Date), string(p.Type),
		p.CreateBy, fmtTime(p.CreateDate), p.UpdateBy, fmtTime(p.UpdateDate),
	)
	if err != nil {
		return 0, fmt.Errorf("insert credit payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("credit payment id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetCreditPayment(ctx context.Context, id int64) (*core.CreditPayment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM credit_payments WHERE id = ?`, id)
	p, err := scanCreditPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *SQLiteRepository) ListCreditPayments(ctx context.Context, creditID int64) ([]core.CreditPayment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM credit_payments
		WHERE credit_id = ?
		ORDER BY date DESC, id DESC`, creditID)
	if err != nil {
		return nil, fmt.Errorf("query credit payments: %w", err)
	}
	defer rows.Close()

	var payments []core.CreditPayment
	for rows.Next() {
		p, err := scanCreditPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit payments: %w", err)
	}
	return payments, nil
}

func (r *SQLiteRepository) UpdateCreditPayment(ctx context.Context, id int64, update CreditPaymentUpdate, audit core.Audit) (bool, error) {
	set := []string{"update_by = ?", "update_date = ?"}
	args := []any{audit.UpdateBy, fmtTime(audit.UpdateDate)}
	if update.Value != nil {
		set = append(set, "value = ?")
		args = append(args, *update.Value)
	}
	if update.Date != nil {
		set = append(set, "date = ?")
		args = append(args, fmtDate(*update.Date))
	}
	if update.Type != nil {
		set = append(set, "type = ?")
		args = append(args, string(*update.Type))
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `
		UPDATE credit_payments SET `+strings.Join(set, ", ")+`
		WHERE id = ?`, args...)
	if err != nil {
		return false, fmt.Errorf("update credit payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteCreditPayment(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM credit_payments WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete credit payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func scanCredit(row rowScanner) (*core.Credit, error) {
	var c core.Credit
	var totalAmount sql.NullFloat64
	var createBy, updateBy int64
	var createDate, updateDate string
	if err := row.Scan(&c.ID, &c.Name, &c.MonthlyValue, &c.PaymentDay, &totalAmount,
		&c.UserID, &createBy, &createDate, &updateBy, &updateDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan credit: %w", err)
	}
	if totalAmount.Valid {
		c.TotalAmount = &totalAmount.Float64
	}
	audit, err := scanAudit(createBy, createDate, updateBy, updateDate)
	if err != nil {
		return nil, err
	}
	c.Audit = audit
	return &c, nil
}

func scanCreditPayment(row rowScanner) (*core.CreditPayment, error) {
	var p core.CreditPayment
	var date, paymentType string
	var createBy, updateBy int64
	var createDate, updateDate string
	if err := row.Scan(&p.ID, &p.CreditID, &p.Value, &date, &paymentType,
		&createBy, &createDate, &updateBy, &updateDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan credit payment: %w", err)
	}
	var err error
	if p.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	p.Type = core.PaymentType(paymentType)
	audit, err := scanAudit(createBy, createDate, updateBy, updateDate)
	if err != nil {
		return nil, err
	}
	p.Audit = audit
	return &p, nil
}

// qualifyColumns prefixes each column in a comma-separated list with a table
// alias for use in joins.
func qualifyColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
