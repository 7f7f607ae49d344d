package core

import (
	"errors"
	"strings"
	"time"
)

const (
	PaymentScheduled   PaymentType = "scheduled"
	PaymentOffSchedule PaymentType = "off_schedule"
)

type (
	// PaymentType classifies a credit payment.
	PaymentType string

	// Date is a calendar date without a time component.
	Date struct {
		time.Time
	}

	// Audit holds the creator/updater bookkeeping columns shared by all records.
	Audit struct {
		CreateBy   int64     `json:"create_by,omitempty"`
		CreateDate time.Time `json:"create_date"`
		UpdateBy   int64     `json:"update_by,omitempty"`
		UpdateDate time.Time `json:"update_date"`
	}

	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		// HashedPassword never leaves the server.
		HashedPassword string `json:"-"`
		Audit
	}

	Transaction struct {
		ID          int64   `json:"id"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Date        Date    `json:"date"`
		ControlDate Date    `json:"control_date"`
		Category    string  `json:"category"`
		Account     string  `json:"account"`
		UserID      int64   `json:"user_id"`
		Audit
	}

	Credit struct {
		ID           int64    `json:"id"`
		Name         string   `json:"name"`
		MonthlyValue float64  `json:"monthly_value"`
		PaymentDay   int      `json:"payment_day"`
		TotalAmount  *float64 `json:"total_amount,omitempty"`
		UserID       int64    `json:"user_id"`
		Audit
	}

	CreditPayment struct {
		ID       int64       `json:"id"`
		CreditID int64       `json:"credit_id"`
		Value    float64     `json:"value"`
		Date     Date        `json:"date"`
		Type     PaymentType `json:"type"`
		Audit
	}

	// ControlDate is the single per-user accounting cutoff record.
	ControlDate struct {
		ID          int64 `json:"id"`
		UserID      int64 `json:"user_id"`
		Year        int   `json:"year"`
		Month       int   `json:"month"`
		ControlDate Date  `json:"control_date"`
		Audit
	}

	// BudgetPreference is a named share of the budget: a percentage plus the
	// spending categories it covers. Categories may not be shared between
	// preferences of the same user, and the percentages of one user may not
	// sum above 100.
	BudgetPreference struct {
		ID         int64    `json:"id"`
		Name       string   `json:"name"`
		Percentage float64  `json:"percentage"`
		Categories []string `json:"categories"`
		UserID     int64    `json:"user_id"`
		Audit
	}

	// BudgetSummary aggregates all preferences of a user with derived
	// completeness metrics.
	BudgetSummary struct {
		BudgetPreferences     []BudgetPreference `json:"budget_preferences"`
		TotalPercentage       float64            `json:"total_percentage"`
		IsComplete            bool               `json:"is_complete"`
		MissingPercentage     float64            `json:"missing_percentage"`
		OverlappingCategories []string           `json:"overlapping_categories"`
	}
)

var (
	ErrEmptyName         = errors.New("name cannot be empty")
	ErrNameTooLong       = errors.New("name too long (max 100 characters)")
	ErrInvalidPercentage = errors.New("percentage must be between 0.01 and 100")
	ErrNoCategories      = errors.New("at least one category is required")
	ErrEmptyDescription  = errors.New("description cannot be empty")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidPaymentDay = errors.New("payment day must be between 1 and 31")
	ErrInvalidPayment    = errors.New("payment type must be scheduled or off_schedule")
	ErrInvalidMonth      = errors.New("month must be between 1 and 12")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON renders the date as YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return ErrInvalidDate
	}
	d.Time = t
	return nil
}

func (p PaymentType) Validate() error {
	switch p {
	case PaymentScheduled, PaymentOffSchedule:
		return nil
	default:
		return ErrInvalidPayment
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return t.ControlDate.Validate()
}

func (c Credit) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return ErrNameTooLong
	}
	if c.PaymentDay < 1 || c.PaymentDay > 31 {
		return ErrInvalidPaymentDay
	}
	return nil
}

func (p CreditPayment) Validate() error {
	if err := p.Date.Validate(); err != nil {
		return err
	}
	return p.Type.Validate()
}

func (c ControlDate) Validate() error {
	if c.Month < 1 || c.Month > 12 {
		return ErrInvalidMonth
	}
	if c.Year < 1900 || c.Year > 9999 {
		return errors.New("year out of range")
	}
	return c.ControlDate.Validate()
}

// Validate checks the fields a preference must carry before any storage or
// cross-preference rule is consulted. Overlap and total-percentage rules are
// enforced by the budget service against the stored set.
func (p BudgetPreference) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > 100 {
		return ErrNameTooLong
	}
	if err := ValidatePercentage(p.Percentage); err != nil {
		return err
	}
	if len(p.Categories) == 0 {
		return ErrNoCategories
	}
	return nil
}

// ValidatePercentage bounds a single allocation share to (0, 100].
func ValidatePercentage(p float64) error {
	if p < 0.01 || p > 100 {
		return ErrInvalidPercentage
	}
	return nil
}
