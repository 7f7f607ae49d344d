package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestBudgetPreferenceValidate(t *testing.T) {
	valid := BudgetPreference{
		Name:       "Essentials",
		Percentage: 60,
		Categories: []string{"rent", "food"},
	}

	tests := []struct {
		name    string
		mutate  func(*BudgetPreference)
		wantErr error
	}{
		{"valid", func(p *BudgetPreference) {}, nil},
		{"empty name", func(p *BudgetPreference) { p.Name = "  " }, ErrEmptyName},
		{"name too long", func(p *BudgetPreference) { p.Name = strings.Repeat("x", 101) }, ErrNameTooLong},
		{"zero percentage", func(p *BudgetPreference) { p.Percentage = 0 }, ErrInvalidPercentage},
		{"percentage above 100", func(p *BudgetPreference) { p.Percentage = 100.01 }, ErrInvalidPercentage},
		{"full percentage allowed", func(p *BudgetPreference) { p.Percentage = 100 }, nil},
		{"no categories", func(p *BudgetPreference) { p.Categories = nil }, ErrNoCategories},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Description: "groceries",
		Amount:      -42.50,
		Date:        NewDate(2024, 3, 14),
		ControlDate: NewDate(2024, 3, 1),
		Category:    "food",
		Account:     "checking",
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr bool
	}{
		{"valid", func(tr *Transaction) {}, false},
		{"empty description", func(tr *Transaction) { tr.Description = "" }, true},
		{"zero date", func(tr *Transaction) { tr.Date = Date{} }, true},
		{"zero control date", func(tr *Transaction) { tr.ControlDate = Date{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.mutate(&tr)
			if err := tr.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreditPaymentValidate(t *testing.T) {
	p := CreditPayment{Value: 100, Date: NewDate(2024, 1, 15), Type: PaymentScheduled}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid payment rejected: %v", err)
	}
	p.Type = "adhoc"
	if err := p.Validate(); !errors.Is(err, ErrInvalidPayment) {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidPayment)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 7, 9)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-07-09"` {
		t.Fatalf("marshal = %s, want %q", b, "2024-07-09")
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("round trip mismatch: got %v, want %v", back, d)
	}

	var zero Date
	if err := json.Unmarshal([]byte("null"), &zero); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !zero.IsZero() {
		t.Errorf("null should decode to zero date")
	}
}
