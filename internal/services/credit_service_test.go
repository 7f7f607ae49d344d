package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanze/internal/core"
	"finanze/internal/storage"
)

type fakeCreditStore struct {
	credits  []core.Credit
	payments []core.CreditPayment
	nextID   int64
}

func (f *fakeCreditStore) InsertCredit(_ context.Context, c core.Credit) (int64, error) {
	f.nextID++
	c.ID = f.nextID
	f.credits = append(f.credits, c)
	return c.ID, nil
}

func (f *fakeCreditStore) GetCredit(_ context.Context, id, userID int64) (*core.Credit, error) {
	for _, c := range f.credits {
		if c.ID == id && c.UserID == userID {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCreditStore) ListCredits(_ context.Context, userID int64) ([]core.Credit, error) {
	var out []core.Credit
	for _, c := range f.credits {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCreditStore) ListCreditsWithPayments(ctx context.Context, userID int64) ([]storage.CreditWithPayments, error) {
	credits, _ := f.ListCredits(ctx, userID)
	var out []storage.CreditWithPayments
	for _, c := range credits {
		cwp := storage.CreditWithPayments{Credit: c}
		for _, p := range f.payments {
			if p.CreditID == c.ID {
				cwp.Payments = append(cwp.Payments, p)
			}
		}
		out = append(out, cwp)
	}
	return out, nil
}

func (f *fakeCreditStore) UpdateCredit(_ context.Context, id, userID int64, update storage.CreditUpdate, audit core.Audit) (bool, error) {
	for i, c := range f.credits {
		if c.ID != id || c.UserID != userID {
			continue
		}
		if update.Name != nil {
			f.credits[i].Name = *update.Name
		}
		if update.MonthlyValue != nil {
			f.credits[i].MonthlyValue = *update.MonthlyValue
		}
		if update.PaymentDay != nil {
			f.credits[i].PaymentDay = *update.PaymentDay
		}
		if update.TotalAmount != nil {
			f.credits[i].TotalAmount = update.TotalAmount
		}
		f.credits[i].UpdateBy = audit.UpdateBy
		f.credits[i].UpdateDate = audit.UpdateDate
		return true, nil
	}
	return false, nil
}

func (f *fakeCreditStore) DeleteCredit(_ context.Context, id, userID int64) (bool, error) {
	for i, c := range f.credits {
		if c.ID == id && c.UserID == userID {
			f.credits = append(f.credits[:i], f.credits[i+1:]...)
			var kept []core.CreditPayment
			for _, p := range f.payments {
				if p.CreditID != id {
					kept = append(kept, p)
				}
			}
			f.payments = kept
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCreditStore) InsertCreditPayment(_ context.Context, p core.CreditPayment) (int64, error) {
	f.nextID++
	p.ID = f.nextID
	f.payments = append(f.payments, p)
	return p.ID, nil
}

func (f *fakeCreditStore) GetCreditPayment(_ context.Context, id int64) (*core.CreditPayment, error) {
	for _, p := range f.payments {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCreditStore) ListCreditPayments(_ context.Context, creditID int64) ([]core.CreditPayment, error) {
	var out []core.CreditPayment
	for _, p := range f.payments {
		if p.CreditID == creditID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCreditStore) UpdateCreditPayment(_ context.Context, id int64, update storage.CreditPaymentUpdate, audit core.Audit) (bool, error) {
	for i, p := range f.payments {
		if p.ID != id {
			continue
		}
		if update.Value != nil {
			f.payments[i].Value = *update.Value
		}
		if update.Date != nil {
			f.payments[i].Date = *update.Date
		}
		if update.Type != nil {
			f.payments[i].Type = *update.Type
		}
		f.payments[i].UpdateBy = audit.UpdateBy
		f.payments[i].UpdateDate = audit.UpdateDate
		return true, nil
	}
	return false, nil
}

func (f *fakeCreditStore) DeleteCreditPayment(_ context.Context, id int64) (bool, error) {
	for i, p := range f.payments {
		if p.ID == id {
			f.payments = append(f.payments[:i], f.payments[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newCreditService(store *fakeCreditStore) *CreditService {
	svc := NewCreditService(store, &fakePublisher{}, testLogger())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validCreditInput() CreditInput {
	total := 12000.0
	return CreditInput{Name: "Car loan", MonthlyValue: 250.004, PaymentDay: 15, TotalAmount: &total}
}

func TestCreditServiceCreate(t *testing.T) {
	ctx := context.Background()
	svc := newCreditService(&fakeCreditStore{})

	created, err := svc.Create(ctx, 1, validCreditInput())
	require.NoError(t, err)
	assert.Equal(t, 250.0, created.MonthlyValue)
	require.NotNil(t, created.TotalAmount)
	assert.Equal(t, 12000.0, *created.TotalAmount)

	bad := validCreditInput()
	bad.PaymentDay = 32
	_, err = svc.Create(ctx, 1, bad)
	assert.True(t, IsValidation(err))

	bad = validCreditInput()
	bad.Name = ""
	_, err = svc.Create(ctx, 1, bad)
	assert.True(t, IsValidation(err))
}

func TestCreditServiceDeleteCascadesPayments(t *testing.T) {
	ctx := context.Background()
	store := &fakeCreditStore{}
	svc := newCreditService(store)

	credit, err := svc.Create(ctx, 1, validCreditInput())
	require.NoError(t, err)

	_, err = svc.AddPayment(ctx, credit.ID, 1, CreditPaymentInput{
		Value: 250, Date: core.NewDate(2025, 5, 15), Type: core.PaymentScheduled,
	})
	require.NoError(t, err)
	_, err = svc.AddPayment(ctx, credit.ID, 1, CreditPaymentInput{
		Value: 100, Date: core.NewDate(2025, 5, 20), Type: core.PaymentOffSchedule,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, credit.ID, 1))
	assert.Empty(t, store.payments)
}

func TestCreditServicePaymentOwnership(t *testing.T) {
	ctx := context.Background()
	store := &fakeCreditStore{}
	svc := newCreditService(store)

	credit, err := svc.Create(ctx, 1, validCreditInput())
	require.NoError(t, err)
	payment, err := svc.AddPayment(ctx, credit.ID, 1, CreditPaymentInput{
		Value: 250, Date: core.NewDate(2025, 5, 15), Type: core.PaymentScheduled,
	})
	require.NoError(t, err)

	// another user can neither add payments nor touch existing ones
	_, err = svc.AddPayment(ctx, credit.ID, 2, CreditPaymentInput{
		Value: 10, Date: core.NewDate(2025, 5, 16), Type: core.PaymentScheduled,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	v := 99.0
	_, err = svc.UpdatePayment(ctx, payment.ID, 2, CreditPaymentPatch{Value: &v})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.DeletePayment(ctx, payment.ID, 2), ErrNotFound)

	updated, err := svc.UpdatePayment(ctx, payment.ID, 1, CreditPaymentPatch{Value: &v})
	require.NoError(t, err)
	assert.Equal(t, 99.0, updated.Value)
}

func TestCreditServicePaymentValidation(t *testing.T) {
	ctx := context.Background()
	svc := newCreditService(&fakeCreditStore{})

	credit, err := svc.Create(ctx, 1, validCreditInput())
	require.NoError(t, err)

	_, err = svc.AddPayment(ctx, credit.ID, 1, CreditPaymentInput{
		Value: 250, Date: core.NewDate(2025, 5, 15), Type: "installment",
	})
	assert.True(t, IsValidation(err))

	_, err = svc.AddPayment(ctx, credit.ID, 1, CreditPaymentInput{
		Value: 250, Type: core.PaymentScheduled,
	})
	assert.True(t, IsValidation(err), "missing date")
}

func TestCreditServiceListWithPayments(t *testing.T) {
	ctx := context.Background()
	store := &fakeCreditStore{}
	svc := newCreditService(store)

	a, err := svc.Create(ctx, 1, validCreditInput())
	require.NoError(t, err)
	b, err := svc.Create(ctx, 1, CreditInput{Name: "Mortgage", MonthlyValue: 900, PaymentDay: 1})
	require.NoError(t, err)

	_, err = svc.AddPayment(ctx, a.ID, 1, CreditPaymentInput{
		Value: 250, Date: core.NewDate(2025, 5, 15), Type: core.PaymentScheduled,
	})
	require.NoError(t, err)

	list, err := svc.ListWithPayments(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := map[int64][]core.CreditPayment{}
	for _, cwp := range list {
		byID[cwp.ID] = cwp.Payments
	}
	assert.Len(t, byID[a.ID], 1)
	assert.Empty(t, byID[b.ID])
}
