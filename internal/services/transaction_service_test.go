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

type fakeTransactionStore struct {
	txs    []core.Transaction
	nextID int64
}

func (f *fakeTransactionStore) InsertTransaction(_ context.Context, t core.Transaction) (int64, error) {
	f.nextID++
	t.ID = f.nextID
	f.txs = append(f.txs, t)
	return t.ID, nil
}

func (f *fakeTransactionStore) InsertTransactionsBulk(ctx context.Context, ts []core.Transaction) (int, error) {
	for _, t := range ts {
		if _, err := f.InsertTransaction(ctx, t); err != nil {
			return 0, err
		}
	}
	return len(ts), nil
}

func (f *fakeTransactionStore) GetTransaction(_ context.Context, id, userID int64) (*core.Transaction, error) {
	for _, t := range f.txs {
		if t.ID == id && t.UserID == userID {
			cp := t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTransactionStore) ListTransactions(_ context.Context, userID int64, limit, offset int) ([]core.Transaction, error) {
	var all []core.Transaction
	for _, t := range f.txs {
		if t.UserID == userID {
			all = append(all, t)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeTransactionStore) CountTransactions(_ context.Context, userID int64) (int, error) {
	n := 0
	for _, t := range f.txs {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeTransactionStore) UpdateTransaction(_ context.Context, id, userID int64, update storage.TransactionUpdate, audit core.Audit) (bool, error) {
	for i, t := range f.txs {
		if t.ID != id || t.UserID != userID {
			continue
		}
		if update.Description != nil {
			f.txs[i].Description = *update.Description
		}
		if update.Amount != nil {
			f.txs[i].Amount = *update.Amount
		}
		if update.Date != nil {
			f.txs[i].Date = *update.Date
		}
		if update.ControlDate != nil {
			f.txs[i].ControlDate = *update.ControlDate
		}
		if update.Category != nil {
			f.txs[i].Category = *update.Category
		}
		if update.Account != nil {
			f.txs[i].Account = *update.Account
		}
		f.txs[i].UpdateBy = audit.UpdateBy
		f.txs[i].UpdateDate = audit.UpdateDate
		return true, nil
	}
	return false, nil
}

func (f *fakeTransactionStore) DeleteTransaction(_ context.Context, id, userID int64) (bool, error) {
	for i, t := range f.txs {
		if t.ID == id && t.UserID == userID {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func validTransactionInput() TransactionInput {
	return TransactionInput{
		Description: "groceries at the market",
		Amount:      42.505,
		Date:        core.NewDate(2025, 5, 12),
		ControlDate: core.NewDate(2025, 5, 1),
		Category:    "groceries",
		Account:     "checking",
	}
}

func newTransactionService(store *fakeTransactionStore, pub *fakePublisher) *TransactionService {
	var publisher EventPublisher
	if pub != nil {
		publisher = pub
	}
	svc := NewTransactionService(store, publisher, testLogger())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestTransactionServiceCreate(t *testing.T) {
	ctx := context.Background()
	store := &fakeTransactionStore{}
	pub := &fakePublisher{}
	svc := newTransactionService(store, pub)

	created, err := svc.Create(ctx, 1, validTransactionInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, 42.51, created.Amount)
	assert.Equal(t, recordedEvent{"transaction", "created", 1, 1}, pub.events[0])

	input := validTransactionInput()
	input.Description = "  "
	_, err = svc.Create(ctx, 1, input)
	assert.True(t, IsValidation(err))

	input = validTransactionInput()
	input.Date = core.Date{}
	_, err = svc.Create(ctx, 1, input)
	assert.True(t, IsValidation(err))
}

func TestTransactionServiceCreateBulk(t *testing.T) {
	ctx := context.Background()
	store := &fakeTransactionStore{}
	svc := newTransactionService(store, &fakePublisher{})

	n, err := svc.CreateBulk(ctx, 1, []TransactionInput{
		validTransactionInput(), validTransactionInput(), validTransactionInput(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = svc.CreateBulk(ctx, 1, nil)
	assert.True(t, IsValidation(err))

	bad := validTransactionInput()
	bad.Description = ""
	_, err = svc.CreateBulk(ctx, 1, []TransactionInput{validTransactionInput(), bad})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "transaction 1")
}

func TestTransactionServiceListPagination(t *testing.T) {
	ctx := context.Background()
	store := &fakeTransactionStore{}
	svc := newTransactionService(store, nil)

	for i := 0; i < 7; i++ {
		_, err := svc.Create(ctx, 1, validTransactionInput())
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, 2, validTransactionInput())
	require.NoError(t, err)

	page, err := svc.List(ctx, 1, 3, 0)
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 3)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 3, page.Limit)

	page, err = svc.List(ctx, 1, 3, 6)
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 1)

	// limits outside the valid range are clamped, not rejected
	page, err = svc.List(ctx, 1, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, page.Limit)
	assert.Equal(t, 0, page.Offset)

	page, err = svc.List(ctx, 1, 10000, 0)
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, page.Limit)
}

func TestTransactionServiceUpdate(t *testing.T) {
	ctx := context.Background()
	store := &fakeTransactionStore{}
	svc := newTransactionService(store, &fakePublisher{})

	created, err := svc.Create(ctx, 1, validTransactionInput())
	require.NoError(t, err)

	amount := 10.004
	desc := "refund"
	updated, err := svc.Update(ctx, created.ID, 1, TransactionPatch{Amount: &amount, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, 10.0, updated.Amount)
	assert.Equal(t, "refund", updated.Description)

	// empty patch returns the stored record untouched
	same, err := svc.Update(ctx, created.ID, 1, TransactionPatch{})
	require.NoError(t, err)
	assert.Equal(t, updated, same)

	empty := " "
	_, err = svc.Update(ctx, created.ID, 1, TransactionPatch{Description: &empty})
	assert.True(t, IsValidation(err))

	_, err = svc.Update(ctx, 99, 1, TransactionPatch{Description: &desc})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionServiceDelete(t *testing.T) {
	ctx := context.Background()
	store := &fakeTransactionStore{}
	svc := newTransactionService(store, &fakePublisher{})

	created, err := svc.Create(ctx, 1, validTransactionInput())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID, 2), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, created.ID, 1))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID, 1), ErrNotFound)
}
