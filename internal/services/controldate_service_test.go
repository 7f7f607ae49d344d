package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanze/internal/core"
)

type fakeControlDateStore struct {
	byUser map[int64]core.ControlDate
	nextID int64
}

func (f *fakeControlDateStore) GetControlDate(_ context.Context, userID int64) (*core.ControlDate, error) {
	if cd, ok := f.byUser[userID]; ok {
		return &cd, nil
	}
	return nil, nil
}

func (f *fakeControlDateStore) UpsertControlDate(_ context.Context, cd core.ControlDate) (*core.ControlDate, error) {
	if f.byUser == nil {
		f.byUser = map[int64]core.ControlDate{}
	}
	if existing, ok := f.byUser[cd.UserID]; ok {
		cd.ID = existing.ID
	} else {
		f.nextID++
		cd.ID = f.nextID
	}
	f.byUser[cd.UserID] = cd
	return &cd, nil
}

func TestControlDateServiceSetAndGet(t *testing.T) {
	ctx := context.Background()
	store := &fakeControlDateStore{}
	svc := NewControlDateService(store, &fakePublisher{}, testLogger())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	_, err := svc.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := svc.Set(ctx, 1, ControlDateInput{Year: 2025, Month: 5, ControlDate: core.NewDate(2025, 5, 27)})
	require.NoError(t, err)

	// a second set replaces the record instead of adding one
	second, err := svc.Set(ctx, 1, ControlDateInput{Year: 2025, Month: 6, ControlDate: core.NewDate(2025, 6, 27)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Month)
}

func TestControlDateServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewControlDateService(&fakeControlDateStore{}, nil, testLogger())

	_, err := svc.Set(ctx, 1, ControlDateInput{Year: 2025, Month: 13, ControlDate: core.NewDate(2025, 5, 27)})
	assert.True(t, IsValidation(err))

	_, err = svc.Set(ctx, 1, ControlDateInput{Year: 2025, Month: 5})
	assert.True(t, IsValidation(err), "missing date")
}
