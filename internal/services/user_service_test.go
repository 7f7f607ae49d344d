package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanze/internal/auth"
	"finanze/internal/core"
)

type fakeUserStore struct {
	users  []core.User
	nextID int64
}

func (f *fakeUserStore) InsertUser(_ context.Context, u core.User) (int64, error) {
	f.nextID++
	u.ID = f.nextID
	f.users = append(f.users, u)
	return u.ID, nil
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*core.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*core.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func newUserService(store *fakeUserStore) (*UserService, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewUserService(store, tokens, testLogger()), tokens
}

func TestUserServiceRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := &fakeUserStore{}
	svc, tokens := newUserService(store)

	user, err := svc.Register(ctx, RegisterInput{Username: " alice ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "correct horse", user.HashedPassword)

	result, err := svc.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)

	userID, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestUserServiceRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(&fakeUserStore{})

	_, err := svc.Register(ctx, RegisterInput{Username: "", Password: "long enough"})
	assert.True(t, IsValidation(err))

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Password: "short"})
	assert.True(t, IsValidation(err))

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Password: "long enough"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Password: "another pass"})
	assert.True(t, IsValidation(err), "duplicate username")
}

func TestUserServiceLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(&fakeUserStore{})

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
