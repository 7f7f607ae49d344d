package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finanze/internal/auth"
	"finanze/internal/core"
	"finanze/internal/log"
)

// ErrInvalidCredentials covers both an unknown username and a wrong
// password; callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserService handles registration and login.
type UserService struct {
	store  UserStore
	tokens *auth.TokenManager
	logger *log.Logger
	now    func() time.Time
}

func NewUserService(store UserStore, tokens *auth.TokenManager, logger *log.Logger) *UserService {
	return &UserService{
		store:  store,
		tokens: tokens,
		logger: logger.WithComponent("user_service"),
		now:    time.Now,
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult carries the issued token with the user it belongs to.
type LoginResult struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

func (in RegisterInput) validate() error {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return &ValidationError{Message: "username cannot be empty"}
	}
	if len(username) > 50 {
		return &ValidationError{Message: "username too long (max 50 characters)"}
	}
	if len(in.Password) < 8 {
		return &ValidationError{Message: "password must be at least 8 characters"}
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*core.User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(input.Username)

	existing, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, &ValidationError{Message: "username already taken"}
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := core.User{
		Username:       username,
		HashedPassword: hash,
		Audit:          core.Audit{CreateDate: now, UpdateDate: now},
	}
	id, err := s.store.InsertUser(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	u.ID = id

	s.logger.InfoContext(ctx, "User registered", "id", id, "username", username)
	return &u, nil
}

// Login verifies the credentials and issues a bearer token.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil || !auth.CheckPassword(u.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User logged in", "id", u.ID)
	return &LoginResult{Token: token, User: *u}, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*core.User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}
