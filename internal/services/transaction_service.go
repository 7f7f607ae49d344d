package services

import (
	"context"
	"fmt"
	"time"

	"finanze/internal/core"
	"finanze/internal/log"
	"finanze/internal/storage"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	maxBulkSize     = 1000
)

// TransactionService manages the user's expense and income records.
type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewTransactionService(store TransactionStore, publisher EventPublisher, logger *log.Logger) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent("transaction_service"),
		now:       time.Now,
	}
}

// TransactionInput carries the caller-supplied fields of a create request.
type TransactionInput struct {
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        core.Date `json:"date"`
	ControlDate core.Date `json:"control_date"`
	Category    string    `json:"category"`
	Account     string    `json:"account"`
}

// TransactionPatch carries a partial update; nil fields stay unchanged.
type TransactionPatch struct {
	Description *string    `json:"description"`
	Amount      *float64   `json:"amount"`
	Date        *core.Date `json:"date"`
	ControlDate *core.Date `json:"control_date"`
	Category    *string    `json:"category"`
	Account     *string    `json:"account"`
}

// TransactionPage is one page of a user's transactions plus the full count.
type TransactionPage struct {
	Transactions []core.Transaction `json:"transactions"`
	Total        int                `json:"total"`
	Limit        int                `json:"limit"`
	Offset       int                `json:"offset"`
}

func (s *TransactionService) buildTransaction(userID int64, input TransactionInput, now time.Time) (core.Transaction, error) {
	t := core.Transaction{
		Description: input.Description,
		Amount:      core.Round2(input.Amount),
		Date:        input.Date,
		ControlDate: input.ControlDate,
		Category:    input.Category,
		Account:     input.Account,
		UserID:      userID,
		Audit:       core.Audit{CreateBy: userID, CreateDate: now, UpdateBy: userID, UpdateDate: now},
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, &ValidationError{Message: err.Error()}
	}
	return t, nil
}

func (s *TransactionService) Create(ctx context.Context, userID int64, input TransactionInput) (*core.Transaction, error) {
	now := s.now().UTC()
	t, err := s.buildTransaction(userID, input, now)
	if err != nil {
		return nil, err
	}

	id, err := s.store.InsertTransaction(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	t.ID = id

	s.publish(ctx, "created", id, userID, now)
	s.logger.InfoContext(ctx, "Transaction created", "id", id, "user_id", userID)
	return &t, nil
}

// CreateBulk inserts a batch of transactions atomically. Validation failures
// reject the whole batch, reported with the offending index.
func (s *TransactionService) CreateBulk(ctx context.Context, userID int64, inputs []TransactionInput) (int, error) {
	if len(inputs) == 0 {
		return 0, &ValidationError{Message: "at least one transaction is required"}
	}
	if len(inputs) > maxBulkSize {
		return 0, validationf("too many transactions in one batch (max %d)", maxBulkSize)
	}

	now := s.now().UTC()
	batch := make([]core.Transaction, len(inputs))
	for i, input := range inputs {
		t, err := s.buildTransaction(userID, input, now)
		if err != nil {
			return 0, validationf("transaction %d: %s", i, err.Error())
		}
		batch[i] = t
	}

	n, err := s.store.InsertTransactionsBulk(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("create transactions: %w", err)
	}

	s.publish(ctx, "bulk_created", 0, userID, now)
	s.logger.InfoContext(ctx, "Transactions imported", "count", n, "user_id", userID)
	return n, nil
}

func (s *TransactionService) Get(ctx context.Context, id, userID int64) (*core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// List returns one page of the user's transactions, newest first. Limits
// outside [1, 500] are clamped; negative offsets start from the beginning.
func (s *TransactionService) List(ctx context.Context, userID int64, limit, offset int) (*TransactionPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	transactions, err := s.store.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	total, err := s.store.CountTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}
	return &TransactionPage{
		Transactions: transactions,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}

func (s *TransactionService) Count(ctx context.Context, userID int64) (int, error) {
	total, err := s.store.CountTransactions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return total, nil
}

func (s *TransactionService) Update(ctx context.Context, id, userID int64, patch TransactionPatch) (*core.Transaction, error) {
	current, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	update := storage.TransactionUpdate{
		Description: patch.Description,
		Date:        patch.Date,
		ControlDate: patch.ControlDate,
		Category:    patch.Category,
		Account:     patch.Account,
	}
	if patch.Amount != nil {
		rounded := core.Round2(*patch.Amount)
		update.Amount = &rounded
	}
	if update.Empty() {
		return current, nil
	}

	effective := *current
	if update.Description != nil {
		effective.Description = *update.Description
	}
	if update.Date != nil {
		effective.Date = *update.Date
	}
	if update.ControlDate != nil {
		effective.ControlDate = *update.ControlDate
	}
	if err := effective.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	now := s.now().UTC()
	updated, err := s.store.UpdateTransaction(ctx, id, userID, update, core.Audit{UpdateBy: userID, UpdateDate: now})
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	if !updated {
		return nil, ErrNotFound
	}

	s.publish(ctx, "updated", id, userID, now)
	return s.Get(ctx, id, userID)
}

func (s *TransactionService) Delete(ctx context.Context, id, userID int64) error {
	deleted, err := s.store.DeleteTransaction(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.publish(ctx, "deleted", id, userID, s.now().UTC())
	return nil
}

func (s *TransactionService) publish(ctx context.Context, action string, id, userID int64, at time.Time) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, "transaction", action, id, userID, at); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			"action", action, "id", id, "error", err)
	}
}
