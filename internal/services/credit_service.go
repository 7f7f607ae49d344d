package services

import (
	"context"
	"fmt"
	"time"

	"finanze/internal/core"
	"finanze/internal/log"
	"finanze/internal/storage"
)

// CreditService manages recurring debts and their payments. Payments always
// belong to a credit of the same user; deleting a credit removes its
// payments as well.
type CreditService struct {
	store     CreditStore
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewCreditService(store CreditStore, publisher EventPublisher, logger *log.Logger) *CreditService {
	return &CreditService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent("credit_service"),
		now:       time.Now,
	}
}

type CreditInput struct {
	Name         string   `json:"name"`
	MonthlyValue float64  `json:"monthly_value"`
	PaymentDay   int      `json:"payment_day"`
	TotalAmount  *float64 `json:"total_amount"`
}

type CreditPatch struct {
	Name         *string  `json:"name"`
	MonthlyValue *float64 `json:"monthly_value"`
	PaymentDay   *int     `json:"payment_day"`
	TotalAmount  *float64 `json:"total_amount"`
}

type CreditPaymentInput struct {
	Value float64          `json:"value"`
	Date  core.Date        `json:"date"`
	Type  core.PaymentType `json:"type"`
}

type CreditPaymentPatch struct {
	Value *float64          `json:"value"`
	Date  *core.Date        `json:"date"`
	Type  *core.PaymentType `json:"type"`
}

func (s *CreditService) Create(ctx context.Context, userID int64, input CreditInput) (*core.Credit, error) {
	now := s.now().UTC()
	c := core.Credit{
		Name:         input.Name,
		MonthlyValue: core.Round2(input.MonthlyValue),
		PaymentDay:   input.PaymentDay,
		TotalAmount:  input.TotalAmount,
		UserID:       userID,
		Audit:        core.Audit{CreateBy: userID, CreateDate: now, UpdateBy: userID, UpdateDate: now},
	}
	if c.TotalAmount != nil {
		rounded := core.Round2(*c.TotalAmount)
		c.TotalAmount = &rounded
	}
	if err := c.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	id, err := s.store.InsertCredit(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create credit: %w", err)
	}
	c.ID = id

	s.publish(ctx, "credit", "created", id, userID, now)
	s.logger.InfoContext(ctx, "Credit created", "id", id, "user_id", userID)
	return &c, nil
}

func (s *CreditService) Get(ctx context.Context, id, userID int64) (*core.Credit, error) {
	c, err := s.store.GetCredit(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get credit: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *CreditService) List(ctx context.Context, userID int64) ([]core.Credit, error) {
	credits, err := s.store.ListCredits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	return credits, nil
}

func (s *CreditService) ListWithPayments(ctx context.Context, userID int64) ([]storage.CreditWithPayments, error) {
	credits, err := s.store.ListCreditsWithPayments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list credits with payments: %w", err)
	}
	return credits, nil
}

func (s *CreditService) Update(ctx context.Context, id, userID int64, patch CreditPatch) (*core.Credit, error) {
	current, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	update := storage.CreditUpdate{
		Name:       patch.Name,
		PaymentDay: patch.PaymentDay,
	}
	if patch.MonthlyValue != nil {
		rounded := core.Round2(*patch.MonthlyValue)
		update.MonthlyValue = &rounded
	}
	if patch.TotalAmount != nil {
		rounded := core.Round2(*patch.TotalAmount)
		update.TotalAmount = &rounded
	}
	if update.Empty() {
		return current, nil
	}

	effective := *current
	if update.Name != nil {
		effective.Name = *update.Name
	}
	if update.PaymentDay != nil {
		effective.PaymentDay = *update.PaymentDay
	}
	if err := effective.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	now := s.now().UTC()
	updated, err := s.store.UpdateCredit(ctx, id, userID, update, core.Audit{UpdateBy: userID, UpdateDate: now})
	if err != nil {
		return nil, fmt.Errorf("update credit: %w", err)
	}
	if !updated {
		return nil, ErrNotFound
	}

	s.publish(ctx, "credit", "updated", id, userID, now)
	return s.Get(ctx, id, userID)
}

func (s *CreditService) Delete(ctx context.Context, id, userID int64) error {
	deleted, err := s.store.DeleteCredit(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete credit: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.publish(ctx, "credit", "deleted", id, userID, s.now().UTC())
	s.logger.InfoContext(ctx, "Credit deleted with its payments", "id", id, "user_id", userID)
	return nil
}

// AddPayment records a payment against a credit owned by the user.
func (s *CreditService) AddPayment(ctx context.Context, creditID, userID int64, input CreditPaymentInput) (*core.CreditPayment, error) {
	if _, err := s.Get(ctx, creditID, userID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := core.CreditPayment{
		CreditID: creditID,
		Value:    core.Round2(input.Value),
		Date:     input.Date,
		Type:     input.Type,
		Audit:    core.Audit{CreateBy: userID, CreateDate: now, UpdateBy: userID, UpdateDate: now},
	}
	if err := p.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	id, err := s.store.InsertCreditPayment(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create credit payment: %w", err)
	}
	p.ID = id

	s.publish(ctx, "credit_payment", "created", id, userID, now)
	return &p, nil
}

func (s *CreditService) ListPayments(ctx context.Context, creditID, userID int64) ([]core.CreditPayment, error) {
	if _, err := s.Get(ctx, creditID, userID); err != nil {
		return nil, err
	}
	payments, err := s.store.ListCreditPayments(ctx, creditID)
	if err != nil {
		return nil, fmt.Errorf("list credit payments: %w", err)
	}
	return payments, nil
}

// getOwnedPayment loads a payment and checks the enclosing credit belongs to
// the user.
func (s *CreditService) getOwnedPayment(ctx context.Context, paymentID, userID int64) (*core.CreditPayment, error) {
	p, err := s.store.GetCreditPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("get credit payment: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if _, err := s.Get(ctx, p.CreditID, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CreditService) UpdatePayment(ctx context.Context, paymentID, userID int64, patch CreditPaymentPatch) (*core.CreditPayment, error) {
	current, err := s.getOwnedPayment(ctx, paymentID, userID)
	if err != nil {
		return nil, err
	}

	update := storage.CreditPaymentUpdate{
		Date: patch.Date,
		Type: patch.Type,
	}
	if patch.Value != nil {
		rounded := core.Round2(*patch.Value)
		update.Value = &rounded
	}
	if update.Empty() {
		return current, nil
	}

	effective := *current
	if update.Date != nil {
		effective.Date = *update.Date
	}
	if update.Type != nil {
		effective.Type = *update.Type
	}
	if err := effective.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	now := s.now().UTC()
	updated, err := s.store.UpdateCreditPayment(ctx, paymentID, update, core.Audit{UpdateBy: userID, UpdateDate: now})
	if err != nil {
		return nil, fmt.Errorf("update credit payment: %w", err)
	}
	if !updated {
		return nil, ErrNotFound
	}

	s.publish(ctx, "credit_payment", "updated", paymentID, userID, now)
	return s.store.GetCreditPayment(ctx, paymentID)
}

func (s *CreditService) DeletePayment(ctx context.Context, paymentID, userID int64) error {
	if _, err := s.getOwnedPayment(ctx, paymentID, userID); err != nil {
		return err
	}
	deleted, err := s.store.DeleteCreditPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("delete credit payment: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	s.publish(ctx, "credit_payment", "deleted", paymentID, userID, s.now().UTC())
	return nil
}

func (s *CreditService) publish(ctx context.Context, entity, action string, id, userID int64, at time.Time) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, entity, action, id, userID, at); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			"entity", entity, "action", action, "id", id, "error", err)
	}
}
