package services

import (
	"context"
	"fmt"
	"time"

	"finanze/internal/core"
	"finanze/internal/log"
)

// ControlDateService manages the single per-user accounting cutoff date.
type ControlDateService struct {
	store     ControlDateStore
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewControlDateService(store ControlDateStore, publisher EventPublisher, logger *log.Logger) *ControlDateService {
	return &ControlDateService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent("controldate_service"),
		now:       time.Now,
	}
}

type ControlDateInput struct {
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	ControlDate core.Date `json:"control_date"`
}

func (s *ControlDateService) Get(ctx context.Context, userID int64) (*core.ControlDate, error) {
	cd, err := s.store.GetControlDate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get control date: %w", err)
	}
	if cd == nil {
		return nil, ErrNotFound
	}
	return cd, nil
}

// Set creates or replaces the user's control date.
func (s *ControlDateService) Set(ctx context.Context, userID int64, input ControlDateInput) (*core.ControlDate, error) {
	now := s.now().UTC()
	cd := core.ControlDate{
		UserID:      userID,
		Year:        input.Year,
		Month:       input.Month,
		ControlDate: input.ControlDate,
		Audit:       core.Audit{CreateBy: userID, CreateDate: now, UpdateBy: userID, UpdateDate: now},
	}
	if err := cd.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	stored, err := s.store.UpsertControlDate(ctx, cd)
	if err != nil {
		return nil, fmt.Errorf("set control date: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishChange(ctx, "control_date", "set", stored.ID, userID, now); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish change event", "error", err)
		}
	}
	s.logger.InfoContext(ctx, "Control date set",
		"user_id", userID, "year", input.Year, "month", input.Month)
	return stored, nil
}
