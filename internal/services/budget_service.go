package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"finanze/internal/core"
	"finanze/internal/log"
	"finanze/internal/storage"
)

// BudgetService enforces the allocation rules over budget preferences:
// no category may belong to two preferences of the same user, and the
// percentages of one user may not sum above 100 (within a 0.01 tolerance).
type BudgetService struct {
	store     BudgetStore
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewBudgetService(store BudgetStore, publisher EventPublisher, logger *log.Logger) *BudgetService {
	return &BudgetService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent("budget_service"),
		now:       time.Now,
	}
}

// BudgetPreferenceInput carries the caller-supplied fields of a create request.
type BudgetPreferenceInput struct {
	Name       string   `json:"name"`
	Percentage float64  `json:"percentage"`
	Categories []string `json:"categories"`
}

// BudgetPreferencePatch carries a partial update; nil fields stay unchanged.
// A nil Categories slice keeps the stored categories, an explicit value
// replaces them wholesale.
type BudgetPreferencePatch struct {
	Name       *string  `json:"name"`
	Percentage *float64 `json:"percentage"`
	Categories []string `json:"categories"`
}

func (p BudgetPreferencePatch) empty() bool {
	return p.Name == nil && p.Percentage == nil && p.Categories == nil
}

// Create validates the candidate against the user's stored preferences and
// persists it. The stored percentage is rounded to two decimals.
func (s *BudgetService) Create(ctx context.Context, userID int64, input BudgetPreferenceInput) (*core.BudgetPreference, error) {
	categories := core.DedupeCategories(input.Categories)
	candidate := core.BudgetPreference{
		Name:       strings.TrimSpace(input.Name),
		Percentage: input.Percentage,
		Categories: categories,
		UserID:     userID,
	}
	if err := candidate.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if err := s.checkOverlap(ctx, userID, 0, categories); err != nil {
		return nil, err
	}
	if err := s.checkTotal(ctx, userID, 0, candidate.Percentage); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	candidate.Percentage = core.Round2(candidate.Percentage)
	candidate.Audit = core.Audit{CreateBy: userID, CreateDate: now, UpdateBy: userID, UpdateDate: now}

	id, err := s.store.InsertBudgetPreference(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("create budget preference: %w", err)
	}
	candidate.ID = id

	s.publish(ctx, "created", id, userID, now)
	s.logger.InfoContext(ctx, "Budget preference created",
		"id", id, "user_id", userID, "percentage", candidate.Percentage)
	return &candidate, nil
}

func (s *BudgetService) Get(ctx context.Context, id, userID int64) (*core.BudgetPreference, error) {
	p, err := s.store.GetBudgetPreference(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get budget preference: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *BudgetService) List(ctx context.Context, userID int64) ([]core.BudgetPreference, error) {
	prefs, err := s.store.ListBudgetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budget preferences: %w", err)
	}
	return prefs, nil
}

// Summary aggregates all preferences of the user with derived totals. The
// allocation is complete when the total is within 0.01 of 100.
func (s *BudgetService) Summary(ctx context.Context, userID int64) (*core.BudgetSummary, error) {
	prefs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	percentages := make([]float64, len(prefs))
	for i, p := range prefs {
		percentages[i] = p.Percentage
	}
	total := core.SumPercentages(percentages)

	return &core.BudgetSummary{
		BudgetPreferences:     prefs,
		TotalPercentage:       total,
		IsComplete:            math.Abs(total-100) < core.PercentTolerance,
		MissingPercentage:     core.Round2(100 - total),
		OverlappingCategories: overlappingCategories(prefs),
	}, nil
}

// Update applies a partial update, revalidating the effective state against
// every other preference of the user. An empty patch is a no-op that returns
// the stored record untouched.
func (s *BudgetService) Update(ctx context.Context, id, userID int64, patch BudgetPreferencePatch) (*core.BudgetPreference, error) {
	current, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if patch.empty() {
		return current, nil
	}

	effective := *current
	update := storage.BudgetPreferenceUpdate{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		effective.Name = name
		update.Name = &name
	}
	if patch.Percentage != nil {
		effective.Percentage = *patch.Percentage
	}
	if patch.Categories != nil {
		effective.Categories = core.DedupeCategories(patch.Categories)
		update.Categories = effective.Categories
	}
	if err := effective.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if patch.Categories != nil {
		if err := s.checkOverlap(ctx, userID, id, effective.Categories); err != nil {
			return nil, err
		}
	}
	if patch.Percentage != nil {
		if err := s.checkTotal(ctx, userID, id, effective.Percentage); err != nil {
			return nil, err
		}
		rounded := core.Round2(effective.Percentage)
		update.Percentage = &rounded
	}

	now := s.now().UTC()
	audit := core.Audit{UpdateBy: userID, UpdateDate: now}
	updated, err := s.store.UpdateBudgetPreference(ctx, id, userID, update, audit)
	if err != nil {
		return nil, fmt.Errorf("update budget preference: %w", err)
	}
	if !updated {
		return nil, ErrNotFound
	}

	s.publish(ctx, "updated", id, userID, now)
	s.logger.InfoContext(ctx, "Budget preference updated", "id", id, "user_id", userID)
	return s.Get(ctx, id, userID)
}

func (s *BudgetService) Delete(ctx context.Context, id, userID int64) error {
	deleted, err := s.store.DeleteBudgetPreference(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget preference: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	now := s.now().UTC()
	s.publish(ctx, "deleted", id, userID, now)
	s.logger.InfoContext(ctx, "Budget preference deleted", "id", id, "user_id", userID)
	return nil
}

// CheckAllocation dry-runs the allocation rules for a candidate without
// writing anything. excludeID ignores one stored preference, for checking a
// prospective update; pass 0 when checking a prospective create.
func (s *BudgetService) CheckAllocation(ctx context.Context, userID, excludeID int64, percentage float64, categories []string) error {
	deduped := core.DedupeCategories(categories)
	if len(deduped) == 0 {
		return &ValidationError{Message: core.ErrNoCategories.Error()}
	}
	if err := core.ValidatePercentage(percentage); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if err := s.checkOverlap(ctx, userID, excludeID, deduped); err != nil {
		return err
	}
	return s.checkTotal(ctx, userID, excludeID, percentage)
}

// checkOverlap rejects candidate categories already assigned to another
// preference of the user. Conflicts are reported in candidate order.
func (s *BudgetService) checkOverlap(ctx context.Context, userID, excludeID int64, categories []string) error {
	assignments, err := s.store.CategoryAssignments(ctx, userID, excludeID)
	if err != nil {
		return fmt.Errorf("load category assignments: %w", err)
	}
	taken := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		taken[a.Category] = true
	}
	var conflicts []string
	for _, c := range categories {
		if taken[c] {
			conflicts = append(conflicts, c)
		}
	}
	if len(conflicts) > 0 {
		return validationf("categories already assigned to another budget preference: %s",
			strings.Join(conflicts, ", "))
	}
	return nil
}

// checkTotal rejects a percentage that would push the user's total above 100
// plus the rounding tolerance.
func (s *BudgetService) checkTotal(ctx context.Context, userID, excludeID int64, percentage float64) error {
	existing, err := s.store.SumPercentages(ctx, userID, excludeID)
	if err != nil {
		return fmt.Errorf("sum percentages: %w", err)
	}
	if existing+percentage > 100+core.PercentTolerance {
		return validationf("total percentage cannot exceed 100: existing %.2f%% + requested %.2f%% = %.2f%%",
			core.Round2(existing), core.Round2(percentage), core.SumPercentages([]float64{existing, percentage}))
	}
	return nil
}

// overlappingCategories returns the categories appearing in more than one
// preference, in first-seen order.
func overlappingCategories(prefs []core.BudgetPreference) []string {
	counts := make(map[string]int)
	var order []string
	for _, p := range prefs {
		for _, c := range p.Categories {
			if counts[c] == 0 {
				order = append(order, c)
			}
			counts[c]++
		}
	}
	var overlapping []string
	for _, c := range order {
		if counts[c] > 1 {
			overlapping = append(overlapping, c)
		}
	}
	return overlapping
}

func (s *BudgetService) publish(ctx context.Context, action string, id, userID int64, at time.Time) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, "budget_preference", action, id, userID, at); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			"action", action, "id", id, "error", err)
	}
}
