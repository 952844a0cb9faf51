package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/repository"
	"github.com/taskflow/taskflow/internal/schema"
)

// HabitAnalytics summarises a user's habits.
type HabitAnalytics struct {
	Total       int            `json:"total"`
	Active      int            `json:"active"`
	Inactive    int            `json:"inactive"`
	Priorities  map[string]int `json:"priorities"`
	Categories  map[string]int `json:"categories"`
	Frequencies map[string]int `json:"frequencies"`
}

// HabitService handles habit business logic.
type HabitService struct {
	*Resource[*model.Habit, *schema.Habit]
}

// NewHabitService creates a new HabitService.
func NewHabitService(deps Deps) *HabitService {
	deps = deps.withDefaults()
	return &HabitService{&Resource[*model.Habit, *schema.Habit]{
		kind:       "habit",
		perPage:    DefaultPlannerPage,
		deps:       deps,
		newPayload: func() *schema.Habit { return &schema.Habit{} },
		table:      repository.Store.Habits,
		analytics:  AnalyticsHabits,
	}}
}

// Complete records today's completion in the configured timezone.
// A second completion on the same day returns ErrHabitAlreadyCompleted
// and leaves the habit unchanged.
func (s *HabitService) Complete(ctx context.Context, ownerID, id string) (*model.Habit, error) {
	today := s.deps.today()

	h, err := s.mutate(ctx, ownerID, id, func(_ context.Context, _ repository.Store, h *model.Habit) error {
		if err := h.Complete(today); err != nil {
			if errors.Is(err, model.ErrAlreadyCompleted) {
				return ErrHabitAlreadyCompleted
			}
			return err
		}
		return nil
	})
	switch {
	case err == nil:
		s.deps.Metrics.IncHabitCompletion("completed")
	case errors.Is(err, ErrHabitAlreadyCompleted):
		s.deps.Metrics.IncHabitCompletion("duplicate")
	}
	return h, err
}

// Analytics tallies ownerID's habits.
func (s *HabitService) Analytics(ctx context.Context, ownerID string) (*HabitAnalytics, error) {
	return cachedAnalytics(ctx, s.deps, ownerID, AnalyticsHabits, func(ctx context.Context) (*HabitAnalytics, error) {
		habits, err := s.deps.Store.Habits().All(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("load habits: %w", err)
		}

		out := &HabitAnalytics{Total: len(habits)}
		var (
			priorities  []model.Priority
			categories  []model.Category
			frequencies []model.Frequency
		)
		for _, h := range habits {
			if h.IsActive {
				out.Active++
			}
			priorities = append(priorities, h.Priority)
			categories = append(categories, h.Category)
			frequencies = append(frequencies, h.Frequency)
		}
		out.Inactive = out.Total - out.Active
		out.Priorities = tally(model.Priority("").Options(), priorities)
		out.Categories = tally(model.Category("").Options(), categories)
		out.Frequencies = tally(model.Frequency("").Options(), frequencies)
		return out, nil
	})
}
