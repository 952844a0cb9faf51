package service

import (
	"context"
	"fmt"

	"github.com/taskflow/taskflow/internal/metrics"
	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/repository"
	"github.com/taskflow/taskflow/internal/schema"
)

// TaskAnalytics summarises a user's tasks.
type TaskAnalytics struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Unfinished int            `json:"unfinished"`
	Priorities map[string]int `json:"priorities"`
	Categories map[string]int `json:"categories"`
}

// TaskService handles task business logic.
type TaskService struct {
	*Resource[*model.Task, *schema.Task]
}

// NewTaskService creates a new TaskService.
func NewTaskService(deps Deps) *TaskService {
	deps = deps.withDefaults()
	return &TaskService{&Resource[*model.Task, *schema.Task]{
		kind:       "task",
		perPage:    DefaultPlannerPage,
		deps:       deps,
		newPayload: func() *schema.Task { return &schema.Task{} },
		table:      repository.Store.Tasks,
		analytics:  AnalyticsTasks,
	}}
}

// Complete marks the task as done now.
func (s *TaskService) Complete(ctx context.Context, ownerID, id string) (*model.Task, error) {
	return s.mutate(ctx, ownerID, id, func(_ context.Context, _ repository.Store, t *model.Task) error {
		t.MarkComplete(s.deps.now())
		return nil
	})
}

// Incomplete clears the completion state.
func (s *TaskService) Incomplete(ctx context.Context, ownerID, id string) (*model.Task, error) {
	return s.mutate(ctx, ownerID, id, func(_ context.Context, _ repository.Store, t *model.Task) error {
		t.MarkIncomplete()
		return nil
	})
}

// DeleteCompleted removes every completed task of ownerID.
// Returns ErrNoCompletedTasks when there is nothing to remove.
func (s *TaskService) DeleteCompleted(ctx context.Context, ownerID string) (int, error) {
	var removed int
	err := s.deps.Store.InTx(ctx, func(tx repository.Store) error {
		n, err := tx.DeleteCompletedTasks(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("delete completed tasks: %w", err)
		}
		if n == 0 {
			return ErrNoCompletedTasks
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.committed(ctx, ownerID, metrics.OpDelete)
	return removed, nil
}

// Analytics tallies ownerID's tasks.
func (s *TaskService) Analytics(ctx context.Context, ownerID string) (*TaskAnalytics, error) {
	return cachedAnalytics(ctx, s.deps, ownerID, AnalyticsTasks, func(ctx context.Context) (*TaskAnalytics, error) {
		tasks, err := s.deps.Store.Tasks().All(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("load tasks: %w", err)
		}

		out := &TaskAnalytics{Total: len(tasks)}
		priorities := make([]model.Priority, 0, len(tasks))
		categories := make([]model.Category, 0, len(tasks))
		for _, t := range tasks {
			if t.Completed {
				out.Completed++
			}
			priorities = append(priorities, t.Priority)
			categories = append(categories, t.Category)
		}
		out.Unfinished = out.Total - out.Completed
		out.Priorities = tally(model.Priority("").Options(), priorities)
		out.Categories = tally(model.Category("").Options(), categories)
		return out, nil
	})
}
