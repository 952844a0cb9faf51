package repository

import (
	"github.com/jackc/pgx/v5"

	"github.com/taskflow/taskflow/internal/model"
)

func columns(extra ...string) []string {
	return append(append([]string{}, baseColumns...), extra...)
}

func baseValues(b *model.Base) []any {
	return []any{b.ID, b.UserID, b.CreatedAt, b.UpdatedAt}
}

func baseTargets(b *model.Base) []any {
	return []any{&b.ID, &b.UserID, &b.CreatedAt, &b.UpdatedAt}
}

var taskSpec = tableSpec[*model.Task]{
	name:    "tasks",
	columns: columns("title", "description", "priority", "deadline", "category", "completed", "completed_at"),
	scan: func(row pgx.Row) (*model.Task, error) {
		var t model.Task
		err := row.Scan(append(baseTargets(&t.Base),
			&t.Title, &t.Description, &t.Priority, &t.Deadline, &t.Category, &t.Completed, &t.CompletedAt)...)
		return &t, err
	},
	values: func(t *model.Task) []any {
		return append(baseValues(&t.Base),
			t.Title, t.Description, t.Priority, t.Deadline, t.Category, t.Completed, t.CompletedAt)
	},
}

var habitSpec = tableSpec[*model.Habit]{
	name: "habits",
	columns: columns("title", "description", "frequency", "target_count", "priority", "category",
		"background_color", "is_active", "current_streak", "longest_streak", "last_completed"),
	scan: func(row pgx.Row) (*model.Habit, error) {
		var h model.Habit
		err := row.Scan(append(baseTargets(&h.Base),
			&h.Title, &h.Description, &h.Frequency, &h.TargetCount, &h.Priority, &h.Category,
			&h.BackgroundColor, &h.IsActive, &h.CurrentStreak, &h.LongestStreak, &h.LastCompleted)...)
		return &h, err
	},
	values: func(h *model.Habit) []any {
		return append(baseValues(&h.Base),
			h.Title, h.Description, h.Frequency, h.TargetCount, h.Priority, h.Category,
			h.BackgroundColor, h.IsActive, h.CurrentStreak, h.LongestStreak, h.LastCompleted)
	},
}

var noteSpec = tableSpec[*model.Note]{
	name:    "notes",
	columns: columns("title", "content", "background_color"),
	scan: func(row pgx.Row) (*model.Note, error) {
		var n model.Note
		err := row.Scan(append(baseTargets(&n.Base), &n.Title, &n.Content, &n.BackgroundColor)...)
		return &n, err
	},
	values: func(n *model.Note) []any {
		return append(baseValues(&n.Base), n.Title, n.Content, n.BackgroundColor)
	},
}

var budgetSpec = tableSpec[*model.Budget]{
	name:    "budgets",
	columns: columns("category", "amount", "spent", "period", "start_date", "end_date"),
	scan: func(row pgx.Row) (*model.Budget, error) {
		var b model.Budget
		err := row.Scan(append(baseTargets(&b.Base),
			&b.Category, &b.Amount, &b.Spent, &b.Period, &b.StartDate, &b.EndDate)...)
		return &b, err
	},
	values: func(b *model.Budget) []any {
		return append(baseValues(&b.Base), b.Category, b.Amount, b.Spent, b.Period, b.StartDate, b.EndDate)
	},
}

var transactionSpec = tableSpec[*model.Transaction]{
	name:    "transactions",
	columns: columns("title", "description", "amount", "type", "date", "category"),
	scan: func(row pgx.Row) (*model.Transaction, error) {
		var t model.Transaction
		err := row.Scan(append(baseTargets(&t.Base),
			&t.Title, &t.Description, &t.Amount, &t.Type, &t.Date, &t.Category)...)
		return &t, err
	},
	values: func(t *model.Transaction) []any {
		return append(baseValues(&t.Base), t.Title, t.Description, t.Amount, t.Type, t.Date, t.Category)
	},
}
