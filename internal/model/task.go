package model

import "time"

// Task is a to-do item with a deadline.
type Task struct {
	Base
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Deadline    Date       `json:"deadline"`
	Category    Category   `json:"category"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// MarkComplete flags the task as done at now.
func (t *Task) MarkComplete(now time.Time) {
	now = now.UTC()
	t.Completed = true
	t.CompletedAt = &now
}

// MarkIncomplete clears the completion state.
func (t *Task) MarkIncomplete() {
	t.Completed = false
	t.CompletedAt = nil
}
