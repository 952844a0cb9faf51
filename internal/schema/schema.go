// Package schema declares the closed request schemas for every resource.
//
// Fields are pointers so that absent and supplied values can be told
// apart on partial edits. Apply copies supplied fields one by one; there
// is no reflective assignment onto entities.
package schema

import (
	"strings"

	"github.com/taskflow/taskflow/internal/model"
)

// Task is the create/edit schema for tasks.
type Task struct {
	Title       *string         `json:"title" validate:"required,length=3-30"`
	Description *string         `json:"description" validate:"required,length=1-2000"`
	Priority    *model.Priority `json:"priority" validate:"required,enum"`
	Deadline    *model.Date     `json:"deadline" validate:"required"`
	Category    *model.Category `json:"category" validate:"required,enum"`
}

func (p *Task) Text() []*string {
	return []*string{p.Title, p.Description}
}

func (p *Task) Build(base model.Base) *model.Task {
	t := &model.Task{Base: base}
	p.Apply(t)
	return t
}

func (p *Task) Apply(t *model.Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
}

// Habit is the create/edit schema for habits. Streak fields are derived
// and not accepted from clients.
type Habit struct {
	Title           *string                `json:"title" validate:"required,length=3-30"`
	Description     *string                `json:"description" validate:"omitempty,max=255"`
	Frequency       *model.Frequency       `json:"frequency" validate:"required,enum"`
	TargetCount     *int                   `json:"target_count" validate:"required,min=1,max=1000"`
	Priority        *model.Priority        `json:"priority" validate:"required,enum"`
	Category        *model.Category        `json:"category" validate:"required,enum"`
	BackgroundColor *model.BackgroundColor `json:"background_color" validate:"omitempty,enum"`
	IsActive        *bool                  `json:"is_active"`
}

func (p *Habit) Text() []*string {
	return []*string{p.Title, p.Description}
}

func (p *Habit) Build(base model.Base) *model.Habit {
	h := &model.Habit{Base: base, IsActive: true}
	p.Apply(h)
	return h
}

func (p *Habit) Apply(h *model.Habit) {
	if p.Title != nil {
		h.Title = *p.Title
	}
	if p.Description != nil {
		desc := *p.Description
		h.Description = &desc
	}
	if p.Frequency != nil {
		h.Frequency = *p.Frequency
	}
	if p.TargetCount != nil {
		h.TargetCount = *p.TargetCount
	}
	if p.Priority != nil {
		h.Priority = *p.Priority
	}
	if p.Category != nil {
		h.Category = *p.Category
	}
	if p.BackgroundColor != nil {
		color := *p.BackgroundColor
		h.BackgroundColor = &color
	}
	if p.IsActive != nil {
		h.IsActive = *p.IsActive
	}
}

// Note is the create/edit schema for notes.
type Note struct {
	Title           *string                `json:"title" validate:"required,length=1-30"`
	Content         *string                `json:"content" validate:"required,length=1-10000"`
	BackgroundColor *model.BackgroundColor `json:"background_color" validate:"omitempty,enum"`
}

func (p *Note) Text() []*string {
	return []*string{p.Title, p.Content}
}

func (p *Note) Build(base model.Base) *model.Note {
	n := &model.Note{Base: base}
	p.Apply(n)
	return n
}

func (p *Note) Apply(n *model.Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.BackgroundColor != nil {
		color := *p.BackgroundColor
		n.BackgroundColor = &color
	}
}

// Budget is the create/edit schema for budgets. Spent is derived.
type Budget struct {
	Category  *model.BudgetCategory `json:"category" validate:"required,enum"`
	Amount    *model.Money          `json:"amount" validate:"required,gte=0,lte=99999999999999"`
	Period    *model.BudgetPeriod   `json:"period" validate:"required,enum"`
	StartDate *model.Date           `json:"start_date" validate:"required"`
	EndDate   *model.Date           `json:"end_date" validate:"required"`
}

// Budgets have no free text.
func (p *Budget) Text() []*string {
	return nil
}

func (p *Budget) Build(base model.Base) *model.Budget {
	b := &model.Budget{Base: base}
	p.Apply(b)
	return b
}

func (p *Budget) Apply(b *model.Budget) {
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Period != nil {
		b.Period = *p.Period
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		b.EndDate = *p.EndDate
	}
}

// Transaction is the create/edit schema for transactions.
type Transaction struct {
	Title       *string                `json:"title" validate:"required,length=1-255"`
	Description *string                `json:"description" validate:"omitempty,max=2000"`
	Amount      *model.Money           `json:"amount" validate:"required,gte=0,lte=99999999999999"`
	Type        *model.TransactionType `json:"type" validate:"required,enum"`
	Date        *model.Date            `json:"date" validate:"required"`
	Category    *model.BudgetCategory  `json:"category" validate:"required,enum"`
}

func (p *Transaction) Text() []*string {
	return []*string{p.Title, p.Description}
}

func (p *Transaction) Build(base model.Base) *model.Transaction {
	t := &model.Transaction{Base: base}
	p.Apply(t)
	return t
}

func (p *Transaction) Apply(t *model.Transaction) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		desc := *p.Description
		t.Description = &desc
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
}

// Signup registers a new account.
type Signup struct {
	Name            *string `json:"name" validate:"required,length=3-30"`
	Email           *string `json:"email" validate:"required,email,max=254"`
	Password        *string `json:"password" validate:"required,min=6,max=128"`
	ConfirmPassword *string `json:"confirm_password" validate:"required"`
}

func (p *Signup) Text() []*string {
	return []*string{p.Name}
}

// Login opens a session.
type Login struct {
	Email    *string `json:"email" validate:"required,email"`
	Password *string `json:"password" validate:"required"`
	Remember *bool   `json:"remember"`
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
