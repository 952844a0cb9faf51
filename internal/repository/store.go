package repository

import (
	"context"
	"errors"

	"github.com/taskflow/taskflow/internal/model"
)

// Common errors for repository operations.
var (
	ErrNotFound    = errors.New("record not found")
	ErrEmailExists = errors.New("email already exists")
)

// ListOptions selects one page of a listing.
type ListOptions struct {
	Limit  int
	Offset int
}

// Table is the storage contract shared by every user-owned resource.
// Listings are ordered by updated_at descending.
type Table[E model.Entity] interface {
	Get(ctx context.Context, id string) (E, error)
	Insert(ctx context.Context, e E) error
	Update(ctx context.Context, e E) error
	Delete(ctx context.Context, ownerID, id string) error
	List(ctx context.Context, ownerID string, opts ListOptions) ([]E, int, error)
	All(ctx context.Context, ownerID string) ([]E, error)
}

// UserTable stores accounts and their credentials.
type UserTable interface {
	Create(ctx context.Context, u *model.User, passwordHash string) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Credential(ctx context.Context, email string) (model.Credential, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	Tasks() Table[*model.Task]
	Habits() Table[*model.Habit]
	Notes() Table[*model.Note]
	Budgets() Table[*model.Budget]
	Transactions() Table[*model.Transaction]
	Users() UserTable

	// DeleteCompletedTasks removes every completed task of ownerID and
	// reports how many were removed.
	DeleteCompletedTasks(ctx context.Context, ownerID string) (int, error)

	// SumExpenses totals ownerID's EXPENSE transactions in category dated
	// within [from, to].
	SumExpenses(ctx context.Context, ownerID string, category model.BudgetCategory, from, to model.Date) (model.Money, error)

	// BudgetsCovering lists ownerID's budgets in category whose range
	// contains date.
	BudgetsCovering(ctx context.Context, ownerID string, category model.BudgetCategory, date model.Date) ([]*model.Budget, error)

	// InTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Store) error) error

	Ping(ctx context.Context) error
}
