package service

import (
	"context"
	"fmt"

	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/repository"
	"github.com/taskflow/taskflow/internal/schema"
)

// TransactionAnalytics summarises a user's transactions.
type TransactionAnalytics struct {
	Total      int                    `json:"total"`
	Income     int                    `json:"income"`
	Expense    int                    `json:"expense"`
	Categories map[string]int         `json:"categories"`
	Totals     map[string]model.Money `json:"totals"`
}

// BudgetService handles budget business logic. The spent amount of a
// budget is always recomputed from its transactions on save.
type BudgetService struct {
	*Resource[*model.Budget, *schema.Budget]
}

// NewBudgetService creates a new BudgetService.
func NewBudgetService(deps Deps) *BudgetService {
	deps = deps.withDefaults()
	return &BudgetService{&Resource[*model.Budget, *schema.Budget]{
		kind:       "budget",
		perPage:    DefaultFinancePage,
		deps:       deps,
		newPayload: func() *schema.Budget { return &schema.Budget{} },
		table:      repository.Store.Budgets,
		beforeSave: recomputeSpent,
	}}
}

// Recalculate refreshes the spent amount of one budget.
func (s *BudgetService) Recalculate(ctx context.Context, ownerID, id string) (*model.Budget, error) {
	// beforeSave does the work.
	return s.mutate(ctx, ownerID, id, func(context.Context, repository.Store, *model.Budget) error {
		return nil
	})
}

// recomputeSpent sets b.Spent to the exact sum of the owner's matching
// expenses inside b's range.
func recomputeSpent(ctx context.Context, tx repository.Store, b *model.Budget) error {
	spent, err := tx.SumExpenses(ctx, b.UserID, b.Category, b.StartDate, b.EndDate)
	if err != nil {
		return fmt.Errorf("sum expenses for budget %s: %w", b.ID, err)
	}
	b.Spent = spent
	return nil
}

// TransactionService handles transaction business logic.
type TransactionService struct {
	*Resource[*model.Transaction, *schema.Transaction]
}

// NewTransactionService creates a new TransactionService. Every write
// refreshes the budgets covering the old and new position of the
// transaction in the same storage transaction.
func NewTransactionService(deps Deps) *TransactionService {
	deps = deps.withDefaults()
	s := &TransactionService{&Resource[*model.Transaction, *schema.Transaction]{
		kind:       "transaction",
		perPage:    DefaultFinancePage,
		deps:       deps,
		newPayload: func() *schema.Transaction { return &schema.Transaction{} },
		table:      repository.Store.Transactions,
		analytics:  AnalyticsTransactions,
	}}
	s.afterWrite = s.refreshBudgets
	return s
}

func (s *TransactionService) refreshBudgets(ctx context.Context, tx repository.Store, affected ...*model.Transaction) error {
	seen := make(map[string]bool)
	for _, t := range affected {
		budgets, err := tx.BudgetsCovering(ctx, t.UserID, t.Category, t.Date)
		if err != nil {
			return fmt.Errorf("find budgets covering transaction %s: %w", t.ID, err)
		}

		for _, b := range budgets {
			if seen[b.ID] {
				continue
			}
			seen[b.ID] = true

			if err := recomputeSpent(ctx, tx, b); err != nil {
				return err
			}
			b.Touch(s.deps.now())
			if err := tx.Budgets().Update(ctx, b); err != nil {
				return fmt.Errorf("update budget %s: %w", b.ID, err)
			}
		}
	}
	return nil
}

// Analytics tallies ownerID's transactions.
func (s *TransactionService) Analytics(ctx context.Context, ownerID string) (*TransactionAnalytics, error) {
	return cachedAnalytics(ctx, s.deps, ownerID, AnalyticsTransactions, func(ctx context.Context) (*TransactionAnalytics, error) {
		txs, err := s.deps.Store.Transactions().All(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("load transactions: %w", err)
		}

		out := &TransactionAnalytics{
			Total: len(txs),
			Totals: map[string]model.Money{
				string(model.TransactionIncome):  0,
				string(model.TransactionExpense): 0,
			},
		}
		categories := make([]model.BudgetCategory, 0, len(txs))
		for _, t := range txs {
			if t.IsExpense() {
				out.Expense++
			} else {
				out.Income++
			}
			out.Totals[string(t.Type)] += t.Amount
			categories = append(categories, t.Category)
		}
		out.Categories = tally(model.BudgetCategory("").Options(), categories)
		return out, nil
	})
}
