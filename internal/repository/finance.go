package repository

import (
	"context"
	"fmt"

	"github.com/taskflow/taskflow/internal/model"
)

// SumExpenses totals EXPENSE transactions in the database so the result
// stays exact.
func (r *Repository) SumExpenses(ctx context.Context, ownerID string, category model.BudgetCategory, from, to model.Date) (model.Money, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1
		  AND type = 'EXPENSE'
		  AND category = $2
		  AND date BETWEEN $3 AND $4
	`

	var total model.Money
	if err := r.q.QueryRow(ctx, query, ownerID, category, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum expenses: %w", err)
	}

	return total, nil
}

// BudgetsCovering lists budgets in category whose range contains date.
func (r *Repository) BudgetsCovering(ctx context.Context, ownerID string, category model.BudgetCategory, date model.Date) ([]*model.Budget, error) {
	t := newTable(r.q, budgetSpec)
	query := fmt.Sprintf(`
		SELECT %s FROM budgets
		WHERE user_id = $1
		  AND category = $2
		  AND start_date <= $3
		  AND end_date >= $3
		ORDER BY start_date, id
	`, t.selectList())

	return t.query(ctx, query, ownerID, category, date)
}

// DeleteCompletedTasks removes all completed tasks of an owner.
func (r *Repository) DeleteCompletedTasks(ctx context.Context, ownerID string) (int, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM tasks WHERE user_id = $1 AND completed`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete completed tasks: %w", err)
	}

	return int(result.RowsAffected()), nil
}
