package model

// Budget caps spending in one category over a date range.
type Budget struct {
	Base
	Category  BudgetCategory `json:"category"`
	Amount    Money          `json:"amount"`
	Spent     Money          `json:"spent"`
	Period    BudgetPeriod   `json:"period"`
	StartDate Date           `json:"start_date"`
	EndDate   Date           `json:"end_date"`
}

// Check rejects ranges that end before they start.
func (b *Budget) Check() error {
	if b.EndDate.Before(b.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// Covers reports whether a transaction in category on date counts
// towards this budget.
func (b *Budget) Covers(category BudgetCategory, date Date) bool {
	return b.Category == category && date.Within(b.StartDate, b.EndDate)
}

// Remaining is the unspent part of the budget, negative when overspent.
func (b *Budget) Remaining() Money {
	return b.Amount - b.Spent
}
