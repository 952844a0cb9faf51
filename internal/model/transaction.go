package model

// Transaction is a single income or expense entry.
type Transaction struct {
	Base
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Amount      Money           `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        Date            `json:"date"`
	Category    BudgetCategory  `json:"category"`
}

// IsExpense reports whether the transaction counts against budgets.
func (t *Transaction) IsExpense() bool {
	return t.Type == TransactionExpense
}
