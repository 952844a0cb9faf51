package model

// Enum is implemented by every closed set of named values.
// The name is the canonical form on the wire and in storage.
type Enum interface {
	IsValid() bool
	Options() []string
}

// Priority ranks tasks and habits.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

var priorities = []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}

func (p Priority) IsValid() bool     { return contains(priorities, string(p)) }
func (p Priority) Options() []string { return priorities }

// Category groups tasks and habits.
type Category string

const (
	CategoryWork     Category = "WORK"
	CategoryPersonal Category = "PERSONAL"
	CategoryStudy    Category = "STUDY"
	CategoryHealth   Category = "HEALTH"
	CategoryHobby    Category = "HOBBY"
	CategoryOther    Category = "OTHER"
)

var categories = []string{"WORK", "PERSONAL", "STUDY", "HEALTH", "HOBBY", "OTHER"}

func (c Category) IsValid() bool     { return contains(categories, string(c)) }
func (c Category) Options() []string { return categories }

// Frequency is how often a habit is meant to be performed.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

var frequencies = []string{"DAILY", "WEEKLY", "MONTHLY"}

func (f Frequency) IsValid() bool     { return contains(frequencies, string(f)) }
func (f Frequency) Options() []string { return frequencies }

// BackgroundColor is a presentation hint for habits and notes.
type BackgroundColor string

const (
	ColorBlue   BackgroundColor = "BLUE"
	ColorRed    BackgroundColor = "RED"
	ColorGreen  BackgroundColor = "GREEN"
	ColorCyan   BackgroundColor = "CYAN"
	ColorYellow BackgroundColor = "YELLOW"
	ColorOrange BackgroundColor = "ORANGE"
	ColorPurple BackgroundColor = "PURPLE"
)

var colors = []string{"BLUE", "RED", "GREEN", "CYAN", "YELLOW", "ORANGE", "PURPLE"}

func (c BackgroundColor) IsValid() bool     { return contains(colors, string(c)) }
func (c BackgroundColor) Options() []string { return colors }

// BudgetCategory classifies budgets and transactions.
type BudgetCategory string

const (
	BudgetSalary        BudgetCategory = "SALARY"
	BudgetFreelance     BudgetCategory = "FREELANCE"
	BudgetInvestments   BudgetCategory = "INVESTMENTS"
	BudgetOtherIncome   BudgetCategory = "OTHER_INCOME"
	BudgetFood          BudgetCategory = "FOOD"
	BudgetTransport     BudgetCategory = "TRANSPORT"
	BudgetEntertainment BudgetCategory = "ENTERTAINMENT"
	BudgetUtilities     BudgetCategory = "UTILITIES"
	BudgetShopping      BudgetCategory = "SHOPPING"
	BudgetHealth        BudgetCategory = "HEALTH"
	BudgetOther         BudgetCategory = "OTHER"
)

var budgetCategories = []string{
	"SALARY", "FREELANCE", "INVESTMENTS", "OTHER_INCOME",
	"FOOD", "TRANSPORT", "ENTERTAINMENT", "UTILITIES",
	"SHOPPING", "HEALTH", "OTHER",
}

func (c BudgetCategory) IsValid() bool     { return contains(budgetCategories, string(c)) }
func (c BudgetCategory) Options() []string { return budgetCategories }

// BudgetPeriod is the nominal cadence of a budget.
type BudgetPeriod string

const (
	PeriodWeekly  BudgetPeriod = "WEEKLY"
	PeriodMonthly BudgetPeriod = "MONTHLY"
	PeriodYearly  BudgetPeriod = "YEARLY"
)

var periods = []string{"WEEKLY", "MONTHLY", "YEARLY"}

func (p BudgetPeriod) IsValid() bool     { return contains(periods, string(p)) }
func (p BudgetPeriod) Options() []string { return periods }

// TransactionType separates money in from money out.
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

var transactionTypes = []string{"INCOME", "EXPENSE"}

func (t TransactionType) IsValid() bool     { return contains(transactionTypes, string(t)) }
func (t TransactionType) Options() []string { return transactionTypes }

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
