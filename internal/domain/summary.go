package domain

import (
	"github.com/shopspring/decimal"
)

// FinancialSummary is the derived state of one period. It is recomputed on
// every read and never persisted.
type FinancialSummary struct {
	Period             Period                     `json:"period"`
	Label              string                     `json:"label"`
	MonthlyIncome      decimal.Decimal            `json:"monthlyIncome"`
	TotalIncome        decimal.Decimal            `json:"totalIncome"`
	TotalExpenses      decimal.Decimal            `json:"totalExpenses"`
	Balance            decimal.Decimal            `json:"balance"`
	ExpensesByCategory map[string]decimal.Decimal `json:"expensesByCategory"`
	Transactions       []*Transaction             `json:"transactions"`
	TransactionCount   int                        `json:"transactionCount"`
}

// MetricChange is the delta of one metric between two periods
type MetricChange struct {
	Base          decimal.Decimal `json:"base"`
	Current       decimal.Decimal `json:"current"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

// PeriodComparison compares a current period against a base period
type PeriodComparison struct {
	BasePeriod    Period       `json:"basePeriod"`
	CurrentPeriod Period       `json:"currentPeriod"`
	Income        MetricChange `json:"income"`
	Expenses      MetricChange `json:"expenses"`
	Balance       MetricChange `json:"balance"`
}

// SeriesPoint is one period of a trend series
type SeriesPoint struct {
	Period        Period          `json:"period"`
	Label         string          `json:"label"`
	MonthlyIncome decimal.Decimal `json:"monthlyIncome"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Balance       decimal.Decimal `json:"balance"`
}

// CategoryBudgetStatus compares a category's limit with its spending in a period
type CategoryBudgetStatus struct {
	Category    string          `json:"category"`
	Limit       decimal.Decimal `json:"limit"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	PercentUsed decimal.Decimal `json:"percentUsed"`
	Exceeded    bool            `json:"exceeded"`
}
