package service

import (
	"sort"
	"time"

	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculationService aggregates transactions into period summaries.
// All methods are pure: they never read from or write to the store.
type CalculationService struct{}

// NewCalculationService creates a new CalculationService
func NewCalculationService() *CalculationService {
	return &CalculationService{}
}

// CalculateSummary computes the summary of period from the full transaction list.
// Transactions are matched to the period by date prefix; templates are never counted.
func (s *CalculationService) CalculateSummary(
	period domain.Period,
	transactions []*domain.Transaction,
	monthlyIncome decimal.Decimal,
) *domain.FinancialSummary {
	summary := &domain.FinancialSummary{
		Period:             period,
		Label:              period.Label(),
		MonthlyIncome:      monthlyIncome,
		TotalIncome:        decimal.Zero,
		TotalExpenses:      decimal.Zero,
		ExpensesByCategory: make(map[string]decimal.Decimal),
		Transactions:       []*domain.Transaction{},
	}

	net := decimal.Zero
	for _, t := range transactions {
		if t.IsTemplate() || !period.Contains(t.Date) {
			continue
		}

		summary.Transactions = append(summary.Transactions, t)
		net = net.Add(t.SignedAmount())
		switch t.Type {
		case domain.TransactionTypeIncome:
			summary.TotalIncome = summary.TotalIncome.Add(t.Amount)
		case domain.TransactionTypeExpense:
			summary.TotalExpenses = summary.TotalExpenses.Add(t.Amount)
			summary.ExpensesByCategory[t.Category] = summary.ExpensesByCategory[t.Category].Add(t.Amount)
		}
	}

	// Newest first, stable for equal dates
	sort.SliceStable(summary.Transactions, func(i, j int) bool {
		return summary.Transactions[i].Date > summary.Transactions[j].Date
	})

	summary.TransactionCount = len(summary.Transactions)
	summary.Balance = monthlyIncome.Add(net)
	return summary
}

// ComparePeriods computes the change of income, expenses and balance from
// base to current
func (s *CalculationService) ComparePeriods(base, current *domain.FinancialSummary) *domain.PeriodComparison {
	return &domain.PeriodComparison{
		BasePeriod:    base.Period,
		CurrentPeriod: current.Period,
		Income:        metricChange(base.TotalIncome, current.TotalIncome),
		Expenses:      metricChange(base.TotalExpenses, current.TotalExpenses),
		Balance:       metricChange(base.Balance, current.Balance),
	}
}

func metricChange(base, current decimal.Decimal) domain.MetricChange {
	return domain.MetricChange{
		Base:          base,
		Current:       current,
		Change:        current.Sub(base),
		ChangePercent: percentChange(base, current),
	}
}

// percentChange is (current-base)/|base|*100. A zero base yields 100 when
// current is positive and 0 otherwise.
func percentChange(base, current decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		if current.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return current.Sub(base).Div(base.Abs()).Mul(hundred).Round(2)
}

// BuildSeries returns exactly n points ending at end, oldest first.
// Periods without data yield zero-valued points.
func (s *CalculationService) BuildSeries(doc *domain.UserDocument, end domain.Period, n int) []domain.SeriesPoint {
	periods := domain.TrailingPeriods(end, n)
	points := make([]domain.SeriesPoint, 0, len(periods))
	for _, p := range periods {
		summary := s.CalculateSummary(p, doc.Transactions, doc.IncomeFor(p))
		points = append(points, domain.SeriesPoint{
			Period:        p,
			Label:         summary.Label,
			MonthlyIncome: summary.MonthlyIncome,
			TotalIncome:   summary.TotalIncome,
			TotalExpenses: summary.TotalExpenses,
			Balance:       summary.Balance,
		})
	}
	return points
}

// BudgetStatus compares each category budget with the summary's expenses,
// sorted by category name
func (s *CalculationService) BudgetStatus(
	budgets map[string]decimal.Decimal,
	summary *domain.FinancialSummary,
) []domain.CategoryBudgetStatus {
	categories := make([]string, 0, len(budgets))
	for category := range budgets {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	statuses := make([]domain.CategoryBudgetStatus, 0, len(categories))
	for _, category := range categories {
		limit := budgets[category]
		spent := summary.ExpensesByCategory[category]

		remaining := limit.Sub(spent)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}

		var percentUsed decimal.Decimal
		if limit.IsZero() {
			if spent.IsPositive() {
				percentUsed = hundred
			}
		} else {
			percentUsed = spent.Div(limit).Mul(hundred).Round(2)
		}

		statuses = append(statuses, domain.CategoryBudgetStatus{
			Category:    category,
			Limit:       limit,
			Spent:       spent,
			Remaining:   remaining,
			PercentUsed: percentUsed,
			Exceeded:    spent.GreaterThan(limit),
		})
	}
	return statuses
}

// DreamProgress derives the progress of a dream as of today
func (s *CalculationService) DreamProgress(dream *domain.Dream, today time.Time) *domain.DreamProgress {
	progress := &domain.DreamProgress{
		DreamID:   dream.ID,
		Percent:   decimal.Zero,
		Remaining: dream.TotalValue.Sub(dream.SavedAmount),
		Exceeded:  dream.SavedAmount.GreaterThan(dream.TotalValue),
	}
	if progress.Remaining.IsNegative() {
		progress.Remaining = decimal.Zero
	}
	if dream.TotalValue.IsPositive() {
		progress.Percent = dream.SavedAmount.Div(dream.TotalValue).Mul(hundred).Round(2)
	}

	currentPeriod := domain.PeriodOf(today)

	switch dream.CalculationType {
	case domain.DreamCalculationDate:
		if dream.TargetDate == nil {
			break
		}
		target, err := domain.PeriodOfDate(*dream.TargetDate)
		if err != nil {
			break
		}
		months := currentPeriod.MonthsUntil(target)
		if months < 0 {
			months = 0
		}
		needed := progress.Remaining
		if months > 0 {
			needed = progress.Remaining.Div(decimal.NewFromInt(int64(months))).Round(2)
		}
		progress.MonthsLeft = &months
		progress.MonthlyNeeded = &needed
		progress.CompletionPeriod = &target

	case domain.DreamCalculationMonthly:
		if dream.MonthlyAmount == nil || !dream.MonthlyAmount.IsPositive() {
			break
		}
		left := progress.Remaining.Div(*dream.MonthlyAmount).Ceil()
		if left.GreaterThan(decimal.NewFromInt(domain.MaxDreamMonths)) {
			// Stored before the horizon was enforced, or savings were lowered
			// since; no completion estimate
			break
		}
		months := int(left.IntPart())
		completion := currentPeriod.AddMonths(months)
		if !completion.Valid() {
			break
		}
		monthly := *dream.MonthlyAmount
		progress.MonthsLeft = &months
		progress.MonthlyNeeded = &monthly
		progress.CompletionPeriod = &completion
	}

	return progress
}
