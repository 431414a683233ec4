package service

import (
	"context"
	"strings"

	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// MaxSeriesMonths caps the length of a trend series
const MaxSeriesMonths = 24

// GetFinancialSummary generates any owed recurring occurrences, then returns
// the summary of period
func (s *FinanceService) GetFinancialSummary(ctx context.Context, userID string, period domain.Period) (*domain.FinancialSummary, error) {
	doc, err := s.caughtUpDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.calc.CalculateSummary(period, doc.Transactions, doc.IncomeFor(period)), nil
}

// ComparePeriods compares period with the period before it
func (s *FinanceService) ComparePeriods(ctx context.Context, userID string, period domain.Period) (*domain.PeriodComparison, error) {
	doc, err := s.caughtUpDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := period.Previous()
	base := s.calc.CalculateSummary(previous, doc.Transactions, doc.IncomeFor(previous))
	current := s.calc.CalculateSummary(period, doc.Transactions, doc.IncomeFor(period))
	return s.calc.ComparePeriods(base, current), nil
}

// GetSeries returns the trailing months ending at the current period
func (s *FinanceService) GetSeries(ctx context.Context, userID string, months int) ([]domain.SeriesPoint, error) {
	if months < 1 || months > MaxSeriesMonths {
		return nil, domain.NewValidationErrors("months", "O período deve ter entre 1 e 24 meses")
	}
	doc, err := s.caughtUpDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.calc.BuildSeries(doc, s.currentPeriod(), months), nil
}

// SetMonthlyIncome sets the base income of period
func (s *FinanceService) SetMonthlyIncome(ctx context.Context, userID string, period domain.Period, amount decimal.Decimal) error {
	if period.IsZero() {
		return domain.ErrInvalidPeriod
	}
	amount = domain.NormalizeAmount(amount)
	if amount.IsNegative() {
		return domain.NewValidationErrors("amount", "O valor não pode ser negativo")
	}
	if amount.GreaterThan(domain.MaxAmount) {
		return domain.NewValidationErrors("amount", msgAmountTooLarge)
	}
	if _, err := s.loadDocument(ctx, userID); err != nil {
		return err
	}
	if err := s.store.UpdateField(ctx, userID, domain.MonthlyIncomePath(period), amount); err != nil {
		return err
	}

	s.publish(userID, websocket.IncomeChanged(map[string]string{"period": period.String()}))
	return nil
}

// SetCategoryBudget sets the monthly spending limit of an expense category
func (s *FinanceService) SetCategoryBudget(ctx context.Context, userID, category string, limit decimal.Decimal) error {
	category = strings.TrimSpace(category)
	if !domain.IsKnownCategory(domain.TransactionTypeExpense, category) {
		return domain.NewValidationErrors("category", "Categoria inválida")
	}
	limit = domain.NormalizeAmount(limit)
	if limit.IsNegative() {
		return domain.NewValidationErrors("limit", "O limite não pode ser negativo")
	}
	if limit.GreaterThan(domain.MaxAmount) {
		return domain.NewValidationErrors("limit", msgAmountTooLarge)
	}
	if _, err := s.loadDocument(ctx, userID); err != nil {
		return err
	}
	if err := s.store.UpdateField(ctx, userID, domain.CategoryBudgetPath(category), limit); err != nil {
		return err
	}

	s.publish(userID, websocket.BudgetsChanged(map[string]string{"category": category}))
	return nil
}

// GetBudgetStatus compares every category budget with the period's spending
func (s *FinanceService) GetBudgetStatus(ctx context.Context, userID string, period domain.Period) ([]domain.CategoryBudgetStatus, error) {
	doc, err := s.caughtUpDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := s.calc.CalculateSummary(period, doc.Transactions, doc.IncomeFor(period))
	return s.calc.BudgetStatus(doc.CategoryBudgets, summary), nil
}

// CurrentBalance returns the balance of the current period
func (s *FinanceService) CurrentBalance(ctx context.Context, userID string) (domain.Period, decimal.Decimal, error) {
	period := s.currentPeriod()
	summary, err := s.GetFinancialSummary(ctx, userID, period)
	if err != nil {
		return period, decimal.Zero, err
	}
	return period, summary.Balance, nil
}

// caughtUpDocument runs the catch-up pass and returns the fresh document
func (s *FinanceService) caughtUpDocument(ctx context.Context, userID string) (*domain.UserDocument, error) {
	if err := s.catchUp(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.GetDocument(ctx, userID)
}
