package handler

import (
	"net/http"
	"testing"

	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedPeriod records a base income of 3000, an extra income of 500 and an
// expense of 300 in period
func seedPeriod(t *testing.T, env *testEnv, period domain.Period) {
	t.Helper()
	requireStatus(t, env.do(t, http.MethodPut, "/api/v1/income/"+period.String(), SetIncomeRequest{Amount: "3000"}), http.StatusOK)
	requireStatus(t, env.do(t, http.MethodPost, "/api/v1/transactions", CreateTransactionRequest{
		Description: "Projeto", Amount: "500", Type: "income", Category: "Freelance", Date: period.DateIn(10),
	}), http.StatusCreated)
	requireStatus(t, env.do(t, http.MethodPost, "/api/v1/transactions", CreateTransactionRequest{
		Description: "Mercado", Amount: "300", Type: "expense", Category: "Alimentação", Date: period.DateIn(12),
	}), http.StatusCreated)
}

func TestGetSummary(t *testing.T) {
	env := newTestEnv(t)
	period := domain.CurrentPeriod()
	seedPeriod(t, env, period)

	rec := env.do(t, http.MethodGet, "/api/v1/summary/"+period.String(), nil)
	requireStatus(t, rec, http.StatusOK)

	summary := decode[SummaryResponse](t, rec)
	assert.Equal(t, period.String(), summary.Period)
	assert.Equal(t, period.Label(), summary.Label)
	assert.Equal(t, "3000.00", summary.MonthlyIncome)
	assert.Equal(t, "500.00", summary.TotalIncome)
	assert.Equal(t, "300.00", summary.TotalExpenses)
	assert.Equal(t, "3200.00", summary.Balance)
	assert.Contains(t, summary.FormattedBalance, "3.200,00")
	assert.Equal(t, map[string]string{"Alimentação": "300.00"}, summary.ExpensesByCategory)
	require.Len(t, summary.Transactions, 2)
	assert.Equal(t, "Mercado", summary.Transactions[0].Description)
	assert.Equal(t, 2, summary.TransactionCount)

	// "current" resolves to the same period
	current := decode[SummaryResponse](t, env.do(t, http.MethodGet, "/api/v1/summary/current", nil))
	assert.Equal(t, summary.Balance, current.Balance)
}

func TestGetSummary_EmptyAndInvalidPeriod(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/summary/2020-01", nil)
	requireStatus(t, rec, http.StatusOK)
	summary := decode[SummaryResponse](t, rec)
	assert.Equal(t, "0.00", summary.Balance)
	assert.Empty(t, summary.Transactions)

	rec = env.do(t, http.MethodGet, "/api/v1/summary/2020-1", nil)
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestGetComparison(t *testing.T) {
	env := newTestEnv(t)
	period := domain.CurrentPeriod()
	seedPeriod(t, env, period)

	rec := env.do(t, http.MethodGet, "/api/v1/summary/"+period.String()+"/compare", nil)
	requireStatus(t, rec, http.StatusOK)

	cmp := decode[ComparisonResponse](t, rec)
	assert.Equal(t, period.Previous().String(), cmp.BasePeriod)
	assert.Equal(t, period.String(), cmp.CurrentPeriod)
	assert.Equal(t, "0.00", cmp.Expenses.Base)
	assert.Equal(t, "300.00", cmp.Expenses.Current)
	assert.Equal(t, "300.00", cmp.Expenses.Change)
	// A zero base compares as a full increase
	assert.Equal(t, "100.00", cmp.Expenses.ChangePercent)
}

func TestGetSeries(t *testing.T) {
	env := newTestEnv(t)
	period := domain.CurrentPeriod()
	seedPeriod(t, env, period)

	rec := env.do(t, http.MethodGet, "/api/v1/summary/series?months=3", nil)
	requireStatus(t, rec, http.StatusOK)

	points := decode[[]SeriesPointResponse](t, rec)
	require.Len(t, points, 3)
	assert.Equal(t, period.Previous().Previous().String(), points[0].Period)
	assert.Equal(t, period.String(), points[2].Period)
	assert.Equal(t, "3200.00", points[2].Balance)
	assert.Equal(t, "0.00", points[0].Balance)

	assert.Len(t, decode[[]SeriesPointResponse](t, env.do(t, http.MethodGet, "/api/v1/summary/series", nil)), defaultSeriesMonths)

	requireStatus(t, env.do(t, http.MethodGet, "/api/v1/summary/series?months=x", nil), http.StatusBadRequest)

	rec = env.do(t, http.MethodGet, "/api/v1/summary/series?months=25", nil)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, []string{"months"}, problemFields(t, rec))
}

func TestBudgets(t *testing.T) {
	env := newTestEnv(t)
	period := domain.CurrentPeriod()
	seedPeriod(t, env, period)

	var events []string
	env.hub.Subscribe(testUserID, func(e websocket.Event) { events = append(events, e.Type) })

	requireStatus(t, env.do(t, http.MethodPut, "/api/v1/budgets/categories/Alimenta%C3%A7%C3%A3o", SetBudgetRequest{Limit: "250"}), http.StatusNoContent)
	requireStatus(t, env.do(t, http.MethodPut, "/api/v1/budgets/categories/Lazer", SetBudgetRequest{Limit: "100"}), http.StatusNoContent)
	assert.Equal(t, []string{"budgets.changed", "budgets.changed"}, events)

	rec := env.do(t, http.MethodGet, "/api/v1/budgets/"+period.String(), nil)
	requireStatus(t, rec, http.StatusOK)

	statuses := decode[[]BudgetStatusResponse](t, rec)
	require.Len(t, statuses, 2)
	assert.Equal(t, BudgetStatusResponse{
		Category: "Alimentação", Limit: "250.00", Spent: "300.00", Remaining: "0.00", PercentUsed: "120.00", Exceeded: true,
	}, statuses[0])
	assert.Equal(t, BudgetStatusResponse{
		Category: "Lazer", Limit: "100.00", Spent: "0.00", Remaining: "100.00", PercentUsed: "0.00",
	}, statuses[1])
}

func TestBudgets_Validation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/budgets/categories/Viagens", SetBudgetRequest{Limit: "100"})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, []string{"category"}, problemFields(t, rec))

	rec = env.do(t, http.MethodPut, "/api/v1/budgets/categories/Lazer", SetBudgetRequest{Limit: "-1"})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, []string{"limit"}, problemFields(t, rec))

	rec = env.do(t, http.MethodPut, "/api/v1/income/2025-03", SetIncomeRequest{Amount: "-10"})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, []string{"amount"}, problemFields(t, rec))

	rec = env.do(t, http.MethodPut, "/api/v1/income/2025-03", SetIncomeRequest{Amount: "dez"})
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestSetMonthlyIncome(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/v1/income/2025-03", SetIncomeRequest{Amount: "4500.456"})
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, IncomeResponse{Period: "2025-03", Amount: "4500.46"}, decode[IncomeResponse](t, rec))

	doc := env.store.Doc(testUserID)
	require.NotNil(t, doc)
	assert.True(t, doc.IncomeFor(domain.MustParsePeriod("2025-03")).Equal(dec("4500.46")))
}
