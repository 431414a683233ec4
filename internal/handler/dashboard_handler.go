package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/middleware"
	"github.com/orcamais/orcamais-backend/internal/service"
	"github.com/orcamais/orcamais-backend/internal/util"
)

// defaultSeriesMonths is used when the series request has no months param
const defaultSeriesMonths = 6

// DashboardHandler serves the period summary, comparison and trend series
type DashboardHandler struct {
	finance *service.FinanceService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(finance *service.FinanceService) *DashboardHandler {
	return &DashboardHandler{finance: finance}
}

// SummaryResponse represents the summary of one period
type SummaryResponse struct {
	Period             string                `json:"period"`
	Label              string                `json:"label"`
	MonthlyIncome      string                `json:"monthlyIncome"`
	TotalIncome        string                `json:"totalIncome"`
	TotalExpenses      string                `json:"totalExpenses"`
	Balance            string                `json:"balance"`
	FormattedBalance   string                `json:"formattedBalance"`
	ExpensesByCategory map[string]string     `json:"expensesByCategory"`
	Transactions       []TransactionResponse `json:"transactions"`
	TransactionCount   int                   `json:"transactionCount"`
}

// MetricChangeResponse is the change of one metric between two periods
type MetricChangeResponse struct {
	Base          string `json:"base"`
	Current       string `json:"current"`
	Change        string `json:"change"`
	ChangePercent string `json:"changePercent"`
}

// ComparisonResponse compares a period with the one before it
type ComparisonResponse struct {
	BasePeriod    string               `json:"basePeriod"`
	CurrentPeriod string               `json:"currentPeriod"`
	Income        MetricChangeResponse `json:"income"`
	Expenses      MetricChangeResponse `json:"expenses"`
	Balance       MetricChangeResponse `json:"balance"`
}

// SeriesPointResponse is one month of the trend series
type SeriesPointResponse struct {
	Period        string `json:"period"`
	Label         string `json:"label"`
	MonthlyIncome string `json:"monthlyIncome"`
	TotalIncome   string `json:"totalIncome"`
	TotalExpenses string `json:"totalExpenses"`
	Balance       string `json:"balance"`
}

func toSummaryResponse(s *domain.FinancialSummary) SummaryResponse {
	byCategory := make(map[string]string, len(s.ExpensesByCategory))
	for category, total := range s.ExpensesByCategory {
		byCategory[category] = money(total)
	}
	return SummaryResponse{
		Period:             s.Period.String(),
		Label:              s.Label,
		MonthlyIncome:      money(s.MonthlyIncome),
		TotalIncome:        money(s.TotalIncome),
		TotalExpenses:      money(s.TotalExpenses),
		Balance:            money(s.Balance),
		FormattedBalance:   util.FormatCurrency(s.Balance),
		ExpensesByCategory: byCategory,
		Transactions:       toTransactionResponses(s.Transactions),
		TransactionCount:   s.TransactionCount,
	}
}

func toMetricChange(m domain.MetricChange) MetricChangeResponse {
	return MetricChangeResponse{
		Base:          money(m.Base),
		Current:       money(m.Current),
		Change:        money(m.Change),
		ChangePercent: money(m.ChangePercent),
	}
}

// GetSummary handles GET /api/v1/summary/:period
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	period, err := parsePeriodParam(c.Param("period"))
	if err != nil {
		return handleError(c, err)
	}

	summary, err := h.finance.GetFinancialSummary(c.Request().Context(), userID, period)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, toSummaryResponse(summary))
}

// GetComparison handles GET /api/v1/summary/:period/compare
func (h *DashboardHandler) GetComparison(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	period, err := parsePeriodParam(c.Param("period"))
	if err != nil {
		return handleError(c, err)
	}

	cmp, err := h.finance.ComparePeriods(c.Request().Context(), userID, period)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, ComparisonResponse{
		BasePeriod:    cmp.BasePeriod.String(),
		CurrentPeriod: cmp.CurrentPeriod.String(),
		Income:        toMetricChange(cmp.Income),
		Expenses:      toMetricChange(cmp.Expenses),
		Balance:       toMetricChange(cmp.Balance),
	})
}

// GetSeries handles GET /api/v1/summary/series?months=N
func (h *DashboardHandler) GetSeries(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	months := defaultSeriesMonths
	if v := c.QueryParam("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fieldError(c, "months", "Informe um número inteiro de meses")
		}
		months = parsed
	}

	points, err := h.finance.GetSeries(c.Request().Context(), userID, months)
	if err != nil {
		return handleError(c, err)
	}

	out := make([]SeriesPointResponse, len(points))
	for i, p := range points {
		out[i] = SeriesPointResponse{
			Period:        p.Period.String(),
			Label:         p.Label,
			MonthlyIncome: money(p.MonthlyIncome),
			TotalIncome:   money(p.TotalIncome),
			TotalExpenses: money(p.TotalExpenses),
			Balance:       money(p.Balance),
		}
	}
	return c.JSON(http.StatusOK, out)
}
