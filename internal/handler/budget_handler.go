package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/middleware"
	"github.com/orcamais/orcamais-backend/internal/service"
)

// BudgetHandler handles monthly income and category budget requests
type BudgetHandler struct {
	finance *service.FinanceService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(finance *service.FinanceService) *BudgetHandler {
	return &BudgetHandler{finance: finance}
}

// SetIncomeRequest represents the monthly income request body
type SetIncomeRequest struct {
	Amount string `json:"amount"`
}

// SetBudgetRequest represents the category budget request body
type SetBudgetRequest struct {
	Limit string `json:"limit"`
}

// IncomeResponse echoes the stored base income
type IncomeResponse struct {
	Period string `json:"period"`
	Amount string `json:"amount"`
}

// BudgetStatusResponse represents a category with its spending against the limit
type BudgetStatusResponse struct {
	Category    string `json:"category"`
	Limit       string `json:"limit"`
	Spent       string `json:"spent"`
	Remaining   string `json:"remaining"`
	PercentUsed string `json:"percentUsed"`
	Exceeded    bool   `json:"exceeded"`
}

// SetMonthlyIncome handles PUT /api/v1/income/:period
func (h *BudgetHandler) SetMonthlyIncome(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	period, err := parsePeriodParam(c.Param("period"))
	if err != nil {
		return handleError(c, err)
	}

	var req SetIncomeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}
	amount, err := parseAmount(c, "amount", req.Amount)
	if err != nil {
		return err
	}

	if err := h.finance.SetMonthlyIncome(c.Request().Context(), userID, period, amount); err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, IncomeResponse{Period: period.String(), Amount: money(amount.Round(2))})
}

// SetCategoryBudget handles PUT /api/v1/budgets/categories/:category
func (h *BudgetHandler) SetCategoryBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	category, err := url.PathUnescape(c.Param("category"))
	if err != nil {
		return fieldError(c, "category", "Categoria inválida")
	}

	var req SetBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}
	limit, err := parseAmount(c, "limit", req.Limit)
	if err != nil {
		return err
	}

	if err := h.finance.SetCategoryBudget(c.Request().Context(), userID, category, limit); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetBudgetStatus handles GET /api/v1/budgets/:period
func (h *BudgetHandler) GetBudgetStatus(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	period, err := parsePeriodParam(c.Param("period"))
	if err != nil {
		return handleError(c, err)
	}

	statuses, err := h.finance.GetBudgetStatus(c.Request().Context(), userID, period)
	if err != nil {
		return handleError(c, err)
	}

	out := make([]BudgetStatusResponse, len(statuses))
	for i, s := range statuses {
		out[i] = BudgetStatusResponse{
			Category:    s.Category,
			Limit:       money(s.Limit),
			Spent:       money(s.Spent),
			Remaining:   money(s.Remaining),
			PercentUsed: money(s.PercentUsed),
			Exceeded:    s.Exceeded,
		}
	}
	return c.JSON(http.StatusOK, out)
}
