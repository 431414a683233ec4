package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/middleware"
	"github.com/orcamais/orcamais-backend/internal/service"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	finance *service.FinanceService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(finance *service.FinanceService) *TransactionHandler {
	return &TransactionHandler{finance: finance}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	Type            string `json:"type"`
	Category        string `json:"category"`
	Date            string `json:"date"`
	IsRecurring     bool   `json:"isRecurring"`
	RecurrenceDay   *int   `json:"recurrenceDay,omitempty"`
	RecurrenceLimit *int   `json:"recurrenceLimit,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID                    string  `json:"id"`
	Description           string  `json:"description"`
	Amount                string  `json:"amount"`
	Type                  string  `json:"type"`
	Category              string  `json:"category"`
	Date                  string  `json:"date"`
	IsRecurring           bool    `json:"isRecurring"`
	RecurrenceDay         int     `json:"recurrenceDay,omitempty"`
	RecurrenceLimit       *int    `json:"recurrenceLimit,omitempty"`
	RecurrenceCurrent     int     `json:"recurrenceCurrent,omitempty"`
	LastGeneratedPeriod   *string `json:"lastGeneratedPeriod,omitempty"`
	OriginalTransactionID string  `json:"originalTransactionId,omitempty"`
	InstallmentNumber     *int    `json:"installmentNumber,omitempty"`
	InstallmentTotal      *int    `json:"installmentTotal,omitempty"`
	DreamID               string  `json:"dreamId,omitempty"`
	CreatedAt             string  `json:"createdAt"`
}

// money formats an amount the way every response carries it
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                    t.ID,
		Description:           t.Description,
		Amount:                money(t.Amount),
		Type:                  string(t.Type),
		Category:              t.Category,
		Date:                  t.Date,
		IsRecurring:           t.IsRecurring,
		RecurrenceDay:         t.RecurrenceDay,
		RecurrenceLimit:       t.RecurrenceLimit,
		RecurrenceCurrent:     t.RecurrenceCurrent,
		OriginalTransactionID: t.OriginalTransactionID,
		InstallmentNumber:     t.InstallmentNumber,
		InstallmentTotal:      t.InstallmentTotal,
		DreamID:               t.DreamID,
		CreatedAt:             t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.LastGeneratedPeriod != nil {
		p := t.LastGeneratedPeriod.String()
		resp.LastGeneratedPeriod = &p
	}
	return resp
}

func toTransactionResponses(txs []*domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i, t := range txs {
		out[i] = toTransactionResponse(t)
	}
	return out
}

// parsePeriodParam reads a YYYY-MM value, defaulting to the current period
func parsePeriodParam(value string) (domain.Period, error) {
	if value == "" || value == "current" {
		return domain.CurrentPeriod(), nil
	}
	return domain.ParsePeriod(value)
}

// parseAmount parses a decimal request field
func parseAmount(c echo.Context, field, value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fieldError(c, field, "Informe um valor numérico válido")
	}
	return amount, nil
}

// CategoriesResponse lists the fixed categories per transaction type
type CategoriesResponse struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

// GetCategories handles GET /api/v1/transactions/categories
func (h *TransactionHandler) GetCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, CategoriesResponse{
		Income:  domain.Categories(domain.TransactionTypeIncome),
		Expense: domain.Categories(domain.TransactionTypeExpense),
	})
}

// GetTransactions handles GET /api/v1/transactions?period=YYYY-MM
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	period, err := parsePeriodParam(c.QueryParam("period"))
	if err != nil {
		return handleError(c, err)
	}

	txs, err := h.finance.ListTransactions(c.Request().Context(), userID, period)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, toTransactionResponses(txs))
}

// GetRecurring handles GET /api/v1/transactions/recurring
func (h *TransactionHandler) GetRecurring(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	templates, err := h.finance.ListRecurring(c.Request().Context(), userID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, toTransactionResponses(templates))
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}

	amount, err := parseAmount(c, "amount", req.Amount)
	if err != nil {
		return err
	}

	tx, err := h.finance.AddTransaction(c.Request().Context(), userID, domain.CreateTransactionInput{
		Description:     req.Description,
		Amount:          amount,
		Type:            domain.TransactionType(req.Type),
		Category:        req.Category,
		Date:            req.Date,
		IsRecurring:     req.IsRecurring,
		RecurrenceDay:   req.RecurrenceDay,
		RecurrenceLimit: req.RecurrenceLimit,
	})
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusCreated, toTransactionResponse(tx))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id.
// ?refundDream=true also takes a dream contribution back out of the dream.
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	refund := false
	if v := c.QueryParam("refundDream"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fieldError(c, "refundDream", "Use true ou false")
		}
		refund = parsed
	}

	if err := h.finance.RemoveTransaction(c.Request().Context(), userID, c.Param("id"), refund); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
