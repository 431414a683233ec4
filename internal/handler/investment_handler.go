package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/middleware"
	"github.com/orcamais/orcamais-backend/internal/service"
)

// InvestmentHandler serves stock quotes and purchase simulations
type InvestmentHandler struct {
	investments *service.InvestmentService
}

// NewInvestmentHandler creates a new InvestmentHandler
func NewInvestmentHandler(investments *service.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{investments: investments}
}

// SimulateRequest represents the purchase simulation request body
type SimulateRequest struct {
	Stock    string `json:"stock"`
	Quantity int    `json:"quantity"`
}

// QuoteResponse represents a stock quote
type QuoteResponse struct {
	Stock string `json:"stock"`
	Name  string `json:"name"`
	Close string `json:"close"`
	Logo  string `json:"logo,omitempty"`
}

// SimulationResponse represents the outcome of a simulated purchase
type SimulationResponse struct {
	Quote            QuoteResponse `json:"quote"`
	Quantity         int           `json:"quantity"`
	Cost             string        `json:"cost"`
	Balance          string        `json:"balance"`
	Affordable       bool          `json:"affordable"`
	RemainingBalance string        `json:"remainingBalance"`
	MaxQuantity      int64         `json:"maxQuantity"`
	Period           string        `json:"period"`
}

func toQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{Stock: q.Stock, Name: q.Name, Close: money(q.Close), Logo: q.Logo}
}

// GetQuotes handles GET /api/v1/investments/quotes?search=
func (h *InvestmentHandler) GetQuotes(c echo.Context) error {
	if middleware.GetUserID(c) == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	quotes, err := h.investments.ListQuotes(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return handleError(c, err)
	}

	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = toQuoteResponse(q)
	}
	return c.JSON(http.StatusOK, out)
}

// Simulate handles POST /api/v1/investments/simulate
func (h *InvestmentHandler) Simulate(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	var req SimulateRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}

	sim, err := h.investments.Simulate(c.Request().Context(), userID, req.Stock, req.Quantity)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, SimulationResponse{
		Quote:            toQuoteResponse(sim.Quote),
		Quantity:         sim.Quantity,
		Cost:             money(sim.Cost),
		Balance:          money(sim.Balance),
		Affordable:       sim.Affordable,
		RemainingBalance: money(sim.RemainingBalance),
		MaxQuantity:      sim.MaxQuantity,
		Period:           sim.Period.String(),
	})
}
