package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is a stock listing from the market data API
type Quote struct {
	Stock string          `json:"stock"`
	Name  string          `json:"name"`
	Close decimal.Decimal `json:"close"`
	Logo  string          `json:"logo"`
}

// QuoteProvider lists current stock quotes
type QuoteProvider interface {
	ListQuotes(ctx context.Context) ([]Quote, error)
}

// InvestmentSimulation is the outcome of simulating a purchase against the
// current period's balance
type InvestmentSimulation struct {
	Quote            Quote           `json:"quote"`
	Quantity         int             `json:"quantity"`
	Cost             decimal.Decimal `json:"cost"`
	Balance          decimal.Decimal `json:"balance"`
	Affordable       bool            `json:"affordable"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	MaxQuantity      int64           `json:"maxQuantity"`
	Period           Period          `json:"period"`
}
