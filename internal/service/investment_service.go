package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MaxSimulationQuantity bounds the quantity of a simulated purchase
const MaxSimulationQuantity = 1_000_000

// BalanceSource returns the balance of the user's current period
type BalanceSource interface {
	CurrentBalance(ctx context.Context, userID string) (domain.Period, decimal.Decimal, error)
}

// InvestmentService simulates stock purchases against the current balance
type InvestmentService struct {
	quotes   domain.QuoteProvider
	balances BalanceSource
}

// NewInvestmentService creates a new InvestmentService
func NewInvestmentService(quotes domain.QuoteProvider, balances BalanceSource) *InvestmentService {
	return &InvestmentService{quotes: quotes, balances: balances}
}

// ListQuotes returns the available quotes sorted by ticker, optionally
// filtered by a case-insensitive search on ticker or name
func (s *InvestmentService) ListQuotes(ctx context.Context, search string) ([]domain.Quote, error) {
	quotes, err := s.quotes.ListQuotes(ctx)
	if err != nil {
		return nil, err
	}

	search = strings.ToUpper(strings.TrimSpace(search))
	filtered := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		if search == "" ||
			strings.Contains(strings.ToUpper(q.Stock), search) ||
			strings.Contains(strings.ToUpper(q.Name), search) {
			filtered = append(filtered, q)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Stock < filtered[j].Stock
	})
	return filtered, nil
}

// Simulate prices quantity shares of ticker and checks the cost against the
// balance of the current period
func (s *InvestmentService) Simulate(ctx context.Context, userID, ticker string, quantity int) (*domain.InvestmentSimulation, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, domain.NewValidationErrors("stock", "Informe o código da ação")
	}
	if quantity < 1 || quantity > MaxSimulationQuantity {
		return nil, domain.NewValidationErrors("quantity", "A quantidade deve ser maior que zero")
	}

	quote, err := s.findQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}

	period, balance, err := s.balances.CurrentBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}

	cost := quote.Close.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	sim := &domain.InvestmentSimulation{
		Quote:            *quote,
		Quantity:         quantity,
		Cost:             cost,
		Balance:          balance,
		Affordable:       cost.LessThanOrEqual(balance),
		RemainingBalance: balance.Sub(cost),
		Period:           period,
	}

	// Whole shares only
	if quote.Close.IsPositive() && balance.IsPositive() {
		sim.MaxQuantity = balance.Div(quote.Close).Floor().IntPart()
	}
	return sim, nil
}

func (s *InvestmentService) findQuote(ctx context.Context, ticker string) (*domain.Quote, error) {
	quotes, err := s.quotes.ListQuotes(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrQuoteNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	for i := range quotes {
		if strings.EqualFold(quotes[i].Stock, ticker) {
			return &quotes[i], nil
		}
	}
	return nil, domain.ErrQuoteNotFound
}
