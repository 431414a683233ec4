package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQuotes(env *testEnv) {
	env.quotes.Quotes = []domain.Quote{
		{Stock: "VALE3", Name: "Vale", Close: dec("61.20")},
		{Stock: "PETR4", Name: "Petrobras", Close: dec("38.45")},
		{Stock: "ITUB4", Name: "Itaú Unibanco", Close: dec("33.10")},
	}
}

func TestGetQuotes(t *testing.T) {
	env := newTestEnv(t)
	seedQuotes(env)

	rec := env.do(t, http.MethodGet, "/api/v1/investments/quotes", nil)
	requireStatus(t, rec, http.StatusOK)
	quotes := decode[[]QuoteResponse](t, rec)
	require.Len(t, quotes, 3)
	assert.Equal(t, "ITUB4", quotes[0].Stock)
	assert.Equal(t, "33.10", quotes[0].Close)

	quotes = decode[[]QuoteResponse](t, env.do(t, http.MethodGet, "/api/v1/investments/quotes?search=petro", nil))
	require.Len(t, quotes, 1)
	assert.Equal(t, "PETR4", quotes[0].Stock)
}

func TestGetQuotes_Unavailable(t *testing.T) {
	env := newTestEnv(t)
	env.quotes.Err = fmt.Errorf("upstream: %w", domain.ErrMarketDataUnavailable)

	rec := env.do(t, http.MethodGet, "/api/v1/investments/quotes", nil)
	requireStatus(t, rec, http.StatusServiceUnavailable)
	assert.Equal(t, ErrorTypeUnavailable, decode[ProblemDetails](t, rec).Type)
}

func TestSimulate(t *testing.T) {
	env := newTestEnv(t)
	seedQuotes(env)
	seedPeriod(t, env, domain.CurrentPeriod())

	rec := env.do(t, http.MethodPost, "/api/v1/investments/simulate", SimulateRequest{Stock: "petr4", Quantity: 10})
	requireStatus(t, rec, http.StatusOK)

	sim := decode[SimulationResponse](t, rec)
	assert.Equal(t, "PETR4", sim.Quote.Stock)
	assert.Equal(t, "384.50", sim.Cost)
	assert.Equal(t, "3200.00", sim.Balance)
	assert.True(t, sim.Affordable)
	assert.Equal(t, "2815.50", sim.RemainingBalance)
	assert.Equal(t, int64(83), sim.MaxQuantity)
	assert.Equal(t, domain.CurrentPeriod().String(), sim.Period)
}

func TestSimulate_Rejections(t *testing.T) {
	env := newTestEnv(t)
	seedQuotes(env)

	rec := env.do(t, http.MethodPost, "/api/v1/investments/simulate", SimulateRequest{Stock: "VALE3"})
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, []string{"quantity"}, problemFields(t, rec))

	rec = env.do(t, http.MethodPost, "/api/v1/investments/simulate", SimulateRequest{Stock: "XPTO3", Quantity: 1})
	requireStatus(t, rec, http.StatusNotFound)
	assert.Equal(t, "Ação não encontrada", decode[ProblemDetails](t, rec).Detail)
}
