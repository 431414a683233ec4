package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orcamais/orcamais-backend/internal/config"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	quotesKey      = "quotes"
	lastQuotesKey  = "quotes:last"
	requestTimeout = 20 * time.Second
)

// quoteListResponse is the body of GET /quote/list
type quoteListResponse struct {
	Stocks []struct {
		Stock string          `json:"stock"`
		Name  string          `json:"name"`
		Close decimal.Decimal `json:"close"`
		Logo  string          `json:"logo"`
	} `json:"stocks"`
}

// Client lists quotes from the market data API. Responses are cached for the
// configured TTL and upstream calls are rate limited. When the API fails the
// last successful listing is served.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      *cache.Cache
	ttl        time.Duration
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

var _ domain.QuoteProvider = (*Client)(nil)

// NewClient creates a new Client
func NewClient(cfg config.MarketDataConfig) *Client {
	return newClient(cfg, &http.Client{Timeout: requestTimeout})
}

func newClient(cfg config.MarketDataConfig, httpClient *http.Client) *Client {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 1
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
		cache:      cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		ttl:        cfg.CacheTTL,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		logger:     log.With().Str("component", "marketdata").Logger(),
	}
}

// ListQuotes returns the current stock listing
func (c *Client) ListQuotes(ctx context.Context) ([]domain.Quote, error) {
	if cached, ok := c.cache.Get(quotesKey); ok {
		return cached.([]domain.Quote), nil
	}

	quotes, err := c.fetch(ctx)
	if err != nil {
		if last, ok := c.cache.Get(lastQuotesKey); ok {
			c.logger.Warn().Err(err).Msg("Serving last known quotes")
			return last.([]domain.Quote), nil
		}
		c.logger.Error().Err(err).Msg("Failed to fetch quotes")
		return nil, fmt.Errorf("%w: %v", domain.ErrMarketDataUnavailable, err)
	}

	c.cache.Set(quotesKey, quotes, c.ttl)
	c.cache.Set(lastQuotesKey, quotes, cache.NoExpiration)
	return quotes, nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limited: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote/list", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call quote list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("quote list returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload quoteListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode quote list: %w", err)
	}

	quotes := make([]domain.Quote, 0, len(payload.Stocks))
	for _, s := range payload.Stocks {
		if s.Stock == "" || !s.Close.IsPositive() {
			continue
		}
		quotes = append(quotes, domain.Quote{
			Stock: strings.ToUpper(s.Stock),
			Name:  s.Name,
			Close: s.Close,
			Logo:  s.Logo,
		})
	}

	c.logger.Debug().Int("count", len(quotes)).Msg("Fetched quotes")
	return quotes, nil
}
