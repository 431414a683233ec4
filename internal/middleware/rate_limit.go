package middleware

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/config"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// CleanupInterval is how often idle limiters are swept
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is how long a client's bucket survives without requests
	LimiterTTL = 10 * time.Minute
)

// RateLimiter holds one token bucket per client. Clients are keyed by user
// ID when authenticated and by IP address otherwise. Idle buckets expire
// from the cache, so a returning client starts with a full burst.
type RateLimiter struct {
	buckets *cache.Cache
	ttl     time.Duration
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
}

// NewRateLimiter creates a RateLimiter from configuration
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return NewRateLimiterWithConfig(cfg.RequestsPerSecond, cfg.Burst)
}

// NewRateLimiterWithConfig allows requestsPerSecond per client with bursts
// of burstSize
func NewRateLimiterWithConfig(requestsPerSecond float64, burstSize int) *RateLimiter {
	return newRateLimiter(requestsPerSecond, burstSize, LimiterTTL, CleanupInterval)
}

func newRateLimiter(requestsPerSecond float64, burstSize int, ttl, sweep time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: cache.New(ttl, sweep),
		ttl:     ttl,
		limit:   rate.Limit(requestsPerSecond),
		burst:   burstSize,
	}
}

// Allow takes a token from key's bucket
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	var limiter *rate.Limiter
	if v, ok := r.buckets.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(r.limit, r.burst)
	}
	// Re-set on every hit so the TTL counts from the last request
	r.buckets.Set(key, limiter, r.ttl)

	return limiter.Allow()
}

// RetryAfter estimates the whole seconds until a client gets a token back
func (r *RateLimiter) RetryAfter() int {
	if r.limit <= 0 {
		return 60
	}
	return max(int(math.Ceil(1/float64(r.limit))), 1)
}

// size returns the number of tracked clients, expired or not
func (r *RateLimiter) size() int {
	return r.buckets.ItemCount()
}

// RateLimitMiddleware returns an Echo middleware that applies rate limiting
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := GetUserID(c)
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			if !rl.Allow(key) {
				retryAfter := rl.RetryAfter()
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				log.Warn().
					Str("client", key).
					Str("path", c.Path()).
					Int("retry_after", retryAfter).
					Msg("Rate limit exceeded")

				return tooManyRequestsError(c, fmt.Sprintf("Muitas requisições. Tente novamente em %d segundos.", retryAfter))
			}

			return next(c)
		}
	}
}
