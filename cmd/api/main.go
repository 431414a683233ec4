package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/orcamais/orcamais-backend/internal/config"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/handler"
	"github.com/orcamais/orcamais-backend/internal/identity/auth0"
	"github.com/orcamais/orcamais-backend/internal/identity/local"
	"github.com/orcamais/orcamais-backend/internal/mailer"
	"github.com/orcamais/orcamais-backend/internal/marketdata"
	"github.com/orcamais/orcamais-backend/internal/middleware"
	"github.com/orcamais/orcamais-backend/internal/repository/postgres"
	"github.com/orcamais/orcamais-backend/internal/repository/storage"
	"github.com/orcamais/orcamais-backend/internal/service"
	"github.com/orcamais/orcamais-backend/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sign-in and sign-up are limited harder than authenticated traffic
const publicRateDivisor = 5

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx := context.Background()

	// Postgres backs the document store and the local credential table
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to ping database")
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare database schema")
		}
		log.Info().Msg("Connected to database")
	}

	// Document store
	var store domain.DocumentStore
	switch cfg.DocumentStore {
	case config.DocumentStoreS3:
		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}
		store = storage.NewS3DocumentRepository(client, cfg.S3.DocumentBucket, cfg.S3.DocumentPrefix)
		log.Info().Str("bucket", cfg.S3.DocumentBucket).Msg("Using S3 document store")
	default:
		store = postgres.NewDocumentRepository(pool)
		log.Info().Msg("Using Postgres document store")
	}

	// Identity provider
	var identity domain.IdentityProvider
	var resetter handler.PasswordResetter
	switch cfg.IdentityProvider {
	case config.IdentityProviderLocal:
		provider := local.New(cfg.LocalAuth, postgres.NewCredentialRepository(pool), mailer.New(cfg.Mailgun))
		identity = provider
		resetter = provider
		log.Info().Msg("Using local identity provider")
	default:
		provider, err := auth0.New(cfg.Auth0)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Auth0 provider")
		}
		identity = provider
		log.Info().Str("domain", cfg.Auth0.Domain).Msg("Using Auth0 identity provider")
	}

	// Dream images are optional; uploads answer 503 without a bucket
	imageService := service.NewImageService(nil)
	if cfg.S3.Bucket != "" {
		imageService = newImageService(ctx, cfg.S3)
	}

	// Initialize services
	hub := websocket.NewHub()
	financeService := service.NewFinanceService(
		store,
		identity,
		service.NewRecurrenceService(store),
		service.NewCalculationService(),
		hub,
		imageService,
	)
	investmentService := service.NewInvestmentService(marketdata.NewClient(cfg.MarketData), financeService)

	// Rate limiters
	userLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	publicLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimit.RequestsPerSecond/publicRateDivisor, max(cfg.RateLimit.Burst/publicRateDivisor, 1))

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Uploads are capped at 5MB; leave room for the multipart envelope
	e.Use(echomiddleware.BodyLimit("6M"))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, middleware.NewAuthMiddleware(identity), publicLimiter, userLimiter, handler.Handlers{
		Auth:        handler.NewAuthHandler(financeService, resetter),
		Profile:     handler.NewProfileHandler(financeService),
		Dashboard:   handler.NewDashboardHandler(financeService),
		Transaction: handler.NewTransactionHandler(financeService),
		Budget:      handler.NewBudgetHandler(financeService),
		Dream:       handler.NewDreamHandler(financeService),
		Investment:  handler.NewInvestmentHandler(investmentService),
		WebSocket:   handler.NewWebSocketHandler(hub, websocket.NewTokenValidator(identity), cfg.CORSOrigins),
	})

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// newImageService connects the dream image bucket. An unreachable bucket
// disables uploads instead of failing startup.
func newImageService(ctx context.Context, s3cfg config.S3Config) *service.ImageService {
	client, err := storage.NewS3Client(ctx, s3cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Image storage disabled: failed to create S3 client")
		return service.NewImageService(nil)
	}

	repo, err := storage.NewS3ImageRepository(ctx, client, s3cfg)
	if err != nil {
		log.Warn().Err(err).Str("bucket", s3cfg.Bucket).Msg("Image storage disabled: bucket unavailable")
		return service.NewImageService(nil)
	}

	log.Info().Str("bucket", s3cfg.Bucket).Msg("Image storage enabled")
	return service.NewImageService(repo)
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
