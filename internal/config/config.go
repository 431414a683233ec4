package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Document store backends
const (
	DocumentStorePostgres = "postgres"
	DocumentStoreS3       = "s3"
)

// Identity provider backends
const (
	IdentityProviderAuth0 = "auth0"
	IdentityProviderLocal = "local"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Backends
	DocumentStore    string
	IdentityProvider string

	// Database
	DatabaseURL string

	Auth0      Auth0Config
	LocalAuth  LocalAuthConfig
	S3         S3Config
	Mailgun    MailgunConfig
	MarketData MarketDataConfig
	RateLimit  RateLimitConfig
}

// Auth0Config holds Auth0 tenant configuration
type Auth0Config struct {
	Domain       string
	Audience     string
	ClientID     string
	ClientSecret string
	Connection   string // database connection used for sign-up and password reset
}

// LocalAuthConfig holds configuration for the built-in identity provider
type LocalAuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
	ResetURL  string // link sent in password reset mails; the token is appended
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string // dream cover images
	DocumentBucket  string // user documents when DOCUMENT_STORE=s3
	DocumentPrefix  string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// MailgunConfig holds Mailgun configuration. Mail is only logged when Domain is empty.
type MailgunConfig struct {
	Domain  string
	APIKey  string
	APIBase string
	Sender  string
}

// MarketDataConfig holds the market data API configuration
type MarketDataConfig struct {
	BaseURL           string
	Token             string
	CacheTTL          time.Duration
	RequestsPerMinute int
}

// RateLimitConfig holds per-client request limits for the HTTP API
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		CORSOrigins:      strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:              getEnv("ENV", "development"),
		DocumentStore:    strings.ToLower(getEnv("DOCUMENT_STORE", DocumentStorePostgres)),
		IdentityProvider: strings.ToLower(getEnv("IDENTITY_PROVIDER", IdentityProviderAuth0)),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		Auth0: Auth0Config{
			Domain:       getEnv("AUTH0_DOMAIN", ""),
			Audience:     getEnv("AUTH0_AUDIENCE", ""),
			ClientID:     getEnv("AUTH0_CLIENT_ID", ""),
			ClientSecret: getEnv("AUTH0_CLIENT_SECRET", ""),
			Connection:   getEnv("AUTH0_CONNECTION", "Username-Password-Authentication"),
		},
		LocalAuth: LocalAuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "orcamais"),
			TokenTTL:  getDuration("JWT_TTL", 24*time.Hour),
			ResetURL:  getEnv("PASSWORD_RESET_URL", "http://localhost:3000/reset-password?token="),
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", "orcamais-images"),
			DocumentBucket:  getEnv("S3_DOCUMENT_BUCKET", "orcamais-documents"),
			DocumentPrefix:  getEnv("S3_DOCUMENT_PREFIX", "users/"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
		Mailgun: MailgunConfig{
			Domain:  getEnv("MAILGUN_DOMAIN", ""),
			APIKey:  getEnv("MAILGUN_API_KEY", ""),
			APIBase: getEnv("MAILGUN_API_BASE", ""),
			Sender:  getEnv("MAIL_SENDER", "OrçaMais <no-reply@orcamais.app>"),
		},
		MarketData: MarketDataConfig{
			BaseURL:           getEnv("MARKET_DATA_URL", "https://brapi.dev/api"),
			Token:             getEnv("MARKET_DATA_TOKEN", ""),
			CacheTTL:          getDuration("MARKET_DATA_CACHE_TTL", 5*time.Minute),
			RequestsPerMinute: getInt("MARKET_DATA_RPM", 30),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloat("RATE_LIMIT_RPS", 10),
			Burst:             getInt("RATE_LIMIT_BURST", 20),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DocumentStore {
	case DocumentStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DOCUMENT_STORE=%s", DocumentStorePostgres)
		}
	case DocumentStoreS3:
		if c.S3.DocumentBucket == "" {
			return fmt.Errorf("S3_DOCUMENT_BUCKET is required when DOCUMENT_STORE=%s", DocumentStoreS3)
		}
	default:
		return fmt.Errorf("DOCUMENT_STORE must be %q or %q, got %q", DocumentStorePostgres, DocumentStoreS3, c.DocumentStore)
	}

	switch c.IdentityProvider {
	case IdentityProviderAuth0:
		if c.Auth0.Domain == "" {
			return fmt.Errorf("AUTH0_DOMAIN is required")
		}
		if c.Auth0.Audience == "" {
			return fmt.Errorf("AUTH0_AUDIENCE is required")
		}
		if c.Auth0.ClientID == "" {
			return fmt.Errorf("AUTH0_CLIENT_ID is required")
		}
	case IdentityProviderLocal:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when IDENTITY_PROVIDER=%s", IdentityProviderLocal)
		}
		if len(c.LocalAuth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters")
		}
	default:
		return fmt.Errorf("IDENTITY_PROVIDER must be %q or %q, got %q", IdentityProviderAuth0, IdentityProviderLocal, c.IdentityProvider)
	}

	if c.Mailgun.Domain != "" && c.Mailgun.APIKey == "" {
		return fmt.Errorf("MAILGUN_API_KEY is required when MAILGUN_DOMAIN is set")
	}
	if c.MarketData.RequestsPerMinute <= 0 {
		return fmt.Errorf("MARKET_DATA_RPM must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
