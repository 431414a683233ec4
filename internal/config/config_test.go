package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("DOCUMENT_STORE", "postgres")
	t.Setenv("IDENTITY_PROVIDER", "auth0")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/orcamais")
	t.Setenv("AUTH0_DOMAIN", "orcamais.us.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.orcamais.app")
	t.Setenv("AUTH0_CLIENT_ID", "client-id")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DocumentStorePostgres, cfg.DocumentStore)
	assert.Equal(t, IdentityProviderAuth0, cfg.IdentityProvider)
	assert.Equal(t, 5*time.Minute, cfg.MarketData.CacheTTL)
	assert.Equal(t, 30, cfg.MarketData.RequestsPerMinute)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ParsesTypedValues(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MARKET_DATA_CACHE_TTL", "90s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "7")
	t.Setenv("CORS_ORIGINS", "https://orcamais.app,http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.MarketData.CacheTTL)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 7, cfg.RateLimit.Burst)
	assert.Equal(t, []string{"https://orcamais.app", "http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoad_FailsFast(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown store", map[string]string{"DOCUMENT_STORE": "mongo"}, "DOCUMENT_STORE"},
		{"postgres without url", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
		{"unknown provider", map[string]string{"IDENTITY_PROVIDER": "firebase"}, "IDENTITY_PROVIDER"},
		{"auth0 without client", map[string]string{"AUTH0_CLIENT_ID": ""}, "AUTH0_CLIENT_ID"},
		{"local with short secret", map[string]string{"IDENTITY_PROVIDER": "local", "JWT_SECRET": "short"}, "JWT_SECRET"},
		{"mailgun without key", map[string]string{"MAILGUN_DOMAIN": "mg.orcamais.app"}, "MAILGUN_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_S3StoreWithLocalIdentity(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DOCUMENT_STORE", "S3")
	t.Setenv("IDENTITY_PROVIDER", "local")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DocumentStoreS3, cfg.DocumentStore)
	assert.Equal(t, IdentityProviderLocal, cfg.IdentityProvider)
	assert.Equal(t, 24*time.Hour, cfg.LocalAuth.TokenTTL)
}
