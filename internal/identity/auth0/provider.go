package auth0

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/orcamais/orcamais-backend/internal/config"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	requestTimeout = 15 * time.Second
	jwksCacheTTL   = 5 * time.Minute
)

// CustomClaims contains the profile claims added to access tokens by the tenant
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate implements validator.CustomClaims
func (c *CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// tokenValidator is satisfied by *validator.Validator
type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// Provider is a domain.IdentityProvider backed by an Auth0 tenant. Sign-in
// uses the password grant; sign-up and password reset use the database
// connection endpoints; profile updates go through the Management API.
type Provider struct {
	baseURL    string
	clientID   string
	connection string
	httpClient *http.Client
	validator  tokenValidator
	password   *oauth2.Config
	management *http.Client
	revoked    *cache.Cache
	logger     zerolog.Logger
}

var _ domain.IdentityProvider = (*Provider)(nil)

// New creates a Provider for the tenant in cfg
func New(cfg config.Auth0Config) (*Provider, error) {
	issuerURL, err := url.Parse("https://" + cfg.Domain + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid auth0 domain: %w", err)
	}

	keys := jwks.NewCachingProvider(issuerURL, jwksCacheTTL)
	jwtValidator, err := validator.New(
		keys.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token validator: %w", err)
	}

	return newProvider(cfg, strings.TrimSuffix(issuerURL.String(), "/"), jwtValidator, &http.Client{Timeout: requestTimeout}), nil
}

func newProvider(cfg config.Auth0Config, baseURL string, v tokenValidator, httpClient *http.Client) *Provider {
	mgmtCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	mgmt := &clientcredentials.Config{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		TokenURL:       baseURL + "/oauth/token",
		EndpointParams: url.Values{"audience": {baseURL + "/api/v2/"}},
		AuthStyle:      oauth2.AuthStyleInParams,
	}

	return &Provider{
		baseURL:    baseURL,
		clientID:   cfg.ClientID,
		connection: cfg.Connection,
		httpClient: httpClient,
		validator:  v,
		password: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"openid", "profile", "email"},
		},
		management: oauth2.NewClient(mgmtCtx, mgmt.TokenSource(mgmtCtx)),
		revoked:    cache.New(cache.NoExpiration, 10*time.Minute),
		logger:     log.With().Str("component", "auth0").Logger(),
	}
}

// VerifyToken validates an access token and returns the user it was issued to
func (p *Provider) VerifyToken(ctx context.Context, token string) (*domain.UserRef, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	if _, revoked := p.revoked.Get(token); revoked {
		return nil, domain.ErrInvalidToken
	}

	claims, err := p.validator.ValidateToken(ctx, token)
	if err != nil {
		p.logger.Debug().Err(err).Msg("Token validation failed")
		return nil, domain.ErrInvalidToken
	}

	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok || validated.RegisteredClaims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	ref := &domain.UserRef{ID: validated.RegisteredClaims.Subject}
	if custom, ok := validated.CustomClaims.(*CustomClaims); ok && custom != nil {
		ref.Email = custom.Email
		ref.Name = custom.Name
	}
	return ref, nil
}

// SignIn exchanges email and password for an access token
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.password.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, p.mapTokenError(err)
	}

	ref, err := p.VerifyToken(ctx, tok.AccessToken)
	if err != nil {
		p.logger.Error().Err(err).Msg("Issued token failed validation")
		return nil, domain.ErrProviderFailure
	}
	if ref.Email == "" {
		ref.Email = strings.ToLower(email)
	}

	return &domain.Session{User: *ref, AccessToken: tok.AccessToken, ExpiresAt: tok.Expiry}, nil
}

// SignUp creates an account in the database connection and signs it in
func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	body := map[string]string{
		"client_id":  p.clientID,
		"email":      email,
		"password":   password,
		"connection": p.connection,
	}
	if err := p.postJSON(ctx, "/dbconnections/signup", body); err != nil {
		return nil, err
	}

	p.logger.Info().Str("email", email).Msg("Account created")
	return p.SignIn(ctx, email, password)
}

// SendPasswordReset asks the tenant to mail a reset link. Unknown emails are
// not reported by the tenant.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{
		"client_id":  p.clientID,
		"email":      email,
		"connection": p.connection,
	}
	return p.postJSON(ctx, "/dbconnections/change_password", body)
}

// UpdateProfile sets the account's display name through the Management API
func (p *Provider) UpdateProfile(ctx context.Context, userID, displayName string) error {
	payload, err := json.Marshal(map[string]string{"name": displayName})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		p.baseURL+"/api/v2/users/"+url.PathEscape(userID), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.management.Do(req)
	if err != nil {
		p.logger.Error().Err(err).Str("user_id", userID).Msg("Management API request failed")
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrUserNotFound
	case resp.StatusCode >= 300:
		apiErr := decodeAPIError(resp)
		p.logger.Error().Int("status", resp.StatusCode).Str("code", apiErr.code()).Msg("Failed to update profile")
		return fmt.Errorf("%w: status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	return nil
}

// SignOut revokes the token in this process until it expires
func (p *Provider) SignOut(ctx context.Context, token string) error {
	ttl := time.Hour
	if claims, err := p.validator.ValidateToken(ctx, token); err == nil {
		if validated, ok := claims.(*validator.ValidatedClaims); ok && validated.RegisteredClaims.Expiry > 0 {
			ttl = time.Until(time.Unix(validated.RegisteredClaims.Expiry, 0))
		}
	}
	if ttl <= 0 {
		return nil
	}
	p.revoked.Set(token, struct{}{}, ttl)
	return nil
}

func (p *Provider) postJSON(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error().Err(err).Str("path", path).Msg("Auth0 request failed")
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	apiErr := decodeAPIError(resp)
	p.logger.Warn().Int("status", resp.StatusCode).Str("code", apiErr.code()).Str("path", path).Msg("Auth0 rejected request")
	return apiErr.toDomain(resp.StatusCode)
}

func (p *Provider) mapTokenError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		p.logger.Warn().Str("code", rerr.ErrorCode).Int("status", rerr.Response.StatusCode).Msg("Password grant rejected")
		switch rerr.ErrorCode {
		case "invalid_grant", "invalid_user_password", "access_denied":
			return domain.ErrInvalidCredentials
		}
		if rerr.Response.StatusCode == http.StatusUnauthorized || rerr.Response.StatusCode == http.StatusForbidden {
			return domain.ErrInvalidCredentials
		}
		return fmt.Errorf("%w: %s", domain.ErrProviderFailure, rerr.ErrorCode)
	}
	p.logger.Error().Err(err).Msg("Password grant failed")
	return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
}

// apiError is the error body of the authentication and management endpoints
type apiError struct {
	Code        string          `json:"code"`
	Error       string          `json:"error"`
	Name        string          `json:"name"`
	Description json.RawMessage `json:"description"`
}

func decodeAPIError(resp *http.Response) apiError {
	var e apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
	return e
}

func (e apiError) code() string {
	switch {
	case e.Code != "":
		return e.Code
	case e.Error != "":
		return e.Error
	default:
		return e.Name
	}
}

func (e apiError) toDomain(status int) error {
	switch e.code() {
	case "user_exists", "invalid_signup", "username_exists":
		return domain.ErrEmailInUse
	case "invalid_password", "password_strength_error", "password_dictionary_error", "password_no_user_info_error":
		return domain.ErrWeakPassword
	case "bad.email", "invalid_email":
		return domain.ErrInvalidEmail
	}
	if status == http.StatusBadRequest && e.Name == "PasswordStrengthError" {
		return domain.ErrWeakPassword
	}
	return fmt.Errorf("%w: status %d", domain.ErrProviderFailure, status)
}
