package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserKey is the context key for the authenticated user
	UserKey contextKey = "user"
	// UserIDKey is the context key for the authenticated user ID
	UserIDKey contextKey = "user_id"
	// TokenKey is the context key for the bearer token of the request
	TokenKey contextKey = "token"
)

// AuthMiddleware authenticates requests with the identity provider
type AuthMiddleware struct {
	verifier domain.TokenVerifier
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier domain.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate returns an Echo middleware that validates bearer tokens
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := BearerToken(c.Request().Header.Get("Authorization"))
			if err != nil {
				return unauthorizedError(c, err.Error())
			}

			user, err := m.verifier.VerifyToken(c.Request().Context(), token)
			if err != nil {
				if !errors.Is(err, domain.ErrInvalidToken) {
					log.Error().Err(err).Msg("Token verification failed")
				}
				return unauthorizedError(c, "Sessão inválida ou expirada")
			}

			ctx := context.WithValue(c.Request().Context(), UserKey, user)
			ctx = context.WithValue(ctx, UserIDKey, user.ID)
			ctx = context.WithValue(ctx, TokenKey, token)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// GetUserID extracts the authenticated user ID from the context
func GetUserID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUser extracts the authenticated user from the context
func GetUser(c echo.Context) *domain.UserRef {
	if user, ok := c.Request().Context().Value(UserKey).(*domain.UserRef); ok {
		return user
	}
	return nil
}

// GetToken extracts the bearer token of the request
func GetToken(c echo.Context) string {
	if token, ok := c.Request().Context().Value(TokenKey).(string); ok {
		return token
	}
	return ""
}
