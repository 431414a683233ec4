package websocket

import (
	"context"
	"errors"
	"time"

	"github.com/orcamais/orcamais-backend/internal/domain"
)

// ErrInvalidToken is returned when token validation fails
var ErrInvalidToken = errors.New("invalid token")

// validateTimeout bounds a single token verification
const validateTimeout = 5 * time.Second

// TokenValidator validates access tokens passed on the WebSocket handshake
type TokenValidator struct {
	verifier domain.TokenVerifier
}

// NewTokenValidator creates a TokenValidator backed by the identity provider
func NewTokenValidator(verifier domain.TokenVerifier) *TokenValidator {
	return &TokenValidator{verifier: verifier}
}

// ValidateToken validates a token and returns the user ID it was issued for
func (v *TokenValidator) ValidateToken(ctx context.Context, token string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	user, err := v.verifier.VerifyToken(ctx, token)
	if err != nil || user == nil || user.ID == "" {
		return "", ErrInvalidToken
	}
	return user.ID, nil
}
