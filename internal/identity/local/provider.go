package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/orcamais/orcamais-backend/internal/config"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/mailer"
	"github.com/orcamais/orcamais-backend/internal/repository/postgres"
	"github.com/orcamais/orcamais-backend/internal/util"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// ResetTokenTTL is how long a password reset link stays valid
const ResetTokenTTL = 30 * time.Minute

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("orcamais"), bcrypt.MinCost)

// CredentialStore persists accounts. Implemented by postgres.CredentialRepository.
type CredentialStore interface {
	Create(ctx context.Context, cred *postgres.Credential) (*postgres.Credential, error)
	GetByEmail(ctx context.Context, email string) (*postgres.Credential, error)
	GetByID(ctx context.Context, id string) (*postgres.Credential, error)
	UpdateName(ctx context.Context, id, name string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// Claims are the claims of tokens issued by this provider
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Provider is a self-hosted domain.IdentityProvider: bcrypt password hashes
// in Postgres and HS256 access tokens. Revoked tokens and pending password
// resets are kept in memory.
type Provider struct {
	creds    CredentialStore
	mail     mailer.Mailer
	secret   []byte
	issuer   string
	tokenTTL time.Duration
	resetURL string
	revoked  *cache.Cache
	resets   *cache.Cache
	now      func() time.Time
	logger   zerolog.Logger
}

var _ domain.IdentityProvider = (*Provider)(nil)

// New creates a new Provider
func New(cfg config.LocalAuthConfig, creds CredentialStore, mail mailer.Mailer) *Provider {
	return &Provider{
		creds:    creds,
		mail:     mail,
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		tokenTTL: cfg.TokenTTL,
		resetURL: cfg.ResetURL,
		revoked:  cache.New(cache.NoExpiration, 10*time.Minute),
		resets:   cache.New(ResetTokenTTL, 10*time.Minute),
		now:      time.Now,
		logger:   log.With().Str("component", "local_identity").Logger(),
	}
}

// SignIn checks the password against the stored hash and issues a token
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	cred, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Unknown emails cost a comparison too
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return p.issue(cred)
}

// SignUp creates an account and issues a token
func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	if !util.IsValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if !util.IsValidPassword(password) {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, domain.ErrWeakPassword
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred, err := p.creds.Create(ctx, &postgres.Credential{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().Str("user_id", cred.ID).Msg("Account created")
	return p.issue(cred)
}

// VerifyToken parses and validates a token issued by this provider
func (p *Provider) VerifyToken(ctx context.Context, token string) (*domain.UserRef, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	if _, revoked := p.revoked.Get(claims.ID); revoked {
		return nil, domain.ErrInvalidToken
	}
	return &domain.UserRef{ID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// UpdateProfile stores the display name
func (p *Provider) UpdateProfile(ctx context.Context, userID, displayName string) error {
	return p.creds.UpdateName(ctx, userID, displayName)
}

// SendPasswordReset mails a single-use reset link. Unknown emails succeed
// silently.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	cred, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			p.logger.Debug().Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
	p.resets.Set(token, cred.ID, ResetTokenTTL)

	msg := mailer.PasswordResetMessage(cred.Email, cred.Name, p.resetURL+token, ResetTokenTTL)
	if err := p.mail.Send(ctx, msg); err != nil {
		p.resets.Delete(token)
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password
func (p *Provider) ResetPassword(ctx context.Context, token, newPassword string) error {
	if !util.IsValidPassword(newPassword) {
		return domain.ErrWeakPassword
	}

	v, ok := p.resets.Get(token)
	if !ok {
		return domain.ErrInvalidToken
	}
	userID := v.(string)

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := p.creds.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}

	p.resets.Delete(token)
	p.logger.Info().Str("user_id", userID).Msg("Password reset")
	return nil
}

// SignOut revokes the token until it expires
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		// Expired or foreign tokens are already unusable
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(p.now())
	if ttl > 0 {
		p.revoked.Set(claims.ID, struct{}{}, ttl)
	}
	return nil
}

func (p *Provider) issue(cred *postgres.Credential) (*domain.Session, error) {
	now := p.now()
	expiresAt := now.Add(p.tokenTTL)

	claims := Claims{
		Email: cred.Email,
		Name:  cred.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   cred.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &domain.Session{
		User:        domain.UserRef{ID: cred.ID, Email: cred.Email, Name: cred.Name},
		AccessToken: signed,
		ExpiresAt:   expiresAt,
	}, nil
}

func (p *Provider) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
