package domain

import (
	"context"
	"time"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// IsValid reports whether t is a known theme
func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Profile holds the user's display data
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Settings holds the user's preferences
type Settings struct {
	Theme Theme `json:"theme"`
}

// User represents the authenticated user
type User struct {
	ID       string   `json:"id"`
	Profile  Profile  `json:"profile"`
	Settings Settings `json:"settings"`
}

// UserRef is what the identity provider knows about a user
type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is an authenticated session issued by the identity provider
type Session struct {
	User        UserRef   `json:"user"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// TokenVerifier resolves an access token into the user it was issued for
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*UserRef, error)
}

// IdentityProvider is the external account service.
// Implementations map provider error codes onto the identity errors in errors.go.
type IdentityProvider interface {
	TokenVerifier
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	UpdateProfile(ctx context.Context, userID, displayName string) error
	SendPasswordReset(ctx context.Context, email string) error
	SignOut(ctx context.Context, token string) error
}
