package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/middleware"
	"github.com/orcamais/orcamais-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// PasswordResetter completes a password reset with a mailed token. Only
// identity providers that own their credentials implement it.
type PasswordResetter interface {
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	finance  *service.FinanceService
	resetter PasswordResetter
}

// NewAuthHandler creates a new AuthHandler. resetter may be nil when the
// identity provider completes resets on its own pages.
func NewAuthHandler(finance *service.FinanceService, resetter PasswordResetter) *AuthHandler {
	return &AuthHandler{finance: finance, resetter: resetter}
}

// SignUpRequest represents the sign-up request body
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest represents the sign-in request body
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the password reset request body
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Theme string `json:"theme,omitempty"`
}

// SessionResponse is returned after signing in or up
type SessionResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   string       `json:"expiresAt"`
}

func toSessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		User: UserResponse{
			ID:    s.User.ID,
			Email: s.User.Email,
			Name:  s.User.Name,
		},
		AccessToken: s.AccessToken,
		ExpiresAt:   s.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Email: u.Profile.Email,
		Name:  u.Profile.Name,
		Theme: string(u.Settings.Theme),
	}
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}

	session, err := h.finance.SignUp(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return handleError(c, err)
	}

	log.Info().Str("user_id", session.User.ID).Msg("User signed up")
	return c.JSON(http.StatusCreated, toSessionResponse(session))
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req SignInRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}

	session, err := h.finance.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// ForgotPassword handles POST /api/v1/auth/password/forgot.
// The response does not reveal whether the email has an account.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}

	if err := h.finance.SendPasswordReset(c.Request().Context(), req.Email); err != nil {
		return handleError(c, err)
	}

	return c.NoContent(http.StatusAccepted)
}

// ResetPassword handles POST /api/v1/auth/password/reset
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	if h.resetter == nil {
		return NewNotFoundError(c, "Redefinição de senha feita pelo provedor de identidade")
	}

	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}
	if req.Token == "" {
		return fieldError(c, "token", "Link de redefinição inválido")
	}

	if err := h.resetter.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return handleError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /api/v1/session
func (h *AuthHandler) Me(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	user, err := h.finance.GetCurrentUser(c.Request().Context(), userID)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Logout handles DELETE /api/v1/session
func (h *AuthHandler) Logout(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	if err := h.finance.Logout(c.Request().Context(), userID, middleware.GetToken(c)); err != nil {
		return handleError(c, err)
	}

	log.Info().Str("user_id", userID).Msg("User logged out")
	return c.NoContent(http.StatusNoContent)
}
