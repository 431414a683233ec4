package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/middleware"
	"github.com/orcamais/orcamais-backend/internal/service"
)

// ProfileHandler handles profile and settings requests
type ProfileHandler struct {
	finance *service.FinanceService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(finance *service.FinanceService) *ProfileHandler {
	return &ProfileHandler{finance: finance}
}

// UpdateProfileRequest represents the update profile request
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// UpdateSettingsRequest represents the update settings request
type UpdateSettingsRequest struct {
	Theme string `json:"theme"`
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c echo.Context) error {
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

// UpdateProfile handles PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}

	user, err := h.finance.UpdateProfile(c.Request().Context(), userID, req.Name)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateSettings handles PUT /api/v1/profile/settings
func (h *ProfileHandler) UpdateSettings(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	var req UpdateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}

	user, err := h.finance.UpdateSettings(c.Request().Context(), userID, domain.Theme(req.Theme))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}
