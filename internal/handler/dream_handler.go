package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/middleware"
	"github.com/orcamais/orcamais-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DreamHandler handles savings goal requests
type DreamHandler struct {
	finance *service.FinanceService
}

// NewDreamHandler creates a new DreamHandler
func NewDreamHandler(finance *service.FinanceService) *DreamHandler {
	return &DreamHandler{finance: finance}
}

// CreateDreamRequest represents the create dream request body
type CreateDreamRequest struct {
	Name            string  `json:"name"`
	TotalValue      string  `json:"totalValue"`
	SavedAmount     string  `json:"savedAmount"`
	CalculationType string  `json:"calculationType"`
	TargetDate      *string `json:"targetDate,omitempty"`
	MonthlyAmount   *string `json:"monthlyAmount,omitempty"`
}

// UpdateSavingsRequest replaces the saved amount of a dream
type UpdateSavingsRequest struct {
	SavedAmount string `json:"savedAmount"`
}

// ContributeRequest adds money to a dream
type ContributeRequest struct {
	Amount string `json:"amount"`
	Date   string `json:"date,omitempty"`
}

// DreamProgressResponse represents a dream's derived state
type DreamProgressResponse struct {
	Percent          string  `json:"percent"`
	Remaining        string  `json:"remaining"`
	Exceeded         bool    `json:"exceeded"`
	MonthsLeft       *int    `json:"monthsLeft,omitempty"`
	MonthlyNeeded    *string `json:"monthlyNeeded,omitempty"`
	CompletionPeriod *string `json:"completionPeriod,omitempty"`
}

// DreamResponse represents a dream in API responses
type DreamResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	TotalValue      string                 `json:"totalValue"`
	SavedAmount     string                 `json:"savedAmount"`
	CalculationType string                 `json:"calculationType"`
	TargetDate      *string                `json:"targetDate,omitempty"`
	MonthlyAmount   *string                `json:"monthlyAmount,omitempty"`
	ImageURL        *string                `json:"imageUrl,omitempty"`
	CreatedAt       string                 `json:"createdAt"`
	Progress        *DreamProgressResponse `json:"progress,omitempty"`
}

// ContributionResponse returns the updated dream and the recorded expense
type ContributionResponse struct {
	Dream       DreamResponse       `json:"dream"`
	Transaction TransactionResponse `json:"transaction"`
}

func optionalMoney(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money(*d)
	return &s
}

func toDreamResponse(d *domain.Dream, progress *domain.DreamProgress) DreamResponse {
	resp := DreamResponse{
		ID:              d.ID,
		Name:            d.Name,
		TotalValue:      money(d.TotalValue),
		SavedAmount:     money(d.SavedAmount),
		CalculationType: string(d.CalculationType),
		TargetDate:      d.TargetDate,
		MonthlyAmount:   optionalMoney(d.MonthlyAmount),
		ImageURL:        d.ImageURL,
		CreatedAt:       d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if progress != nil {
		resp.Progress = &DreamProgressResponse{
			Percent:       money(progress.Percent),
			Remaining:     money(progress.Remaining),
			Exceeded:      progress.Exceeded,
			MonthsLeft:    progress.MonthsLeft,
			MonthlyNeeded: optionalMoney(progress.MonthlyNeeded),
		}
		if progress.CompletionPeriod != nil {
			p := progress.CompletionPeriod.String()
			resp.Progress.CompletionPeriod = &p
		}
	}
	return resp
}

// GetDreams handles GET /api/v1/dreams
func (h *DreamHandler) GetDreams(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	dreams, err := h.finance.ListDreams(c.Request().Context(), userID)
	if err != nil {
		return handleError(c, err)
	}

	out := make([]DreamResponse, len(dreams))
	for i, d := range dreams {
		out[i] = toDreamResponse(d.Dream, d.Progress)
	}
	return c.JSON(http.StatusOK, out)
}

// GetDream handles GET /api/v1/dreams/:id
func (h *DreamHandler) GetDream(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	dream, err := h.finance.GetDream(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, toDreamResponse(dream.Dream, dream.Progress))
}

// CreateDream handles POST /api/v1/dreams
func (h *DreamHandler) CreateDream(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	var req CreateDreamRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}

	total, err := parseAmount(c, "totalValue", req.TotalValue)
	if err != nil {
		return err
	}
	saved := decimal.Zero
	if req.SavedAmount != "" {
		if saved, err = parseAmount(c, "savedAmount", req.SavedAmount); err != nil {
			return err
		}
	}
	var monthly *decimal.Decimal
	if req.MonthlyAmount != nil && *req.MonthlyAmount != "" {
		m, err := parseAmount(c, "monthlyAmount", *req.MonthlyAmount)
		if err != nil {
			return err
		}
		monthly = &m
	}

	dream, err := h.finance.AddDream(c.Request().Context(), userID, domain.CreateDreamInput{
		Name:            req.Name,
		TotalValue:      total,
		SavedAmount:     saved,
		CalculationType: domain.DreamCalculationType(req.CalculationType),
		TargetDate:      req.TargetDate,
		MonthlyAmount:   monthly,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusCreated, toDreamResponse(dream, nil))
}

// UpdateSavings handles PATCH /api/v1/dreams/:id/savings
func (h *DreamHandler) UpdateSavings(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	var req UpdateSavingsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}
	amount, err := parseAmount(c, "savedAmount", req.SavedAmount)
	if err != nil {
		return err
	}

	dream, err := h.finance.UpdateDreamSavings(c.Request().Context(), userID, c.Param("id"), amount)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, toDreamResponse(dream, nil))
}

// Contribute handles POST /api/v1/dreams/:id/contributions
func (h *DreamHandler) Contribute(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	var req ContributeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Corpo da requisição inválido", nil)
	}
	amount, err := parseAmount(c, "amount", req.Amount)
	if err != nil {
		return err
	}

	dream, tx, err := h.finance.ContributeToDream(c.Request().Context(), userID, c.Param("id"), amount, req.Date)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusCreated, ContributionResponse{
		Dream:       toDreamResponse(dream, nil),
		Transaction: toTransactionResponse(tx),
	})
}

// DeleteDream handles DELETE /api/v1/dreams/:id
func (h *DreamHandler) DeleteDream(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	if err := h.finance.RemoveDream(c.Request().Context(), userID, c.Param("id")); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage handles POST /api/v1/dreams/:id/image (multipart field "file")
func (h *DreamHandler) UploadImage(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Autenticação necessária")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return fieldError(c, "file", "Selecione uma imagem")
	}
	if file.Size > service.MaxImageSize {
		return handleError(c, service.ErrImageTooLarge)
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Não foi possível processar o arquivo")
	}
	defer src.Close()

	// One byte past the limit is enough to detect oversized bodies
	data, err := io.ReadAll(io.LimitReader(src, service.MaxImageSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Não foi possível ler o arquivo")
	}

	dream, err := h.finance.SetDreamImage(c.Request().Context(), userID, c.Param("id"), data, file.Filename)
	if err != nil {
		return handleError(c, err)
	}

	log.Info().
		Str("user_id", userID).
		Str("dream_id", dream.ID).
		Msg("Dream image uploaded")

	return c.JSON(http.StatusOK, toDreamResponse(dream, nil))
}
