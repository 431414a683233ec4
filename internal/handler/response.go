package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://orcamais.app/errors/validation"
	ErrorTypeNotFound     = "https://orcamais.app/errors/not-found"
	ErrorTypeUnauthorized = "https://orcamais.app/errors/unauthorized"
	ErrorTypeConflict     = "https://orcamais.app/errors/conflict"
	ErrorTypeUnavailable  = "https://orcamais.app/errors/unavailable"
	ErrorTypeInternal     = "https://orcamais.app/errors/internal"
)

func problem(c echo.Context, status int, errorType, title, detail string, fields []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   fields,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return problem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errors)
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail, nil)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail, nil)
}

// NewServiceUnavailableError creates a service unavailable error response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return problem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", detail, nil)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}

// fieldError builds a single-field validation response
func fieldError(c echo.Context, field, message string) error {
	return NewValidationError(c, "Dados inválidos", []ValidationError{{Field: field, Message: message}})
}

// notFoundMessages holds the user-facing message per not-found error
var notFoundMessages = []struct {
	err     error
	message string
}{
	{domain.ErrTransactionNotFound, "Transação não encontrada"},
	{domain.ErrDreamNotFound, "Sonho não encontrado"},
	{domain.ErrQuoteNotFound, "Ação não encontrada"},
	{domain.ErrUserNotFound, "Usuário não encontrado"},
	{domain.ErrDocumentNotFound, "Dados do usuário não encontrados"},
}

// imageFieldErrors are reported against the uploaded file
var imageFieldErrors = []error{
	service.ErrImageTooLarge,
	service.ErrInvalidFormat,
	service.ErrImageTooSmall,
	service.ErrInvalidImageData,
}

// handleError maps a service error onto a Problem Details response.
// Provider and store details are logged and never returned.
func handleError(c echo.Context, err error) error {
	var verrs *domain.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]ValidationError, len(verrs.Fields))
		for i, f := range verrs.Fields {
			fields[i] = ValidationError{Field: f.Field, Message: f.Message}
		}
		return NewValidationError(c, "Dados inválidos", fields)
	}

	for _, imgErr := range imageFieldErrors {
		if errors.Is(err, imgErr) {
			return fieldError(c, "file", imgErr.Error())
		}
	}

	for _, nf := range notFoundMessages {
		if errors.Is(err, nf.err) {
			return NewNotFoundError(c, nf.message)
		}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return NewUnauthorizedError(c, "E-mail ou senha incorretos")
	case errors.Is(err, domain.ErrInvalidToken):
		return NewUnauthorizedError(c, "Sessão inválida ou expirada")
	case errors.Is(err, domain.ErrEmailInUse):
		return NewConflictError(c, "Este e-mail já está em uso")
	case errors.Is(err, domain.ErrWeakPassword):
		return fieldError(c, "password", "A senha é muito fraca")
	case errors.Is(err, domain.ErrInvalidEmail):
		return fieldError(c, "email", "E-mail inválido")
	case errors.Is(err, domain.ErrInvalidPeriod):
		return fieldError(c, "period", "Período inválido, use o formato AAAA-MM")
	case errors.Is(err, domain.ErrInvalidDate):
		return fieldError(c, "date", "Data inválida, use o formato AAAA-MM-DD")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrVersionConflict):
		return NewConflictError(c, "Os dados foram alterados por outra sessão. Tente novamente.")
	case errors.Is(err, domain.ErrProviderFailure):
		logFailure(c, err)
		return NewServiceUnavailableError(c, "Serviço de autenticação indisponível")
	case errors.Is(err, domain.ErrMarketDataUnavailable):
		logFailure(c, err)
		return NewServiceUnavailableError(c, "Cotações indisponíveis no momento")
	case errors.Is(err, service.ErrImageStorageNotConfigured):
		return NewServiceUnavailableError(c, "Envio de imagens desativado")
	}

	logFailure(c, err)
	return NewInternalError(c, "Não foi possível concluir a operação")
}

func logFailure(c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Msg("Request failed")
}
