package domain

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUserNotFound        = errors.New("user not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDreamNotFound       = errors.New("dream not found")
	ErrQuoteNotFound       = errors.New("quote not found")
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrInvalidDate         = errors.New("invalid date")
)

// Identity errors. Provider-specific codes are mapped onto these and never exposed.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidToken       = errors.New("invalid token")
	ErrProviderFailure    = errors.New("identity provider unavailable")
)

// ErrMarketDataUnavailable is returned when quotes cannot be fetched and none are cached
var ErrMarketDataUnavailable = errors.New("market data unavailable")

// Persistence errors
var (
	ErrPersistence     = errors.New("persistence failure")
	ErrVersionConflict = errors.New("document was modified concurrently")
)

// MaxNameLength bounds display names
const MaxNameLength = 100

// FieldError is a single field-level validation message
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors carries field-level messages for the originating screen.
// It matches ErrInvalidInput with errors.Is.
type ValidationErrors struct {
	Fields []FieldError
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrInvalidInput) match validation failures
func (e *ValidationErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationErrors builds a ValidationErrors with a single field message
func NewValidationErrors(field, message string) *ValidationErrors {
	return &ValidationErrors{Fields: []FieldError{{Field: field, Message: message}}}
}
