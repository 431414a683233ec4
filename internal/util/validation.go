package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password the identity providers accept
const MinPasswordLength = 6

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON name so messages match the request payload
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError is a single field-level validation message
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// IsValidEmail reports whether the value has the shape of an email address
func IsValidEmail(email string) bool {
	return validate.Var(strings.TrimSpace(email), "required,email") == nil
}

// IsValidPassword reports whether the password meets the minimum length
func IsValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// ValidateStruct runs the `validate` tags of s and returns pt-BR field messages.
// A nil result means the struct is valid.
func ValidateStruct(s interface{}) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fe.Field(),
			Message: translateFieldError(fe),
		})
	}
	return fieldErrors
}

func translateFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s é obrigatório", field)
	case "email":
		return "Email inválido"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s deve ter no mínimo %s caracteres", field, fe.Param())
		}
		return fmt.Sprintf("%s deve ser maior ou igual a %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s deve ter no máximo %s caracteres", field, fe.Param())
		}
		return fmt.Sprintf("%s deve ser menor ou igual a %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s deve ser um dos valores: %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s deve ser uma data válida (AAAA-MM-DD)", field)
	default:
		return fmt.Sprintf("Validação '%s' falhou para %s", fe.Tag(), field)
	}
}
