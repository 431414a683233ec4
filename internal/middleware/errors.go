package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// problemDetails mirrors handler.ProblemDetails. Middleware cannot import the
// handler package, so the RFC 7807 body is declared again here.
type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

const (
	errorTypeUnauthorized = "https://orcamais.app/errors/unauthorized"
	errorTypeRateLimit    = "https://orcamais.app/errors/rate-limit"
)

func reject(c echo.Context, status int, errType, title, detail string) error {
	return c.JSON(status, problemDetails{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

func unauthorizedError(c echo.Context, detail string) error {
	return reject(c, http.StatusUnauthorized, errorTypeUnauthorized, "Unauthorized", detail)
}

func tooManyRequestsError(c echo.Context, detail string) error {
	return reject(c, http.StatusTooManyRequests, errorTypeRateLimit, "Rate Limit Exceeded", detail)
}
