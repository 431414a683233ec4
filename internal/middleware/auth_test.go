package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	e := echo.New()
	identity := testutil.NewMockIdentityProvider()
	token := identity.AddUser("user-1", "ana@example.com", "secret1")
	auth := NewAuthMiddleware(identity)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "user-1"},
		{"lower-case scheme", "bearer " + token, http.StatusOK, "user-1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var gotUser, gotToken string
			handler := func(c echo.Context) error {
				gotUser = GetUserID(c)
				gotToken = GetToken(c)
				return c.NoContent(http.StatusOK)
			}

			require.NoError(t, auth.Authenticate()(handler)(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, gotUser)

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, token, gotToken)
				return
			}
			var problem problemDetails
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, errorTypeUnauthorized, problem.Type)
			assert.Equal(t, "/api/v1/session", problem.Instance)
		})
	}
}

func TestContextAccessors_Empty(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.Empty(t, GetUserID(c))
	assert.Empty(t, GetToken(c))
	assert.Nil(t, GetUser(c))
}

func TestGetUser(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	ref := &domain.UserRef{ID: "user-1", Email: "ana@example.com"}
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), UserKey, ref)))

	assert.Equal(t, ref, GetUser(c))
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer  abc ")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = BearerToken("abc")
	assert.Error(t, err)
}
