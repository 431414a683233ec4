package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/middleware"
	"github.com/orcamais/orcamais-backend/internal/service"
	"github.com/orcamais/orcamais-backend/internal/testutil"
	"github.com/orcamais/orcamais-backend/internal/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

// testEnv wires the full route table over in-memory collaborators
type testEnv struct {
	e        *echo.Echo
	store    *testutil.MockDocumentStore
	identity *testutil.MockIdentityProvider
	images   *testutil.MockImageRepository
	quotes   *testutil.MockQuoteProvider
	hub      *websocket.Hub
	finance  *service.FinanceService
	token    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		e:        echo.New(),
		store:    testutil.NewMockDocumentStore(),
		identity: testutil.NewMockIdentityProvider(),
		images:   testutil.NewMockImageRepository(),
		quotes:   &testutil.MockQuoteProvider{},
		hub:      websocket.NewHub(),
	}
	env.token = env.identity.AddUser(testUserID, "ana@example.com", "secret1")

	env.finance = service.NewFinanceService(
		env.store,
		env.identity,
		service.NewRecurrenceService(env.store),
		service.NewCalculationService(),
		env.hub,
		service.NewImageService(env.images),
	)
	investments := service.NewInvestmentService(env.quotes, env.finance)

	publicLimiter := middleware.NewRateLimiterWithConfig(1000, 1000)
	userLimiter := middleware.NewRateLimiterWithConfig(1000, 1000)

	RegisterRoutes(env.e, middleware.NewAuthMiddleware(env.identity), publicLimiter, userLimiter, Handlers{
		Auth:        NewAuthHandler(env.finance, nil),
		Profile:     NewProfileHandler(env.finance),
		Dashboard:   NewDashboardHandler(env.finance),
		Transaction: NewTransactionHandler(env.finance),
		Budget:      NewBudgetHandler(env.finance),
		Dream:       NewDreamHandler(env.finance),
		Investment:  NewInvestmentHandler(investments),
		WebSocket:   NewWebSocketHandler(env.hub, websocket.NewTokenValidator(env.identity), nil),
	})
	return env
}

// do sends a JSON request as the test user; an empty token sends none
func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return env.doAs(t, env.token, method, path, body)
}

func (env *testEnv) doAs(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, env.e, token, method, path, body)
}

// serve runs a request through e, JSON-encoding body when set
func serve(t *testing.T, e *echo.Echo, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}

func problemFields(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	p := decode[ProblemDetails](t, rec)
	fields := make([]string, len(p.Errors))
	for i, e := range p.Errors {
		fields[i] = e.Field
	}
	return fields
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
