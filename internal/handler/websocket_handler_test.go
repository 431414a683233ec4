package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/domain"
	"github.com/orcamais/orcamais-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	userID string
	err    error
}

func (s stubValidator) ValidateToken(ctx context.Context, token string) (string, error) {
	return s.userID, s.err
}

func TestHandleWS_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		validator stubValidator
	}{
		{name: "missing token", query: "", validator: stubValidator{userID: testUserID}},
		{name: "invalid token", query: "?token=bad", validator: stubValidator{err: errors.New("invalid token")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := websocket.NewHub()
			h := NewWebSocketHandler(hub, tt.validator, nil)

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/ws"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, h.HandleWS(c))
			requireStatus(t, rec, http.StatusUnauthorized)
			assert.Equal(t, ErrorTypeUnauthorized, decode[ProblemDetails](t, rec).Type)
			assert.Zero(t, hub.TotalClientCount())
		})
	}
}

func TestHandleWS_ValidTokenWithoutUpgrade(t *testing.T) {
	h := NewWebSocketHandler(websocket.NewHub(), stubValidator{userID: testUserID}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws?token=good", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// A plain GET is not a websocket handshake
	assert.Error(t, h.HandleWS(c))
}

func TestCheckOrigin(t *testing.T) {
	h := NewWebSocketHandler(websocket.NewHub(), stubValidator{}, []string{"http://localhost:5173", "https://orcamais.app"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"https://orcamais.app", true},
		{"https://evil.example.com", false},
		{"http://orcamais.app", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, h.checkOrigin(req))
		})
	}
}

func TestHandleWS_ReceivesChangeEvents(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.e)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + env.token
	conn, resp, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool {
		return env.hub.ClientCount(testUserID) == 1
	}, time.Second, 10*time.Millisecond)

	requireStatus(t, env.do(t, http.MethodPost, "/api/v1/transactions", CreateTransactionRequest{
		Description: "Padaria", Amount: "12.50", Type: "expense", Category: "Alimentação", Date: domain.CurrentPeriod().DateIn(3),
	}), http.StatusCreated)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event websocket.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "transactions.changed", event.Type)
	assert.Equal(t, testUserID, event.UserID)
}

func TestHandleWS_RejectsRevokedToken(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.e)
	t.Cleanup(server.Close)

	requireStatus(t, env.do(t, http.MethodDelete, "/api/v1/session", nil), http.StatusNoContent)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + env.token
	_, resp, err := ws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

type idleClient struct{ id string }

func (c idleClient) ID() string             { return c.id }
func (c idleClient) UserID() string         { return testUserID }
func (c idleClient) Send(data []byte) error { return nil }
func (c idleClient) Close() error           { return nil }

func TestHandleWS_TabLimit(t *testing.T) {
	hub := websocket.NewHub()
	for i := 0; i < maxTabsPerUser; i++ {
		hub.Register(idleClient{id: fmt.Sprintf("tab-%d", i)})
	}
	h := NewWebSocketHandler(hub, stubValidator{userID: testUserID}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws?token=good", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.HandleWS(e.NewContext(req, rec)))
	requireStatus(t, rec, http.StatusConflict)
	assert.Equal(t, maxTabsPerUser, hub.ClientCount(testUserID))
}
