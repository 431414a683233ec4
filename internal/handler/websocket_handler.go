package handler

import (
	"context"
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// maxTabsPerUser bounds how many live change streams one user may hold
const maxTabsPerUser = 8

// TokenValidator resolves an access token to the user it was issued for
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (userID string, err error)
}

// WebSocketHandler serves GET /ws, the per-user change event stream
type WebSocketHandler struct {
	hub       *websocket.Hub
	validator TokenValidator
	origins   map[string]struct{}
	upgrader  ws.Upgrader
}

func NewWebSocketHandler(hub *websocket.Hub, validator TokenValidator, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:       hub,
		validator: validator,
		origins:   make(map[string]struct{}, len(allowedOrigins)),
	}
	for _, origin := range allowedOrigins {
		h.origins[origin] = struct{}{}
	}

	// The stream is server to client only, so the read side stays small
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  512,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts configured CORS origins and requests without an
// Origin header (non-browser clients)
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins[origin]; ok {
		return true
	}
	log.Warn().Str("origin", origin).Msg("Rejected change stream from foreign origin")
	return false
}

// HandleWS authenticates the handshake and attaches the connection to the
// hub. Browsers cannot send headers here, so the token is read from ?token=.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return NewUnauthorizedError(c, "Token ausente")
	}

	userID, err := h.validator.ValidateToken(c.Request().Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("Change stream token rejected")
		return NewUnauthorizedError(c, "Sessão inválida ou expirada")
	}

	if h.hub.ClientCount(userID) >= maxTabsPerUser {
		log.Warn().Str("user_id", userID).Int("open", maxTabsPerUser).Msg("Change stream limit reached")
		return NewConflictError(c, "Limite de conexões simultâneas atingido")
	}

	// Upgrade writes its own HTTP error on failure
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Debug().Err(err).Str("user_id", userID).Msg("Change stream upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, userID, h.hub)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	log.Info().Str("user_id", userID).Str("client_id", client.ID()).Msg("Change stream opened")
	return nil
}
