package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Clients never send payloads, only control frames
	maxMessageSize = 512

	// sendBuffer is how many change events may wait for a slow client
	sendBuffer = 64
)

// ErrClientLagging is returned when a client's queue is full. The client is
// disconnected; on reconnect it re-reads the data it may have missed.
var ErrClientLagging = errors.New("client is lagging behind")

// Client is one browser tab subscribed to a user's change events
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	hub    *Hub
	logger zerolog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an upgraded connection for userID
func NewClient(conn *websocket.Conn, userID string, hub *Hub) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		userID: userID,
		conn:   conn,
		hub:    hub,
		logger: log.With().Str("client_id", id).Str("user_id", userID).Logger(),
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// ID returns the connection's identifier
func (c *Client) ID() string {
	return c.id
}

// UserID returns the user the connection was authenticated as
func (c *Client) UserID() string {
	return c.userID
}

// Send queues an encoded event without blocking the publisher
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		c.logger.Warn().Msg("WebSocket client lagging, disconnecting")
		c.Close()
		return ErrClientLagging
	}
}

// Close ends the connection. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// IsClosed reports whether Close was called
func (c *Client) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// ReadPump keeps the pong deadline alive and detects disconnects. It
// unregisters the client when the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("WebSocket unexpected close")
			}
			return
		}
	}
}

// WritePump delivers queued events and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn().Err(err).Msg("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
