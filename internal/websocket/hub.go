package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	UserID() string
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections and in-process listeners organized by user
// It is safe for concurrent use
type Hub struct {
	// users maps user ID to a map of client ID to client
	users map[string]map[string]ClientInterface
	// listeners maps user ID to a map of subscription ID to listener
	listeners map[string]map[uint64]Listener
	nextSubID uint64
	mu        sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		users:     make(map[string]map[string]ClientInterface),
		listeners: make(map[string]map[uint64]Listener),
	}
}

// Register adds a client to the hub under its user
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.UserID()
	clientID := client.ID()

	if h.users[userID] == nil {
		h.users[userID] = make(map[string]ClientInterface)
	}

	h.users[userID][clientID] = client

	log.Debug().
		Str("user_id", userID).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := client.UserID()
	clientID := client.ID()

	if clients, ok := h.users[userID]; ok {
		if _, exists := clients[clientID]; exists {
			delete(clients, clientID)

			// Clean up empty user maps
			if len(clients) == 0 {
				delete(h.users, userID)
			}

			log.Debug().
				Str("user_id", userID).
				Str("client_id", clientID).
				Msg("WebSocket client unregistered")
		}
	}
}

// Subscribe registers an in-process listener for the user's events
func (h *Hub) Subscribe(userID string, listener Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSubID++
	id := h.nextSubID
	if h.listeners[userID] == nil {
		h.listeners[userID] = make(map[uint64]Listener)
	}
	h.listeners[userID][id] = listener

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.listeners[userID]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.listeners, userID)
				}
			}
		})
	}
}

// notifyListeners calls every listener of the user on the caller's goroutine.
// A panicking listener is logged and does not affect the others.
func (h *Hub) notifyListeners(userID string, event Event) {
	h.mu.RLock()
	subs := h.listeners[userID]
	listeners := make([]Listener, 0, len(subs))
	for _, l := range subs {
		listeners = append(listeners, l)
	}
	h.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("user_id", userID).
						Str("event_type", event.Type).
						Msg("Event listener panicked")
				}
			}()
			l(event)
		}()
	}
}

// Broadcast sends an event to all clients of a specific user
func (h *Hub) Broadcast(userID string, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clients, ok := h.users[userID]
	if !ok || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy clients to avoid holding lock during send
	clientsCopy := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	// Send to each client asynchronously
	for _, client := range clientsCopy {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Str("user_id", userID).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Str("user_id", userID).
		Str("event_type", event.Type).
		Int("client_count", len(clientsCopy)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients connected for a user
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.users[userID]; ok {
		return len(clients)
	}
	return 0
}

// ListenerCount returns the number of in-process listeners for a user
func (h *Hub) ListenerCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[userID])
}

// TotalClientCount returns the total number of connected clients across all users
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.users {
		total += len(clients)
	}
	return total
}
