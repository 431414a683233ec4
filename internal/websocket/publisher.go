package websocket

// EventPublisher defines the interface for publishing change events for a user
type EventPublisher interface {
	// Publish delivers an event to every subscriber of the user
	Publish(userID string, event Event)
}

// Listener is an in-process subscriber callback
type Listener func(event Event)

// EventBus is a publisher that also accepts in-process subscriptions
type EventBus interface {
	EventPublisher
	// Subscribe registers a listener for the user's events and returns a
	// function that removes it
	Subscribe(userID string, listener Listener) (unsubscribe func())
}

// Ensure Hub implements EventBus
var _ EventBus = (*Hub)(nil)

// Publish notifies in-process listeners synchronously, then fans the event
// out to the user's WebSocket clients
func (h *Hub) Publish(userID string, event Event) {
	event.UserID = userID
	h.notifyListeners(userID, event)
	h.Broadcast(userID, event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(userID string, event Event) {}
