package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeChanged EventType = "changed"
)

// EntityType represents the part of the user's data the event is about
type EntityType string

const (
	EntityTypeTransactions EntityType = "transactions"
	EntityTypeIncome       EntityType = "income"
	EntityTypeBudgets      EntityType = "budgets"
	EntityTypeDreams       EntityType = "dreams"
	EntityTypeProfile      EntityType = "profile"
	EntityTypeAuth         EntityType = "auth"
)

// Event represents a change notification sent to subscribers
// Format: { type, entity, userId, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`   // Combined type e.g. "transactions.changed"
	Entity    EntityType  `json:"entity"` // Entity type e.g. "transactions"
	UserID    string      `json:"userId"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionsChanged creates a transactions.changed event
func TransactionsChanged(payload interface{}) Event {
	return NewEvent(EventTypeChanged, EntityTypeTransactions, payload)
}

// IncomeChanged creates an income.changed event
func IncomeChanged(payload interface{}) Event {
	return NewEvent(EventTypeChanged, EntityTypeIncome, payload)
}

// BudgetsChanged creates a budgets.changed event
func BudgetsChanged(payload interface{}) Event {
	return NewEvent(EventTypeChanged, EntityTypeBudgets, payload)
}

// DreamsChanged creates a dreams.changed event
func DreamsChanged(payload interface{}) Event {
	return NewEvent(EventTypeChanged, EntityTypeDreams, payload)
}

// ProfileChanged creates a profile.changed event
func ProfileChanged(payload interface{}) Event {
	return NewEvent(EventTypeChanged, EntityTypeProfile, payload)
}

// AuthChanged creates an auth.changed event
func AuthChanged(payload interface{}) Event {
	return NewEvent(EventTypeChanged, EntityTypeAuth, payload)
}
