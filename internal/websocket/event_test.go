package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityType_String(t *testing.T) {
	tests := []struct {
		name     string
		et       EntityType
		expected string
	}{
		{"transactions", EntityTypeTransactions, "transactions"},
		{"income", EntityTypeIncome, "income"},
		{"budgets", EntityTypeBudgets, "budgets"},
		{"dreams", EntityTypeDreams, "dreams"},
		{"profile", EntityTypeProfile, "profile"},
		{"auth", EntityTypeAuth, "auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.et))
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":          "tx-1",
		"description": "Mercado",
	}

	before := time.Now()
	evt := NewEvent(EventTypeChanged, EntityTypeTransactions, payload)
	after := time.Now()

	assert.Equal(t, "transactions.changed", evt.Type)
	assert.Equal(t, EntityTypeTransactions, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	evt := Event{
		Type:      "income.changed",
		Entity:    EntityTypeIncome,
		UserID:    "user-1",
		Payload:   map[string]interface{}{"period": "2025-01", "amount": "4500.00"},
		Timestamp: fixedTime,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Entity, decoded.Entity)
	assert.Equal(t, "user-1", decoded.UserID)
	assert.Equal(t, fixedTime, decoded.Timestamp.UTC())

	decodedPayload, ok := decoded.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2025-01", decodedPayload["period"])
	assert.Equal(t, "4500.00", decodedPayload["amount"])
}

func TestEvent_ToJSON_OmitsEmptyPayload(t *testing.T) {
	data, err := AuthChanged(nil).ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "auth.changed", decoded["type"])
	assert.NotContains(t, decoded, "payload")
	assert.NotNil(t, decoded["timestamp"])
}

func TestChangeEvent_Helpers(t *testing.T) {
	tests := []struct {
		name     string
		build    func(interface{}) Event
		wantType string
		entity   EntityType
	}{
		{"TransactionsChanged", TransactionsChanged, "transactions.changed", EntityTypeTransactions},
		{"IncomeChanged", IncomeChanged, "income.changed", EntityTypeIncome},
		{"BudgetsChanged", BudgetsChanged, "budgets.changed", EntityTypeBudgets},
		{"DreamsChanged", DreamsChanged, "dreams.changed", EntityTypeDreams},
		{"ProfileChanged", ProfileChanged, "profile.changed", EntityTypeProfile},
		{"AuthChanged", AuthChanged, "auth.changed", EntityTypeAuth},
	}

	payload := map[string]interface{}{"id": "x"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := tt.build(payload)
			assert.Equal(t, tt.wantType, evt.Type)
			assert.Equal(t, tt.entity, evt.Entity)
			assert.Equal(t, payload, evt.Payload)
		})
	}
}
