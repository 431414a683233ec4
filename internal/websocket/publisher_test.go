package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_Implements_EventBus(t *testing.T) {
	// Compile-time check that Hub implements EventBus
	var _ EventBus = (*Hub)(nil)
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", "user-1")
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish("user-1", TransactionsChanged(map[string]interface{}{"id": "tx-1"}))

	// Allow async broadcast to complete
	time.Sleep(10 * time.Millisecond)

	messages := client.GetMessages()
	require.Len(t, messages, 1)
	assert.Contains(t, string(messages[0]), `"userId":"user-1"`)
}

func TestHub_Subscribe_ListenerCalledSynchronously(t *testing.T) {
	hub := NewHub()

	var received []Event
	unsubscribe := hub.Subscribe("user-1", func(e Event) {
		received = append(received, e)
	})
	defer unsubscribe()

	hub.Publish("user-1", IncomeChanged(nil))
	hub.Publish("user-2", IncomeChanged(nil))

	// No sleep: listeners run before Publish returns
	require.Len(t, received, 1)
	assert.Equal(t, "income.changed", received[0].Type)
	assert.Equal(t, "user-1", received[0].UserID)
}

func TestHub_Subscribe_Unsubscribe(t *testing.T) {
	hub := NewHub()

	calls := 0
	unsubscribe := hub.Subscribe("user-1", func(e Event) { calls++ })
	assert.Equal(t, 1, hub.ListenerCount("user-1"))

	hub.Publish("user-1", DreamsChanged(nil))
	unsubscribe()
	unsubscribe() // second call is a no-op
	hub.Publish("user-1", DreamsChanged(nil))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, hub.ListenerCount("user-1"))
}

func TestHub_Subscribe_PanickingListenerIsIsolated(t *testing.T) {
	hub := NewHub()

	called := false
	hub.Subscribe("user-1", func(e Event) { panic("boom") })
	hub.Subscribe("user-1", func(e Event) { called = true })

	assert.NotPanics(t, func() {
		hub.Publish("user-1", BudgetsChanged(nil))
	})
	assert.True(t, called)
}

func TestHub_Subscribe_Concurrent(t *testing.T) {
	hub := NewHub()

	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := hub.Subscribe("user-1", func(e Event) {
				mu.Lock()
				count++
				mu.Unlock()
			})
			hub.Publish("user-1", TransactionsChanged(nil))
			unsub()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ListenerCount("user-1"))
	assert.GreaterOrEqual(t, count, 20)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	assert.NotPanics(t, func() {
		publisher.Publish("user-1", TransactionsChanged(nil))
	})
}

func TestNoOpPublisher_Implements_EventPublisher(t *testing.T) {
	var _ EventPublisher = (*NoOpPublisher)(nil)
}
