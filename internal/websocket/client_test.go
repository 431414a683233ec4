package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialClient returns the server side Client of a fresh connection plus the
// browser side conn. Pumps are left to the caller.
func dialClient(t *testing.T, hub *Hub, userID string) (*Client, *websocket.Conn) {
	t.Helper()
	accepted := make(chan *Client, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		accepted <- NewClient(conn, userID, hub)
	}))
	t.Cleanup(server.Close)

	browser, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { browser.Close() })

	select {
	case c := <-accepted:
		t.Cleanup(func() { c.Close() })
		return c, browser
	case <-time.After(time.Second):
		t.Fatal("server never accepted the connection")
		return nil, nil
	}
}

func TestClient_DeliversPublishedEvents(t *testing.T) {
	hub := NewHub()
	client, browser := dialClient(t, hub, "ana")
	hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	hub.Publish("ana", IncomeChanged(map[string]string{"month": "2026-10"}))

	require.NoError(t, browser.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Event
	require.NoError(t, browser.ReadJSON(&got))
	assert.Equal(t, "income.changed", got.Type)
	assert.Equal(t, "ana", got.UserID)
}

func TestClient_BrowserDisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	client, browser := dialClient(t, hub, "ana")
	hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	require.NoError(t, browser.Close())

	require.Eventually(t, func() bool { return hub.ClientCount("ana") == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, client.IsClosed())
}

func TestClient_LaggingClientIsDropped(t *testing.T) {
	client, _ := dialClient(t, NewHub(), "ana")

	// No WritePump, so nothing drains the queue
	for i := 0; i < sendBuffer; i++ {
		require.NoError(t, client.Send([]byte(`{}`)))
	}
	assert.ErrorIs(t, client.Send([]byte(`{}`)), ErrClientLagging)
	assert.True(t, client.IsClosed())
	assert.ErrorIs(t, client.Send([]byte(`{}`)), ErrClientClosed)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	client, _ := dialClient(t, NewHub(), "ana")

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())
	assert.True(t, client.IsClosed())
}
