package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/domain/order"
	"github.com/MuhammadAwais984/storefront/internal/pkg/logger"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsOrderEvents(t *testing.T) {
	hub := NewHub(nil, logger.Discard())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, 1)
	}))
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.HandleOrderEvent(context.Background(), order.Event{
		Type:       order.EventStatusChanged,
		OrderID:    42,
		Status:     order.StatusShipped,
		OccurredAt: time.Now(),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got message
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, order.EventStatusChanged, got.Type)
	assert.EqualValues(t, 42, got.OrderID)
	assert.Equal(t, order.StatusShipped, got.Status)
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub(nil, logger.Discard())
	c := &client{send: make(chan []byte, 1)}
	hub.register(c)

	hub.broadcast([]byte("one"))
	hub.broadcast([]byte("two"))

	assert.Equal(t, 0, hub.ClientCount())
	_, open := <-c.send
	assert.True(t, open)
	_, open = <-c.send
	assert.False(t, open)
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	hub := NewHub([]string{"https://admin.example.com"}, logger.Discard())
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, hub.upgrader.CheckOrigin(r))

	r.Header.Set("Origin", "https://admin.example.com")
	assert.True(t, hub.upgrader.CheckOrigin(r))
}
