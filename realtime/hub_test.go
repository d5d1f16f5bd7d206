package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	r := gin.New()
	r.GET("/ws/notifications", hub.Handler)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws/notifications"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Wait for the hub to register the connection.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, hub.ClientCount())

	return hub, conn
}

func TestBroadcastReachesConnectedClient(t *testing.T) {
	hub, conn := dialHub(t)

	hub.Broadcast("notification:new", map[string]string{"title": "flash sale"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "notification:new", event.Event)
	assert.Contains(t, string(event.Data), "flash sale")
}

func TestBroadcastDropsDeadConnections(t *testing.T) {
	hub, conn := dialHub(t)

	conn.Close()

	// Two broadcasts: the first write may still land in the OS buffer of a
	// half-closed socket, the second surfaces the error and evicts.
	hub.Broadcast("notification:new", map[string]string{"title": "a"})
	hub.Broadcast("notification:new", map[string]string{"title": "b"})

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Zero(t, hub.ClientCount())
}

func TestBroadcastWithNoClientsIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Broadcast("notification:new", map[string]string{"title": "silence"})
	assert.Zero(t, hub.ClientCount())
}
