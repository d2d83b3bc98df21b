package transport_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prana-run/prana/internal/transport"
)

func TestBroadcast_ShouldDeliverJSONToConnectedClient(t *testing.T) {
	hub := transport.NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give ServeWS's registration a moment to land before broadcasting.
	time.Sleep(20 * time.Millisecond)
	hub.Broadcast(map[string]any{"event": "node_completed"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "node_completed", msg["event"])
}

func TestBroadcast_ShouldBeNoOp_WhenNoClientsConnected(t *testing.T) {
	hub := transport.NewHub()

	assert.NotPanics(t, func() {
		hub.Broadcast(map[string]any{"event": "execution_started"})
	})
}
