package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub broadcasts JSON values (cmd/prana sends each execution Outcome) to
// connected websocket clients. It is called directly by its user and is not
// attached to the Middleware Pipeline.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
}

// NewHub builds an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		clients:  make(map[*websocket.Conn]bool),
	}
}

// ServeWS upgrades the connection and registers it for broadcast.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go h.readLoop(conn)
}

// readLoop drains the connection until it closes, so gorilla/websocket's
// ping/pong housekeeping keeps running; the hub is broadcast-only.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Broadcast sends a JSON-serializable event to every connected client.
func (h *Hub) Broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(v); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
