package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// RoomEvent is the wire shape of a broadcast room update.
type RoomEvent struct {
	Type    string             `json:"type"` // "room_message"
	RoomID  string             `json:"room_id"`
	Message models.RoomMessage `json:"message"`
}

// WebSocketHandler pushes room message events to connected clients. Every
// client receives every event; filtering by room happens client-side.
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	serverInstanceID string
}

// NewWebSocketHandler creates a websocket handler. The instance id lets
// clients detect a server restart and resync their room state.
func NewWebSocketHandler(logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		serverInstanceID: uuid.New().String(),
	}

	logger.Debug().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized")
	return h
}

// HandleWebSocket upgrades the connection and registers the client.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", count).Msg("WebSocket client connected")

	h.writeJSON(conn, map[string]string{
		"type":               "connected",
		"server_instance_id": h.serverInstanceID,
	})

	// Read loop exists only to detect disconnects
	go func() {
		defer h.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// BroadcastRoomMessage pushes a room message event to all connected clients.
func (h *WebSocketHandler) BroadcastRoomMessage(roomID string, message models.RoomMessage) {
	event := RoomEvent{
		Type:    "room_message",
		RoomID:  roomID,
		Message: message,
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := h.writeJSON(conn, event); err != nil {
			h.logger.Debug().Err(err).Msg("WebSocket write failed, dropping client")
			h.removeClient(conn)
		}
	}
}

// writeJSON serializes a write per client so concurrent broadcasts do not
// interleave frames.
func (h *WebSocketHandler) writeJSON(conn *websocket.Conn, v interface{}) error {
	h.mu.RLock()
	mutex, ok := h.clientMutex[conn]
	h.mu.RUnlock()
	if !ok {
		return websocket.ErrCloseSent
	}

	mutex.Lock()
	defer mutex.Unlock()

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(v)
}

func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		conn.Close()
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", count).Msg("WebSocket client disconnected")
}
