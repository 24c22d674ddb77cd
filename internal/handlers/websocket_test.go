package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/models"
)

func TestWebSocketConnectAndBroadcast(t *testing.T) {
	handler := NewWebSocketHandler(arbor.NewLogger())

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// First frame identifies the server instance
	var hello map[string]string
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("Failed to read hello frame: %v", err)
	}
	if hello["type"] != "connected" {
		t.Errorf("Expected connected frame, got %q", hello["type"])
	}
	if hello["server_instance_id"] == "" {
		t.Error("Expected server_instance_id in hello frame")
	}

	message := models.RoomMessage{
		ID:        "m1",
		User:      "dr.smith",
		Content:   "Any cardiac findings?",
		Timestamp: time.Now(),
	}
	handler.BroadcastRoomMessage("QA-20260314120000", message)

	var event RoomEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("Failed to read room event: %v", err)
	}
	if event.Type != "room_message" {
		t.Errorf("Expected room_message event, got %q", event.Type)
	}
	if event.RoomID != "QA-20260314120000" {
		t.Errorf("Unexpected room id: %q", event.RoomID)
	}
	if event.Message.Content != "Any cardiac findings?" {
		t.Errorf("Unexpected message content: %q", event.Message.Content)
	}
}

func TestWebSocketClientCleanup(t *testing.T) {
	handler := NewWebSocketHandler(arbor.NewLogger())

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	// Wait for registration
	time.Sleep(100 * time.Millisecond)

	handler.mu.RLock()
	connected := len(handler.clients)
	handler.mu.RUnlock()
	if connected != 1 {
		t.Fatalf("Expected 1 connected client, got %d", connected)
	}

	conn.Close()
	time.Sleep(200 * time.Millisecond)

	handler.mu.RLock()
	remaining := len(handler.clients)
	remainingMutexes := len(handler.clientMutex)
	handler.mu.RUnlock()

	if remaining != 0 {
		t.Errorf("Handler still has %d clients after close", remaining)
	}
	if remainingMutexes != 0 {
		t.Errorf("Handler still has %d client mutexes after close", remainingMutexes)
	}
}
