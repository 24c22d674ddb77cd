package rooms

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/interfaces"
)

func newTestQAStore(t *testing.T) interfaces.QARoomStore {
	t.Helper()
	return NewQAStore(filepath.Join(t.TempDir(), "qa_chat_store.json"), arbor.NewLogger())
}

func TestQARoomCreateSeedsWelcomeMessage(t *testing.T) {
	store := newTestQAStore(t)

	room, err := store.Create("Dr. Smith", "Chest X-Ray Questions")
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}
	if !strings.HasPrefix(room.ID, "QA-") {
		t.Errorf("Expected QA- prefixed room id, got %s", room.ID)
	}
	if len(room.Messages) != 1 {
		t.Fatalf("Expected 1 welcome message, got %d", len(room.Messages))
	}

	welcome := room.Messages[0]
	if welcome.User != "Report QA System" {
		t.Errorf("Unexpected welcome author: %s", welcome.User)
	}
	if !strings.Contains(welcome.Content, "Welcome to the Report QA room: Chest X-Ray Questions.") {
		t.Errorf("Unexpected welcome content: %s", welcome.Content)
	}
}

func TestQARoomMessages(t *testing.T) {
	store := newTestQAStore(t)

	room, err := store.Create("Dr. Smith", "Room")
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := store.AddMessage(room.ID, "Dr. Smith", fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("Failed to add message: %v", err)
		}
	}

	// Welcome message plus five posts, capped to the most recent three
	messages, err := store.Messages(room.ID, 3)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}
	if messages[0].Content != "message 2" || messages[2].Content != "message 4" {
		t.Errorf("Expected most recent messages in order, got %v", messages)
	}

	if _, err := store.Messages("missing", 50); err != interfaces.ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestQARoomAddMessageUnknownRoom(t *testing.T) {
	store := newTestQAStore(t)
	if _, err := store.AddMessage("missing", "Dr. Smith", "hello"); err != interfaces.ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestQARoomDelete(t *testing.T) {
	store := newTestQAStore(t)

	room, err := store.Create("Dr. Smith", "Room")
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	if err := store.Delete(room.ID); err != nil {
		t.Fatalf("Failed to delete room: %v", err)
	}

	rooms, err := store.ListRooms()
	if err != nil {
		t.Fatalf("Failed to list rooms: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("Expected no rooms after delete, got %d", len(rooms))
	}

	if err := store.Delete(room.ID); err != interfaces.ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound on second delete, got %v", err)
	}
}

func TestQARoomListUnnamedFallback(t *testing.T) {
	store := newTestQAStore(t)

	if _, err := store.Create("Dr. Smith", ""); err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	rooms, err := store.ListRooms()
	if err != nil {
		t.Fatalf("Failed to list rooms: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("Expected 1 room, got %d", len(rooms))
	}
	if rooms[0].Name != "Unnamed Room" {
		t.Errorf("Expected unnamed fallback, got %q", rooms[0].Name)
	}
}
