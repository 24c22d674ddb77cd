package rooms

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/interfaces"
	"github.com/ternarybob/mediscan/internal/models"
)

// qaSystemUser is the author of automated messages in QA rooms.
const qaSystemUser = "Report QA System"

// qaRoomDocument is the on-disk shape of the QA chat store: rooms keyed by id.
type qaRoomDocument struct {
	Rooms map[string]models.QARoom `json:"rooms"`
}

// QAStore persists QA chat rooms in a single flat JSON file. Mutations are
// full-file read-modify-write serialized by a process-local mutex; writers
// from separate processes follow last-writer-wins.
type QAStore struct {
	path   string
	mu     sync.Mutex
	logger arbor.ILogger
}

// NewQAStore creates a QA room store backed by the given JSON file.
func NewQAStore(path string, logger arbor.ILogger) interfaces.QARoomStore {
	return &QAStore{
		path:   path,
		logger: logger,
	}
}

// Create adds a new QA room seeded with a welcome message from the system.
func (s *QAStore) Create(creator, name string) (models.QARoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.QARoom{}, err
	}

	now := time.Now()
	room := models.QARoom{
		ID:        common.NewQARoomID(now),
		Name:      name,
		Creator:   creator,
		CreatedAt: now,
		Messages: []models.RoomMessage{
			{
				ID:        common.NewMessageID(),
				User:      qaSystemUser,
				Content:   fmt.Sprintf("Welcome to the Report QA room: %s. You can ask questions about your medical reports and I'll try to answer based on the analyses stored in the system.", name),
				Timestamp: now,
			},
		},
	}

	doc.Rooms[room.ID] = room
	if err := s.save(doc); err != nil {
		return models.QARoom{}, err
	}

	s.logger.Debug().Str("room_id", room.ID).Str("creator", creator).Msg("QA room created")
	return room, nil
}

// AddMessage appends a message to a room or returns ErrRoomNotFound.
func (s *QAStore) AddMessage(roomID, user, content string) (models.RoomMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.RoomMessage{}, err
	}

	room, ok := doc.Rooms[roomID]
	if !ok {
		return models.RoomMessage{}, interfaces.ErrRoomNotFound
	}

	message := models.RoomMessage{
		ID:        common.NewMessageID(),
		User:      user,
		Content:   content,
		Timestamp: time.Now(),
	}
	room.Messages = append(room.Messages, message)
	doc.Rooms[roomID] = room

	if err := s.save(doc); err != nil {
		return models.RoomMessage{}, err
	}
	return message, nil
}

// Messages returns up to limit most recent messages in chronological order.
func (s *QAStore) Messages(roomID string, limit int) ([]models.RoomMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	room, ok := doc.Rooms[roomID]
	if !ok {
		return nil, interfaces.ErrRoomNotFound
	}

	messages := room.Messages
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// ListRooms returns room summaries sorted by creation time, newest first.
func (s *QAStore) ListRooms() ([]models.RoomSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	summaries := make([]models.RoomSummary, 0, len(doc.Rooms))
	for _, room := range doc.Rooms {
		name := room.Name
		if name == "" {
			name = "Unnamed Room"
		}
		summaries = append(summaries, models.RoomSummary{
			ID:        room.ID,
			Name:      name,
			Creator:   room.Creator,
			CreatedAt: room.CreatedAt,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Delete removes a room or returns ErrRoomNotFound.
func (s *QAStore) Delete(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := doc.Rooms[roomID]; !ok {
		return interfaces.ErrRoomNotFound
	}
	delete(doc.Rooms, roomID)

	if err := s.save(doc); err != nil {
		return err
	}

	s.logger.Debug().Str("room_id", roomID).Msg("QA room deleted")
	return nil
}

func (s *QAStore) load() (*qaRoomDocument, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &qaRoomDocument{Rooms: map[string]models.QARoom{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read QA chat store: %w", err)
	}

	var doc qaRoomDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse QA chat store: %w", err)
	}
	if doc.Rooms == nil {
		doc.Rooms = map[string]models.QARoom{}
	}
	return &doc, nil
}

func (s *QAStore) save(doc *qaRoomDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode QA chat store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write QA chat store: %w", err)
	}
	return nil
}

var _ interfaces.QARoomStore = (*QAStore)(nil)
