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

// AssistantUser is the automated clinician participant in case rooms.
const AssistantUser = "Dr. AI Assistant"

// defaultParticipants seeds every new case room alongside the creator.
var defaultParticipants = []string{AssistantUser, "Dr. Johnson", "Dr. Chen", "Dr. Patel"}

// caseRoomDocument is the on-disk shape of the case chat store.
type caseRoomDocument struct {
	Rooms map[string]models.CaseRoom `json:"rooms"`
}

// CaseStore persists case discussion rooms in a single flat JSON file with
// the same read-modify-write discipline as the QA store.
type CaseStore struct {
	path   string
	mu     sync.Mutex
	logger arbor.ILogger
}

// NewCaseStore creates a case room store backed by the given JSON file.
func NewCaseStore(path string, logger arbor.ILogger) interfaces.CaseRoomStore {
	return &CaseStore{
		path:   path,
		logger: logger,
	}
}

// Create adds a case room with the default clinician roster and a welcome
// message. Creating a room whose id already exists returns the existing
// room unchanged.
func (s *CaseStore) Create(id, creator, description string) (models.CaseRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.CaseRoom{}, err
	}

	if existing, ok := doc.Rooms[id]; ok {
		return existing, nil
	}

	now := time.Now()
	room := models.CaseRoom{
		ID:           id,
		Description:  description,
		Creator:      creator,
		CreatedAt:    now,
		Participants: append([]string{creator}, defaultParticipants...),
		Messages: []models.RoomMessage{
			{
				ID:        common.NewMessageID(),
				User:      AssistantUser,
				Content:   fmt.Sprintf("Welcome to the case discussion for '%s'. I've analyzed the image and I'm here to assist with the diagnosis. Feel free to ask me specific questions about the findings.", description),
				Type:      models.MessageTypeText,
				Timestamp: now,
			},
		},
	}

	doc.Rooms[id] = room
	if err := s.save(doc); err != nil {
		return models.CaseRoom{}, err
	}

	s.logger.Debug().Str("room_id", id).Str("creator", creator).Msg("Case room created")
	return room, nil
}

// Join adds a user to the room's participants. Joining twice is a no-op.
func (s *CaseStore) Join(roomID, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	room, ok := doc.Rooms[roomID]
	if !ok {
		return interfaces.ErrRoomNotFound
	}

	for _, p := range room.Participants {
		if p == user {
			return nil
		}
	}

	room.Participants = append(room.Participants, user)
	doc.Rooms[roomID] = room
	return s.save(doc)
}

// Get returns the room with the given id or ErrRoomNotFound.
func (s *CaseStore) Get(roomID string) (models.CaseRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.CaseRoom{}, err
	}

	room, ok := doc.Rooms[roomID]
	if !ok {
		return models.CaseRoom{}, interfaces.ErrRoomNotFound
	}
	return room, nil
}

// AddMessage appends a message of the given type ("text" or "annotation").
// An empty type defaults to text.
func (s *CaseStore) AddMessage(roomID, user, content, messageType string) (models.RoomMessage, error) {
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

	if messageType == "" {
		messageType = models.MessageTypeText
	}

	message := models.RoomMessage{
		ID:        common.NewMessageID(),
		User:      user,
		Content:   content,
		Type:      messageType,
		Timestamp: time.Now(),
	}
	room.Messages = append(room.Messages, message)
	doc.Rooms[roomID] = room

	if err := s.save(doc); err != nil {
		return models.RoomMessage{}, err
	}
	return message, nil
}

// ListRooms returns room summaries sorted by creation time, newest first.
func (s *CaseStore) ListRooms() ([]models.RoomSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	summaries := make([]models.RoomSummary, 0, len(doc.Rooms))
	for _, room := range doc.Rooms {
		summaries = append(summaries, models.RoomSummary{
			ID:           room.ID,
			Description:  room.Description,
			Creator:      room.Creator,
			CreatedAt:    room.CreatedAt,
			Participants: len(room.Participants),
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *CaseStore) load() (*caseRoomDocument, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &caseRoomDocument{Rooms: map[string]models.CaseRoom{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read case chat store: %w", err)
	}

	var doc caseRoomDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse case chat store: %w", err)
	}
	if doc.Rooms == nil {
		doc.Rooms = map[string]models.CaseRoom{}
	}
	return &doc, nil
}

func (s *CaseStore) save(doc *caseRoomDocument) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode case chat store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write case chat store: %w", err)
	}
	return nil
}

var _ interfaces.CaseRoomStore = (*CaseStore)(nil)
