package interfaces

import (
	"errors"
	"time"

	"github.com/ternarybob/mediscan/internal/models"
)

var (
	// ErrReportNotFound is returned when a report id does not exist in the store
	ErrReportNotFound = errors.New("report not found")

	// ErrRoomNotFound is returned when a room id does not exist in the store
	ErrRoomNotFound = errors.New("room not found")

	// ErrKeyNotFound is returned when a key does not exist in the KV store
	ErrKeyNotFound = errors.New("key not found")
)

// ReportStore persists analysis reports as a single JSON document with a
// top-level "analyses" list. Mutations are full-file read-modify-write with
// no cross-process locking; concurrent writers from separate processes can
// lose updates (last writer wins).
type ReportStore interface {
	// Append adds a report to the store and persists it.
	Append(report models.Report) error

	// List returns all reports in store order.
	List() ([]models.Report, error)

	// GetByID returns the report with the given id or ErrReportNotFound.
	GetByID(id string) (models.Report, error)

	// Latest returns up to limit reports sorted by date, newest first.
	Latest(limit int) ([]models.Report, error)

	// KeywordCounts returns keyword frequencies across all stored reports.
	KeywordCounts() (map[string]int, error)
}

// QARoomStore persists question-answering chat rooms keyed by room id.
type QARoomStore interface {
	Create(creator, name string) (models.QARoom, error)
	AddMessage(roomID, user, content string) (models.RoomMessage, error)
	Messages(roomID string, limit int) ([]models.RoomMessage, error)
	ListRooms() ([]models.RoomSummary, error)
	Delete(roomID string) error
}

// CaseRoomStore persists multi-clinician case discussion rooms.
type CaseRoomStore interface {
	Create(id, creator, description string) (models.CaseRoom, error)
	Join(roomID, user string) error
	Get(roomID string) (models.CaseRoom, error)
	AddMessage(roomID, user, content, messageType string) (models.RoomMessage, error)
	ListRooms() ([]models.RoomSummary, error)
}

// KeyValuePair is a stored settings entry (API keys, UI preferences).
type KeyValuePair struct {
	Key         string    `json:"key" badgerhold:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KeyValueStorage provides case-insensitive key/value settings storage.
type KeyValueStorage interface {
	Get(key string) (string, error)
	Set(key, value, description string) error
	List() ([]KeyValuePair, error)
	Delete(key string) error
}
