package models

import "time"

// RoomMessage types. Annotation messages describe what a clinician sees in
// the image rather than free discussion.
const (
	MessageTypeText       = "text"
	MessageTypeAnnotation = "annotation"
)

// RoomMessage is a single message inside a QA or case-discussion room.
type RoomMessage struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Content   string    `json:"content"`
	Type      string    `json:"type,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// QARoom is a question-answering chat room backed by the report store.
type QARoom struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Creator   string        `json:"creator"`
	CreatedAt time.Time     `json:"created_at"`
	Messages  []RoomMessage `json:"messages"`
}

// CaseRoom is a multi-clinician discussion room for a single imaging case.
type CaseRoom struct {
	ID           string        `json:"id"`
	Description  string        `json:"description"`
	Creator      string        `json:"creator"`
	CreatedAt    time.Time     `json:"created_at"`
	Participants []string      `json:"participants"`
	Messages     []RoomMessage `json:"messages"`
}

// RoomSummary is the list-view projection of a room. QA rooms carry a Name,
// case rooms a Description and participant count.
type RoomSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Description  string    `json:"description,omitempty"`
	Creator      string    `json:"creator"`
	CreatedAt    time.Time `json:"created_at"`
	Participants int       `json:"participants,omitempty"`
}
