package common

import (
	"time"

	"github.com/google/uuid"
)

// NewReportID generates a unique analysis report ID
func NewReportID() string {
	return uuid.New().String()
}

// NewMessageID generates a unique room message ID
func NewMessageID() string {
	return uuid.New().String()
}

// NewQARoomID generates a QA room ID with a sortable timestamp component
// Format: QA-<yyyymmddhhmmss>
func NewQARoomID(now time.Time) string {
	return "QA-" + now.Format("20060102150405")
}

// NewCaseRoomID generates a case discussion room ID from the image type
// Format: <TYPE>-<yyyymmddhhmmss>
func NewCaseRoomID(imageType string, now time.Time) string {
	return imageType + "-" + now.Format("20060102150405")
}
