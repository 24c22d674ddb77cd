package interfaces

import (
	"context"

	"github.com/ternarybob/mediscan/internal/models"
)

// AnalysisService runs the vision analysis pipeline for an uploaded medical
// image: model call, findings and keyword extraction, report persistence.
type AnalysisService interface {
	// Analyze produces and stores a report for the image. Provider failures
	// do not surface as errors; they yield a stored report whose analysis
	// text carries the error detail and whose findings are empty. The
	// returned error covers persistence problems only.
	Analyze(ctx context.Context, imageData []byte, mimeType, filename string) (models.Report, error)
}
