package interfaces

import (
	"context"

	"github.com/ternarybob/mediscan/internal/models"
)

// LiteratureService searches bibliographic sources for publications related
// to a set of keywords. Implementations degrade to clearly labeled
// placeholder entries on failure rather than returning errors; the report
// pipeline must never stall on an unreachable literature backend.
type LiteratureService interface {
	// SearchPublications returns up to maxResults publications matching all
	// keywords. Empty keywords yield an empty result.
	SearchPublications(ctx context.Context, keywords []string, maxResults int) []models.Publication

	// ClinicalTrials returns related clinical trial references for keywords.
	ClinicalTrials(keywords []string, maxResults int) []models.ClinicalTrial
}
