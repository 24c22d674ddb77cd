package interfaces

import (
	"context"

	"github.com/ternarybob/mediscan/internal/models"
)

// EmbeddingService converts free text into fixed-dimension vectors.
//
// The contract is deliberately failure-free: when no credential is configured
// or the provider is unreachable, implementations return a uniformly random
// vector tagged Synthetic instead of an error. Downstream ranking logic must
// tolerate embeddings that carry no semantic meaning in that mode.
type EmbeddingService interface {
	// Embed returns the embedding for text. Never fails the caller.
	Embed(ctx context.Context, text string) models.Embedding

	// Dimension returns the constant vector dimension.
	Dimension() int
}
