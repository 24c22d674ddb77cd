package embeddings

import (
	"context"
	"math/rand"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/interfaces"
	"github.com/ternarybob/mediscan/internal/models"
)

// Service implements EmbeddingService on top of the LLM provider. When no
// credential is configured or the provider fails, it substitutes a random
// vector so callers never block on a missing embedding.
type Service struct {
	llm       interfaces.LLMService
	dimension int
	logger    arbor.ILogger
}

// NewService creates an embedding service with the given vector dimension.
func NewService(llm interfaces.LLMService, dimension int, logger arbor.ILogger) interfaces.EmbeddingService {
	return &Service{
		llm:       llm,
		dimension: dimension,
		logger:    logger,
	}
}

// Embed returns the embedding for text. Falls back to a synthetic random
// vector when the provider is unconfigured or errors.
func (s *Service) Embed(ctx context.Context, text string) models.Embedding {
	if !s.llm.Configured() {
		return s.synthetic()
	}

	values, err := s.llm.Embed(ctx, text)
	if err != nil {
		s.logger.Warn().Err(err).Int("text_length", len(text)).Msg("Embedding provider failed, using synthetic vector")
		return s.synthetic()
	}

	return models.Embedding{Values: values}
}

// Dimension returns the constant vector dimension.
func (s *Service) Dimension() int {
	return s.dimension
}

func (s *Service) synthetic() models.Embedding {
	values := make([]float32, s.dimension)
	for i := range values {
		values[i] = rand.Float32()
	}
	return models.Embedding{Values: values, Synthetic: true}
}

var _ interfaces.EmbeddingService = (*Service)(nil)
