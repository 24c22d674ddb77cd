package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/interfaces"
)

// Service implements the LLMService interface on top of the provider factory.
type Service struct {
	factory *ProviderFactory
	config  *common.Config
	logger  arbor.ILogger
	timeout time.Duration
}

// NewService creates a new LLM service. The service starts successfully even
// when no credential is configured; callers check Configured() and degrade.
func NewService(config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*Service, error) {
	timeout, err := time.ParseDuration(config.Gemini.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Gemini.Timeout, err)
	}

	factory := NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, kvStorage, logger)

	logger.Info().
		Str("default_provider", config.LLM.DefaultProvider).
		Str("chat_model", config.Gemini.Model).
		Str("embed_model", config.Gemini.EmbedModel).
		Int("embed_dimension", config.Gemini.EmbedDimension).
		Bool("configured", factory.Configured()).
		Msg("LLM service initialized")

	return &Service{
		factory: factory,
		config:  config,
		logger:  logger,
		timeout: timeout,
	}, nil
}

// Embed generates an embedding vector for the given text
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	embedding, err := s.factory.Embed(timeoutCtx, text)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int("text_length", len(text)).
		Int("embedding_dim", len(embedding)).
		Dur("duration", time.Since(start)).
		Msg("Embedding generated")

	return embedding, nil
}

// Chat generates a completion response based on the conversation history
func (s *Service) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return s.ChatWithOptions(ctx, messages, interfaces.ChatOptions{})
}

// ChatWithOptions generates a completion with per-call generation parameters.
// Zero option values fall back to the configured QA defaults.
func (s *Service) ChatWithOptions(ctx context.Context, messages []interfaces.Message, opts interfaces.ChatOptions) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = s.config.QA.Temperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = s.config.QA.MaxTokens
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.factory.GenerateContent(timeoutCtx, &ContentRequest{
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	return response.Text, nil
}

// AnalyzeImage sends an image with an instruction prompt to a vision model
func (s *Service) AnalyzeImage(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("image data cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.factory.GenerateContent(timeoutCtx, &ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: prompt},
		},
		ImageData:     imageData,
		ImageMIMEType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("image analysis failed: %w", err)
	}

	return response.Text, nil
}

// Configured reports whether a provider credential is available
func (s *Service) Configured() bool {
	return s.factory.Configured()
}

// HealthCheck verifies the provider is reachable by running an embedding probe
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.Configured() {
		return fmt.Errorf("no provider credential configured")
	}

	healthCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	embedding, err := s.factory.Embed(healthCtx, "health check")
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("embedding probe returned empty vector")
	}

	return nil
}

// Close releases provider clients
func (s *Service) Close() error {
	return s.factory.Close()
}
