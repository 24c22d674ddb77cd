package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// ContentRequest represents a provider-agnostic content generation request
type ContentRequest struct {
	Messages          []interfaces.Message
	Model             string
	Temperature       float32
	MaxTokens         int
	SystemInstruction string
	ImageData         []byte // Optional inline image for vision requests
	ImageMIMEType     string
}

// ContentResponse represents a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider ProviderType
	Model    string
}

// ProviderFactory creates and manages AI provider clients. Clients are
// created lazily on first use so the application can start without any
// credential configured.
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	llmConfig    *common.LLMConfig
	kvStorage    interfaces.KeyValueStorage
	logger       arbor.ILogger
	geminiClient *genai.Client
	claudeClient anthropic.Client
	geminiAPIKey string
	claudeAPIKey string
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(
	geminiConfig *common.GeminiConfig,
	claudeConfig *common.ClaudeConfig,
	llmConfig *common.LLMConfig,
	kvStorage interfaces.KeyValueStorage,
	logger arbor.ILogger,
) *ProviderFactory {
	return &ProviderFactory{
		geminiConfig: geminiConfig,
		claudeConfig: claudeConfig,
		llmConfig:    llmConfig,
		kvStorage:    kvStorage,
		logger:       logger,
	}
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-sonnet-4-20250514" -> Claude
// - "claude/claude-sonnet-4-20250514" -> Claude (with prefix)
// - "gemini-2.0-flash" -> Gemini
// - Empty string -> uses default provider from config
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	if model == "" {
		return ProviderType(f.llmConfig.DefaultProvider)
	}

	model = strings.ToLower(model)

	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return ProviderGemini
	}

	if strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return ProviderGemini
	}

	return ProviderType(f.llmConfig.DefaultProvider)
}

// NormalizeModel removes provider prefix from model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// Configured reports whether a credential exists for the default provider.
// No network call is made; only the env/KV-store/config chain is consulted.
func (f *ProviderFactory) Configured() bool {
	switch ProviderType(f.llmConfig.DefaultProvider) {
	case ProviderClaude:
		_, err := common.ResolveAPIKey(f.kvStorage, "anthropic_api_key", f.claudeConfig.APIKey)
		return err == nil
	default:
		_, err := common.ResolveAPIKey(f.kvStorage, "gemini_api_key", f.geminiConfig.APIKey)
		return err == nil
	}
}

// GetGeminiClient returns a Gemini client, creating one if necessary
func (f *ProviderFactory) GetGeminiClient(ctx context.Context) (*genai.Client, error) {
	if f.geminiClient != nil {
		return f.geminiClient, nil
	}

	apiKey, err := common.ResolveAPIKey(f.kvStorage, "gemini_api_key", f.geminiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Gemini API key: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	f.geminiClient = client
	f.geminiAPIKey = apiKey
	return client, nil
}

// GetClaudeClient returns a Claude client, creating one if necessary
func (f *ProviderFactory) GetClaudeClient() (anthropic.Client, error) {
	if f.claudeAPIKey != "" {
		return f.claudeClient, nil
	}

	apiKey, err := common.ResolveAPIKey(f.kvStorage, "anthropic_api_key", f.claudeConfig.APIKey)
	if err != nil {
		return anthropic.Client{}, fmt.Errorf("failed to resolve Anthropic API key: %w", err)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	f.claudeClient = client
	f.claudeAPIKey = apiKey
	return client, nil
}

// GenerateContent generates content using the appropriate provider based on model
func (f *ProviderFactory) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	provider := f.DetectProvider(request.Model)
	model := f.NormalizeModel(request.Model)

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("message_count", len(request.Messages)).
		Msg("Generating content with provider")

	switch provider {
	case ProviderClaude:
		return f.generateWithClaude(ctx, request, model)
	default:
		return f.generateWithGemini(ctx, request, model)
	}
}

// Embed generates an embedding vector using the Gemini embedding model with
// the configured output dimensionality.
func (f *ProviderFactory) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	client, err := f.GetGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	outputDim := int32(f.geminiConfig.EmbedDimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	result, err := client.Models.EmbedContent(ctx, f.geminiConfig.EmbedModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embeddingConfig)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}
	if embedding == nil {
		return nil, fmt.Errorf("no embedding returned from API")
	}

	if len(embedding) != f.geminiConfig.EmbedDimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d",
			f.geminiConfig.EmbedDimension, len(embedding))
	}

	return embedding, nil
}

// generateWithClaude generates content using Claude API
func (f *ProviderFactory) generateWithClaude(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	client, err := f.GetClaudeClient()
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = f.claudeConfig.Model
	}

	claudeMessages, systemText, err := convertMessagesToClaude(request)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	if request.SystemInstruction != "" {
		systemText = request.SystemInstruction
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = f.claudeConfig.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  claudeMessages,
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.claudeConfig.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	var resp *anthropic.Message
	var apiErr error
	retryConfig := NewRetryConfig(f.llmConfig.MaxRetries)

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = client.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}

		if attempt == retryConfig.MaxRetries || !IsRateLimitError(apiErr) {
			break
		}

		backoff := retryConfig.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))

		f.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", apiErr)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from Claude API")
	}

	return &ContentResponse{
		Text:     text.String(),
		Provider: ProviderClaude,
		Model:    model,
	}, nil
}

// generateWithGemini generates content using Gemini API
func (f *ProviderFactory) generateWithGemini(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	client, err := f.GetGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = f.geminiConfig.Model
	}

	geminiContents, systemText, err := convertMessagesToGemini(request)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	if request.SystemInstruction != "" {
		systemText = request.SystemInstruction
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.geminiConfig.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = f.geminiConfig.MaxTokens
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}

	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	var resp *genai.GenerateContentResponse
	var apiErr error
	retryConfig := NewRetryConfig(f.llmConfig.MaxRetries)

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = client.Models.GenerateContent(ctx, model, geminiContents, config)
		if apiErr == nil {
			break
		}

		if attempt == retryConfig.MaxRetries || !IsRateLimitError(apiErr) {
			break
		}

		backoff := retryConfig.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))

		f.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini API call")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", apiErr)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini API")
	}

	responseText := resp.Text()
	if responseText == "" {
		return nil, fmt.Errorf("empty text in Gemini response")
	}

	return &ContentResponse{
		Text:     responseText,
		Provider: ProviderGemini,
		Model:    model,
	}, nil
}

// convertMessagesToGemini converts request messages to Gemini Content format.
// System messages are extracted separately for use with SystemInstruction.
// An inline image, when present, is attached to the final user message.
func convertMessagesToGemini(request *ContentRequest) ([]*genai.Content, string, error) {
	if len(request.Messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range request.Messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	contents := make([]*genai.Content, 0, len(request.Messages))
	var systemText string
	lastUserIdx := -1
	for _, msg := range request.Messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		var geminiRole string
		switch msg.Role {
		case "assistant":
			geminiRole = genai.RoleModel
		default:
			geminiRole = genai.RoleUser
		}

		content := &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		}
		contents = append(contents, content)
		if geminiRole == string(genai.RoleUser) {
			lastUserIdx = len(contents) - 1
		}
	}

	if len(request.ImageData) > 0 && lastUserIdx >= 0 {
		imagePart := genai.NewPartFromBytes(request.ImageData, request.ImageMIMEType)
		contents[lastUserIdx].Parts = append(contents[lastUserIdx].Parts, imagePart)
	}

	return contents, systemText, nil
}

// convertMessagesToClaude converts request messages to Claude message params.
// System messages are extracted separately; an inline image, when present,
// is attached to the final user message as a base64 image block.
func convertMessagesToClaude(request *ContentRequest) ([]anthropic.MessageParam, string, error) {
	if len(request.Messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	messages := make([]anthropic.MessageParam, 0, len(request.Messages))
	var systemText string
	lastUserIdx := -1
	for _, msg := range request.Messages {
		switch msg.Role {
		case "system":
			if systemText == "" {
				systemText = msg.Content
			}
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			lastUserIdx = len(messages) - 1
		}
	}

	if len(messages) == 0 {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	if len(request.ImageData) > 0 && lastUserIdx >= 0 {
		encoded := base64.StdEncoding.EncodeToString(request.ImageData)
		imageBlock := anthropic.NewImageBlockBase64(request.ImageMIMEType, encoded)
		messages[lastUserIdx].Content = append(messages[lastUserIdx].Content, imageBlock)
	}

	return messages, systemText, nil
}

// Close closes all provider clients
func (f *ProviderFactory) Close() error {
	f.geminiClient = nil
	f.claudeClient = anthropic.Client{} // Reset to zero value
	f.claudeAPIKey = ""
	return nil
}
