package interfaces

import "context"

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string `json:"role"`

	// Content contains the text content of the message
	Content string `json:"content"`
}

// ChatOptions overrides generation parameters for a single completion.
// Zero values fall back to the configured defaults.
type ChatOptions struct {
	Temperature float32
	MaxTokens   int
}

// LLMService defines the interface for language model operations: embeddings,
// chat completions, and vision analysis. Implementations talk to cloud
// providers (Gemini, Claude); there is no offline mode.
type LLMService interface {
	// Embed generates a fixed-dimension embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat generates a completion response based on the conversation history.
	// The messages slice should contain the full conversation context
	// including system prompts, user messages, and previous assistant
	// responses.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatWithOptions is Chat with per-call generation parameters.
	ChatWithOptions(ctx context.Context, messages []Message, opts ChatOptions) (string, error)

	// AnalyzeImage sends an image together with an instruction prompt to a
	// vision-capable model and returns the generated analysis text.
	AnalyzeImage(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error)

	// Configured reports whether a provider credential is available. When it
	// returns false no network call is ever attempted and callers must fall
	// back to their documented degraded behavior.
	Configured() bool

	// HealthCheck verifies the provider is reachable and authenticated.
	HealthCheck(ctx context.Context) error

	// Close releases provider clients.
	Close() error
}
