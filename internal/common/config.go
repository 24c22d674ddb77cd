package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/mediscan/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Gemini      GeminiConfig  `toml:"gemini"`
	Claude      ClaudeConfig  `toml:"claude"`
	LLM         LLMConfig     `toml:"llm"`
	QA          QAConfig      `toml:"qa"`
	PubMed      PubMedConfig  `toml:"pubmed"`
	Reports     ReportsConfig `toml:"reports"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	// DataDir holds the flat JSON store files (analysis_store.json,
	// qa_chat_store.json, chat_store.json).
	DataDir string       `toml:"data_dir" validate:"required"`
	Badger  BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration for the settings store
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`         // Gemini API key (env/KV store take priority)
	Model          string  `toml:"model"`           // Chat/vision model (default: "gemini-2.0-flash")
	EmbedModel     string  `toml:"embed_model"`     // Embedding model (default: "gemini-embedding-001")
	EmbedDimension int     `toml:"embed_dimension"` // Embedding output dimensionality (default: 1536)
	Temperature    float32 `toml:"temperature"`     // Completion temperature (default: 0.3)
	MaxTokens      int     `toml:"max_tokens"`      // Max output tokens (default: 800)
	Timeout        string  `toml:"timeout"`         // Operation timeout duration string (default: "2m")
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`       // Default: "claude-sonnet-4-20250514"
	Temperature float32 `toml:"temperature"` // Default: 0.3
	MaxTokens   int     `toml:"max_tokens"`  // Default: 800
}

// LLMConfig contains provider-agnostic LLM settings
type LLMConfig struct {
	DefaultProvider string `toml:"default_provider" validate:"oneof=gemini claude"` // "gemini" or "claude"
	MaxRetries      int    `toml:"max_retries"`                                     // Retries on rate-limit errors (default: 2)
}

// QAConfig tunes the report question-answering pipeline
type QAConfig struct {
	TopK         int     `toml:"top_k"`         // Context blocks per question (default: 3)
	HistoryLimit int     `toml:"history_limit"` // Max conversation turns retained (default: 10)
	MaxTokens    int     `toml:"max_tokens"`    // Max answer tokens (default: 500)
	Temperature  float32 `toml:"temperature"`   // Low for reproducible clinical tone (default: 0.3)
}

// PubMedConfig contains NCBI E-utilities client configuration
type PubMedConfig struct {
	BaseURL    string `toml:"base_url"`    // Default: "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	Email      string `toml:"email"`       // Contact email sent to NCBI per their usage policy
	Tool       string `toml:"tool"`        // Tool name sent to NCBI (default: "mediscan")
	RateLimit  string `toml:"rate_limit"`  // Min interval between requests (default: "334ms", 3 req/s)
	MaxResults int    `toml:"max_results"` // Default result cap (default: 5)
	Timeout    string `toml:"timeout"`     // HTTP timeout duration string (default: "15s")
}

// ReportsConfig controls PDF report generation
type ReportsConfig struct {
	IncludeReferences bool `toml:"include_references"` // Append literature and trial references to PDF reports
}

// DefaultConfig returns the built-in defaults applied before any file or
// environment override.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			DataDir: "./data",
			Badger: BadgerConfig{
				Path: "./data/settings",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Gemini: GeminiConfig{
			Model:          "gemini-2.0-flash",
			EmbedModel:     "gemini-embedding-001",
			EmbedDimension: 1536,
			Temperature:    0.3,
			MaxTokens:      800,
			Timeout:        "2m",
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			Temperature: 0.3,
			MaxTokens:   800,
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
			MaxRetries:      2,
		},
		QA: QAConfig{
			TopK:         3,
			HistoryLimit: 10,
			MaxTokens:    500,
			Temperature:  0.3,
		},
		PubMed: PubMedConfig{
			BaseURL:    "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			Tool:       "mediscan",
			RateLimit:  "334ms",
			MaxResults: 5,
			Timeout:    "15s",
		},
		Reports: ReportsConfig{
			IncludeReferences: true,
		},
	}
}

// LoadFromFiles loads configuration in priority order: defaults, then each
// config file (later files override earlier ones), then environment
// variables. The merged result is validated before being returned.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies MEDISCAN_* environment variables over file values.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("MEDISCAN_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("MEDISCAN_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("MEDISCAN_DATA_DIR"); v != "" {
		config.Storage.DataDir = v
	}
	if v := os.Getenv("MEDISCAN_GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("MEDISCAN_CLAUDE_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves a provider API key in priority order: environment
// variable, KV settings store, config file value. Returns ErrKeyNotFound
// semantics as a plain error when nothing is configured.
func ResolveAPIKey(kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	envNames := map[string]string{
		"gemini_api_key":    "MEDISCAN_GEMINI_API_KEY",
		"anthropic_api_key": "MEDISCAN_CLAUDE_API_KEY",
	}

	// Claude users commonly export the SDK-standard variable
	if name == "anthropic_api_key" {
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			return v, nil
		}
	}
	if name == "gemini_api_key" {
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			return v, nil
		}
	}

	if envName, ok := envNames[name]; ok {
		if v := os.Getenv(envName); v != "" {
			return v, nil
		}
	}

	if kvStorage != nil {
		value, err := kvStorage.Get(name)
		if err == nil && value != "" {
			return value, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, settings store, or config", name)
}

// IsDevelopment reports whether the configured environment is development.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}
