package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Pinecone    PineconeConfig  `toml:"pinecone"`
	Cohere      CohereConfig    `toml:"cohere"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	LLM         LLMConfig       `toml:"llm"`
	Chunking    ChunkingConfig  `toml:"chunking"`
	Retrieval   RetrievalConfig `toml:"retrieval"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=1,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// PineconeConfig contains configuration for the hosted vector index.
// The provider computes embeddings server-side; this service never holds
// vectors except in transit between the embed and upsert calls.
type PineconeConfig struct {
	APIKey          string `toml:"api_key"`
	ControlURL      string `toml:"control_url"` // Control-plane base URL (default: "https://api.pinecone.io")
	IndexHost       string `toml:"index_host"`  // Data-plane host for the index, e.g. "https://my-index-abc123.svc.aped-4627-b74a.pinecone.io"
	IndexName       string `toml:"index_name"`
	Namespace       string `toml:"namespace"`
	EmbeddingModel  string `toml:"embedding_model"`                           // Hosted embedding model (default: "multilingual-e5-large")
	EmbedBatchSize  int    `toml:"embed_batch_size" validate:"gte=1,lte=96"`  // Texts per embedding request
	UpsertBatchSize int    `toml:"upsert_batch_size" validate:"gte=1"`        // Vectors per upsert request
	Timeout         string `toml:"timeout"`                                   // Per-call HTTP timeout as duration string
	RateLimit       string `toml:"rate_limit"`                                // Minimum interval between provider calls during batched upserts
}

// CohereConfig contains configuration for the cross-encoder reranking provider
type CohereConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"` // default: "https://api.cohere.com"
	Model   string `toml:"model"`    // default: "rerank-v3.5"
	Timeout string `toml:"timeout"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`      // default: "claude-haiku-3-5-20241022"
	MaxTokens   int     `toml:"max_tokens"` // default: 1024
	Temperature float32 `toml:"temperature"`
	Timeout     string  `toml:"timeout"` // Answer generation timeout as duration string
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"` // default: "gemini-2.0-flash"
	Temperature float32 `toml:"temperature"`
	Timeout     string  `toml:"timeout"`
}

// LLMConfig contains provider selection and pricing for answer generation
type LLMConfig struct {
	DefaultProvider string  `toml:"default_provider" validate:"oneof=claude gemini"`
	InputCostPer1M  float64 `toml:"input_cost_per_1m" validate:"gte=0"`  // USD per million input tokens; zero is valid (free tier)
	OutputCostPer1M float64 `toml:"output_cost_per_1m" validate:"gte=0"` // USD per million output tokens
}

// ChunkingConfig controls the chunk size band and overlap, in estimated tokens
type ChunkingConfig struct {
	MinTokens     int `toml:"min_tokens" validate:"gte=1"`
	MaxTokens     int `toml:"max_tokens" validate:"gtefield=MinTokens"`
	OverlapTokens int `toml:"overlap_tokens" validate:"gte=0,ltfield=MinTokens"`
}

// RetrievalConfig controls query defaults
type RetrievalConfig struct {
	TopK          int `toml:"top_k" validate:"gte=1"`                    // Nearest-neighbor candidates per query
	TopN          int `toml:"top_n" validate:"gte=1,ltefield=TopK"`      // Candidates retained after reranking
	MinQueryChars int `toml:"min_query_chars" validate:"gte=1"`          // Queries shorter than this are rejected
	PreviewChars  int `toml:"preview_chars" validate:"gte=10"`           // Citation snippet length
}

// DefaultConfig returns a configuration populated with defaults
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout"},
		},
		Pinecone: PineconeConfig{
			ControlURL:      "https://api.pinecone.io",
			IndexName:       "percontor",
			EmbeddingModel:  "multilingual-e5-large",
			EmbedBatchSize:  10,
			UpsertBatchSize: 100,
			Timeout:         "30s",
			RateLimit:       "200ms",
		},
		Cohere: CohereConfig{
			BaseURL: "https://api.cohere.com",
			Model:   "rerank-v3.5",
			Timeout: "15s",
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   1024,
			Temperature: 0.2,
			Timeout:     "45s",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Temperature: 0.2,
			Timeout:     "45s",
		},
		LLM: LLMConfig{
			DefaultProvider: "claude",
		},
		Chunking: ChunkingConfig{
			MinTokens:     800,
			MaxTokens:     1200,
			OverlapTokens: 120,
		},
		Retrieval: RetrievalConfig{
			TopK:          10,
			TopN:          5,
			MinQueryChars: 3,
			PreviewChars:  150,
		},
	}
}

// LoadFromFiles loads configuration with layered precedence:
// defaults -> file(s) in order -> environment variables.
// Later files override earlier ones; CLI overrides are applied separately.
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

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// API keys are env-first so they never need to live in the config file.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("PERCONTOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("PERCONTOR_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("PERCONTOR_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("PINECONE_API_KEY"); v != "" {
		config.Pinecone.APIKey = v
	}
	if v := os.Getenv("PINECONE_INDEX_HOST"); v != "" {
		config.Pinecone.IndexHost = v
	}
	if v := os.Getenv("COHERE_API_KEY"); v != "" {
		config.Cohere.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration against struct-level validation rules
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
