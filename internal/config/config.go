// Package config provides application configuration management.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./deskmate.yaml)
//  3. Default values
//
// Secrets: GOOGLE_API_KEY and LANGCHAIN_API_KEY are read only from the
// environment, never from the config file, and are masked in String().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates the mandatory GOOGLE_API_KEY is not set.
	ErrMissingAPIKey = errors.New("GOOGLE_API_KEY not set")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidMaxTurns indicates the turn budget is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top k")

	// ErrInvalidChunking indicates the chunk size/overlap pair is unusable.
	ErrInvalidChunking = errors.New("invalid chunk size/overlap")
)

// Defaults shared by the commands and their tests.
const (
	// DefaultModelName is the chat model used for routing, SQL generation
	// and final answers.
	DefaultModelName = "gemini-2.0-flash"

	// DefaultEmbedderModel must match between indexing and query time;
	// retrieval quality is undefined otherwise.
	DefaultEmbedderModel = "text-embedding-004"

	// DefaultMaxTurns is the orchestrator recursion budget. Exhausting it
	// is reported as an error, not a truncated answer.
	DefaultMaxTurns = 10

	// DefaultCollection is the vector store collection name.
	DefaultCollection = "pdf_rag_collection"
)

// Config stores application configuration.
// SECURITY: API keys are masked in MarshalJSON/String.
type Config struct {
	// Model configuration
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	MaxTurns      int     `mapstructure:"max_turns" json:"max_turns"`

	// Retrieval configuration
	TopK         int    `mapstructure:"top_k" json:"top_k"`
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	VectorDir    string `mapstructure:"vector_dir" json:"vector_dir"`
	Collection   string `mapstructure:"collection" json:"collection"`

	// Relational store configuration
	DatabasePath string `mapstructure:"database_path" json:"database_path"`

	// Tool server addresses. One tool per process; the path is shared.
	SQLAddr string `mapstructure:"sql_addr" json:"sql_addr"`
	RAGAddr string `mapstructure:"rag_addr" json:"rag_addr"`
	MCPPath string `mapstructure:"mcp_path" json:"mcp_path"`

	// Secrets and tracing (environment only)
	GoogleAPIKey    string `mapstructure:"google_api_key" json:"google_api_key"` // SENSITIVE: masked
	TracingEnabled  bool   `mapstructure:"tracing" json:"tracing"`
	TracingAPIKey   string `mapstructure:"tracing_api_key" json:"tracing_api_key"` // SENSITIVE: masked
	TracingProject  string `mapstructure:"tracing_project" json:"tracing_project"`
	TracingEndpoint string `mapstructure:"tracing_endpoint" json:"tracing_endpoint"`
}

// SQLEndpoint returns the full URL of the SQL tool's MCP endpoint.
func (c *Config) SQLEndpoint() string {
	return "http://" + c.SQLAddr + c.MCPPath
}

// RAGEndpoint returns the full URL of the RAG tool's MCP endpoint.
func (c *Config) RAGEndpoint() string {
	return "http://" + c.RAGAddr + c.MCPPath
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
// Validation is immediate: a missing GOOGLE_API_KEY aborts startup here.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("deskmate")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults", "config_name", "deskmate.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("max_turns", DefaultMaxTurns)

	v.SetDefault("top_k", 3)
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 100)
	v.SetDefault("vector_dir", "./chroma_db")
	v.SetDefault("collection", DefaultCollection)

	v.SetDefault("database_path", "company.db")

	v.SetDefault("sql_addr", "127.0.0.1:8001")
	v.SetDefault("rag_addr", "127.0.0.1:8002")
	v.SetDefault("mcp_path", "/mcp")

	v.SetDefault("tracing_endpoint", "https://api.smith.langchain.com/otel")
}

// bindEnvVariables binds environment variables explicitly.
// Secrets are environment-only; the remaining bindings are overrides.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a failure here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("google_api_key", "GOOGLE_API_KEY")

	// Optional trace export, labelled with the project name.
	mustBind("tracing", "LANGCHAIN_TRACING")
	mustBind("tracing_api_key", "LANGCHAIN_API_KEY")
	mustBind("tracing_project", "LANGCHAIN_PROJECT")

	mustBind("model_name", "DESKMATE_MODEL_NAME")
	mustBind("database_path", "DESKMATE_DATABASE_PATH")
	mustBind("vector_dir", "DESKMATE_VECTOR_DIR")
}

// Validate checks the configuration, failing fast on unusable values.
func (c *Config) Validate() error {
	if c.GoogleAPIKey == "" {
		return ErrMissingAPIKey
	}
	if c.ModelName == "" {
		return ErrInvalidModelName
	}
	if c.EmbedderModel == "" {
		return ErrInvalidEmbedderModel
	}
	if c.MaxTurns < 1 || c.MaxTurns > 100 {
		return fmt.Errorf("%w: %d (must be 1-100)", ErrInvalidMaxTurns, c.MaxTurns)
	}
	if c.TopK < 1 || c.TopK > 100 {
		return fmt.Errorf("%w: %d (must be 1-100)", ErrInvalidTopK, c.TopK)
	}
	if c.ChunkSize < 1 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunking, c.ChunkSize, c.ChunkOverlap)
	}
	return nil
}

// Tracing reports whether trace export is active: the flag must be set and
// the API key present, mirroring how the optional tracing variables gate
// each other.
func (c *Config) Tracing() bool {
	return c.TracingEnabled && c.TracingAPIKey != ""
}

const maskedValue = "********"

// maskSecret masks a secret string for safe logging.
// Short secrets are fully masked; longer ones keep two characters on each
// side for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.GoogleAPIKey = maskSecret(a.GoogleAPIKey)
	a.TracingAPIKey = maskSecret(a.TracingAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
