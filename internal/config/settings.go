// Package config resolves application settings and loads the category map.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/spf13/viper"
)

// Default values applied when a key is absent from every configuration source.
const (
	DefaultDatabasePath    = "$HOME/.local/share/cascade/cascade.db"
	DefaultEngineTimeout   = 30 * time.Second
	DefaultVectorThreshold = 0.7
	DefaultServerAddr      = ":8080"
	DefaultEmbeddingModel  = "text-embedding-3-small"
	DefaultEmbeddingURL    = "https://api.openai.com/v1"
)

// Settings is the resolved application configuration.
type Settings struct {
	Database   DatabaseSettings
	Categories CategorySettings
	Engine     EngineSettings
	Vector     VectorSettings
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Server     ServerSettings
	Logging    LoggingSettings
}

// DatabaseSettings selects the keyword store backend.
type DatabaseSettings struct {
	Backend string // sqlite or bolt
	Path    string
}

// CategorySettings points at the category map document. An empty path selects the built-in map.
type CategorySettings struct {
	Path string
}

// EngineSettings configures the cascade itself.
type EngineSettings struct {
	Timeout time.Duration
}

// VectorSettings configures the vector similarity stage.
type VectorSettings struct {
	Enabled   bool
	Threshold float64
}

// EmbeddingSettings configures the embedding function shared by the index builder and the vector stage.
type EmbeddingSettings struct {
	Provider   string // http or hashing
	BaseURL    string
	Model      string
	APIKey     string
	Dimensions int
}

// LLMSettings configures the generative fallback.
type LLMSettings struct {
	Provider        string // openai, anthropic or none
	Model           string
	APIKey          string
	Temperature     float64
	MaxTokens       int
	MaxRetries      int
	RetryDelay      time.Duration
	CacheTTL        time.Duration
	RateLimit       int
	CaseInsensitive bool
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// LoggingSettings configures slog output.
type LoggingSettings struct {
	Level  string
	Format string
}

// LoadSettings resolves settings with this precedence:
// 1. Viper configuration (config file, CASCADE_ env vars, bound flags)
// 2. Provider environment variables (OPENAI_API_KEY, ANTHROPIC_API_KEY)
// 3. Default values.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Database: DatabaseSettings{
			Backend: strings.ToLower(v.GetString("database.backend")),
			Path:    v.GetString("database.path"),
		},
		Categories: CategorySettings{
			Path: ExpandPath(v.GetString("categories.path")),
		},
		Engine: EngineSettings{
			Timeout: v.GetDuration("engine.timeout"),
		},
		Vector: VectorSettings{
			Enabled:   v.GetBool("vector.enabled"),
			Threshold: v.GetFloat64("vector.threshold"),
		},
		Embedding: EmbeddingSettings{
			Provider:   strings.ToLower(v.GetString("embedding.provider")),
			BaseURL:    v.GetString("embedding.base_url"),
			Model:      v.GetString("embedding.model"),
			APIKey:     v.GetString("embedding.api_key"),
			Dimensions: v.GetInt("embedding.dimensions"),
		},
		LLM: LLMSettings{
			Provider:        strings.ToLower(v.GetString("llm.provider")),
			Model:           v.GetString("llm.model"),
			APIKey:          v.GetString("llm.api_key"),
			Temperature:     v.GetFloat64("llm.temperature"),
			MaxTokens:       v.GetInt("llm.max_tokens"),
			MaxRetries:      v.GetInt("llm.max_retries"),
			RetryDelay:      v.GetDuration("llm.retry_delay"),
			CacheTTL:        v.GetDuration("llm.cache_ttl"),
			RateLimit:       v.GetInt("llm.rate_limit"),
			CaseInsensitive: v.GetBool("llm.case_insensitive"),
		},
		Server: ServerSettings{
			Addr: v.GetString("server.addr"),
		},
		Logging: LoggingSettings{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	s.applyDefaults()
	s.applyEnvironment()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) applyDefaults() {
	if s.Database.Backend == "" {
		s.Database.Backend = "sqlite"
	}
	if s.Database.Path == "" {
		s.Database.Path = DefaultDatabasePath
	}
	s.Database.Path = ExpandPath(s.Database.Path)

	if s.Engine.Timeout == 0 {
		s.Engine.Timeout = DefaultEngineTimeout
	}
	if s.Vector.Threshold == 0 {
		s.Vector.Threshold = DefaultVectorThreshold
	}

	if s.Embedding.Provider == "" {
		s.Embedding.Provider = "hashing"
	}
	if s.Embedding.Dimensions == 0 {
		s.Embedding.Dimensions = model.DefaultEmbeddingDimensions
	}
	if s.Embedding.Model == "" {
		if s.Embedding.Provider == "hashing" {
			s.Embedding.Model = fmt.Sprintf("hashing-%d", s.Embedding.Dimensions)
		} else {
			s.Embedding.Model = DefaultEmbeddingModel
		}
	}
	if s.Embedding.BaseURL == "" {
		s.Embedding.BaseURL = DefaultEmbeddingURL
	}

	if s.LLM.Provider == "" {
		s.LLM.Provider = "none"
	}
	if s.LLM.Model == "" {
		switch s.LLM.Provider {
		case "openai":
			s.LLM.Model = "gpt-4o-mini"
		case "anthropic":
			s.LLM.Model = "claude-3-5-haiku-latest"
		}
	}
	if s.LLM.MaxTokens == 0 {
		s.LLM.MaxTokens = 20
	}
	if s.LLM.MaxRetries == 0 {
		s.LLM.MaxRetries = 3
	}
	if s.LLM.RetryDelay == 0 {
		s.LLM.RetryDelay = time.Second
	}
	if s.LLM.CacheTTL == 0 {
		s.LLM.CacheTTL = 24 * time.Hour
	}
	if s.LLM.RateLimit == 0 {
		s.LLM.RateLimit = 60 // requests per minute
	}

	if s.Server.Addr == "" {
		s.Server.Addr = DefaultServerAddr
	}
	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}
	if s.Logging.Format == "" {
		s.Logging.Format = "console"
	}
}

func (s *Settings) applyEnvironment() {
	if s.LLM.APIKey == "" {
		switch s.LLM.Provider {
		case "openai":
			s.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			s.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if s.Embedding.APIKey == "" && s.Embedding.Provider == "http" {
		s.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Validate checks that the settings describe a runnable configuration.
func (s *Settings) Validate() error {
	switch s.Database.Backend {
	case "sqlite", "bolt":
	default:
		return fmt.Errorf("%w: unsupported database backend %q", common.ErrInvalidConfig, s.Database.Backend)
	}

	switch s.Embedding.Provider {
	case "http", "hashing":
	default:
		return fmt.Errorf("%w: unsupported embedding provider %q", common.ErrInvalidConfig, s.Embedding.Provider)
	}

	switch s.LLM.Provider {
	case "none":
	case "openai", "anthropic":
		if s.LLM.APIKey == "" {
			return fmt.Errorf("%w: %s API key not found in config or environment", common.ErrMissingConfig, s.LLM.Provider)
		}
	default:
		return fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, s.LLM.Provider)
	}

	if s.Vector.Threshold < 0 || s.Vector.Threshold > 1 {
		return fmt.Errorf("%w: vector threshold %v outside [0, 1]", common.ErrInvalidConfig, s.Vector.Threshold)
	}
	if s.Engine.Timeout < 0 {
		return fmt.Errorf("%w: negative engine timeout", common.ErrInvalidConfig)
	}
	if s.Embedding.Dimensions < 0 {
		return fmt.Errorf("%w: negative embedding dimensions", common.ErrInvalidConfig)
	}

	return nil
}

// ExpandPath resolves a leading ~ to the home directory and then expands
// $VAR references. The in-memory SQLite path is returned untouched.
func ExpandPath(path string) string {
	if path == "" || path == ":memory:" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}
