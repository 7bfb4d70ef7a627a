// Package config loads copilot settings from the environment and
// optional YAML files. Presence of a completion-provider API key is the
// sole switch between the LLM path and the deterministic fallback.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Completion provider choices.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

// Enabled reports whether a completion provider is usable.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// EmbeddingConfig configures the embedding provider used for both
// corpus builds and query embedding.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// RetrievalConfig tunes the retriever.
type RetrievalConfig struct {
	CorpusPath string  `yaml:"corpus_path"`
	TopK       int     `yaml:"top_k"`
	MinScore   float64 `yaml:"min_score"`
}

// SessionConfig selects the conversation store.
type SessionConfig struct {
	RedisAddr     string        `yaml:"redis_addr"` // empty selects the in-memory store
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// Config is the full application configuration.
type Config struct {
	LLM              LLMConfig       `yaml:"llm"`
	Embedding        EmbeddingConfig `yaml:"embedding"`
	Retrieval        RetrievalConfig `yaml:"retrieval"`
	Session          SessionConfig   `yaml:"session"`
	PlannerTimeoutMS int             `yaml:"planner_timeout_ms"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    "gpt-4o-mini",
		},
		Embedding: EmbeddingConfig{
			// Model left empty so each provider applies its own default.
			Provider: ProviderOpenAI,
		},
		Retrieval: RetrievalConfig{
			CorpusPath: "data/knowledge_corpus.json",
			TopK:       6,
			MinScore:   0.5,
		},
		PlannerTimeoutMS: 5000,
	}
}

// FromEnv builds the configuration from environment variables, loading
// a .env file first when one exists.
func FromEnv() *Config {
	_ = godotenv.Load()

	cfg := Default()
	setString(&cfg.LLM.Provider, "COPILOT_LLM_PROVIDER")
	setString(&cfg.LLM.APIKey, "COPILOT_LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "COPILOT_LLM_BASE_URL")
	setString(&cfg.LLM.Model, "COPILOT_LLM_MODEL")
	setString(&cfg.Embedding.Provider, "COPILOT_EMBEDDING_PROVIDER")
	setString(&cfg.Embedding.APIKey, "COPILOT_EMBEDDING_API_KEY")
	setString(&cfg.Embedding.Model, "COPILOT_EMBEDDING_MODEL")
	setString(&cfg.Retrieval.CorpusPath, "COPILOT_CORPUS_PATH")
	setInt(&cfg.Retrieval.TopK, "COPILOT_TOP_K")
	setFloat(&cfg.Retrieval.MinScore, "COPILOT_MIN_SCORE")
	setString(&cfg.Session.RedisAddr, "COPILOT_REDIS_ADDR")
	setString(&cfg.Session.RedisPassword, "COPILOT_REDIS_PASSWORD")
	setInt(&cfg.Session.RedisDB, "COPILOT_REDIS_DB")
	setInt(&cfg.PlannerTimeoutMS, "COPILOT_PLANNER_TIMEOUT_MS")
	return cfg
}

// LoadFile overlays settings from a YAML file onto the configuration.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// PlannerTimeout returns the planner deadline as a duration.
func (c *Config) PlannerTimeout() time.Duration {
	return time.Duration(c.PlannerTimeoutMS) * time.Millisecond
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	v := NewValidator().
		ValidateOneOf("llm.provider", c.LLM.Provider, ProviderOpenAI, ProviderClaude, ProviderGemini).
		ValidateOneOf("embedding.provider", c.Embedding.Provider, ProviderOpenAI, ProviderGemini).
		RequireNonEmpty("retrieval.corpus_path", c.Retrieval.CorpusPath).
		RequirePositive("retrieval.top_k", c.Retrieval.TopK).
		ValidateFloatRange("retrieval.min_score", c.Retrieval.MinScore, 0, 1).
		RequirePositive("planner_timeout_ms", c.PlannerTimeoutMS)
	return v.Err()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
