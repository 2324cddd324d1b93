package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/CSorel-Catalyte/graphdemo/admission"
	"github.com/CSorel-Catalyte/graphdemo/ai"
	"github.com/CSorel-Catalyte/graphdemo/broadcast"
	"github.com/CSorel-Catalyte/graphdemo/canonical"
	"github.com/CSorel-Catalyte/graphdemo/chunker"
	"github.com/CSorel-Catalyte/graphdemo/extraction"
	"github.com/CSorel-Catalyte/graphdemo/retry"
)

var validate = validator.New()

// Duration is a time.Duration written as a string ("1s", "250ms") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the complete application configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	AI       AIConfig       `toml:"ai"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Graph    GraphConfig    `toml:"graph"`
	Server   ServerConfig   `toml:"server"`
	Breaker  BreakerConfig  `toml:"breaker"`
}

// DatabaseConfig locates the badger store.
type DatabaseConfig struct {
	Path     string `toml:"path" validate:"required_without=InMemory"`
	InMemory bool   `toml:"in_memory"`
}

// AIConfig selects the model service.
type AIConfig struct {
	Host            string `toml:"host"`
	EmbeddingHost   string `toml:"embedding_host"`
	ExtractionHost  string `toml:"extraction_host"`
	EmbeddingModel  string `toml:"embedding_model" validate:"required"`
	ExtractionModel string `toml:"extraction_model" validate:"required"`
	APIKey          string `toml:"api_key"`
	MaxTokens       int    `toml:"max_tokens" validate:"gte=1"`
}

// PipelineConfig tunes chunking, extraction and the merge rules.
type PipelineConfig struct {
	MaxChunkTokens      int      `toml:"max_chunk_tokens" validate:"gte=1"`
	Tokenizer           string   `toml:"tokenizer" validate:"oneof=words tiktoken"`
	Concurrency         int      `toml:"concurrency" validate:"gte=1"`
	RequestTimeout      Duration `toml:"request_timeout"`
	MaxAttempts         int      `toml:"max_attempts" validate:"gte=1"`
	BaseDelay           Duration `toml:"base_delay"`
	MaxDelay            Duration `toml:"max_delay"`
	Jitter              float64  `toml:"jitter" validate:"gte=0"`
	SimilarityThreshold float64  `toml:"similarity_threshold" validate:"gt=0,lte=1"`
	TopK                int      `toml:"top_k" validate:"gte=1"`
	MinConfidence       float64  `toml:"min_confidence" validate:"gte=0,lte=1"`
	MinQuoteChars       int      `toml:"min_quote_chars" validate:"gte=0"`
	NodeCap             int      `toml:"node_cap" validate:"gte=1"`
}

// GraphConfig configures the optional Neo4j mirror. The mirror is enabled
// when Neo4jURI is set.
type GraphConfig struct {
	Neo4jURI      string `toml:"neo4j_uri"`
	Neo4jUser     string `toml:"neo4j_user"`
	Neo4jPassword string `toml:"neo4j_password"`
	Neo4jDatabase string `toml:"neo4j_database"`
}

// MirrorEnabled reports whether a Neo4j mirror is configured.
func (g GraphConfig) MirrorEnabled() bool {
	return g.Neo4jURI != ""
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string   `toml:"addr" validate:"required"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes" validate:"gte=1"`
}

// BreakerConfig configures the circuit breaker around model calls.
type BreakerConfig struct {
	MaxRequests      uint32   `toml:"max_requests" validate:"gte=1"`
	Interval         Duration `toml:"interval"`
	Timeout          Duration `toml:"timeout"`
	FailureThreshold float64  `toml:"failure_threshold" validate:"gt=0,lte=1"`
	MinRequests      uint32   `toml:"min_requests"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	retryDefaults := retry.DefaultPolicy()
	canonicalDefaults := canonical.DefaultConfig()
	admissionDefaults := admission.DefaultConfig()
	breakerDefaults := extraction.DefaultBreakerConfig()

	return &Config{
		Database: DatabaseConfig{Path: "graphdemo.db"},
		AI: AIConfig{
			Host:            aiDefaults.ExtractionHost,
			EmbeddingModel:  aiDefaults.EmbeddingModel,
			ExtractionModel: aiDefaults.ExtractionModel,
			APIKey:          aiDefaults.APIKey,
			MaxTokens:       aiDefaults.MaxTokens,
		},
		Pipeline: PipelineConfig{
			MaxChunkTokens:      chunker.DefaultMaxTokens,
			Tokenizer:           "words",
			Concurrency:         extraction.DefaultConcurrency,
			RequestTimeout:      Duration{extraction.DefaultRequestTimeout},
			MaxAttempts:         retryDefaults.MaxAttempts,
			BaseDelay:           Duration{retryDefaults.BaseDelay},
			MaxDelay:            Duration{retryDefaults.MaxDelay},
			Jitter:              retryDefaults.Jitter,
			SimilarityThreshold: float64(canonicalDefaults.SimilarityThreshold),
			TopK:                canonicalDefaults.TopK,
			MinConfidence:       admissionDefaults.MinConfidence,
			MinQuoteChars:       admissionDefaults.MinQuoteRunes,
			NodeCap:             broadcast.DefaultNodeCap,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{5 * time.Minute},
			MaxBodyBytes: 10 << 20,
		},
		Breaker: BreakerConfig{
			MaxRequests:      breakerDefaults.MaxRequests,
			Interval:         Duration{breakerDefaults.Interval},
			Timeout:          Duration{breakerDefaults.Timeout},
			FailureThreshold: breakerDefaults.FailureThreshold,
			MinRequests:      breakerDefaults.MinRequests,
		},
	}
}

// Validate checks field bounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Pipeline.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("%w: pipeline.request_timeout must be positive", ErrInvalidConfig)
	}
	if c.Pipeline.BaseDelay.Duration < 0 || c.Pipeline.MaxDelay.Duration < 0 {
		return fmt.Errorf("%w: pipeline delays must not be negative", ErrInvalidConfig)
	}
	return nil
}

// AIOptions returns the ai.Config options for the [ai] section.
// Host applies to both services; a specific host overrides it.
func (c *Config) AIOptions() []ai.ConfigOption {
	a := c.AI
	opts := []ai.ConfigOption{
		ai.WithEmbeddingModel(a.EmbeddingModel),
		ai.WithExtractionModel(a.ExtractionModel),
		ai.WithAPIKey(a.APIKey),
		ai.WithMaxTokens(a.MaxTokens),
	}
	if a.Host != "" {
		opts = append(opts, ai.WithHost(a.Host))
	}
	if a.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(a.EmbeddingHost))
	}
	if a.ExtractionHost != "" {
		opts = append(opts, ai.WithExtractionHost(a.ExtractionHost))
	}
	return opts
}

// RetryPolicy returns the extraction retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	p := c.Pipeline
	return retry.Policy{
		MaxAttempts: p.MaxAttempts,
		BaseDelay:   p.BaseDelay.Duration,
		MaxDelay:    p.MaxDelay.Duration,
		Jitter:      p.Jitter,
	}
}

// CircuitBreaker returns the extraction breaker settings.
func (c *Config) CircuitBreaker() extraction.BreakerConfig {
	b := c.Breaker
	return extraction.BreakerConfig{
		MaxRequests:      b.MaxRequests,
		Interval:         b.Interval.Duration,
		Timeout:          b.Timeout.Duration,
		FailureThreshold: b.FailureThreshold,
		MinRequests:      b.MinRequests,
	}
}

// Canonical returns the merge rule settings.
func (c *Config) Canonical() canonical.Config {
	cfg := canonical.DefaultConfig()
	cfg.SimilarityThreshold = float32(c.Pipeline.SimilarityThreshold)
	cfg.TopK = c.Pipeline.TopK
	return cfg
}

// Admission returns the relation admission thresholds.
func (c *Config) Admission() admission.Config {
	return admission.Config{
		MinConfidence: c.Pipeline.MinConfidence,
		MinQuoteRunes: c.Pipeline.MinQuoteChars,
	}
}
