package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GRAPHDEMO_"

// Load builds the configuration.
//
// envFiles are loaded into the process environment first; variables already
// set win. With no envFiles, ".env" is loaded when it exists. path names an
// optional TOML file; an empty path skips it. The result is validated.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// overrides maps variable names, without EnvPrefix, to setters.
var overrides = map[string]func(c *Config, v string) error{
	"DB_PATH":          func(c *Config, v string) error { c.Database.Path = v; return nil },
	"DB_IN_MEMORY":     func(c *Config, v string) error { return setBool(&c.Database.InMemory, v) },
	"AI_HOST":          func(c *Config, v string) error { c.AI.Host = v; return nil },
	"EMBEDDING_HOST":   func(c *Config, v string) error { c.AI.EmbeddingHost = v; return nil },
	"EXTRACTION_HOST":  func(c *Config, v string) error { c.AI.ExtractionHost = v; return nil },
	"EMBEDDING_MODEL":  func(c *Config, v string) error { c.AI.EmbeddingModel = v; return nil },
	"EXTRACTION_MODEL": func(c *Config, v string) error { c.AI.ExtractionModel = v; return nil },
	"API_KEY":          func(c *Config, v string) error { c.AI.APIKey = v; return nil },
	"MAX_CHUNK_TOKENS": func(c *Config, v string) error { return setInt(&c.Pipeline.MaxChunkTokens, v) },
	"TOKENIZER":        func(c *Config, v string) error { c.Pipeline.Tokenizer = v; return nil },
	"CONCURRENCY":      func(c *Config, v string) error { return setInt(&c.Pipeline.Concurrency, v) },
	"REQUEST_TIMEOUT":  func(c *Config, v string) error { return setDuration(&c.Pipeline.RequestTimeout, v) },
	"MAX_ATTEMPTS":     func(c *Config, v string) error { return setInt(&c.Pipeline.MaxAttempts, v) },
	"NODE_CAP":         func(c *Config, v string) error { return setInt(&c.Pipeline.NodeCap, v) },
	"NEO4J_URI":        func(c *Config, v string) error { c.Graph.Neo4jURI = v; return nil },
	"NEO4J_USER":       func(c *Config, v string) error { c.Graph.Neo4jUser = v; return nil },
	"NEO4J_PASSWORD":   func(c *Config, v string) error { c.Graph.Neo4jPassword = v; return nil },
	"NEO4J_DATABASE":   func(c *Config, v string) error { c.Graph.Neo4jDatabase = v; return nil },
	"SERVER_ADDR":      func(c *Config, v string) error { c.Server.Addr = v; return nil },
}

func applyEnv(cfg *Config) error {
	for name, set := range overrides {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || v == "" {
			continue
		}
		if err := set(cfg, v); err != nil {
			return fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, EnvPrefix, name, err)
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setDuration(dst *Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	dst.Duration = d
	return nil
}
