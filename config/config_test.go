package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSorel-Catalyte/graphdemo/ai"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1800, cfg.Pipeline.MaxChunkTokens)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, 60*time.Second, cfg.Pipeline.RequestTimeout.Duration)
	assert.Equal(t, 3, cfg.Pipeline.MaxAttempts)
	assert.InDelta(t, 0.86, cfg.Pipeline.SimilarityThreshold, 1e-6)
	assert.Equal(t, 0.55, cfg.Pipeline.MinConfidence)
	assert.Equal(t, 60, cfg.Pipeline.MinQuoteChars)
	assert.Equal(t, 80, cfg.Pipeline.NodeCap)
	assert.False(t, cfg.Graph.MirrorEnabled())
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "graphdemo.toml", `
[database]
in_memory = true
path = ""

[ai]
host = "http://models:8000"
extraction_model = "gpt-4o-mini"

[pipeline]
max_chunk_tokens = 900
concurrency = 4
request_timeout = "30s"
base_delay = "250ms"

[graph]
neo4j_uri = "bolt://localhost:7687"

[breaker]
timeout = "1m"
`)

	cfg, err := Load(path, writeFile(t, "empty.env", ""))
	require.NoError(t, err)

	assert.True(t, cfg.Database.InMemory)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.ExtractionModel)
	assert.Equal(t, 900, cfg.Pipeline.MaxChunkTokens)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.RequestTimeout.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryPolicy().BaseDelay)
	assert.Equal(t, time.Minute, cfg.CircuitBreaker().Timeout)
	assert.True(t, cfg.Graph.MirrorEnabled())
	assert.Equal(t, 60, cfg.Admission().MinQuoteRunes, "unset keys keep defaults")

	aiCfg := ai.NewConfig(cfg.AIOptions()...)
	require.NoError(t, aiCfg.Validate())
	assert.Equal(t, "http://models:8000/v1", aiCfg.ExtractionHost)
	assert.Equal(t, "http://models:8000/v1", aiCfg.EmbeddingHost)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "graphdemo.toml", "[pipeline]\nconcurrency = 4\n")
	t.Setenv("GRAPHDEMO_CONCURRENCY", "8")
	t.Setenv("GRAPHDEMO_EMBEDDING_HOST", "http://embed:9000/v1")
	t.Setenv("GRAPHDEMO_REQUEST_TIMEOUT", "5s")

	cfg, err := Load(path, writeFile(t, "empty.env", ""))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Pipeline.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.RequestTimeout.Duration)

	aiCfg := ai.NewConfig(cfg.AIOptions()...)
	assert.Equal(t, "http://embed:9000/v1", aiCfg.EmbeddingHost)
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("GRAPHDEMO_SERVER_ADDR", "")
	envFile := writeFile(t, "test.env", "GRAPHDEMO_NEO4J_URI=bolt://graph:7687\n")
	t.Cleanup(func() { os.Unsetenv("GRAPHDEMO_NEO4J_URI") })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "bolt://graph:7687", cfg.Graph.Neo4jURI)
	assert.Equal(t, ":8080", cfg.Server.Addr, "empty variables are ignored")
}

func TestLoad_Errors(t *testing.T) {
	empty := writeFile(t, "empty.env", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), empty)
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", "[pipeline\n"), empty)
	assert.Error(t, err)

	_, err = Load(writeFile(t, "dur.toml", "[pipeline]\nrequest_timeout = \"soon\"\n"), empty)
	assert.Error(t, err)

	_, err = Load(writeFile(t, "zero.toml", "[pipeline]\nmax_chunk_tokens = 0\n"), empty)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeFile(t, "tok.toml", "[pipeline]\ntokenizer = \"bytes\"\n"), empty)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("GRAPHDEMO_CONCURRENCY", "many")
	_, err = Load("", empty)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate_DatabasePath(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.Database.InMemory = true
	assert.NoError(t, cfg.Validate())
}
