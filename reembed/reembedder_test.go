package reembed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSorel-Catalyte/graphdemo/ai/mock"
	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/retry"
)

func testConfig(batch int) Config {
	return Config{BatchSize: batch, ReportInterval: batch, Retry: retry.DefaultPolicy()}
}

func TestNewReembedder(t *testing.T) {
	stores := setupTestDB(t)
	embedder := mock.NewMockEmbedder()

	_, err := NewReembedder(nil, stores.Vectors, embedder)
	assert.Equal(t, ErrEntityRepositoryRequired, err)
	_, err = NewReembedder(stores.Entities, nil, embedder)
	assert.Equal(t, ErrVectorIndexRequired, err)
	_, err = NewReembedder(stores.Entities, stores.Vectors, nil)
	assert.Equal(t, ErrEmbedderRequired, err)

	_, err = NewReembedder(stores.Entities, stores.Vectors, embedder, WithConfig(Config{BatchSize: 1}))
	assert.ErrorIs(t, err, retry.ErrInvalidMaxAttempts)
}

func TestReembedder_Run(t *testing.T) {
	stores := setupTestDB(t)
	seedEntities(t, stores, 10)
	ctx := context.Background()

	var buf bytes.Buffer
	r, err := NewReembedder(stores.Entities, stores.Vectors, unnormalized(),
		WithConfig(testConfig(3)), WithCheckpoints(stores.Checkpoints), WithProgress(&buf))
	require.NoError(t, err)

	n, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	all, err := stores.Entities.GetAllEntities(ctx)
	require.NoError(t, err)
	for _, e := range all {
		assert.InDelta(t, 1.0, magnitude(e.Vector), 1e-6, "entity %d should have a normalized vector", e.Id)
	}

	assert.Contains(t, buf.String(), "10/10")
	cp, err := stores.Checkpoints.LoadCheckpoint(ctx, CheckpointName)
	require.NoError(t, err)
	assert.Nil(t, cp, "checkpoint is cleared after a complete run")
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	stores := setupTestDB(t)

	var buf bytes.Buffer
	r, err := NewReembedder(stores.Entities, stores.Vectors, mock.NewMockEmbedder(), WithProgress(&buf))
	require.NoError(t, err)

	n, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, buf.String(), "0 entities")
}

func TestReembedder_ResumesFromCheckpoint(t *testing.T) {
	stores := setupTestDB(t)
	all := seedEntities(t, stores, 6)
	ctx := context.Background()

	// First run fails on the second batch.
	calls := 0
	failing := mock.NewMockEmbedder()
	ok := unnormalized().EmbedTextsFunc
	failing.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("model unavailable")
		}
		return ok(ctx, texts)
	}

	r, err := NewReembedder(stores.Entities, stores.Vectors, failing,
		WithConfig(testConfig(2)), WithCheckpoints(stores.Checkpoints), WithRetryOptions(noSleep()))
	require.NoError(t, err)

	n, err := r.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, n)

	cp, err := stores.Checkpoints.LoadCheckpoint(ctx, CheckpointName)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, all[1].Id, cp.LastID)
	assert.Equal(t, 2, cp.Processed)

	// Second run picks up after the checkpoint.
	var seen []string
	resumed := unnormalized()
	inner := resumed.EmbedTextsFunc
	resumed.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		seen = append(seen, texts...)
		return inner(ctx, texts)
	}

	var buf bytes.Buffer
	r, err = NewReembedder(stores.Entities, stores.Vectors, resumed,
		WithConfig(testConfig(2)), WithCheckpoints(stores.Checkpoints), WithProgress(&buf))
	require.NoError(t, err)

	n, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, seen, 4)
	assert.Equal(t, core.EmbeddingText(all[2].Name, all[2].Summary), seen[0])

	out := buf.String()
	assert.Contains(t, out, fmt.Sprintf("Resuming after entity %d, 2 already done", all[1].Id))
	assert.Contains(t, out, "6/6 entities")
	assert.Contains(t, out, "Processed 4 entities")
}

func TestReembedder_WithoutCheckpointsStartsOver(t *testing.T) {
	stores := setupTestDB(t)
	seedEntities(t, stores, 3)

	r, err := NewReembedder(stores.Entities, stores.Vectors, unnormalized(), WithConfig(testConfig(2)))
	require.NoError(t, err)

	for range 2 {
		n, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	}
}
