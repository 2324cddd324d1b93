package reembed

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSorel-Catalyte/graphdemo/ai/mock"
	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/retry"
)

// unnormalized returns [1,2,2] (magnitude 3) for every text.
func unnormalized() *mock.MockEmbedder {
	e := mock.NewMockEmbedder()
	e.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 2, 2}
		}
		return out, nil
	}
	return e
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestBatchProcessor_Process(t *testing.T) {
	stores := setupTestDB(t)
	all := seedEntities(t, stores, 2)
	ctx := context.Background()

	var texts []string
	embedder := unnormalized()
	inner := embedder.EmbedTextsFunc
	embedder.EmbedTextsFunc = func(ctx context.Context, in []string) ([][]float32, error) {
		texts = in
		return inner(ctx, in)
	}

	processor := NewBatchProcessor(stores.Entities, stores.Vectors, embedder, retry.DefaultPolicy())
	require.NoError(t, processor.Process(ctx, all))

	assert.Equal(t, "Concept 0: a test concept", texts[0])

	for _, e := range all {
		stored, err := stores.Entities.GetEntity(ctx, e.Id)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, magnitude(stored.Vector), 1e-6, "vector should be normalized")
	}

	matches, err := stores.Vectors.SearchSimilar(ctx, []float32{1, 2, 2}, core.EntityTypeConcept, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2, "vector index is rewritten")
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	stores := setupTestDB(t)
	embedder := mock.NewMockEmbedder()

	processor := NewBatchProcessor(stores.Entities, stores.Vectors, embedder, retry.DefaultPolicy())
	require.NoError(t, processor.Process(context.Background(), nil))
	assert.Zero(t, embedder.CallCount())
}

func TestBatchProcessor_RetriesThenFails(t *testing.T) {
	stores := setupTestDB(t)
	all := seedEntities(t, stores, 1)

	cause := errors.New("embedding error")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, cause
	}

	processor := NewBatchProcessor(stores.Entities, stores.Vectors, embedder, retry.DefaultPolicy(), noSleep())
	err := processor.Process(context.Background(), all)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, retry.DefaultPolicy().MaxAttempts, embedder.CallCount())
}

func TestBatchProcessor_RetrySucceeds(t *testing.T) {
	stores := setupTestDB(t)
	all := seedEntities(t, stores, 1)

	ok := unnormalized().EmbedTextsFunc
	embedder := mock.NewMockEmbedder()
	attempts := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("temporary error")
		}
		return ok(ctx, texts)
	}

	processor := NewBatchProcessor(stores.Entities, stores.Vectors, embedder, retry.DefaultPolicy(), noSleep())
	require.NoError(t, processor.Process(context.Background(), all))
	assert.Equal(t, 2, attempts)
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	stores := setupTestDB(t)
	all := seedEntities(t, stores, 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}

	processor := NewBatchProcessor(stores.Entities, stores.Vectors, embedder, retry.DefaultPolicy())
	err := processor.Process(context.Background(), all)
	assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)
}
