package mock

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/CSorel-Catalyte/graphdemo/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()

	a, err := m.EmbedText(context.Background(), "transformer")
	require.NoError(t, err)
	b, err := m.EmbedText(context.Background(), "transformer")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultDimension)
	assert.Equal(t, 2, m.CallCount())

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)
}

func TestMockEmbedder_ConcurrentCalls(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedTexts(context.Background(), []string{"a", "b"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, m.CallCount())
}

func TestMockExtractor_DefaultAndInjected(t *testing.T) {
	m := NewMockExtractor()

	ex, err := m.Extract(context.Background(), "BERT uses the Transformer, and BERT is big.")
	require.NoError(t, err)
	require.Len(t, ex.Entities, 2)
	assert.Equal(t, "BERT", ex.Entities[0].Name)
	assert.Equal(t, "Transformer", ex.Entities[1].Name)

	boom := errors.New("boom")
	m.ExtractFunc = func(context.Context, string) (*ai.Extraction, error) { return nil, boom }
	_, err = m.Extract(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, m.CallCount())

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider().(*MockProvider)

	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	assert.Same(t, p.GetMockExtractor(), p.Extractor())
	assert.NoError(t, p.Close())
}
