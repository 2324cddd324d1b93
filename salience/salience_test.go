package salience

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage/badger"
)

func newScorer(t *testing.T) (*Scorer, *badger.Stores) {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	s, err := NewScorer(stores.Relations)
	require.NoError(t, err)
	return s, stores
}

func spans(n int) []core.SourceSpan {
	out := make([]core.SourceSpan, n)
	for i := range out {
		out[i] = core.SourceSpan{DocID: "d", Start: i * 10, End: i*10 + 5}
	}
	return out
}

func TestNewScorer_RequiresRepository(t *testing.T) {
	_, err := NewScorer(nil)
	assert.ErrorIs(t, err, ErrRelationRepositoryRequired)
}

func TestFrequency(t *testing.T) {
	s, _ := newScorer(t)
	assert.Equal(t, 0.0, s.Frequency(0))
	assert.InDelta(t, 0.2, s.Frequency(1), 1e-9)
	assert.InDelta(t, 0.5, s.Frequency(4), 1e-9)
	assert.Less(t, s.Frequency(1000), 1.0)
}

func TestScore_Signals(t *testing.T) {
	s, stores := newScorer(t)
	ctx := context.Background()
	entity := &core.Entity{Id: 1, SourceSpans: spans(4)}

	score, err := s.Score(ctx, entity, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-9, "frequency only")

	score, err = s.Score(ctx, entity, 0.8)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, score, 1e-9, "hint dominates")

	for _, to := range []core.ID{2, 3} {
		require.NoError(t, stores.Relations.PutRelation(ctx, &core.Relationship{
			From: 1, To: to, Predicate: core.PredicateUses, Confidence: 0.35,
			Evidence: []core.Evidence{{Quote: "q"}},
		}))
	}
	score, err = s.Score(ctx, entity, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, score, 1e-9, "incident confidences sum")

	require.NoError(t, stores.Relations.PutRelation(ctx, &core.Relationship{
		From: 4, To: 1, Predicate: core.PredicateExtends, Confidence: 0.9,
		Evidence: []core.Evidence{{Quote: "q"}},
	}))
	score, err = s.Score(ctx, entity, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score, "clamped")
}

func TestScore_DuplicateSpansCountOnce(t *testing.T) {
	s, _ := newScorer(t)
	span := core.SourceSpan{DocID: "d", Start: 0, End: 5}

	score, err := s.Score(context.Background(), &core.Entity{Id: 1, SourceSpans: []core.SourceSpan{span, span, span, span}}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, score, 1e-9)
}

func TestScore_NeverDecreases(t *testing.T) {
	s, _ := newScorer(t)

	score, err := s.Score(context.Background(), &core.Entity{Id: 1, Salience: 0.9, SourceSpans: spans(1)}, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 0.9, score)
}

func TestRescore(t *testing.T) {
	s, _ := newScorer(t)
	entities := []*core.Entity{
		{Id: 1, SourceSpans: spans(1)},
		{Id: 2, SourceSpans: spans(4)},
	}

	scores, err := s.Rescore(context.Background(), entities, map[core.ID]float64{1: 2.5})
	require.NoError(t, err)
	assert.Equal(t, 1.0, scores[1])
	assert.InDelta(t, 0.5, scores[2], 1e-9)
	for _, v := range scores {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
