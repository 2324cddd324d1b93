package admission

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
	"github.com/CSorel-Catalyte/graphdemo/storage/badger"
)

var longQuote = strings.Repeat("q", 60)

func newFilter(t *testing.T) (*Filter, *badger.Stores) {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	f, err := NewFilter(stores.Relations)
	require.NoError(t, err)
	return f, stores
}

func candidate(confidence float64, quotes ...string) core.CandidateRelation {
	c := core.CandidateRelation{Predicate: core.PredicateUses, Confidence: confidence, Directional: true}
	for i, q := range quotes {
		c.Evidence = append(c.Evidence, core.Evidence{DocID: "d1", Quote: q, Offset: i})
	}
	return c
}

func TestNewFilter_RequiresRepository(t *testing.T) {
	_, err := NewFilter(nil)
	assert.ErrorIs(t, err, ErrRelationRepositoryRequired)
}

func TestAdmit_Thresholds(t *testing.T) {
	f, _ := newFilter(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		from   core.ID
		c      core.CandidateRelation
		reason Reason
		admit  bool
	}{
		{"low confidence", 1, candidate(0.40, longQuote), ReasonLowConfidence, false},
		{"just below confidence", 1, candidate(0.549, longQuote), ReasonLowConfidence, false},
		{"short quote", 1, candidate(0.9, strings.Repeat("q", 59)), ReasonWeakEvidence, false},
		{"self reference", 2, candidate(0.9, longQuote), ReasonSelfReference, false},
		{"boundary", 1, candidate(0.55, "short", longQuote), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := f.Admit(ctx, tt.from, 2, tt.c)
			require.NoError(t, err)
			assert.Equal(t, tt.admit, d.Admitted)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestAdmit_QuoteLengthCountsRunes(t *testing.T) {
	f, _ := newFilter(t)
	quote := strings.Repeat("é", 60)

	d, err := f.Admit(context.Background(), 1, 2, candidate(0.9, quote))
	require.NoError(t, err)
	assert.True(t, d.Admitted)
}

func TestAdmit_MergesReobservation(t *testing.T) {
	f, stores := newFilter(t)
	ctx := context.Background()

	first, err := f.Admit(ctx, 1, 2, candidate(0.6, longQuote))
	require.NoError(t, err)
	assert.True(t, first.Created)

	other := strings.Repeat("z", 70)
	second, err := f.Admit(ctx, 1, 2, candidate(0.9, other))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.True(t, second.Changed)

	lower, err := f.Admit(ctx, 1, 2, candidate(0.7, longQuote))
	require.NoError(t, err)
	assert.False(t, lower.Changed, "nothing new to merge")

	stored, err := stores.Relations.GetRelation(ctx, core.RelationKey{From: 1, To: 2, Predicate: core.PredicateUses})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, stored.Confidence, 1e-9)
	assert.Len(t, stored.Evidence, 2)

	count, err := stores.Relations.CountRelations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAdmit_StorageFailure(t *testing.T) {
	f, stores := newFilter(t)
	require.NoError(t, stores.Backend.Close())

	_, err := f.Admit(context.Background(), 1, 2, candidate(0.9, longQuote))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestAdmittedRelationsHoldInvariants(t *testing.T) {
	f, stores := newFilter(t)
	ctx := context.Background()

	for i, conf := range []float64{0.1, 0.54, 0.55, 0.8, 1.0} {
		for _, q := range []string{"tiny", longQuote} {
			_, err := f.Admit(ctx, core.ID(i+1), core.ID(i+100), candidate(conf, q))
			require.NoError(t, err)
		}
	}

	all, err := stores.Relations.GetAllRelations(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	for _, rel := range all {
		assert.GreaterOrEqual(t, rel.Confidence, 0.55)
		hasLong := false
		for _, ev := range rel.Evidence {
			hasLong = hasLong || len([]rune(ev.Quote)) >= 60
		}
		assert.True(t, hasLong)
	}
}
