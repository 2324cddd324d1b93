package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

func TestTripleStore_UpsertEntitiesReplacesLiterals(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	entity := &core.Entity{Id: 7, Name: "Attention", Type: core.EntityTypeConcept, Salience: 0.2}
	require.NoError(t, stores.Triples.UpsertEntities(ctx, entity))
	entity.Salience = 0.5
	require.NoError(t, stores.Triples.UpsertEntities(ctx, entity))

	values, err := stores.Triples.Objects(ctx, EntityIRI(7), propSalience)
	require.NoError(t, err)
	assert.Equal(t, []string{"0.5"}, values)

	values, err = stores.Triples.Objects(ctx, EntityIRI(7), propName)
	require.NoError(t, err)
	assert.Equal(t, []string{"Attention"}, values)
}

func TestTripleStore_Neighbors(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	// 1 -> 2 -> 3 -> 4, and 5 -> 1
	require.NoError(t, stores.Triples.UpsertRelations(ctx,
		testRelation(1, 2, core.PredicateUses),
		testRelation(2, 3, core.PredicateExtends),
		testRelation(3, 4, core.PredicateDependsOn),
		testRelation(5, 1, core.PredicateAuthoredBy),
	))

	n, err := stores.Triples.Neighbors(ctx, 1, 1, storage.DefaultLimit)
	require.NoError(t, err)
	assert.Equal(t, core.ID(1), n.Center)
	assert.ElementsMatch(t, []core.ID{2, 5}, n.Nodes)
	assert.Len(t, n.Edges, 2)

	n, err = stores.Triples.Neighbors(ctx, 1, 2, storage.DefaultLimit)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.ID{2, 3, 5}, n.Nodes)
	assert.Contains(t, n.Edges, core.RelationKey{From: 2, To: 3, Predicate: core.PredicateExtends})

	n, err = stores.Triples.Neighbors(ctx, 1, 3, 1)
	require.NoError(t, err)
	assert.Len(t, n.Nodes, 1)
}

func TestTripleStore_NeighborsBounds(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	_, err := stores.Triples.Neighbors(ctx, 1, 0, 10)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	_, err = stores.Triples.Neighbors(ctx, 1, 4, 10)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	_, err = stores.Triples.Neighbors(ctx, 1, 1, 1001)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	n, err := stores.Triples.Neighbors(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, n.Nodes)
}

func TestEntityIRI(t *testing.T) {
	assert.Equal(t, "http://knowledge-mapper.ai/kg/entity/42", EntityIRI(42))
	assert.Equal(t, "http://knowledge-mapper.ai/kg/predicate/uses", PredicateIRI(core.PredicateUses))

	id, ok := parseEntityIRI(EntityIRI(42))
	assert.True(t, ok)
	assert.Equal(t, core.ID(42), id)

	_, ok = parseEntityIRI(propName)
	assert.False(t, ok)
}
