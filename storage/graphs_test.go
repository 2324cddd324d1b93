package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CSorel-Catalyte/graphdemo/core"
)

type recordingGraph struct {
	name     string
	log      *[]string
	err      error
	closeErr error
}

func (r *recordingGraph) UpsertEntities(ctx context.Context, entities ...*core.Entity) error {
	*r.log = append(*r.log, r.name+":entities")
	return r.err
}

func (r *recordingGraph) UpsertRelations(ctx context.Context, rels ...*core.Relationship) error {
	*r.log = append(*r.log, r.name+":relations")
	return r.err
}

func (r *recordingGraph) Neighbors(ctx context.Context, id core.ID, hops, limit int) (*core.Neighborhood, error) {
	return &core.Neighborhood{Center: id, Nodes: []core.ID{core.ID(len(r.name))}}, nil
}

func (r *recordingGraph) Close() error { return r.closeErr }

func TestGraphStores_WritesInOrder(t *testing.T) {
	var log []string
	g := GraphStores{&recordingGraph{name: "a", log: &log}, &recordingGraph{name: "bb", log: &log}}

	assert.NoError(t, g.UpsertEntities(context.Background()))
	assert.NoError(t, g.UpsertRelations(context.Background()))
	assert.Equal(t, []string{"a:entities", "bb:entities", "a:relations", "bb:relations"}, log)

	n, err := g.Neighbors(context.Background(), 7, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, []core.ID{1}, n.Nodes, "answered by the first store")
}

func TestGraphStores_StopsAtFirstFailure(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	g := GraphStores{&recordingGraph{name: "a", log: &log, err: boom}, &recordingGraph{name: "b", log: &log}}

	assert.ErrorIs(t, g.UpsertEntities(context.Background()), boom)
	assert.Equal(t, []string{"a:entities"}, log)
}

func TestGraphStores_CloseJoinsErrors(t *testing.T) {
	var log []string
	first, second := errors.New("first"), errors.New("second")
	g := GraphStores{
		&recordingGraph{name: "a", log: &log, closeErr: first},
		&recordingGraph{name: "b", log: &log, closeErr: second},
	}

	err := g.Close()
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestGraphStores_Empty(t *testing.T) {
	_, err := GraphStores{}.Neighbors(context.Background(), 1, 1, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, GraphStores{}.Close())
}
