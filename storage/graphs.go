package storage

import (
	"context"
	"errors"

	"github.com/CSorel-Catalyte/graphdemo/core"
)

// GraphStores writes to every store in order and answers queries from the first.
type GraphStores []GraphStore

var _ GraphStore = GraphStores(nil)

// UpsertEntities writes to each store, stopping at the first failure.
func (g GraphStores) UpsertEntities(ctx context.Context, entities ...*core.Entity) error {
	for _, s := range g {
		if err := s.UpsertEntities(ctx, entities...); err != nil {
			return err
		}
	}
	return nil
}

// UpsertRelations writes to each store, stopping at the first failure.
func (g GraphStores) UpsertRelations(ctx context.Context, rels ...*core.Relationship) error {
	for _, s := range g {
		if err := s.UpsertRelations(ctx, rels...); err != nil {
			return err
		}
	}
	return nil
}

// Neighbors queries the first store.
func (g GraphStores) Neighbors(ctx context.Context, id core.ID, hops, limit int) (*core.Neighborhood, error) {
	if len(g) == 0 {
		return nil, ErrNotFound
	}
	return g[0].Neighbors(ctx, id, hops, limit)
}

// Close closes every store.
func (g GraphStores) Close() error {
	var errs []error
	for _, s := range g {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
