package reembed

import (
	"context"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

const (
	// DefaultBatchSize is the default number of entities embedded per call.
	DefaultBatchSize = 100
)

// EntityIterator visits entities in ID order, in batches.
type EntityIterator struct {
	repo      storage.EntityRepository
	batchSize int
}

// NewEntityIterator creates a new entity iterator.
// A batchSize <= 0 uses DefaultBatchSize.
func NewEntityIterator(repo storage.EntityRepository, batchSize int) *EntityIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &EntityIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of entities with an ID greater than after.
// Iteration stops on the first error from fn.
// Context cancellation is checked between batches.
func (it *EntityIterator) ForEach(ctx context.Context, after core.ID, fn func([]*core.Entity) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entities, err := it.repo.GetAllEntities(ctx)
	if err != nil {
		return err
	}

	// GetAllEntities is ordered by ID, so the resume point is a prefix.
	start := 0
	for start < len(entities) && entities[start].Id <= after {
		start++
	}
	entities = entities[start:]

	for i := 0; i < len(entities); i += it.batchSize {
		end := min(i+it.batchSize, len(entities))
		if err := fn(entities[i:end]); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
