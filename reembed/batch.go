package reembed

import (
	"context"
	"fmt"

	"github.com/CSorel-Catalyte/graphdemo/ai"
	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/retry"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

// BatchProcessor embeds batches of entities and stores the new vectors.
type BatchProcessor struct {
	entities  storage.EntityRepository
	vectors   storage.VectorIndex
	embedder  ai.Embedder
	policy    retry.Policy
	retryOpts []retry.Option
}

// NewBatchProcessor creates a new batch processor.
// Embedding calls are retried according to policy.
func NewBatchProcessor(entities storage.EntityRepository, vectors storage.VectorIndex, embedder ai.Embedder, policy retry.Policy, opts ...retry.Option) *BatchProcessor {
	return &BatchProcessor{
		entities:  entities,
		vectors:   vectors,
		embedder:  embedder,
		policy:    policy,
		retryOpts: opts,
	}
}

// Process embeds each entity from its name and summary, normalizes the vector,
// and writes it to both the entity record and the vector index.
func (bp *BatchProcessor) Process(ctx context.Context, entities []*core.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	texts := make([]string, len(entities))
	for i, entity := range entities {
		texts[i] = core.EmbeddingText(entity.Name, entity.Summary)
	}

	var embeddings [][]float32
	err := retry.Do(ctx, bp.policy, func(ctx context.Context) error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, nil, bp.retryOpts...)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(embeddings) != len(entities) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(entities), len(embeddings))
	}

	for i, entity := range entities {
		entity.Vector = core.NormalizeVector(embeddings[i])
	}

	if err := bp.entities.UpdateEntities(ctx, entities...); err != nil {
		return fmt.Errorf("failed to update entities: %w", err)
	}
	for _, entity := range entities {
		if len(entity.Vector) == 0 {
			continue
		}
		if err := bp.vectors.AddVector(ctx, entity.Id, entity.Type, entity.Vector); err != nil {
			return fmt.Errorf("failed to index vector for entity %d: %w", entity.Id, err)
		}
	}

	return nil
}
