package storage

import (
	"context"
	"fmt"

	"github.com/CSorel-Catalyte/graphdemo/core"
)

// EntityRepository stores canonical entities and their lexical index.
// Implementations must be thread-safe and support concurrent access.
type EntityRepository interface {
	// AddEntities stores new entities and indexes their lexical keys.
	// Sets CreatedAt and UpdatedAt.
	AddEntities(ctx context.Context, entities ...*core.Entity) error

	// UpdateEntities replaces existing entities and indexes any new lexical keys.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any entity doesn't exist.
	UpdateEntities(ctx context.Context, entities ...*core.Entity) error

	// GetEntity retrieves a single entity by ID.
	// Returns ErrNotFound if the entity doesn't exist.
	GetEntity(ctx context.Context, id core.ID) (*core.Entity, error)

	// GetEntities retrieves multiple entities by their IDs.
	// Returns only the entities that exist (no error for missing entities).
	GetEntities(ctx context.Context, ids ...core.ID) ([]*core.Entity, error)

	// FindByLexicalKeys returns the entities of a type indexed under any of keys.
	// Keys are produced by core.LexicalKeys.
	FindByLexicalKeys(ctx context.Context, entityType core.EntityType, keys ...string) ([]*core.Entity, error)

	// ListByType returns every entity of a type.
	ListByType(ctx context.Context, entityType core.EntityType) ([]*core.Entity, error)

	// GetAllEntities returns every entity ordered by ID.
	GetAllEntities(ctx context.Context) ([]*core.Entity, error)

	// CountEntities returns the number of stored entities.
	CountEntities(ctx context.Context) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// RelationRepository stores admitted relationships and their incidence index.
type RelationRepository interface {
	// GetRelation retrieves a relationship by key.
	// Returns ErrNotFound if it doesn't exist.
	GetRelation(ctx context.Context, key core.RelationKey) (*core.Relationship, error)

	// PutRelation inserts or replaces a relationship.
	PutRelation(ctx context.Context, rel *core.Relationship) error

	// IncidentRelations returns every relationship with id as either endpoint.
	IncidentRelations(ctx context.Context, id core.ID) ([]*core.Relationship, error)

	// GetAllRelations returns every stored relationship.
	GetAllRelations(ctx context.Context) ([]*core.Relationship, error)

	// CountRelations returns the number of stored relationships.
	CountRelations(ctx context.Context) (int, error)

	Close() error
}

// VectorIndex performs nearest-neighbour search over entity embeddings.
type VectorIndex interface {
	// AddVector stores or replaces the vector for an entity.
	AddVector(ctx context.Context, id core.ID, entityType core.EntityType, vector []float32) error

	// SearchSimilar returns up to k entities ranked by cosine similarity, highest first.
	// An empty entityType searches every type.
	SearchSimilar(ctx context.Context, vector []float32, entityType core.EntityType, k int) ([]core.SimilarityMatch, error)
}

// GraphStore is a triple or property-graph view of the knowledge graph.
type GraphStore interface {
	// UpsertEntities writes entity nodes, replacing existing properties.
	UpsertEntities(ctx context.Context, entities ...*core.Entity) error

	// UpsertRelations writes edges between entity nodes.
	UpsertRelations(ctx context.Context, rels ...*core.Relationship) error

	// Neighbors expands up to hops edges from id, returning at most limit nodes.
	Neighbors(ctx context.Context, id core.ID, hops, limit int) (*core.Neighborhood, error)

	Close() error
}

// CheckpointRepository persists progress of resumable maintenance jobs.
type CheckpointRepository interface {
	// SaveCheckpoint stores the checkpoint under its name.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the named checkpoint, or nil if none exists.
	LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the named checkpoint. Missing checkpoints are not an error.
	DeleteCheckpoint(ctx context.Context, name string) error
}

// Neighbor expansion bounds.
const (
	DefaultHops  = 1
	MaxHops      = 3
	DefaultLimit = 200
	MaxLimit     = 1000
)

// ValidateNeighborBounds checks hops and limit against the expansion bounds.
func ValidateNeighborBounds(hops, limit int) error {
	if hops < 1 || hops > MaxHops {
		return fmt.Errorf("%w: hops must be between 1 and %d", ErrInvalidQuery, MaxHops)
	}
	if limit < 1 || limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, MaxLimit)
	}
	return nil
}
