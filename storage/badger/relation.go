package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

// RelationRepository implements storage.RelationRepository for BadgerDB.
type RelationRepository struct {
	backend *Backend
}

var _ storage.RelationRepository = (*RelationRepository)(nil)

// NewRelationRepository creates a new RelationRepository.
func NewRelationRepository(backend *Backend) (*RelationRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &RelationRepository{backend: backend}, nil
}

// Close releases resources. RelationRepository has no resources to release.
func (r *RelationRepository) Close() error {
	return nil
}

// GetRelation retrieves a relationship by key.
func (r *RelationRepository) GetRelation(ctx context.Context, key core.RelationKey) (*core.Relationship, error) {
	var result *core.Relationship
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRelation(tx, makeRelationKey(key))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// PutRelation inserts or replaces a relationship and indexes both endpoints.
func (r *RelationRepository) PutRelation(ctx context.Context, rel *core.Relationship) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		if rel.CreatedAt.IsZero() {
			rel.CreatedAt = now
		}
		rel.UpdatedAt = now

		key := rel.Key()
		if err := tx.Set(makeRelationKey(key), storage.MarshalRelationship(rel)); err != nil {
			return err
		}
		if err := tx.Set(makeIncidenceKey(rel.From, key), nil); err != nil {
			return err
		}
		if rel.To != rel.From {
			if err := tx.Set(makeIncidenceKey(rel.To, key), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// IncidentRelations returns every relationship touching id.
func (r *RelationRepository) IncidentRelations(ctx context.Context, id core.ID) ([]*core.Relationship, error) {
	var result []*core.Relationship
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeIncidencePrefix(id)
		var keys []core.RelationKey
		err := scanPrefix(tx, prefix, false, func(item *badger.Item) error {
			if key, ok := parseRelationKey(item.KeyCopy(nil)[len(prefix):]); ok {
				keys = append(keys, key)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, key := range keys {
			rel, err := readRelation(tx, makeRelationKey(key))
			if err != nil {
				return err
			}
			if rel != nil {
				result = append(result, rel)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetAllRelations retrieves all relationships from storage.
func (r *RelationRepository) GetAllRelations(ctx context.Context) ([]*core.Relationship, error) {
	var result []*core.Relationship
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(relationPrefix), true, func(item *badger.Item) error {
			return item.Value(func(val []byte) error {
				rel, err := storage.UnmarshalRelationship(val)
				if err != nil {
					return err
				}
				result = append(result, rel)
				return nil
			})
		})
	}, false)
	return result, err
}

// CountRelations returns the number of stored relationships.
func (r *RelationRepository) CountRelations(ctx context.Context) (int, error) {
	return r.backend.countPrefix([]byte(relationPrefix))
}

// readRelation reads a relationship from the transaction.
// Returns nil, nil when the key does not exist.
func readRelation(tx *badger.Txn, key []byte) (*core.Relationship, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var rel *core.Relationship
	err = item.Value(func(val []byte) error {
		var err error
		rel, err = storage.UnmarshalRelationship(val)
		return err
	})
	return rel, err
}
