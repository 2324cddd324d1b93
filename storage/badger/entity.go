package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

// EntityRepository implements storage.EntityRepository for BadgerDB.
type EntityRepository struct {
	backend *Backend
}

var _ storage.EntityRepository = (*EntityRepository)(nil)

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(backend *Backend) (*EntityRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &EntityRepository{
		backend: backend,
	}, nil
}

// Close releases resources. EntityRepository has no resources to release.
func (r *EntityRepository) Close() error {
	return nil
}

// AddEntities adds one or more entities to storage.
func (r *EntityRepository) AddEntities(ctx context.Context, entities ...*core.Entity) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, entity := range entities {
			// Use content-based ID if not set
			if entity.Id == 0 {
				entity.Id = core.EntityIDFor(entity.Name, entity.Type)
			}
			if entity.CreatedAt.IsZero() {
				entity.CreatedAt = now
			}
			entity.UpdatedAt = now

			if err := tx.Set(makeEntityKey(entity.Id), storage.MarshalEntity(entity)); err != nil {
				return err
			}
			if err := indexLexical(tx, entity); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// UpdateEntities updates existing entities.
func (r *EntityRepository) UpdateEntities(ctx context.Context, entities ...*core.Entity) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, entity := range entities {
			key := makeEntityKey(entity.Id)

			old, err := readEntity(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			if entity.CreatedAt.IsZero() {
				entity.CreatedAt = old.CreatedAt
			}
			entity.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalEntity(entity)); err != nil {
				return err
			}
			// Aliases only grow, so existing index keys stay valid.
			if err := indexLexical(tx, entity); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEntity retrieves a single entity by ID.
func (r *EntityRepository) GetEntity(ctx context.Context, id core.ID) (*core.Entity, error) {
	var result *core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEntity(tx, makeEntityKey(id))
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

// GetEntities retrieves multiple entities by their IDs.
func (r *EntityRepository) GetEntities(ctx context.Context, ids ...core.ID) ([]*core.Entity, error) {
	var result []*core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			entity, err := readEntity(tx, makeEntityKey(id))
			if err != nil {
				return err
			}
			if entity != nil {
				result = append(result, entity)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindByLexicalKeys returns the entities of a type indexed under any of keys, ordered by ID.
func (r *EntityRepository) FindByLexicalKeys(ctx context.Context, entityType core.EntityType, keys ...string) ([]*core.Entity, error) {
	var result []*core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seen := make(map[core.ID]bool)
		var ids []core.ID
		for _, k := range keys {
			prefix := makeLexicalPrefix(entityType, k)
			err := scanPrefix(tx, prefix, false, func(item *badger.Item) error {
				key := item.Key()
				if len(key) != len(prefix)+8 {
					return nil
				}
				id := readID(key[len(prefix):])
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		slices.Sort(ids)
		for _, id := range ids {
			entity, err := readEntity(tx, makeEntityKey(id))
			if err != nil {
				return err
			}
			if entity != nil {
				result = append(result, entity)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListByType returns every entity of a type, ordered by ID.
func (r *EntityRepository) ListByType(ctx context.Context, entityType core.EntityType) ([]*core.Entity, error) {
	var result []*core.Entity
	err := r.scan(func(e *core.Entity) {
		if e.Type == entityType {
			result = append(result, e)
		}
	})
	return result, err
}

// GetAllEntities retrieves all entities from storage, ordered by ID.
func (r *EntityRepository) GetAllEntities(ctx context.Context) ([]*core.Entity, error) {
	var result []*core.Entity
	err := r.scan(func(e *core.Entity) {
		result = append(result, e)
	})
	return result, err
}

// CountEntities returns the number of stored entities.
func (r *EntityRepository) CountEntities(ctx context.Context) (int, error) {
	return r.backend.countPrefix([]byte(entityPrefix))
}

func (r *EntityRepository) scan(fn func(*core.Entity)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(entityPrefix), true, func(item *badger.Item) error {
			return item.Value(func(val []byte) error {
				entity, err := storage.UnmarshalEntity(val)
				if err != nil {
					return err
				}
				fn(entity)
				return nil
			})
		})
	}, false)
}

// indexLexical writes an index key for every lexical key of the entity.
func indexLexical(tx *badger.Txn, entity *core.Entity) error {
	names := append([]string{entity.Name}, entity.Aliases...)
	for _, k := range core.LexicalKeys(names...) {
		if err := tx.Set(makeLexicalKey(entity.Type, k, entity.Id), nil); err != nil {
			return err
		}
	}
	return nil
}

// readEntity reads an entity from the transaction.
// Returns nil, nil when the key does not exist.
func readEntity(tx *badger.Txn, key []byte) (*core.Entity, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entity *core.Entity
	err = item.Value(func(val []byte) error {
		var err error
		entity, err = storage.UnmarshalEntity(val)
		return err
	})
	return entity, err
}
