package badger

import (
	"context"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

// VectorIndex implements storage.VectorIndex as a linear scan over badger keys.
type VectorIndex struct {
	backend *Backend
}

var _ storage.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates a new VectorIndex.
func NewVectorIndex(backend *Backend) (*VectorIndex, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &VectorIndex{backend: backend}, nil
}

// AddVector stores or replaces the vector for an entity.
func (v *VectorIndex) AddVector(ctx context.Context, id core.ID, entityType core.EntityType, vector []float32) error {
	if len(vector) == 0 {
		return storage.ErrInvalidQuery
	}
	return v.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeVectorKey(entityType, id), storage.MarshalVector(vector)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SearchSimilar scans the vectors of entityType and returns the k best by cosine similarity.
// Ties are broken by the lower ID.
func (v *VectorIndex) SearchSimilar(ctx context.Context, vector []float32, entityType core.EntityType, k int) ([]core.SimilarityMatch, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, nil
	}

	var results []core.SimilarityMatch
	err := v.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeVectorPrefix(entityType)
		return scanPrefix(tx, prefix, true, func(item *badger.Item) error {
			key := item.Key()
			if len(key) < 8 {
				return nil
			}
			id := readID(key[len(key)-8:])
			return item.Value(func(val []byte) error {
				stored, err := storage.UnmarshalVector(val)
				if err != nil {
					return err
				}
				results = append(results, core.SimilarityMatch{
					EntityId: id,
					Score:    Cosine(vector, stored),
				})
				return nil
			})
		})
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b core.SimilarityMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.EntityId < b.EntityId {
			return -1
		}
		if a.EntityId > b.EntityId {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is zero.
// Vectors of different length are compared over their common prefix.
func Cosine(a, b []float32) float32 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
