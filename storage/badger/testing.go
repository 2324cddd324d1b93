package badger

import "errors"

// Stores bundles every badger-backed store over one backend.
type Stores struct {
	Backend     *Backend
	Entities    *EntityRepository
	Relations   *RelationRepository
	Vectors     *VectorIndex
	Triples     *TripleStore
	Checkpoints *CheckpointRepository
}

// OpenStores opens a backend at path and builds every store over it.
// An empty path with inMemory set keeps everything in memory.
func OpenStores(path string, inMemory bool) (*Stores, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	// Constructors only fail on a nil backend.
	entities, _ := NewEntityRepository(backend)
	relations, _ := NewRelationRepository(backend)
	vectors, _ := NewVectorIndex(backend)
	triples, _ := NewTripleStore(backend)
	checkpoints, _ := NewCheckpointRepository(backend)

	return &Stores{
		Backend:     backend,
		Entities:    entities,
		Relations:   relations,
		Vectors:     vectors,
		Triples:     triples,
		Checkpoints: checkpoints,
	}, nil
}

// NewMemoryStores creates in-memory stores for testing.
// Caller must Close the result when done.
func NewMemoryStores() (*Stores, error) {
	return OpenStores("", true)
}

// Close closes every store and then the backend.
func (s *Stores) Close() error {
	return errors.Join(
		s.Entities.Close(),
		s.Relations.Close(),
		s.Triples.Close(),
		s.Backend.Close(),
	)
}
