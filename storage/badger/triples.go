package badger

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

// Namespace is the IRI prefix of every term written by TripleStore.
const Namespace = "http://knowledge-mapper.ai/kg/"

const (
	entityNS    = Namespace + "entity/"
	predicateNS = Namespace + "predicate/"

	propName     = Namespace + "name"
	propType     = Namespace + "type"
	propSalience = Namespace + "salience"

	// literalMark starts every literal object so it never parses as an IRI.
	literalMark = "\""
)

// EntityIRI returns the subject term of an entity.
func EntityIRI(id core.ID) string {
	return entityNS + strconv.FormatUint(uint64(id), 10)
}

// PredicateIRI returns the predicate term of a relationship kind.
func PredicateIRI(p core.Predicate) string {
	return predicateNS + string(p)
}

func parseEntityIRI(term string) (core.ID, bool) {
	rest, ok := strings.CutPrefix(term, entityNS)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return core.ID(v), true
}

func literal(v string) string {
	return literalMark + v
}

// TripleStore implements storage.GraphStore as subject-predicate-object triples.
// Every triple is written twice, under an SPO key and an OSP key, so both
// outgoing and incoming edges are a prefix scan away.
type TripleStore struct {
	backend *Backend
}

var _ storage.GraphStore = (*TripleStore)(nil)

// NewTripleStore creates a new TripleStore.
func NewTripleStore(backend *Backend) (*TripleStore, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &TripleStore{backend: backend}, nil
}

// Close releases resources. TripleStore has no resources to release.
func (s *TripleStore) Close() error {
	return nil
}

// UpsertEntities writes the name, type and salience literals of each entity,
// replacing previous values.
func (s *TripleStore) UpsertEntities(ctx context.Context, entities ...*core.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, entity := range entities {
			subject := EntityIRI(entity.Id)
			props := [][2]string{
				{propName, entity.Name},
				{propType, string(entity.Type)},
				{propSalience, strconv.FormatFloat(entity.Salience, 'f', -1, 64)},
			}
			for _, prop := range props {
				if err := replaceLiteral(tx, subject, prop[0], literal(prop[1])); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// UpsertRelations writes one edge triple per relationship.
func (s *TripleStore) UpsertRelations(ctx context.Context, rels ...*core.Relationship) error {
	if len(rels) == 0 {
		return nil
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, rel := range rels {
			if err := putTriple(tx, EntityIRI(rel.From), PredicateIRI(rel.Predicate), EntityIRI(rel.To)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Neighbors expands breadth-first along edges in both directions.
// The center is not counted against limit and is not included in Nodes.
func (s *TripleStore) Neighbors(ctx context.Context, id core.ID, hops, limit int) (*core.Neighborhood, error) {
	if err := storage.ValidateNeighborBounds(hops, limit); err != nil {
		return nil, err
	}

	result := &core.Neighborhood{Center: id}
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		seen := map[core.ID]bool{id: true}
		seenEdge := make(map[core.RelationKey]bool)
		frontier := []core.ID{id}

		for hop := 0; hop < hops && len(frontier) > 0; hop++ {
			var next []core.ID
			for _, node := range frontier {
				if err := ctx.Err(); err != nil {
					return err
				}
				edges, err := edgesOf(tx, node)
				if err != nil {
					return err
				}
				for _, edge := range edges {
					other := edge.To
					if other == node {
						other = edge.From
					}
					if !seen[other] {
						if len(result.Nodes) >= limit {
							continue
						}
						seen[other] = true
						result.Nodes = append(result.Nodes, other)
						next = append(next, other)
					}
					if !seenEdge[edge] {
						seenEdge[edge] = true
						result.Edges = append(result.Edges, edge)
					}
				}
			}
			frontier = next
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// edgesOf returns every relationship edge with node as subject or object.
func edgesOf(tx *badger.Txn, node core.ID) ([]core.RelationKey, error) {
	term := EntityIRI(node)
	var edges []core.RelationKey

	prefix := makeTriplePrefix(spoPrefix, term)
	err := scanPrefix(tx, prefix, false, func(item *badger.Item) error {
		p, o, ok := splitTerms(item.Key()[len(prefix):])
		if !ok {
			return nil
		}
		if key, ok := edgeKey(term, p, o); ok {
			edges = append(edges, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prefix = makeTriplePrefix(ospPrefix, term)
	err = scanPrefix(tx, prefix, false, func(item *badger.Item) error {
		subject, p, ok := splitTerms(item.Key()[len(prefix):])
		if !ok {
			return nil
		}
		if key, ok := edgeKey(subject, p, term); ok {
			edges = append(edges, key)
		}
		return nil
	})
	return edges, err
}

func edgeKey(s, p, o string) (core.RelationKey, bool) {
	name, ok := strings.CutPrefix(p, predicateNS)
	if !ok {
		return core.RelationKey{}, false
	}
	from, ok := parseEntityIRI(s)
	if !ok {
		return core.RelationKey{}, false
	}
	to, ok := parseEntityIRI(o)
	if !ok {
		return core.RelationKey{}, false
	}
	return core.RelationKey{From: from, To: to, Predicate: core.Predicate(name)}, true
}

func splitTerms(rest []byte) (string, string, bool) {
	i := bytes.IndexByte(rest, sep)
	if i < 0 {
		return "", "", false
	}
	return string(rest[:i]), string(rest[i+1:]), true
}

func putTriple(tx *badger.Txn, s, p, o string) error {
	if err := tx.Set(makeTripleKey(spoPrefix, s, p, o), nil); err != nil {
		return err
	}
	return tx.Set(makeTripleKey(ospPrefix, o, s, p), nil)
}

// replaceLiteral removes every (s, p, *) triple before writing (s, p, o).
func replaceLiteral(tx *badger.Txn, s, p, o string) error {
	prefix := makeTriplePrefix(spoPrefix, s)
	prefix = append(prefix, p...)
	prefix = append(prefix, sep)

	var old []string
	err := scanPrefix(tx, prefix, false, func(item *badger.Item) error {
		old = append(old, string(item.Key()[len(prefix):]))
		return nil
	})
	if err != nil {
		return err
	}
	for _, value := range old {
		if err := tx.Delete(makeTripleKey(spoPrefix, s, p, value)); err != nil {
			return err
		}
		if err := tx.Delete(makeTripleKey(ospPrefix, value, s, p)); err != nil {
			return err
		}
	}
	return putTriple(tx, s, p, o)
}

// Objects returns the objects of every (subject, predicate, *) triple.
// Literal objects are returned without their marker.
func (s *TripleStore) Objects(ctx context.Context, subject, predicate string) ([]string, error) {
	var result []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeTriplePrefix(spoPrefix, subject)
		prefix = append(prefix, predicate...)
		prefix = append(prefix, sep)
		return scanPrefix(tx, prefix, false, func(item *badger.Item) error {
			result = append(result, strings.TrimPrefix(string(item.Key()[len(prefix):]), literalMark))
			return nil
		})
	}, false)
	return result, err
}
