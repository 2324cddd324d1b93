// Package neo4j mirrors the knowledge graph into a Neo4j-compatible
// property graph (Neo4j or Memgraph) with Cypher MERGE statements.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

// ErrExecutorRequired is returned when a Store is built without an executor.
var ErrExecutorRequired = errors.New("query executor is required")

// Executor runs a single Cypher statement and returns every record.
type Executor interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
	Close(ctx context.Context) error
}

// driverExecutor runs statements through a driver with neo4j.ExecuteQuery.
type driverExecutor struct {
	driver   neo4j.DriverWithContext
	database string
}

func (d *driverExecutor) ExecuteQuery(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if d.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(d.database))
	}
	result, err := neo4j.ExecuteQuery(ctx, d.driver, query, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return result, nil
}

func (d *driverExecutor) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

const (
	createIndex = `CREATE INDEX entity_id IF NOT EXISTS FOR (e:Entity) ON (e.id)`

	upsertEntities = `UNWIND $rows AS row
MERGE (e:Entity {id: row.id})
SET e.name = row.name, e.type = row.type, e.salience = row.salience, e.aliases = row.aliases`

	upsertRelations = `UNWIND $rows AS row
MERGE (a:Entity {id: row.from})
MERGE (b:Entity {id: row.to})
MERGE (a)-[r:RELATION {predicate: row.predicate}]->(b)
SET r.confidence = row.confidence, r.directional = row.directional`

	neighborNodes = `MATCH (c:Entity {id: $id})-[*1..%d]-(n:Entity)
WHERE n.id <> $id
WITH DISTINCT n LIMIT $limit
RETURN n.id AS id`

	neighborEdges = `MATCH (a:Entity)-[r:RELATION]->(b:Entity)
WHERE a.id IN $ids AND b.id IN $ids
RETURN a.id AS from, b.id AS to, r.predicate AS predicate`
)

// Store implements storage.GraphStore on a Cypher endpoint.
// Entity ids are stored as decimal strings since Cypher integers are signed.
type Store struct {
	exec   Executor
	logger *slog.Logger
}

var _ storage.GraphStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store over exec.
func NewStore(exec Executor, opts ...Option) (*Store, error) {
	if exec == nil {
		return nil, ErrExecutorRequired
	}
	s := &Store{
		exec:   exec,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "neo4j")
	return s, nil
}

// Open connects to uri, verifies connectivity and ensures the id index exists.
func Open(ctx context.Context, uri, username, password, database string, opts ...Option) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}

	s, err := NewStore(&driverExecutor{driver: driver, database: database}, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := s.exec.ExecuteQuery(ctx, createIndex, nil); err != nil {
		// Memgraph uses a different index syntax; lookups still work without it.
		s.logger.Warn("failed to create entity index", "err", err)
	}
	s.logger.Info("connected", "uri", uri)
	return s, nil
}

// Close closes the underlying executor.
func (s *Store) Close() error {
	return s.exec.Close(context.Background())
}

// UpsertEntities merges entity nodes by id and overwrites their properties.
func (s *Store) UpsertEntities(ctx context.Context, entities ...*core.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	rows := make([]any, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, map[string]any{
			"id":       formatID(e.Id),
			"name":     e.Name,
			"type":     string(e.Type),
			"salience": e.Salience,
			"aliases":  e.Aliases,
		})
	}
	_, err := s.exec.ExecuteQuery(ctx, upsertEntities, map[string]any{"rows": rows})
	return err
}

// UpsertRelations merges one RELATION edge per relationship key.
func (s *Store) UpsertRelations(ctx context.Context, rels ...*core.Relationship) error {
	if len(rels) == 0 {
		return nil
	}
	rows := make([]any, 0, len(rels))
	for _, r := range rels {
		rows = append(rows, map[string]any{
			"from":        formatID(r.From),
			"to":          formatID(r.To),
			"predicate":   string(r.Predicate),
			"confidence":  r.Confidence,
			"directional": r.Directional,
		})
	}
	_, err := s.exec.ExecuteQuery(ctx, upsertRelations, map[string]any{"rows": rows})
	return err
}

// Neighbors returns nodes within hops of id and the edges among them.
func (s *Store) Neighbors(ctx context.Context, id core.ID, hops, limit int) (*core.Neighborhood, error) {
	if err := storage.ValidateNeighborBounds(hops, limit); err != nil {
		return nil, err
	}

	// Path length bounds cannot be parameters; hops is validated above.
	result, err := s.exec.ExecuteQuery(ctx, fmt.Sprintf(neighborNodes, hops), map[string]any{
		"id":    formatID(id),
		"limit": int64(limit),
	})
	if err != nil {
		return nil, err
	}

	n := &core.Neighborhood{Center: id}
	ids := []any{formatID(id)}
	for _, rec := range result.Records {
		raw, _ := rec.Get("id")
		nid, ok := parseID(raw)
		if !ok {
			continue
		}
		n.Nodes = append(n.Nodes, nid)
		ids = append(ids, raw)
	}
	if len(n.Nodes) == 0 {
		return n, nil
	}

	result, err = s.exec.ExecuteQuery(ctx, neighborEdges, map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}
	for _, rec := range result.Records {
		from, _ := rec.Get("from")
		to, _ := rec.Get("to")
		predicate, _ := rec.Get("predicate")
		fromID, ok1 := parseID(from)
		toID, ok2 := parseID(to)
		p, ok3 := predicate.(string)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		n.Edges = append(n.Edges, core.RelationKey{From: fromID, To: toID, Predicate: core.Predicate(p)})
	}
	return n, nil
}

func formatID(id core.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseID(v any) (core.ID, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return core.ID(n), true
}
