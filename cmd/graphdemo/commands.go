package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/CSorel-Catalyte/graphdemo"
	"github.com/CSorel-Catalyte/graphdemo/broadcast"
	"github.com/CSorel-Catalyte/graphdemo/config"
	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/server"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

var (
	errMissingQuery = errors.New("search query is required")
	errTooManyArgs  = errors.New("at most one input file may be given")
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen)
	muted   = color.New(color.Faint)
)

// openMapper loads the configuration named by the global flags and assembles a Mapper.
func openMapper(ctx context.Context, c *cli.Context) (*graphdemo.Mapper, *config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.StringSlice("env-file")...)
	if err != nil {
		return nil, nil, err
	}
	m, err := graphdemo.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

// readDocument reads the named file, or stdin for "" and "-".
// The returned id is the file's base name, or empty for stdin.
func readDocument(path string, stdin io.Reader) (string, string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return "", string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read '%s': %w", path, err)
	}
	return filepath.Base(path), string(data), nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() > 1 {
		return errTooManyArgs
	}
	docID, text, err := readDocument(c.Args().First(), os.Stdin)
	if err != nil {
		return err
	}
	if id := c.String("doc-id"); id != "" {
		docID = id
	}
	if docID == "" {
		docID = uuid.NewString()
	}

	ctx, stop := signalContext(c)
	defer stop()
	m, _, err := openMapper(ctx, c)
	if err != nil {
		return err
	}
	defer m.Close()

	n, err := m.Ingest(ctx, docID, text)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	if n == 0 {
		muted.Fprintf(c.App.Writer, "%s: no content to process\n", docID)
		return nil
	}
	success.Fprintf(c.App.Writer, "%s: %d chunks processed\n", docID, n)
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()
	m, cfg, err := openMapper(ctx, c)
	if err != nil {
		return err
	}
	defer m.Close()

	srv, err := server.NewServer(m,
		server.WithStream(m.Hub()),
		server.WithMetrics(m.Metrics()),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithTimeouts(cfg.Server.ReadTimeout.Duration, cfg.Server.WriteTimeout.Duration),
	)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if a := c.String("addr"); a != "" {
		addr = a
	}
	heading.Fprintf(c.App.ErrWriter, "graphdemo listening on %s\n", addr)
	return srv.ListenAndServe(ctx, addr)
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errMissingQuery
	}

	ctx, stop := signalContext(c)
	defer stop()
	m, _, err := openMapper(ctx, c)
	if err != nil {
		return err
	}
	defer m.Close()

	results, err := m.Search(ctx, query, c.Int("k"))
	if err != nil {
		return err
	}

	heading.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(c.App.Writer, "%d: %s [%s] ", i, hit.Entity.Name, hit.Entity.Type)
		muted.Fprintf(c.App.Writer, "(%s)[%0.3f]\n", broadcast.FormatID(hit.Entity.Id), hit.Score)
	}
	return nil
}

func neighborsCommand(c *cli.Context) error {
	id, err := broadcast.ParseID(c.String("node-id"))
	if err != nil {
		return fmt.Errorf("invalid node id %q: %w", c.String("node-id"), err)
	}
	if err := storage.ValidateNeighborBounds(c.Int("hops"), c.Int("limit")); err != nil {
		return err
	}

	ctx, stop := signalContext(c)
	defer stop()
	m, _, err := openMapper(ctx, c)
	if err != nil {
		return err
	}
	defer m.Close()

	graph, err := m.Neighbors(ctx, id, c.Int("hops"), c.Int("limit"))
	if err != nil {
		return err
	}
	printGraph(c.App.Writer, graph)
	return nil
}

func exportCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()
	m, _, err := openMapper(ctx, c)
	if err != nil {
		return err
	}
	defer m.Close()

	graph, err := m.Export(ctx)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create '%s': %w", path, err)
		}
		defer f.Close()
		w = f
	}
	return writeGraphJSON(w, graph)
}

func statsCommand(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()
	m, _, err := openMapper(ctx, c)
	if err != nil {
		return err
	}
	defer m.Close()

	stats, err := m.Stats(ctx)
	if err != nil {
		return err
	}
	printStats(c.App.Writer, stats)
	return nil
}

func reembedCommand(c *cli.Context) error {
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	ctx, stop := signalContext(c)
	defer stop()
	m, cfg, err := openMapper(ctx, c)
	if err != nil {
		return err
	}
	defer m.Close()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Database.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := m.Reembed(ctx, c.App.ErrWriter, c.Int("batch-size")); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

type exportGraph struct {
	Nodes []broadcast.Node `json:"nodes"`
	Edges []broadcast.Edge `json:"edges"`
}

func writeGraphJSON(w io.Writer, g *core.Graph) error {
	out := exportGraph{
		Nodes: make([]broadcast.Node, 0, len(g.Entities)),
		Edges: make([]broadcast.Edge, 0, len(g.Relationships)),
	}
	for _, e := range g.Entities {
		out.Nodes = append(out.Nodes, broadcast.NodeFrom(e))
	}
	for _, r := range g.Relationships {
		out.Edges = append(out.Edges, broadcast.EdgeFrom(r))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printGraph(w io.Writer, g *core.Graph) {
	names := make(map[core.ID]string, len(g.Entities))
	heading.Fprintf(w, "%d nodes, %d edges\n", len(g.Entities), len(g.Relationships))
	for _, e := range g.Entities {
		names[e.Id] = e.Name
		fmt.Fprintf(w, "  %s [%s] ", e.Name, e.Type)
		muted.Fprintf(w, "(%s)\n", broadcast.FormatID(e.Id))
	}
	for _, r := range g.Relationships {
		fmt.Fprintf(w, "  %s -%s-> %s ", names[r.From], r.Predicate, names[r.To])
		muted.Fprintf(w, "[%0.2f]\n", r.Confidence)
	}
}

func printStats(w io.Writer, s *core.GraphStats) {
	heading.Fprintln(w, "Graph")
	fmt.Fprintf(w, "  entities:        %d\n", s.Entities)
	fmt.Fprintf(w, "  relationships:   %d\n", s.Relationships)
	fmt.Fprintf(w, "  documents:       %d\n", s.Documents)
	fmt.Fprintf(w, "  cross-document:  %d\n", s.CrossDocumentEntities)
	fmt.Fprintf(w, "  avg salience:    %0.3f\n", s.AverageSalience)

	heading.Fprintln(w, "Entities by type")
	for _, t := range core.EntityTypes {
		if n := s.EntitiesByType[t]; n > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", t, n)
		}
	}
	heading.Fprintln(w, "Relations by predicate")
	for _, p := range core.Predicates {
		if n := s.RelationsByPredicate[p]; n > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", p, n)
		}
	}
}
