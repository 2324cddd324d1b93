package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

func command(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}

func intFlag(t *testing.T, cmd *cli.Command, name string) *cli.IntFlag {
	t.Helper()
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == name {
			return f
		}
	}
	t.Fatalf("flag %q not found on %s", name, cmd.Name)
	return nil
}

func TestCommands(t *testing.T) {
	app := newApp()

	names := make([]string, 0, len(app.Commands))
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{"ingest", "serve", "search", "neighbors", "export", "stats", "reembed"}, names)

	t.Run("search k defaults to 8", func(t *testing.T) {
		assert.Equal(t, 8, intFlag(t, command(t, app, "search"), "k").Value)
	})

	t.Run("neighbors bounds default", func(t *testing.T) {
		cmd := command(t, app, "neighbors")
		assert.Equal(t, 1, intFlag(t, cmd, "hops").Value)
		assert.Equal(t, 200, intFlag(t, cmd, "limit").Value)
	})

	t.Run("reembed batch-size has default value of 100", func(t *testing.T) {
		assert.Equal(t, 100, intFlag(t, command(t, app, "reembed"), "batch-size").Value)
	})
}

// Each case fails before any configuration or store is touched.
func TestCommandValidation(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"neighbors requires node-id", []string{"neighbors"}, "node-id"},
		{"neighbors rejects a malformed id", []string{"neighbors", "--node-id", "abc"}, "invalid node id"},
		{"neighbors rejects hops out of range", []string{"neighbors", "-n", "1", "--hops", "9"}, "hops"},
		{"neighbors rejects limit out of range", []string{"neighbors", "-n", "1", "--limit", "0"}, "limit"},
		{"search requires a query", []string{"search"}, "search query is required"},
		{"search rejects a blank query", []string{"search", "  "}, "search query is required"},
		{"ingest takes one file", []string{"ingest", "a.txt", "b.txt"}, "at most one input file"},
		{"ingest reports missing files", []string{"ingest", filepath.Join(os.TempDir(), "graphdemo-missing.txt")}, "failed to read"},
		{"reembed rejects zero batch size", []string{"reembed", "--batch-size", "0"}, "batch-size must be greater than 0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newApp()
			app.Writer = &bytes.Buffer{}
			app.ErrWriter = &bytes.Buffer{}
			err := app.Run(append([]string{"graphdemo"}, tc.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	t.Run("bounds errors are invalid queries", func(t *testing.T) {
		app := newApp()
		err := app.Run([]string{"graphdemo", "neighbors", "-n", "1", "--hops", "9"})
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})
}

func TestReadDocument(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		for _, path := range []string{"", "-"} {
			id, text, err := readDocument(path, strings.NewReader("from stdin"))
			require.NoError(t, err)
			assert.Empty(t, id)
			assert.Equal(t, "from stdin", text)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "paper.txt")
		require.NoError(t, os.WriteFile(path, []byte("Transformers use attention."), 0644))

		id, text, err := readDocument(path, strings.NewReader("ignored"))
		require.NoError(t, err)
		assert.Equal(t, "paper.txt", id)
		assert.Equal(t, "Transformers use attention.", text)
	})
}

func TestWriteGraphJSON(t *testing.T) {
	t.Run("empty graph encodes empty arrays", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeGraphJSON(&buf, &core.Graph{}))
		assert.JSONEq(t, `{"nodes": [], "edges": []}`, buf.String())
	})

	t.Run("nodes and edges", func(t *testing.T) {
		transformer := &core.Entity{Id: 1, Name: "Transformer", Type: core.EntityTypeConcept}
		attention := &core.Entity{Id: 2, Name: "Attention", Type: core.EntityTypeConcept}
		graph := &core.Graph{
			Entities:      []*core.Entity{transformer, attention},
			Relationships: []*core.Relationship{{From: 1, To: 2, Predicate: core.PredicateUses, Confidence: 0.9}},
		}

		var buf bytes.Buffer
		require.NoError(t, writeGraphJSON(&buf, graph))
		out := buf.String()
		assert.Contains(t, out, `"Transformer"`)
		assert.Contains(t, out, `"Attention"`)
		assert.Contains(t, out, string(core.PredicateUses))
	})
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, &core.GraphStats{
		Entities:             3,
		Relationships:        2,
		EntitiesByType:       map[core.EntityType]int{core.EntityTypeConcept: 2, core.EntityTypeLibrary: 1},
		RelationsByPredicate: map[core.Predicate]int{core.PredicateUses: 2},
		Documents:            1,
	})

	out := buf.String()
	assert.Contains(t, out, "entities:        3")
	assert.Contains(t, out, string(core.EntityTypeLibrary))
	assert.Contains(t, out, string(core.PredicateUses))
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
			{"WaRn", slog.LevelWarn},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "log-level", Value: "info"},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						assert.True(t, slog.Default().Enabled(c.Context, tc.expected))
						if tc.expected > slog.LevelDebug {
							assert.False(t, slog.Default().Enabled(c.Context, tc.expected-4))
						}
						return nil
					},
				}

				require.NoError(t, app.Run([]string{"test", "--log-level", tc.input}))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := newApp()
		app.Commands = nil
		app.Action = func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		}
		require.NoError(t, app.Run([]string{"test", "-l", "debug"}))
	})
}
