// Copyright 2026 The graphdemo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/CSorel-Catalyte/graphdemo/search"
	"github.com/CSorel-Catalyte/graphdemo/storage"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "graphdemo",
		Usage: "Build a knowledge graph from documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files (default .env when present)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Extract a document into the graph",
				ArgsUsage: "[FILE]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "doc-id",
						Usage: "Document identifier (defaults to the file name, or a random id for stdin)",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API and the live graph stream",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides [server] addr)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find entities by name or meaning",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "k",
						Usage: "Maximum number of results",
						Value: search.DefaultMaxHits,
					},
				},
			},
			{
				Name:   "neighbors",
				Usage:  "Show the subgraph around an entity",
				Action: neighborsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "node-id",
						Aliases:  []string{"n"},
						Usage:    "Entity id as printed by search",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "hops",
						Usage: "Number of edges to expand",
						Value: storage.DefaultHops,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of neighbor nodes",
						Value: storage.DefaultLimit,
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Write the whole graph as JSON",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (defaults to stdout)",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Summarize the graph",
				Action: statsCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed every entity with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entities to process in each batch",
						Value: 100,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
