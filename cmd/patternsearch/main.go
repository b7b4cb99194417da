// Copyright 2025 Poiesic Systems
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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/patternsearch/config"
)

const configKey = "config"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "patternsearch",
		Usage: "Hybrid search over knitting and crochet patterns",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"PATTERNSEARCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides the config file",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Snapshot root directory; overrides the config file",
			},
		},
		Before: func(c *cli.Context) error {
			if err := loadConfig(c); err != nil {
				return err
			}
			return setupLogger(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Build a new snapshot from a pattern catalogue",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Catalogue directory containing metadata/ and texts/",
					},
					&cli.StringFlag{
						Name:  "backend",
						Usage: "Structured filter backend (bleve, sqlite)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding requests",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Chunks per embedding request",
					},
					&cli.StringFlag{
						Name:  "version",
						Usage: "Snapshot name (default: UTC timestamp)",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Do not print embedding progress",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the live snapshot",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Usage: "Craft category, e.g. knitting or crochet"},
					&cli.StringFlag{Name: "weight", Usage: "Yarn weight class, e.g. worsted"},
					&cli.StringSliceFlag{Name: "material", Usage: "Accept patterns using any of these materials"},
					&cli.StringSliceFlag{Name: "technique", Usage: "Accept patterns using any of these techniques"},
					&cli.StringSliceFlag{Name: "stitch", Usage: "Accept patterns using any of these stitches"},
					&cli.Float64Flag{Name: "hook", Usage: "Hook size in mm"},
					&cli.Float64Flag{Name: "needle", Usage: "Needle size in mm"},
					&cli.Float64Flag{Name: "tolerance", Usage: "Size tolerance in mm (default from config)"},
					&cli.BoolFlag{Name: "has-pdf", Usage: "Only patterns with (or, with =false, without) a downloaded PDF"},
					&cli.TimestampFlag{
						Name:     "published-from",
						Usage:    "Only patterns published on or after this date (YYYY-MM-DD)",
						Layout:   time.DateOnly,
						Timezone: time.UTC,
					},
					&cli.BoolFlag{Name: "unfiltered", Usage: "Score every chunk in the snapshot, ignoring structured filters"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of patterns to return"},
					&cli.BoolFlag{Name: "no-details", Usage: "Do not look up names and links in the catalogue"},
				},
			},
			{
				Name:      "describe-row",
				Usage:     "Show which chunk an embedding row holds",
				ArgsUsage: "ROW",
				Action:    describeRowCommand,
			},
			{
				Name:   "eval",
				Usage:  "Score labelled query sets with precision@k and MRR",
				Action: evalCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "queries",
						Usage:    "YAML file of labelled query sets",
						Required: true,
					},
					&cli.IntSliceFlag{
						Name:  "k",
						Usage: "Cutoffs to score",
						Value: cli.NewIntSlice(5, 10),
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Write per-query results as CSV to this file",
					},
					&cli.StringFlag{
						Name:  "summary",
						Usage: "Write per-set averages as CSV to this file",
					},
				},
			},
			{
				Name:   "snapshots",
				Usage:  "List committed snapshots",
				Action: snapshotsCommand,
			},
		},
	}
}

// loadConfig reads the configuration and stores it in the app metadata.
func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("root") {
		cfg.Root = c.String("root")
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.NewConfig()
}

func setupLogger(c *cli.Context) error {
	levelStr := c.String("log-level")
	if levelStr == "" {
		levelStr = configFrom(c).LogLevel
	}

	level, err := config.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
