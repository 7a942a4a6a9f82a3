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
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "embedbench",
		Usage: "Chunk, embed and index a document corpus and measure the throughput",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Set logging format (text, json)",
				Value: "text",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Process one shard of the corpus and write its summary",
				ArgsUsage: "[input-source]",
				Action:    runCommand,
				Flags:     runFlags(),
			},
			{
				Name:      "merge",
				Usage:     "Merge shard summaries into a report and append it to the run history",
				ArgsUsage: "summary.json|glob ...",
				Action:    mergeCommand,
				Flags: append(ledgerFlags(),
					&cli.BoolFlag{
						Name:  "fail-on-errors",
						Usage: "Exit with status 1 when any shard reported failed documents",
					},
				),
			},
			{
				Name:   "history",
				Usage:  "Show the run history",
				Action: historyCommand,
				Flags: append(ledgerFlags(),
					&cli.StringFlag{
						Name:  "chunker",
						Usage: "Only show runs with this chunker",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Show at most the N most recent runs (0 for all)",
						Value: 20,
					},
				),
			},
			{
				Name:      "chunk",
				Usage:     "Chunk a file with every strategy and print chunk statistics",
				ArgsUsage: "file",
				Action:    chunkCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Chunk size (characters for fixed, tokens for paragraph)",
						Value: 512,
					},
					&cli.IntFlag{
						Name:  "overlap",
						Usage: "Chunk overlap in the same unit as chunk-size",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "show",
						Usage: "Print the first N chunks of each strategy",
						Value: 2,
					},
				},
			},
			{
				Name:   "ping",
				Usage:  "Probe the embedding endpoint and optionally the store collections",
				Action: pingCommand,
				Flags: append(runFlags(),
					&cli.BoolFlag{
						Name:  "store",
						Usage: "Also ping the parent and chunk collections",
					},
				),
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format := strings.ToLower(c.String("log-format")); format {
	case "text":
		handler = slog.NewTextHandler(c.App.ErrWriter, opts)
	case "json":
		handler = slog.NewJSONHandler(c.App.ErrWriter, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", format)
	}
	slog.SetDefault(slog.New(handler))

	return nil
}
