package main

import (
	"fmt"
	"strings"

	"github.com/poiesic/embedbench"
	"github.com/poiesic/embedbench/config"
	"github.com/poiesic/embedbench/metrics"
	"github.com/urfave/cli/v2"
)

// runFlags mirrors every config option as a flag. Flags only override the
// loaded configuration when given explicitly.
func runFlags() []cli.Flag {
	defaults := config.Default()
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Load options from a yaml or toml file"},
		&cli.StringFlag{Name: "input-source", Usage: "Directory of input documents"},
		&cli.StringFlag{Name: "manifest", Usage: "File listing input documents, one path per line"},
		&cli.StringFlag{Name: "file-pattern", Usage: "Glob selecting input files", Value: defaults.FilePattern},
		&cli.StringFlag{Name: "api-url", Usage: "Embedding endpoint URL"},
		&cli.StringFlag{Name: "api-backend", Usage: "Embedding API flavour (http, openai)", Value: defaults.APIBackend},
		&cli.StringFlag{Name: "api-model", Usage: "Embedding model (openai backend)"},
		&cli.IntFlag{Name: "api-batch-size", Usage: "Texts per embedding request", Value: defaults.APIBatchSize},
		&cli.Float64Flag{Name: "api-rate-limit", Usage: "Embedding requests per second, 0 for no limit"},
		&cli.BoolFlag{Name: "no-verify-ssl", Usage: "Skip TLS certificate verification"},
		&cli.StringFlag{Name: "store-url", Usage: "Document store base URL", Value: defaults.StoreURL},
		&cli.StringFlag{Name: "parent-collection", Usage: "Collection for document records", Value: defaults.ParentCollection},
		&cli.StringFlag{Name: "chunk-collection", Usage: "Collection for chunk records", Value: defaults.ChunkCollection},
		&cli.StringFlag{Name: "vector-field", Usage: "Vector field name in the chunk collection", Value: defaults.VectorField},
		&cli.IntFlag{Name: "vector-dims", Usage: "Expected vector length, 0 to skip the check"},
		&cli.StringFlag{Name: "similarity", Usage: "Vector similarity (cosine, dot_product, euclidean)", Value: defaults.Similarity},
		&cli.BoolFlag{Name: "normalize-vectors", Usage: "Scale vectors to unit length before indexing"},
		&cli.IntFlag{Name: "store-batch-size", Usage: "Chunk records per store write", Value: defaults.StoreBatchSize},
		&cli.StringFlag{Name: "chunker", Usage: "Chunking strategy (fixed, paragraph)", Value: defaults.Chunker},
		&cli.IntFlag{Name: "chunk-size", Usage: "Chunk size (characters for fixed, tokens for paragraph)", Value: defaults.ChunkSize},
		&cli.IntFlag{Name: "overlap", Usage: "Chunk overlap in the same unit as chunk-size", Value: defaults.Overlap},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Concurrent documents", Value: defaults.Workers},
		&cli.IntFlag{Name: "shard-id", Usage: "This instance's shard in [0, shard-count)"},
		&cli.IntFlag{Name: "shard-count", Usage: "Number of instances sharing the corpus", Value: defaults.ShardCount},
		&cli.StringFlag{Name: "shard-strategy", Usage: "Shard key (index, hash)", Value: defaults.ShardStrategy},
		&cli.IntFlag{Name: "max-retries", Usage: "Attempts per remote call, including the first", Value: defaults.MaxRetries},
		&cli.DurationFlag{Name: "retry-delay", Usage: "Base delay for exponential backoff", Value: defaults.RetryDelay},
		&cli.DurationFlag{Name: "timeout", Usage: "Per-request timeout", Value: defaults.Timeout},
		&cli.BoolFlag{Name: "dry-run", Usage: "Chunk and embed but write nothing to the store"},
		&cli.StringFlag{Name: "run-id", Usage: "Run id shared by all shards (generated if empty)"},
		&cli.StringFlag{Name: "summary-path", Usage: "Directory for the shard summary", Value: defaults.SummaryPath},
		&cli.BoolFlag{Name: "no-progress", Usage: "Do not render a progress bar"},
	}
}

// loadRunConfig resolves defaults, the config file, the environment and
// explicit flags, in that order. A positional argument sets input_source.
func loadRunConfig(c *cli.Context) (config.RunConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	for _, name := range config.Options() {
		flag := strings.ReplaceAll(name, "_", "-")
		if !c.IsSet(flag) {
			continue
		}
		if err := cfg.Set(name, fmt.Sprint(c.Value(flag))); err != nil {
			return cfg, err
		}
	}
	if c.Args().Present() {
		cfg.InputSource = c.Args().First()
	}
	return cfg, nil
}

func runCommand(c *cli.Context) error {
	cfg, err := loadRunConfig(c)
	if err != nil {
		return cli.Exit(err, embedbench.ExitConfiguration)
	}

	var opts []embedbench.RunnerOption
	if !c.Bool("no-progress") {
		opts = append(opts, embedbench.WithProgressOutput(c.App.ErrWriter))
	}
	runner, err := embedbench.NewRunner(cfg, opts...)
	if err != nil {
		return cli.Exit(err, embedbench.ExitCode(nil, err))
	}

	summary, runErr := runner.Run(c.Context)
	if summary != nil {
		report, err := metrics.Merge([]*metrics.Summary{summary})
		if err != nil {
			return cli.Exit(err, embedbench.ExitFatal)
		}
		// The other shards run in other processes; only merge reports them missing.
		report.MissingShards = nil
		if err := metrics.WriteReport(c.App.Writer, report); err != nil {
			return err
		}
	}

	switch code := embedbench.ExitCode(summary, runErr); code {
	case embedbench.ExitOK:
		return nil
	case embedbench.ExitPartial:
		return cli.Exit(fmt.Sprintf("%d documents failed", summary.Totals.DocumentsFailed), code)
	default:
		return cli.Exit(runErr, code)
	}
}
