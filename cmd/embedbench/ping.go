package main

import (
	"fmt"

	"github.com/poiesic/embedbench"
	"github.com/poiesic/embedbench/ai"
	"github.com/poiesic/embedbench/indexing"
	"github.com/urfave/cli/v2"
)

func pingCommand(c *cli.Context) error {
	cfg, err := loadRunConfig(c)
	if err != nil {
		return cli.Exit(err, embedbench.ExitConfiguration)
	}

	embedder, err := embedbench.NewEmbedder(cfg.EmbeddingConfig())
	if err != nil {
		return cli.Exit(err, embedbench.ExitConfiguration)
	}
	dims, err := ai.Probe(c.Context, embedder)
	if err != nil {
		return cli.Exit(fmt.Errorf("embedding endpoint: %w", err), embedbench.ExitFatal)
	}
	fmt.Fprintf(c.App.Writer, "embedding endpoint %s: ok, %d dimensions\n", cfg.APIURL, dims)
	if cfg.VectorDims > 0 && cfg.VectorDims != dims {
		return cli.Exit(fmt.Sprintf("configured vector_dims %d does not match the endpoint's %d", cfg.VectorDims, dims), embedbench.ExitConfiguration)
	}

	if !c.Bool("store") {
		return nil
	}
	store, err := embedbench.NewStore(&cfg)
	if err != nil {
		return cli.Exit(err, embedbench.ExitConfiguration)
	}
	indexer, err := indexing.NewIndexer(store, indexing.WithCollections(cfg.ParentCollection, cfg.ChunkCollection))
	if err != nil {
		return cli.Exit(err, embedbench.ExitConfiguration)
	}
	if err := indexer.Ping(c.Context); err != nil {
		return cli.Exit(err, embedbench.ExitFatal)
	}
	fmt.Fprintf(c.App.Writer, "store %s: collections %s and %s ok\n", cfg.StoreURL, cfg.ParentCollection, cfg.ChunkCollection)
	return nil
}
