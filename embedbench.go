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


package embedbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/embedbench/ai"
	"github.com/poiesic/embedbench/ai/httpembed"
	"github.com/poiesic/embedbench/ai/openai"
	"github.com/poiesic/embedbench/chunking"
	"github.com/poiesic/embedbench/config"
	"github.com/poiesic/embedbench/core"
	"github.com/poiesic/embedbench/indexing"
	"github.com/poiesic/embedbench/ingestion"
	"github.com/poiesic/embedbench/metrics"
	"github.com/poiesic/embedbench/shard"
	"github.com/poiesic/embedbench/storage"
	"github.com/poiesic/embedbench/storage/solr"
)

// Process exit codes of a run.
const (
	ExitOK            = 0
	ExitPartial       = 1 // some documents failed
	ExitConfiguration = 2
	ExitFatal         = 3 // commit failure, dimension mismatch, unreachable store, cancellation
)

// Runner executes one shard of a run.
type Runner struct {
	cfg      config.RunConfig
	runID    string
	embedder ai.Embedder
	store    storage.DocumentStore
	indexer  *indexing.Indexer
	chunker  chunking.Chunker
	progress io.Writer
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithEmbedder replaces the embedding client built from the configuration.
func WithEmbedder(e ai.Embedder) RunnerOption {
	return func(r *Runner) error {
		if e == nil {
			return errors.New("embedder cannot be nil")
		}
		r.embedder = e
		return nil
	}
}

// WithStore replaces the document store built from the configuration.
func WithStore(s storage.DocumentStore) RunnerOption {
	return func(r *Runner) error {
		if s == nil {
			return errors.New("store cannot be nil")
		}
		r.store = s
		return nil
	}
}

// WithProgressOutput renders a progress bar to w.
func WithProgressOutput(w io.Writer) RunnerOption {
	return func(r *Runner) error {
		r.progress = w
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// NewEmbedder creates the embedding client selected by cfg.Backend.
func NewEmbedder(cfg *ai.Config) (ai.Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == ai.BackendOpenAI {
		e, err := openai.NewEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	c, err := httpembed.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewStore creates the document store for cfg. Dry runs discard every write.
func NewStore(cfg *config.RunConfig) (storage.DocumentStore, error) {
	if cfg.DryRun {
		return &storage.NopStore{}, nil
	}
	c, err := solr.NewClient(cfg.StoreURL,
		solr.WithTimeout(cfg.Timeout),
		solr.WithInsecureSkipVerify(cfg.NoVerifySSL),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewRunner validates cfg and wires the components of a run.
func NewRunner(cfg config.RunConfig, opts ...RunnerOption) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:    cfg,
		runID:  cfg.RunID,
		logger: slog.Default().With("component", "runner"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}

	var err error
	if r.embedder == nil {
		if r.embedder, err = NewEmbedder(cfg.EmbeddingConfig()); err != nil {
			return nil, err
		}
	}
	if r.store == nil {
		if r.store, err = NewStore(&cfg); err != nil {
			return nil, err
		}
	}
	r.indexer, err = indexing.NewIndexer(r.store,
		indexing.WithCollections(cfg.ParentCollection, cfg.ChunkCollection),
		indexing.WithVectorField(cfg.VectorField),
		indexing.WithVectorDims(cfg.VectorDims),
		indexing.WithStoreBatchSize(cfg.StoreBatchSize),
		indexing.WithRetryPolicy(cfg.RetryPolicy()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	if r.chunker, err = chunking.New(cfg.ChunkingConfig()); err != nil {
		return nil, err
	}
	return r, nil
}

// RunID returns the id shared by all shards of the run.
func (r *Runner) RunID() string {
	return r.runID
}

// Documents returns this shard's documents in enumeration order.
func (r *Runner) Documents() ([]core.DocumentRef, error) {
	var refs []core.DocumentRef
	var err error
	if r.cfg.Manifest != "" {
		refs, err = ingestion.ReadManifest(r.cfg.Manifest, r.cfg.InputSource)
	} else {
		refs, err = ingestion.Enumerate(r.cfg.InputSource, r.cfg.FilePattern)
	}
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, ingestion.ErrNoDocuments
	}

	strategy, err := shard.ParseStrategy(r.cfg.ShardStrategy)
	if err != nil {
		return nil, err
	}
	return shard.Partition(refs, r.cfg.Shard(), strategy)
}

// Run processes this shard and writes its summary to the summary path.
// The summary is returned whenever the pipeline started, even when Run
// also returns an error.
func (r *Runner) Run(ctx context.Context) (*metrics.Summary, error) {
	refs, err := r.Documents()
	if err != nil {
		return nil, err
	}
	logger := r.logger.With("run", r.runID, "shard", r.cfg.Shard().String())
	logger.Info("shard assigned", "documents", len(refs), "dry_run", r.cfg.DryRun)

	if err := r.indexer.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnreachable, err)
	}

	collector := metrics.NewCollector(r.runID, r.cfg.Shard(), r.cfg.Settings())
	opts := []ingestion.Option{
		ingestion.WithPoolSize(r.cfg.Workers),
		ingestion.WithNormalize(r.cfg.NormalizeVectors),
	}
	if r.progress != nil {
		opts = append(opts, ingestion.WithProgress(ingestion.NewProgressTracker(r.progress, len(refs))))
	}
	pipeline, err := ingestion.NewPipeline(r.chunker, r.embedder, r.indexer, collector, opts...)
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()

	runErr := pipeline.Run(ctx, refs)
	summary := collector.Summary()
	logger.Info("shard finished",
		"processed", summary.Totals.DocumentsProcessed,
		"failed", summary.Totals.DocumentsFailed,
		"skipped", summary.Totals.DocumentsSkipped,
		"elapsed", time.Duration(summary.WallSeconds*float64(time.Second)),
	)

	if r.cfg.SummaryPath != "" {
		path := filepath.Join(r.cfg.SummaryPath, metrics.SummaryFileName(r.runID, r.cfg.ShardID, r.cfg.ShardCount))
		if err := summary.WriteFile(path); err != nil {
			return summary, errors.Join(runErr, fmt.Errorf("writing summary: %w", err))
		}
		logger.Info("summary written", "path", path)
	}
	return summary, runErr
}

// ExitCode maps the outcome of Run to a process exit code.
func ExitCode(summary *metrics.Summary, err error) int {
	switch {
	case errors.Is(err, core.ErrConfiguration):
		return ExitConfiguration
	case err != nil:
		return ExitFatal
	case summary != nil && summary.Totals.DocumentsFailed > 0:
		return ExitPartial
	}
	return ExitOK
}
