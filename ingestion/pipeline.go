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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/embedbench/ai"
	"github.com/poiesic/embedbench/chunking"
	"github.com/poiesic/embedbench/core"
	"github.com/poiesic/embedbench/metrics"
)

// Indexer is the part of indexing.Indexer the pipeline drives.
type Indexer interface {
	IndexChunks(ctx context.Context, records []*core.ChunkRecord) error
	IndexParent(ctx context.Context, record *core.ParentRecord) error
	Commit(ctx context.Context) error
}

// Loader reads the document behind a ref.
type Loader func(ref core.DocumentRef) (*core.Document, error)

// Pipeline runs documents through chunking, embedding and indexing on a
// bounded worker pool. Each worker takes one document end to end.
type Pipeline struct {
	chunker   chunking.Chunker
	embedder  ai.Embedder
	indexer   Indexer
	collector *metrics.Collector
	pool      *ants.Pool
	loader    Loader
	normalize bool
	progress  *ProgressTracker
	logger    *slog.Logger

	abortOnce sync.Once
	abortErr  error
	aborted   chan struct{}
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of concurrent workers.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithProgress reports finished documents to tracker.
func WithProgress(tracker *ProgressTracker) Option {
	return func(p *Pipeline) error {
		p.progress = tracker
		return nil
	}
}

// WithNormalize scales every vector to unit length before indexing.
func WithNormalize(normalize bool) Option {
	return func(p *Pipeline) error {
		p.normalize = normalize
		return nil
	}
}

// WithLoader replaces LoadDocument.
func WithLoader(loader Loader) Option {
	return func(p *Pipeline) error {
		if loader == nil {
			return errors.New("loader cannot be nil")
		}
		p.loader = loader
		return nil
	}
}

// NewPipeline creates a new pipeline.
func NewPipeline(
	chunker chunking.Chunker,
	embedder ai.Embedder,
	indexer Indexer,
	collector *metrics.Collector,
	opts ...Option,
) (*Pipeline, error) {
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	if collector == nil {
		return nil, ErrCollectorRequired
	}

	pool, err := ants.NewPool(max(1, runtime.NumCPU()))
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunker:   chunker,
		embedder:  embedder,
		indexer:   indexer,
		collector: collector,
		pool:      pool,
		loader:    LoadDocument,
		logger:    slog.Default().With("component", "pipeline"),
		aborted:   make(chan struct{}),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Run processes refs and commits the store when at least one document was
// indexed. Per-document failures are recorded in the collector and do not
// stop the run; Run only returns an error when the run itself cannot
// continue: cancellation, a vector dimension mismatch, or a failed commit.
// Nothing is committed in those cases except a failed commit.
func (p *Pipeline) Run(ctx context.Context, refs []core.DocumentRef) error {
	if p.progress != nil {
		p.progress.Start()
		defer p.progress.Finish()
	}
	p.logger.Info("starting pipeline", "documents", len(refs), "workers", p.pool.Cap())

	var wg sync.WaitGroup
	var submitErr error
submit:
	for _, ref := range refs {
		select {
		case <-ctx.Done():
			break submit
		case <-p.aborted:
			break submit
		default:
		}

		wg.Add(1)
		// Submit blocks while every worker is busy, which bounds the queue.
		err := p.pool.Submit(func() {
			defer wg.Done()
			p.processOne(ctx, ref)
		})
		if err != nil {
			wg.Done()
			submitErr = fmt.Errorf("submitting %s: %w", ref.ID, err)
			break
		}
	}
	wg.Wait()

	if submitErr != nil {
		return submitErr
	}
	if p.abortErr != nil {
		return p.abortErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	totals := p.collector.Totals()
	if totals.DocumentsProcessed == 0 {
		p.logger.Warn("no document was indexed, skipping commit", "failed", totals.DocumentsFailed, "skipped", totals.DocumentsSkipped)
		return nil
	}

	start := time.Now()
	if err := p.indexer.Commit(ctx); err != nil {
		return err
	}
	p.collector.RecordCommit(time.Since(start))
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func (p *Pipeline) processOne(ctx context.Context, ref core.DocumentRef) {
	start := time.Now()
	stats := &metrics.DocumentStats{DocumentID: ref.ID}
	err := p.processDocument(metrics.WithDocumentStats(ctx, stats), ref, stats)
	stats.Duration = time.Since(start)

	switch {
	case errors.Is(err, errEmptyDocument):
		p.logger.Debug("skipping empty document", "document", ref.ID)
		p.collector.RecordSkipped(ref.ID, err)
	case err != nil:
		if errors.Is(err, core.ErrDimensionMismatch) {
			p.abort(err)
		}
		p.logger.Error("document failed", "document", ref.ID, "class", core.ErrorClass(err), "err", err)
		p.collector.RecordFailure(ref.ID, stats, err)
	default:
		p.logger.Debug("document indexed", "document", ref.ID, "chunks", stats.NumChunks(), "elapsed", stats.Duration)
		p.collector.RecordSuccess(stats)
	}

	if p.progress != nil {
		p.progress.Done(err != nil && !errors.Is(err, errEmptyDocument))
	}
}

func (p *Pipeline) processDocument(ctx context.Context, ref core.DocumentRef, stats *metrics.DocumentStats) error {
	doc, err := p.loader(ref)
	if err != nil {
		return fmt.Errorf("loading %s: %w", ref.RelPath, err)
	}
	stats.SizeBytes = doc.SizeBytes

	chunkStart := time.Now()
	candidates := chunking.Split(p.chunker, doc.Text)
	stats.ChunkTime = time.Since(chunkStart)
	if len(candidates) == 0 {
		return errEmptyDocument
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
		stats.ChunkChars = append(stats.ChunkChars, c.Chars)
		stats.ChunkSizes = append(stats.ChunkSizes, c.Size)
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %s: %w", doc.ID, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding %s: %w: %d chunks, %d vectors", doc.ID, core.ErrBatchLengthMismatch, len(texts), len(vectors))
	}
	if p.normalize {
		vectors = ai.NormalizeVectors(vectors)
	}

	chunks := make([]*core.Chunk, len(candidates))
	records := make([]*core.ChunkRecord, len(candidates))
	for i, c := range candidates {
		chunks[i] = &core.Chunk{ParentID: doc.ID, Index: c.Index, Text: c.Text, Size: c.Size, Vector: vectors[i]}
		records[i] = core.NewChunkRecord(chunks[i])
	}
	if err := core.ValidateChunks(doc.ID, chunks); err != nil {
		return err
	}

	if err := p.indexer.IndexChunks(ctx, records); err != nil {
		return err
	}
	// The parent goes last so a parent in the index implies all its chunks are.
	return p.indexer.IndexParent(ctx, core.NewParentRecord(doc, chunks))
}

// abort stops submission of further documents after a run-scoped failure.
func (p *Pipeline) abort(err error) {
	p.abortOnce.Do(func() {
		p.abortErr = err
		close(p.aborted)
		p.logger.Error("aborting run", "err", err)
	})
}
