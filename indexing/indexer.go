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


package indexing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/embedbench/core"
	"github.com/poiesic/embedbench/metrics"
	"github.com/poiesic/embedbench/retry"
	"github.com/poiesic/embedbench/storage"
	"golang.org/x/sync/errgroup"
)

// Defaults used when no option overrides them.
const (
	DefaultParentCollection = "documents"
	DefaultChunkCollection  = "vectors"
	DefaultVectorField      = "vector"
	DefaultStoreBatchSize   = 100
)

// Indexer writes chunk and parent records to two collections of a store.
// It is safe for concurrent use.
type Indexer struct {
	store            storage.DocumentStore
	parentCollection string
	chunkCollection  string
	vectorField      string
	vectorDims       int
	batchSize        int
	policy           retry.Policy
	logger           *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithCollections sets the parent and chunk collection names.
func WithCollections(parent, chunk string) Option {
	return func(ix *Indexer) error {
		if parent == "" || chunk == "" {
			return ErrMissingCollection
		}
		ix.parentCollection = parent
		ix.chunkCollection = chunk
		return nil
	}
}

// WithVectorField sets the chunk field that holds the embedding.
func WithVectorField(field string) Option {
	return func(ix *Indexer) error {
		if field == "" {
			return ErrMissingVectorField
		}
		ix.vectorField = field
		return nil
	}
}

// WithVectorDims sets the dimensionality every vector must have.
// Zero disables the check.
func WithVectorDims(dims int) Option {
	return func(ix *Indexer) error {
		if dims < 0 {
			return fmt.Errorf("%w: vector dims cannot be negative", core.ErrConfiguration)
		}
		ix.vectorDims = dims
		return nil
	}
}

// WithStoreBatchSize sets the maximum number of chunk records per write.
func WithStoreBatchSize(n int) Option {
	return func(ix *Indexer) error {
		if n < 1 {
			return ErrInvalidBatchSize
		}
		ix.batchSize = n
		return nil
	}
}

// WithRetryPolicy sets the retry policy for writes and commits.
func WithRetryPolicy(p retry.Policy) Option {
	return func(ix *Indexer) error {
		if p.MaxAttempts < 1 {
			return retry.ErrInvalidMaxAttempts
		}
		ix.policy = p
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		ix.logger = logger
		return nil
	}
}

// NewIndexer creates an indexer that writes to store.
func NewIndexer(store storage.DocumentStore, opts ...Option) (*Indexer, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	ix := &Indexer{
		store:            store,
		parentCollection: DefaultParentCollection,
		chunkCollection:  DefaultChunkCollection,
		vectorField:      DefaultVectorField,
		batchSize:        DefaultStoreBatchSize,
		policy:           retry.DefaultPolicy(),
		logger:           slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	ix.policy.Logger = ix.logger
	return ix, nil
}

// IndexChunks writes records to the chunk collection in groups of the store
// batch size. A failing group is retried as a whole; when it keeps failing
// the remaining groups are not written.
//
// Vector lengths are checked against the configured dimensionality before
// anything is sent. A mismatch returns core.ErrDimensionMismatch.
func (ix *Indexer) IndexChunks(ctx context.Context, records []*core.ChunkRecord) error {
	vectors := make([][]float32, len(records))
	for i, r := range records {
		vectors[i] = r.Vector
	}
	if err := core.ValidateVectors(vectors, ix.vectorDims); err != nil {
		return err
	}

	for start := 0; start < len(records); start += ix.batchSize {
		end := min(start+ix.batchSize, len(records))
		docs := make([]map[string]any, 0, end-start)
		for _, r := range records[start:end] {
			docs = append(docs, r.Fields(ix.vectorField))
		}
		if err := ix.write(ctx, ix.chunkCollection, docs); err != nil {
			return fmt.Errorf("writing chunks %d-%d of %s: %w", start, end-1, records[start].ParentID, err)
		}
	}
	return nil
}

// IndexParent writes the parent record of a document.
func (ix *Indexer) IndexParent(ctx context.Context, record *core.ParentRecord) error {
	if record.ID == "" {
		return core.ErrEmptyDocumentID
	}
	if err := ix.write(ctx, ix.parentCollection, []map[string]any{record.Fields()}); err != nil {
		return fmt.Errorf("writing parent %s: %w", record.ID, err)
	}
	return nil
}

// Commit makes all writes visible in both collections. The collections are
// committed concurrently; the first error is returned.
func (ix *Indexer) Commit(ctx context.Context) error {
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for _, collection := range []string{ix.parentCollection, ix.chunkCollection} {
		g.Go(func() error {
			err := ix.policy.Do(ctx, func(ctx context.Context) error {
				return ix.store.Commit(ctx, collection)
			})
			if err != nil {
				return fmt.Errorf("committing %s: %w", collection, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	ix.logger.Info("committed collections", "parent", ix.parentCollection, "chunk", ix.chunkCollection, "elapsed", time.Since(start))
	return nil
}

// Ping checks that both collections are reachable.
func (ix *Indexer) Ping(ctx context.Context) error {
	for _, collection := range []string{ix.parentCollection, ix.chunkCollection} {
		if err := ix.store.Ping(ctx, collection); err != nil {
			return fmt.Errorf("pinging %s: %w", collection, err)
		}
	}
	return nil
}

func (ix *Indexer) write(ctx context.Context, collection string, docs []map[string]any) error {
	policy := ix.policy
	policy.OnAttempt = func(attempt int, elapsed time.Duration, err error) {
		metrics.ObserveIndexCall(ctx, attempt, elapsed)
	}
	return policy.Do(ctx, func(ctx context.Context) error {
		return ix.store.Upsert(ctx, collection, docs)
	})
}
