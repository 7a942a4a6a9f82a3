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


package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// SummaryVersion is the schema version written into every Summary.
const SummaryVersion = 1

const (
	// HistogramBucket is the width, in characters, of a chunk size histogram bucket.
	HistogramBucket = 100

	// TopN is the length of the largest and most-chunked document lists.
	TopN = 3

	// MaxErrors is the number of error messages kept per summary.
	MaxErrors = 10

	// SkippedClass marks error entries for documents that produced no chunks.
	SkippedClass = "skipped"
)

// RunSettings is the configuration snapshot recorded with a summary.
type RunSettings struct {
	Chunker        string `json:"chunker"`
	ChunkSize      int    `json:"chunk_size"`
	Overlap        int    `json:"overlap"`
	APIBatchSize   int    `json:"api_batch_size"`
	StoreBatchSize int    `json:"store_batch_size"`
	Workers        int    `json:"workers"`
	ShardStrategy  string `json:"shard_strategy"`
	Similarity     string `json:"similarity"`
	VectorField    string `json:"vector_field"`
	VectorDims     int    `json:"vector_dims"`
	DryRun         bool   `json:"dry_run"`
}

// Totals are the additive counters of a run.
type Totals struct {
	DocumentsProcessed int   `json:"documents_processed"`
	DocumentsFailed    int   `json:"documents_failed"`
	DocumentsSkipped   int   `json:"documents_skipped"`
	Chunks             int   `json:"chunks"`
	Characters         int64 `json:"characters"`
	Bytes              int64 `json:"bytes"`
	MinChunkChars      int   `json:"min_chunk_chars"`
	MaxChunkChars      int   `json:"max_chunk_chars"`

	APICalls     int     `json:"api_calls"`
	APIRetries   int     `json:"api_retries"`
	APISeconds   float64 `json:"api_seconds"`
	IndexCalls   int     `json:"index_calls"`
	IndexRetries int     `json:"index_retries"`
	IndexSeconds float64 `json:"index_seconds"`

	ChunkSeconds    float64 `json:"chunk_seconds"`
	DocumentSeconds float64 `json:"document_seconds"`
	CommitSeconds   float64 `json:"commit_seconds"`
}

// add folds o into t.
func (t *Totals) add(o Totals) {
	if o.Chunks > 0 {
		if t.Chunks == 0 || o.MinChunkChars < t.MinChunkChars {
			t.MinChunkChars = o.MinChunkChars
		}
		t.MaxChunkChars = max(t.MaxChunkChars, o.MaxChunkChars)
	}
	t.DocumentsProcessed += o.DocumentsProcessed
	t.DocumentsFailed += o.DocumentsFailed
	t.DocumentsSkipped += o.DocumentsSkipped
	t.Chunks += o.Chunks
	t.Characters += o.Characters
	t.Bytes += o.Bytes
	t.APICalls += o.APICalls
	t.APIRetries += o.APIRetries
	t.APISeconds += o.APISeconds
	t.IndexCalls += o.IndexCalls
	t.IndexRetries += o.IndexRetries
	t.IndexSeconds += o.IndexSeconds
	t.ChunkSeconds += o.ChunkSeconds
	t.DocumentSeconds += o.DocumentSeconds
	t.CommitSeconds += o.CommitSeconds
}

// OtherSeconds is document processing time not spent in API or index calls.
func (t Totals) OtherSeconds() float64 {
	return max(0, t.DocumentSeconds-t.APISeconds-t.IndexSeconds)
}

// AvgAPIMillis is the mean embedding request latency.
func (t Totals) AvgAPIMillis() float64 {
	return perCallMillis(t.APISeconds, t.APICalls)
}

// AvgIndexMillis is the mean store write latency.
func (t Totals) AvgIndexMillis() float64 {
	return perCallMillis(t.IndexSeconds, t.IndexCalls)
}

// AvgChunkChars is the mean chunk length in characters.
func (t Totals) AvgChunkChars() float64 {
	if t.Chunks == 0 {
		return 0
	}
	return float64(t.Characters) / float64(t.Chunks)
}

func perCallMillis(seconds float64, calls int) float64 {
	if calls == 0 {
		return 0
	}
	return seconds / float64(calls) * 1000
}

// DocumentRank is an entry in a top-N document list.
type DocumentRank struct {
	DocumentID string `json:"document_id"`
	SizeBytes  int64  `json:"size_bytes"`
	Chunks     int    `json:"chunks"`
}

// ErrorEntry is a recorded document failure.
type ErrorEntry struct {
	DocumentID string `json:"document_id"`
	Class      string `json:"class"`
	Message    string `json:"message"`
	ShardID    int    `json:"shard_id"`
}

// Summary is the structured result of one process (shard) of a run.
type Summary struct {
	SchemaVersion int         `json:"schema_version"`
	RunID         string      `json:"run_id"`
	ShardID       int         `json:"shard_id"`
	ShardCount    int         `json:"shard_count"`
	Hostname      string      `json:"hostname,omitempty"`
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    time.Time   `json:"finished_at"`
	WallSeconds   float64     `json:"wall_seconds"`
	Settings      RunSettings `json:"settings"`
	Totals        Totals      `json:"totals"`

	ChunkHistogram map[int]int    `json:"chunk_histogram"`
	Largest        []DocumentRank `json:"largest_documents"`
	MostChunked    []DocumentRank `json:"most_chunked_documents"`
	Errors         []ErrorEntry   `json:"errors"`
}

// DocsPerSecond is the shard's document throughput.
func (s *Summary) DocsPerSecond() float64 {
	return rate(s.Totals.DocumentsProcessed, s.WallSeconds)
}

// ChunksPerSecond is the shard's chunk throughput.
func (s *Summary) ChunksPerSecond() float64 {
	return rate(s.Totals.Chunks, s.WallSeconds)
}

func rate(n int, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return float64(n) / seconds
}

// SummaryFileName is the conventional file name of a shard summary.
func SummaryFileName(runID string, shardID, shardCount int) string {
	return fmt.Sprintf("summary-%s-shard-%d-of-%d.json", runID, shardID, shardCount)
}

// WriteFile writes the summary as indented JSON, creating parent directories.
// The file is written to a temporary name and renamed into place so a reader
// never sees a partial summary.
func (s *Summary) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadSummary reads a summary file and upgrades it to the current schema.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := upgradeSummary(&s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

func upgradeSummary(s *Summary) error {
	switch {
	case s.SchemaVersion > SummaryVersion:
		return fmt.Errorf("%w: %d (newest known is %d)", ErrUnsupportedVersion, s.SchemaVersion, SummaryVersion)
	case s.SchemaVersion <= 0:
		return fmt.Errorf("%w: missing schema_version", ErrUnsupportedVersion)
	}
	if s.ChunkHistogram == nil {
		s.ChunkHistogram = map[int]int{}
	}
	if s.ShardCount == 0 {
		s.ShardCount = 1
	}
	return nil
}

// LoadSummaries reads summary files concurrently, preserving argument order.
func LoadSummaries(ctx context.Context, paths []string) ([]*Summary, error) {
	out := make([]*Summary, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := ReadSummary(path)
			if err != nil {
				return err
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
