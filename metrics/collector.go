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
	"os"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/embedbench/core"
)

// Collector accumulates document statistics for one process.
// It is safe for concurrent use by pipeline workers.
type Collector struct {
	mu        sync.Mutex
	runID     string
	shard     core.ShardAssignment
	settings  RunSettings
	startedAt time.Time
	now       func() time.Time

	totals      Totals
	histogram   map[int]int
	largest     []DocumentRank
	mostChunked []DocumentRank
	errors      []ErrorEntry
}

// NewCollector creates a collector for one shard of a run. The run clock
// starts now.
func NewCollector(runID string, shard core.ShardAssignment, settings RunSettings) *Collector {
	c := &Collector{
		runID:     runID,
		shard:     shard,
		settings:  settings,
		now:       time.Now,
		histogram: map[int]int{},
	}
	c.startedAt = c.now()
	return c
}

// RecordSuccess folds the stats of a fully indexed document into the run.
func (c *Collector) RecordSuccess(stats *DocumentStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totals.DocumentsProcessed++
	c.totals.Bytes += stats.SizeBytes
	c.addTimings(stats)

	for _, chars := range stats.ChunkChars {
		if c.totals.Chunks == 0 || chars < c.totals.MinChunkChars {
			c.totals.MinChunkChars = chars
		}
		c.totals.MaxChunkChars = max(c.totals.MaxChunkChars, chars)
		c.totals.Chunks++
		c.totals.Characters += int64(chars)
		c.histogram[chars/HistogramBucket*HistogramBucket]++
	}

	rank := DocumentRank{DocumentID: stats.DocumentID, SizeBytes: stats.SizeBytes, Chunks: stats.NumChunks()}
	c.largest = insertTop(c.largest, rank, bySize)
	c.mostChunked = insertTop(c.mostChunked, rank, byChunks)
}

// RecordFailure counts a failed document. Time already spent on remote
// calls for the document still counts towards the run totals.
func (c *Collector) RecordFailure(documentID string, stats *DocumentStats, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totals.DocumentsFailed++
	if stats != nil {
		c.addTimings(stats)
	}
	if len(c.errors) < MaxErrors {
		c.errors = append(c.errors, ErrorEntry{
			DocumentID: documentID,
			Class:      core.ErrorClass(err),
			Message:    err.Error(),
			ShardID:    c.shard.ID,
		})
	}
}

// RecordSkipped counts a document that produced no work, such as an empty
// file. It is listed with the errors under class "skipped" but does not
// count as a failure.
func (c *Collector) RecordSkipped(documentID string, reason error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totals.DocumentsSkipped++
	if reason != nil && len(c.errors) < MaxErrors {
		c.errors = append(c.errors, ErrorEntry{
			DocumentID: documentID,
			Class:      SkippedClass,
			Message:    reason.Error(),
			ShardID:    c.shard.ID,
		})
	}
}

// RecordCommit records the end-of-run commit duration.
func (c *Collector) RecordCommit(elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals.CommitSeconds += elapsed.Seconds()
}

// Totals returns a snapshot of the counters.
func (c *Collector) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}

// Summary stops the run clock and returns the shard summary.
func (c *Collector) Summary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	finished := c.now()
	hostname, _ := os.Hostname()
	histogram := make(map[int]int, len(c.histogram))
	for k, v := range c.histogram {
		histogram[k] = v
	}

	return &Summary{
		SchemaVersion:  SummaryVersion,
		RunID:          c.runID,
		ShardID:        c.shard.ID,
		ShardCount:     c.shard.Count,
		Hostname:       hostname,
		StartedAt:      c.startedAt.UTC(),
		FinishedAt:     finished.UTC(),
		WallSeconds:    finished.Sub(c.startedAt).Seconds(),
		Settings:       c.settings,
		Totals:         c.totals,
		ChunkHistogram: histogram,
		Largest:        slices.Clone(c.largest),
		MostChunked:    slices.Clone(c.mostChunked),
		Errors:         slices.Clone(c.errors),
	}
}

// addTimings must be called with the lock held.
func (c *Collector) addTimings(stats *DocumentStats) {
	c.totals.APICalls += stats.APICalls
	c.totals.APIRetries += stats.APIRetries
	c.totals.APISeconds += stats.APITime.Seconds()
	c.totals.IndexCalls += stats.IndexCalls
	c.totals.IndexRetries += stats.IndexRetries
	c.totals.IndexSeconds += stats.IndexTime.Seconds()
	c.totals.ChunkSeconds += stats.ChunkTime.Seconds()
	c.totals.DocumentSeconds += stats.Duration.Seconds()
}

func bySize(a, b DocumentRank) int {
	if a.SizeBytes != b.SizeBytes {
		if a.SizeBytes > b.SizeBytes {
			return -1
		}
		return 1
	}
	return compareIDs(a, b)
}

func byChunks(a, b DocumentRank) int {
	if a.Chunks != b.Chunks {
		return b.Chunks - a.Chunks
	}
	return compareIDs(a, b)
}

func compareIDs(a, b DocumentRank) int {
	switch {
	case a.DocumentID < b.DocumentID:
		return -1
	case a.DocumentID > b.DocumentID:
		return 1
	}
	return 0
}

// insertTop keeps list sorted by cmp and at most TopN long.
func insertTop(list []DocumentRank, r DocumentRank, cmp func(a, b DocumentRank) int) []DocumentRank {
	list = append(list, r)
	slices.SortFunc(list, cmp)
	if len(list) > TopN {
		list = list[:TopN]
	}
	return list
}
