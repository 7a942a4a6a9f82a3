package metrics

import (
	"fmt"
	"slices"
	"time"

	"github.com/poiesic/embedbench/core"
)

// Report is the merged result of all shards of a run.
type Report struct {
	RunID       string
	Instances   int
	ShardCount  int
	Settings    RunSettings
	StartedAt   time.Time
	FinishedAt  time.Time
	WallSeconds float64 // slowest shard
	Totals      Totals

	ChunkHistogram map[int]int
	Largest        []DocumentRank
	MostChunked    []DocumentRank
	Errors         []ErrorEntry

	// MissingShards lists shard ids in [0, ShardCount) without a summary.
	MissingShards []int
}

// DocsPerSecond uses the slowest shard's wall time since shards run concurrently.
func (r *Report) DocsPerSecond() float64 {
	return rate(r.Totals.DocumentsProcessed, r.WallSeconds)
}

// ChunksPerSecond uses the slowest shard's wall time since shards run concurrently.
func (r *Report) ChunksPerSecond() float64 {
	return rate(r.Totals.Chunks, r.WallSeconds)
}

// Failed reports whether any document failed in any shard.
func (r *Report) Failed() bool {
	return r.Totals.DocumentsFailed > 0
}

// Merge reduces shard summaries into one report.
//
// Totals and histograms are summed. Wall time is the maximum over shards and
// average latencies are computed from the summed time and call counts, so a
// merged report never averages averages.
func Merge(summaries []*Summary) (*Report, error) {
	if len(summaries) == 0 {
		return nil, ErrNoSummaries
	}

	for _, s := range summaries {
		if err := upgradeSummary(s); err != nil {
			return nil, err
		}
	}
	sorted := slices.Clone(summaries)
	slices.SortFunc(sorted, func(a, b *Summary) int { return a.ShardID - b.ShardID })

	first := sorted[0]
	r := &Report{
		RunID:          first.RunID,
		Instances:      len(sorted),
		ShardCount:     first.ShardCount,
		Settings:       first.Settings,
		StartedAt:      first.StartedAt,
		FinishedAt:     first.FinishedAt,
		ChunkHistogram: map[int]int{},
	}

	seen := make(map[int]bool, len(sorted))
	for _, s := range sorted {
		if s.RunID != r.RunID {
			return nil, fmt.Errorf("%w: %q and %q", ErrRunMismatch, r.RunID, s.RunID)
		}
		if s.ShardCount != r.ShardCount {
			return nil, fmt.Errorf("%w: %d and %d", ErrShardCountMismatch, r.ShardCount, s.ShardCount)
		}
		if s.ShardID < 0 || s.ShardID >= s.ShardCount {
			return nil, fmt.Errorf("%w: shard %d of %d", ErrShardOutOfRange, s.ShardID, s.ShardCount)
		}
		if seen[s.ShardID] {
			return nil, fmt.Errorf("%w: shard %d", ErrDuplicateShard, s.ShardID)
		}
		seen[s.ShardID] = true

		r.Totals.add(s.Totals)
		r.WallSeconds = max(r.WallSeconds, s.WallSeconds)
		if s.StartedAt.Before(r.StartedAt) {
			r.StartedAt = s.StartedAt
		}
		if s.FinishedAt.After(r.FinishedAt) {
			r.FinishedAt = s.FinishedAt
		}
		for bucket, n := range s.ChunkHistogram {
			r.ChunkHistogram[bucket] += n
		}
		for _, d := range s.Largest {
			r.Largest = insertTop(r.Largest, d, bySize)
		}
		for _, d := range s.MostChunked {
			r.MostChunked = insertTop(r.MostChunked, d, byChunks)
		}
		for _, e := range s.Errors {
			if len(r.Errors) < MaxErrors {
				r.Errors = append(r.Errors, e)
			}
		}
	}

	for id := 0; id < r.ShardCount; id++ {
		if !seen[id] {
			r.MissingShards = append(r.MissingShards, id)
		}
	}
	return r, nil
}

// Record converts the report into a run-history ledger row.
func (r *Report) Record(now time.Time) core.RunRecord {
	return core.RunRecord{
		SchemaVersion:    core.RunRecordVersion,
		Timestamp:        now.UTC(),
		RunID:            r.RunID,
		Instances:        r.Instances,
		Chunker:          r.Settings.Chunker,
		ChunkSize:        r.Settings.ChunkSize,
		Overlap:          r.Settings.Overlap,
		APIBatchSize:     r.Settings.APIBatchSize,
		StoreBatchSize:   r.Settings.StoreBatchSize,
		Workers:          r.Settings.Workers,
		Documents:        r.Totals.DocumentsProcessed,
		DocumentsFailed:  r.Totals.DocumentsFailed,
		Chunks:           r.Totals.Chunks,
		WallSeconds:      r.WallSeconds,
		DocsPerSecond:    r.DocsPerSecond(),
		ChunksPerSecond:  r.ChunksPerSecond(),
		AvgAPIMillis:     r.Totals.AvgAPIMillis(),
		AvgIndexMillis:   r.Totals.AvgIndexMillis(),
		ShardStrategy:    r.Settings.ShardStrategy,
		Similarity:       r.Settings.Similarity,
		VectorDims:       r.Settings.VectorDims,
		DocumentsSkipped: r.Totals.DocumentsSkipped,
		APIRetries:       r.Totals.APIRetries,
	}
}
