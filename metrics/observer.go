package metrics

import (
	"context"
	"time"
)

// DocumentStats are the measurements of one document's trip through the pipeline.
// A DocumentStats is owned by a single worker and is not safe for concurrent use.
type DocumentStats struct {
	DocumentID string
	SizeBytes  int64
	ChunkChars []int // rune length of each chunk
	ChunkSizes []int // size of each chunk in chunker units

	APICalls   int
	APIRetries int
	APITime    time.Duration

	IndexCalls   int
	IndexRetries int
	IndexTime    time.Duration

	ChunkTime time.Duration
	Duration  time.Duration
}

// NumChunks returns the number of chunks produced for the document.
func (s *DocumentStats) NumChunks() int {
	return len(s.ChunkChars)
}

type statsKey struct{}

// WithDocumentStats returns a context carrying stats.
func WithDocumentStats(ctx context.Context, stats *DocumentStats) context.Context {
	return context.WithValue(ctx, statsKey{}, stats)
}

// DocumentStatsFrom returns the stats carried by ctx, or nil.
func DocumentStatsFrom(ctx context.Context) *DocumentStats {
	stats, _ := ctx.Value(statsKey{}).(*DocumentStats)
	return stats
}

// ObserveAPICall records one embedding API request attempt.
// It is a no-op when ctx carries no DocumentStats.
func ObserveAPICall(ctx context.Context, attempt int, elapsed time.Duration) {
	stats := DocumentStatsFrom(ctx)
	if stats == nil {
		return
	}
	stats.APICalls++
	stats.APITime += elapsed
	if attempt > 1 {
		stats.APIRetries++
	}
}

// ObserveIndexCall records one document store write attempt.
// It is a no-op when ctx carries no DocumentStats.
func ObserveIndexCall(ctx context.Context, attempt int, elapsed time.Duration) {
	stats := DocumentStatsFrom(ctx)
	if stats == nil {
		return
	}
	stats.IndexCalls++
	stats.IndexTime += elapsed
	if attempt > 1 {
		stats.IndexRetries++
	}
}
