package metrics

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	bad     = color.New(color.FgRed, color.Bold)
)

// WriteReport renders a human-readable run report.
func WriteReport(w io.Writer, r *Report) error {
	t := r.Totals
	var b strings.Builder

	heading.Fprintf(&b, "Run %s\n", r.RunID)
	fmt.Fprintf(&b, "  instances:        %d of %d shards\n", r.Instances, r.ShardCount)
	if len(r.MissingShards) > 0 {
		bad.Fprintf(&b, "  missing shards:   %v\n", r.MissingShards)
	}
	fmt.Fprintf(&b, "  chunker:          %s size=%d overlap=%d\n", r.Settings.Chunker, r.Settings.ChunkSize, r.Settings.Overlap)
	fmt.Fprintf(&b, "  batching:         api=%d store=%d workers=%d\n", r.Settings.APIBatchSize, r.Settings.StoreBatchSize, r.Settings.Workers)
	if r.Settings.DryRun {
		fmt.Fprintf(&b, "  mode:             dry run\n")
	}

	heading.Fprintln(&b, "Documents")
	good.Fprintf(&b, "  processed:        %d\n", t.DocumentsProcessed)
	if t.DocumentsFailed > 0 {
		bad.Fprintf(&b, "  failed:           %d\n", t.DocumentsFailed)
	} else {
		fmt.Fprintf(&b, "  failed:           0\n")
	}
	fmt.Fprintf(&b, "  skipped:          %d\n", t.DocumentsSkipped)
	fmt.Fprintf(&b, "  chunks:           %d (avg %.1f chars, min %d, max %d)\n", t.Chunks, t.AvgChunkChars(), t.MinChunkChars, t.MaxChunkChars)

	heading.Fprintln(&b, "Throughput")
	fmt.Fprintf(&b, "  wall time:        %.2fs\n", r.WallSeconds)
	fmt.Fprintf(&b, "  documents/sec:    %.2f\n", r.DocsPerSecond())
	fmt.Fprintf(&b, "  chunks/sec:       %.2f\n", r.ChunksPerSecond())
	fmt.Fprintf(&b, "  api calls:        %d (%d retries, avg %.1f ms)\n", t.APICalls, t.APIRetries, t.AvgAPIMillis())
	fmt.Fprintf(&b, "  index calls:      %d (%d retries, avg %.1f ms)\n", t.IndexCalls, t.IndexRetries, t.AvgIndexMillis())

	heading.Fprintln(&b, "Time breakdown")
	total := t.DocumentSeconds
	fmt.Fprintf(&b, "  api:              %.2fs (%.1f%%)\n", t.APISeconds, percent(t.APISeconds, total))
	fmt.Fprintf(&b, "  index:            %.2fs (%.1f%%)\n", t.IndexSeconds, percent(t.IndexSeconds, total))
	fmt.Fprintf(&b, "  other:            %.2fs (%.1f%%)\n", t.OtherSeconds(), percent(t.OtherSeconds(), total))
	fmt.Fprintf(&b, "  commit:           %.2fs\n", t.CommitSeconds)

	if len(r.ChunkHistogram) > 0 {
		heading.Fprintln(&b, "Chunk size distribution")
		buckets := make([]int, 0, len(r.ChunkHistogram))
		for k := range r.ChunkHistogram {
			buckets = append(buckets, k)
		}
		slices.Sort(buckets)
		for _, k := range buckets {
			n := r.ChunkHistogram[k]
			fmt.Fprintf(&b, "  %5d-%-5d %7d (%.1f%%)\n", k, k+HistogramBucket-1, n, percent(float64(n), float64(t.Chunks)))
		}
	}

	writeRanks(&b, "Largest documents", r.Largest, func(d DocumentRank) string {
		return fmt.Sprintf("%d bytes", d.SizeBytes)
	})
	writeRanks(&b, "Most chunks", r.MostChunked, func(d DocumentRank) string {
		return fmt.Sprintf("%d chunks", d.Chunks)
	})

	if len(r.Errors) > 0 {
		heading.Fprintln(&b, "Errors")
		for _, e := range r.Errors {
			bad.Fprintf(&b, "  [shard %d] %s (%s): %s\n", e.ShardID, e.DocumentID, e.Class, e.Message)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeRanks(b *strings.Builder, title string, ranks []DocumentRank, detail func(DocumentRank) string) {
	if len(ranks) == 0 {
		return
	}
	heading.Fprintln(b, title)
	for i, d := range ranks {
		fmt.Fprintf(b, "  %d. %s: %s\n", i+1, d.DocumentID, detail(d))
	}
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
