package csvledger

import (
	"strconv"
	"time"

	"github.com/poiesic/embedbench/core"
)

type column struct {
	name string
	get  func(*core.RunRecord) string
	set  func(*core.RunRecord, string) error
}

func intColumn(name string, field func(*core.RunRecord) *int) column {
	return column{
		name: name,
		get:  func(r *core.RunRecord) string { return strconv.Itoa(*field(r)) },
		set: func(r *core.RunRecord, s string) error {
			if s == "" {
				return nil
			}
			v, err := strconv.Atoi(s)
			if err != nil {
				return err
			}
			*field(r) = v
			return nil
		},
	}
}

func floatColumn(name string, field func(*core.RunRecord) *float64) column {
	return column{
		name: name,
		get:  func(r *core.RunRecord) string { return strconv.FormatFloat(*field(r), 'f', -1, 64) },
		set: func(r *core.RunRecord, s string) error {
			if s == "" {
				return nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*field(r) = v
			return nil
		},
	}
}

func stringColumn(name string, field func(*core.RunRecord) *string) column {
	return column{
		name: name,
		get:  func(r *core.RunRecord) string { return *field(r) },
		set: func(r *core.RunRecord, s string) error {
			*field(r) = s
			return nil
		},
	}
}

var timestampColumn = column{
	name: "timestamp",
	get:  func(r *core.RunRecord) string { return r.Timestamp.UTC().Format(time.RFC3339Nano) },
	set: func(r *core.RunRecord, s string) error {
		if s == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		r.Timestamp = t.UTC()
		return nil
	},
}

var v1Columns = []column{
	intColumn("schema_version", func(r *core.RunRecord) *int { return &r.SchemaVersion }),
	timestampColumn,
	stringColumn("run_id", func(r *core.RunRecord) *string { return &r.RunID }),
	intColumn("instances", func(r *core.RunRecord) *int { return &r.Instances }),
	stringColumn("chunker", func(r *core.RunRecord) *string { return &r.Chunker }),
	intColumn("chunk_size", func(r *core.RunRecord) *int { return &r.ChunkSize }),
	intColumn("overlap", func(r *core.RunRecord) *int { return &r.Overlap }),
	intColumn("api_batch_size", func(r *core.RunRecord) *int { return &r.APIBatchSize }),
	intColumn("store_batch_size", func(r *core.RunRecord) *int { return &r.StoreBatchSize }),
	intColumn("workers", func(r *core.RunRecord) *int { return &r.Workers }),
	intColumn("documents", func(r *core.RunRecord) *int { return &r.Documents }),
	intColumn("documents_failed", func(r *core.RunRecord) *int { return &r.DocumentsFailed }),
	intColumn("chunks", func(r *core.RunRecord) *int { return &r.Chunks }),
	floatColumn("wall_seconds", func(r *core.RunRecord) *float64 { return &r.WallSeconds }),
	floatColumn("docs_per_second", func(r *core.RunRecord) *float64 { return &r.DocsPerSecond }),
	floatColumn("chunks_per_second", func(r *core.RunRecord) *float64 { return &r.ChunksPerSecond }),
	floatColumn("avg_api_ms", func(r *core.RunRecord) *float64 { return &r.AvgAPIMillis }),
	floatColumn("avg_index_ms", func(r *core.RunRecord) *float64 { return &r.AvgIndexMillis }),
}

var v2Columns = append(v1Columns[:len(v1Columns):len(v1Columns)],
	stringColumn("shard_strategy", func(r *core.RunRecord) *string { return &r.ShardStrategy }),
	stringColumn("similarity", func(r *core.RunRecord) *string { return &r.Similarity }),
	intColumn("vector_dims", func(r *core.RunRecord) *int { return &r.VectorDims }),
	intColumn("documents_skipped", func(r *core.RunRecord) *int { return &r.DocumentsSkipped }),
	intColumn("api_retries", func(r *core.RunRecord) *int { return &r.APIRetries }),
)

// schemas maps each known row version to its columns. A version's columns
// always start with the columns of the previous version.
var schemas = map[int][]column{
	1: v1Columns,
	2: v2Columns,
}

// Columns returns the column names of rows written at version.
func Columns(version int) ([]string, bool) {
	cols, ok := schemas[version]
	if !ok {
		return nil, false
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names, true
}
