package metrics

import "errors"

var (
	// ErrNoSummaries is returned when Merge is called without summaries.
	ErrNoSummaries = errors.New("no summaries to merge")

	// ErrUnsupportedVersion is returned for a summary written by a newer schema.
	ErrUnsupportedVersion = errors.New("unsupported summary schema version")

	// ErrDuplicateShard is returned when two summaries claim the same shard.
	ErrDuplicateShard = errors.New("duplicate shard summary")

	// ErrShardCountMismatch is returned when summaries disagree on the shard count.
	ErrShardCountMismatch = errors.New("summaries disagree on shard count")

	// ErrRunMismatch is returned when summaries belong to different runs.
	ErrRunMismatch = errors.New("summaries belong to different runs")

	// ErrShardOutOfRange is returned for a shard id outside [0, shard count).
	ErrShardOutOfRange = errors.New("shard id out of range")
)
