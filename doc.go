// Package embedbench runs one shard of a chunk, embed and index benchmark.
//
// A Runner enumerates the input documents, keeps the ones its shard owns,
// and drives them through ingestion.Pipeline into a two-collection document
// store. Each shard writes a metrics.Summary; summaries of all shards are
// merged into a report and appended to a run-history ledger.
package embedbench
