// Package metrics collects ingestion statistics and merges them across shards.
//
// Inside a process, each worker owns a DocumentStats carried in the context
// of the document it is processing; the embedding client and the indexer
// report every remote call into it with ObserveAPICall and ObserveIndexCall.
// Finished documents are folded into a Collector, the only metrics state
// shared between workers.
//
// At process exit the Collector produces a Summary, a versioned JSON record
// written to a known path. Merge reduces the summaries of all shards of a
// run into one Report: totals are summed, rates use the slowest shard's wall
// time, and average latencies are total time over total calls.
package metrics
