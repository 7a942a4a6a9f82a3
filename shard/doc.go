// Package shard assigns documents to statically partitioned process
// instances.
//
// Every instance of a run enumerates the same documents in the same order
// and keeps only the documents it owns, so instances need no coordination.
package shard
