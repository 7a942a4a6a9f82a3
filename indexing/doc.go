// Package indexing writes embedded chunks and their parent records to a
// document store.
//
// Writes are never committed individually. Commit makes everything written
// during a run visible at once, so an interrupted run publishes nothing.
package indexing
