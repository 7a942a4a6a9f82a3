package storage

import (
	"context"
	"sync/atomic"
)

// NopStore is a DocumentStore that discards every write. It backs dry runs.
type NopStore struct {
	docs    atomic.Int64
	commits atomic.Int64
}

var _ DocumentStore = (*NopStore)(nil)

// Upsert counts and discards docs.
func (s *NopStore) Upsert(_ context.Context, _ string, docs []map[string]any) error {
	s.docs.Add(int64(len(docs)))
	return nil
}

// Commit does nothing.
func (s *NopStore) Commit(context.Context, string) error {
	s.commits.Add(1)
	return nil
}

// Ping always succeeds.
func (s *NopStore) Ping(context.Context, string) error {
	return nil
}

// Discarded returns the number of documents passed to Upsert.
func (s *NopStore) Discarded() int64 {
	return s.docs.Load()
}

// Commits returns the number of Commit calls.
func (s *NopStore) Commits() int64 {
	return s.commits.Load()
}
