package storage

import (
	"context"

	"github.com/poiesic/embedbench/core"
)

// DocumentStore is a search index reachable over HTTP that accepts batched
// JSON document upserts and an explicit commit.
// Implementations must be thread-safe and support concurrent access.
type DocumentStore interface {
	// Upsert writes docs to collection without making them visible to queries.
	// Returns a *core.HTTPError for non-2xx responses.
	Upsert(ctx context.Context, collection string, docs []map[string]any) error

	// Commit makes all prior writes to collection visible.
	Commit(ctx context.Context, collection string) error

	// Ping checks that collection is reachable.
	Ping(ctx context.Context, collection string) error
}

// LedgerRepository is the append-only run-history ledger.
// Rows are never rewritten; readers upgrade older schema versions.
type LedgerRepository interface {
	// Append adds rows to the end of the ledger.
	Append(ctx context.Context, records ...core.RunRecord) error

	// List returns every row in append order in the current row shape.
	// SchemaVersion keeps the version each row was written with; columns
	// added after that version are empty.
	List(ctx context.Context) ([]core.RunRecord, error)

	// Close releases the ledger.
	Close() error
}
