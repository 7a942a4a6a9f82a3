package shard

import (
	"fmt"
	"iter"

	"github.com/poiesic/embedbench/core"
)

// Strategy selects the partition key of a document.
type Strategy string

const (
	// ByIndex assigns document i of the enumeration to shard i % count.
	ByIndex Strategy = "index"

	// ByHash assigns a document by the BLAKE2b hash of its id. Assignments
	// survive documents being added to or removed from the corpus.
	ByHash Strategy = "hash"
)

// ErrUnknownStrategy indicates an unsupported partition strategy.
var ErrUnknownStrategy = fmt.Errorf("%w: unknown shard strategy", core.ErrConfiguration)

// ParseStrategy converts a configuration value into a Strategy.
// An empty value selects ByIndex.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", ByIndex:
		return ByIndex, nil
	case ByHash:
		return ByHash, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Key returns the partition key of ref under strategy.
func (s Strategy) Key(ref core.DocumentRef) uint64 {
	if s == ByHash {
		return uint64(core.IDFromContent(ref.ID))
	}
	return uint64(ref.Index)
}

// Owns reports whether ref belongs to the shard.
func Owns(ref core.DocumentRef, assignment core.ShardAssignment, strategy Strategy) bool {
	return strategy.Key(ref)%uint64(assignment.Count) == uint64(assignment.ID)
}

// Partition returns the refs owned by the shard, in enumeration order.
func Partition(refs []core.DocumentRef, assignment core.ShardAssignment, strategy Strategy) ([]core.DocumentRef, error) {
	if err := assignment.Validate(); err != nil {
		return nil, err
	}
	var owned []core.DocumentRef
	for ref := range Owned(refs, assignment, strategy) {
		owned = append(owned, ref)
	}
	return owned, nil
}

// Owned yields the refs owned by the shard without copying the input.
// assignment must be valid.
func Owned(refs []core.DocumentRef, assignment core.ShardAssignment, strategy Strategy) iter.Seq[core.DocumentRef] {
	return func(yield func(core.DocumentRef) bool) {
		for _, ref := range refs {
			if Owns(ref, assignment, strategy) && !yield(ref) {
				return
			}
		}
	}
}
