// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
)

// Validate checks that the assignment describes a real shard.
//
// Validation rules:
//   - Count must be at least 1
//   - ID must be in [0, Count)
func (s ShardAssignment) Validate() error {
	if s.Count < 1 {
		return fmt.Errorf("%w: shard count %d must be at least 1", ErrInvalidShard, s.Count)
	}
	if s.ID < 0 || s.ID >= s.Count {
		return fmt.Errorf("%w: shard id %d not in [0, %d)", ErrInvalidShard, s.ID, s.Count)
	}
	return nil
}

// ValidateChunks checks that chunks belong to parentID and that their
// indices are contiguous from zero in slice order.
func ValidateChunks(parentID string, chunks []*Chunk) error {
	if parentID == "" {
		return ErrEmptyDocumentID
	}
	for i, c := range chunks {
		if c.ParentID != parentID {
			return fmt.Errorf("chunk %d belongs to %q, not %q", i, c.ParentID, parentID)
		}
		if c.Index != i {
			return fmt.Errorf("chunk at position %d has index %d", i, c.Index)
		}
	}
	return nil
}

// ValidateVectors checks that every vector has dims components.
// dims <= 0 disables the check.
func ValidateVectors(vectors [][]float32, dims int) error {
	if dims <= 0 {
		return nil
	}
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(v), dims)
		}
	}
	return nil
}
