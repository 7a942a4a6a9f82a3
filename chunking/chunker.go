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


package chunking

import (
	"fmt"
	"iter"
	"slices"
	"unicode/utf8"

	"github.com/poiesic/embedbench/core"
	"github.com/tmc/langchaingo/textsplitter"
)

// Strategy names a chunking algorithm.
type Strategy string

const (
	// StrategyFixed is the fixed-size sliding window.
	StrategyFixed Strategy = "fixed"
	// StrategyParagraph is the paragraph-aware token-budgeted splitter.
	StrategyParagraph Strategy = "paragraph"
)

// CharsPerToken is the characters-per-token heuristic used for token estimates.
const CharsPerToken = 4

// Chunker turns document text into an ordered sequence of chunk candidates.
// Implementations must be safe for concurrent use.
type Chunker interface {
	textsplitter.TextSplitter

	// Chunks returns the chunks of text in source order. Indexes are
	// contiguous from zero. Empty text yields no chunks.
	Chunks(text string) iter.Seq[core.ChunkCandidate]

	// Unit names the unit of ChunkCandidate.Size ("chars" or "tokens").
	Unit() string
}

// Config selects and parameterises a chunker.
type Config struct {
	Strategy  Strategy
	ChunkSize int // characters for fixed, estimated tokens for paragraph
	Overlap   int // same unit as ChunkSize
}

// Validate checks the chunker parameters.
func (c Config) Validate() error {
	if c.Strategy != StrategyFixed && c.Strategy != StrategyParagraph {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Strategy)
	}
	return validateSizes(c.ChunkSize, c.Overlap)
}

func validateSizes(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap %d, chunk size %d", ErrInvalidOverlap, overlap, size)
	}
	return nil
}

// New creates the chunker described by cfg.
func New(cfg Config) (Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Strategy {
	case StrategyParagraph:
		return NewParagraphChunker(cfg.ChunkSize, cfg.Overlap)
	default:
		return NewFixedChunker(cfg.ChunkSize, cfg.Overlap)
	}
}

// Split collects all chunks of text.
func Split(c Chunker, text string) []core.ChunkCandidate {
	return slices.Collect(c.Chunks(text))
}

// EstimateTokens estimates the token count of s as ceil(runes/4).
func EstimateTokens(s string) int {
	return tokensForRunes(utf8.RuneCountInString(s))
}

func tokensForRunes(n int) int {
	return (n + CharsPerToken - 1) / CharsPerToken
}

func texts(seq iter.Seq[core.ChunkCandidate]) []string {
	var out []string
	for c := range seq {
		out = append(out, c.Text)
	}
	return out
}

// windows yields the [start, end) rune offsets of a sliding window over n runes.
// It stops after the first window that reaches n.
func windows(n, size, overlap int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		step := size - overlap
		for start := 0; start < n; start += step {
			end := min(start+size, n)
			if !yield(start, end) || end == n {
				return
			}
		}
	}
}
