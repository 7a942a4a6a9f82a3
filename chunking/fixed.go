package chunking

import (
	"iter"

	"github.com/poiesic/embedbench/core"
)

// FixedChunker splits text into windows of a fixed number of characters.
type FixedChunker struct {
	size    int
	overlap int
}

var _ Chunker = (*FixedChunker)(nil)

// NewFixedChunker creates a fixed window chunker.
// size and overlap are in characters and must satisfy 0 <= overlap < size.
func NewFixedChunker(size, overlap int) (*FixedChunker, error) {
	if err := validateSizes(size, overlap); err != nil {
		return nil, err
	}
	return &FixedChunker{size: size, overlap: overlap}, nil
}

// Chunks implements Chunker.
func (f *FixedChunker) Chunks(text string) iter.Seq[core.ChunkCandidate] {
	return func(yield func(core.ChunkCandidate) bool) {
		runes := []rune(text)
		index := 0
		for start, end := range windows(len(runes), f.size, f.overlap) {
			c := core.ChunkCandidate{
				Index: index,
				Text:  string(runes[start:end]),
				Size:  end - start,
				Chars: end - start,
			}
			if !yield(c) {
				return
			}
			index++
		}
	}
}

// SplitText implements textsplitter.TextSplitter.
func (f *FixedChunker) SplitText(text string) ([]string, error) {
	return texts(f.Chunks(text)), nil
}

// Unit implements Chunker.
func (f *FixedChunker) Unit() string {
	return "chars"
}

// Overlap returns the overlap in characters.
func (f *FixedChunker) Overlap() int {
	return f.overlap
}
