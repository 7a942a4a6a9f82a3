package chunking

import (
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/embedbench/core"
)

var (
	// A blank line, possibly containing whitespace, and any whitespace after it.
	paragraphBreak = regexp.MustCompile(`\n[ \t\r\f\v]*\n\s*`)
	lineBreak      = regexp.MustCompile(`\n`)
)

// ParagraphChunker packs consecutive paragraphs into chunks within an
// estimated token budget.
type ParagraphChunker struct {
	maxTokens     int
	overlapTokens int
	fallback      *FixedChunker
}

var _ Chunker = (*ParagraphChunker)(nil)

// NewParagraphChunker creates a paragraph chunker.
// maxTokens and overlapTokens are estimated tokens and must satisfy
// 0 <= overlapTokens < maxTokens.
func NewParagraphChunker(maxTokens, overlapTokens int) (*ParagraphChunker, error) {
	if err := validateSizes(maxTokens, overlapTokens); err != nil {
		return nil, err
	}
	fallback, err := NewFixedChunker(maxTokens*CharsPerToken, overlapTokens*CharsPerToken)
	if err != nil {
		return nil, err
	}
	return &ParagraphChunker{
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
		fallback:      fallback,
	}, nil
}

type segment struct {
	text  string
	runes int
}

// Chunks implements Chunker.
//
// Each paragraph keeps its trailing separator, so chunk texts are contiguous
// slices of the input and no character is dropped.
func (p *ParagraphChunker) Chunks(text string) iter.Seq[core.ChunkCandidate] {
	return func(yield func(core.ChunkCandidate) bool) {
		index := 0
		emit := func(s string) bool {
			c := core.ChunkCandidate{
				Index: index,
				Text:  s,
				Size:  EstimateTokens(s),
				Chars: utf8.RuneCountInString(s),
			}
			index++
			return yield(c)
		}

		var current []segment
		currentRunes := 0

		for _, seg := range paragraphs(text) {
			if tokensForRunes(seg.runes) > p.maxTokens {
				if len(current) > 0 {
					if !emit(joinSegments(current)) {
						return
					}
					current, currentRunes = nil, 0
				}
				for piece := range p.fallback.Chunks(seg.text) {
					if !emit(piece.Text) {
						return
					}
				}
				continue
			}

			if len(current) > 0 && tokensForRunes(currentRunes+seg.runes) > p.maxTokens {
				if !emit(joinSegments(current)) {
					return
				}
				current = p.carry(current, seg)
				currentRunes = countRunes(current)
			}
			current = append(current, seg)
			currentRunes += seg.runes
		}

		if len(current) > 0 {
			emit(joinSegments(current))
		}
	}
}

// carry returns the trailing paragraphs of prev to repeat at the start of the
// next chunk: the longest suffix within the overlap budget, trimmed from the
// front until next still fits in the chunk budget.
func (p *ParagraphChunker) carry(prev []segment, next segment) []segment {
	if p.overlapTokens == 0 {
		return nil
	}

	start, runes := len(prev), 0
	for start > 0 && tokensForRunes(runes+prev[start-1].runes) <= p.overlapTokens {
		start--
		runes += prev[start].runes
	}
	for start < len(prev) && tokensForRunes(runes+next.runes) > p.maxTokens {
		runes -= prev[start].runes
		start++
	}

	tail := make([]segment, len(prev)-start)
	copy(tail, prev[start:])
	return tail
}

// SplitText implements textsplitter.TextSplitter.
func (p *ParagraphChunker) SplitText(text string) ([]string, error) {
	return texts(p.Chunks(text)), nil
}

// Unit implements Chunker.
func (p *ParagraphChunker) Unit() string {
	return "tokens"
}

// paragraphs splits text after blank lines. Text with a single paragraph is
// split after every newline instead.
func paragraphs(text string) []segment {
	segs := splitAfter(text, paragraphBreak)
	if len(segs) == 1 {
		segs = splitAfter(text, lineBreak)
	}
	return segs
}

func splitAfter(text string, re *regexp.Regexp) []segment {
	var segs []segment
	prev := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[1] > prev {
			segs = append(segs, newSegment(text[prev:loc[1]]))
			prev = loc[1]
		}
	}
	if prev < len(text) {
		segs = append(segs, newSegment(text[prev:]))
	}
	return segs
}

func newSegment(s string) segment {
	return segment{text: s, runes: utf8.RuneCountInString(s)}
}

func joinSegments(segs []segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.text)
	}
	return sb.String()
}

func countRunes(segs []segment) int {
	n := 0
	for _, s := range segs {
		n += s.runes
	}
	return n
}
