package chunking

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeParagraphs(rng *rand.Rand, count, maxWords int) []string {
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}
	paras := make([]string, count)
	for i := range paras {
		n := 1 + rng.Intn(maxWords)
		ws := make([]string, n)
		for j := range ws {
			ws[j] = words[rng.Intn(len(words))]
		}
		paras[i] = strings.Join(ws, " ")
	}
	return paras
}

func TestParagraph_EmptyText(t *testing.T) {
	c, err := NewParagraphChunker(100, 10)
	require.NoError(t, err)
	assert.Empty(t, Split(c, ""))
}

func TestParagraph_SingleSmallDocument(t *testing.T) {
	c, err := NewParagraphChunker(100, 10)
	require.NoError(t, err)

	text := "First paragraph.\n\nSecond paragraph."
	chunks := Split(c, text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, EstimateTokens(text), chunks[0].Size)
}

func TestParagraph_NeverExceedsBudget(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 100; trial++ {
		maxTokens := 20 + rng.Intn(80)
		overlap := rng.Intn(maxTokens / 2)
		text := strings.Join(makeParagraphs(rng, 1+rng.Intn(40), 30), "\n\n")

		c, err := NewParagraphChunker(maxTokens, overlap)
		require.NoError(t, err)

		for _, ch := range Split(c, text) {
			assert.LessOrEqual(t, ch.Size, maxTokens, "trial %d: chunk %d exceeds budget", trial, ch.Index)
			assert.LessOrEqual(t, ch.Chars, maxTokens*CharsPerToken)
		}
	}
}

func TestParagraph_KeepsEveryParagraph(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	paras := makeParagraphs(rng, 60, 15)
	for i := range paras {
		paras[i] = fmt.Sprintf("[%d] %s", i, paras[i])
	}
	text := strings.Join(paras, "\n\n")

	c, err := NewParagraphChunker(50, 10)
	require.NoError(t, err)
	chunks := Split(c, text)

	for _, p := range paras {
		found := false
		for _, ch := range chunks {
			if strings.Contains(ch.Text, p) {
				found = true
				break
			}
		}
		assert.True(t, found, "paragraph %q missing from output", p)
	}

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index, "indexes are contiguous")
		assert.True(t, strings.Contains(text, ch.Text), "chunks are slices of the source")
	}
}

func TestParagraph_WithoutOverlapPartitionsText(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	text := strings.Join(makeParagraphs(rng, 30, 20), "\n\n")

	c, err := NewParagraphChunker(40, 0)
	require.NoError(t, err)

	var sb strings.Builder
	for _, ch := range Split(c, text) {
		sb.WriteString(ch.Text)
	}
	assert.Equal(t, text, sb.String(), "without overlap chunks concatenate to the source")
}

func TestParagraph_CarriesOverlap(t *testing.T) {
	// Each paragraph is 40 chars (10 tokens) plus a 2 char separator.
	p := func(r byte) string { return strings.Repeat(string(r), 40) }
	text := strings.Join([]string{p('a'), p('b'), p('c'), p('d')}, "\n\n")

	c, err := NewParagraphChunker(25, 12)
	require.NoError(t, err)
	chunks := Split(c, text)
	require.Greater(t, len(chunks), 1)

	// The last paragraph of each chunk opens the next one.
	for i := 1; i < len(chunks); i++ {
		prevParas := strings.Split(strings.TrimSpace(chunks[i-1].Text), "\n\n")
		last := prevParas[len(prevParas)-1]
		assert.True(t, strings.HasPrefix(chunks[i].Text, last), "chunk %d should start with %q", i, last)
	}
}

func TestParagraph_OversizedParagraphFallsBackToFixed(t *testing.T) {
	const maxTokens, overlap = 10, 2
	huge := strings.Repeat("0123456789", 20) // 200 chars, 50 tokens
	text := "intro\n\n" + huge + "\n\noutro"

	c, err := NewParagraphChunker(maxTokens, overlap)
	require.NoError(t, err)
	chunks := Split(c, text)

	require.Greater(t, len(chunks), 3)
	assert.Equal(t, "intro\n\n", chunks[0].Text, "pending chunk is flushed before the forced split")
	assert.Equal(t, "outro", chunks[len(chunks)-1].Text)

	forced := chunks[1 : len(chunks)-1]
	for _, ch := range forced {
		assert.LessOrEqual(t, ch.Chars, maxTokens*CharsPerToken, "forced sub-chunks stay within the character budget")
	}
	assert.Equal(t, maxTokens*CharsPerToken, forced[0].Chars)

	// The forced pieces reconstruct the oversized paragraph with proportional overlap.
	assert.Equal(t, huge+"\n\n", reconstruct(forced, overlap*CharsPerToken))
}

func TestParagraph_SingleParagraphSplitsOnLines(t *testing.T) {
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %02d with a few more words", i)
	}
	text := strings.Join(lines, "\n")

	c, err := NewParagraphChunker(30, 0)
	require.NoError(t, err)
	chunks := Split(c, text)

	require.Greater(t, len(chunks), 1)
	var sb strings.Builder
	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.Size, 30)
		sb.WriteString(ch.Text)
	}
	assert.Equal(t, text, sb.String())
}

func TestParagraph_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	text := strings.Join(makeParagraphs(rng, 25, 40), "\n\n")

	c, err := NewParagraphChunker(64, 16)
	require.NoError(t, err)

	assert.Equal(t, Split(c, text), Split(c, text))
}

func TestParagraph_SplitText(t *testing.T) {
	c, err := NewParagraphChunker(3, 0)
	require.NoError(t, err)

	parts, err := c.SplitText("aaaa\n\nbbbb\n\ncccc")
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa\n\nbbbb\n\n", "cccc"}, parts)
}
