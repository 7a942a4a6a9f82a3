package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings.
	// The returned slice has one embedding per input, in input order.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ProbeText is embedded by Probe.
const ProbeText = "embedding endpoint probe"

// Probe embeds ProbeText and returns the dimension of the result.
func Probe(ctx context.Context, e Embedder) (int, error) {
	v, err := e.EmbedText(ctx, ProbeText)
	if err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, ErrEmptyEmbedding
	}
	return len(v), nil
}
