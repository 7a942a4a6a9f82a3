package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/embedbench/ai"
	"github.com/poiesic/embedbench/core"
	"github.com/poiesic/embedbench/metrics"
	"github.com/poiesic/embedbench/retry"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder  embeddings.Embedder
	batchSize int
	policy    retry.Policy
	logger    *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates a new embedder using the provided configuration.
// The config is validated and normalized before use.
func NewEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.BatchSize),
	)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-embedder")
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = config.MaxAttempts
	policy.BaseDelay = config.RetryDelay
	policy.Logger = logger
	// langchaingo does not expose status codes, so every error except
	// cancellation and contract violations is retried.
	policy.Retryable = func(err error) bool {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, core.ErrContractViolation)
	}

	return &Embedder{
		embedder:  embedder,
		batchSize: config.BatchSize,
		policy:    policy,
		logger:    logger,
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates embeddings in groups of the configured batch size.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	out := make([][]float32, 0, len(texts))
	for _, group := range embeddings.BatchTexts(texts, e.batchSize) {
		vectors, err := e.embed(ctx, group)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	policy := e.policy
	policy.OnAttempt = func(attempt int, elapsed time.Duration, err error) {
		metrics.ObserveAPICall(ctx, attempt, elapsed)
	}

	var vectors [][]float32
	err := policy.Do(ctx, func(ctx context.Context) error {
		var err error
		vectors, err = e.embedder.EmbedDocuments(ctx, texts)
		return err
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, received %d vectors", core.ErrBatchLengthMismatch, len(texts), len(vectors))
	}
	return vectors, nil
}
