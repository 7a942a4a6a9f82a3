package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/embedbench/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, BackendHTTP, cfg.Backend)
	assert.Equal(t, 1, cfg.BatchSize)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(
		WithBackend(BackendOpenAI),
		WithEmbeddingHost("http://localhost:11434"),
		WithEmbeddingModel("embeddinggemma"),
		WithBatchSize(32),
		WithTimeout(5*time.Second),
		WithRetry(5, 10*time.Millisecond),
		WithRateLimit(20),
		WithInsecureSkipVerify(true),
	)

	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 20.0, cfg.RateLimit)
	assert.True(t, cfg.InsecureSkipVerify)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost, "openai hosts get /v1")
}

func TestNormalize_HTTPHostUnchanged(t *testing.T) {
	cfg := NewConfig(WithEmbeddingHost("http://tei:8080/embed/"))
	cfg.Normalize()
	assert.Equal(t, "http://tei:8080/embed/", cfg.EmbeddingHost)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		opts []ConfigOption
		want error
	}{
		{"unknown backend", []ConfigOption{WithBackend("grpc")}, ErrUnknownBackend},
		{"missing host", []ConfigOption{WithEmbeddingHost("")}, ErrMissingHost},
		{"openai without model", []ConfigOption{WithBackend(BackendOpenAI)}, ErrMissingModel},
		{"zero batch", []ConfigOption{WithBatchSize(0)}, core.ErrConfiguration},
		{"zero timeout", []ConfigOption{WithTimeout(0)}, core.ErrConfiguration},
		{"zero attempts", []ConfigOption{WithRetry(0, time.Second)}, core.ErrConfiguration},
		{"negative rate", []ConfigOption{WithRateLimit(-1)}, core.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opts...).Validate()
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

type fixedEmbedder struct {
	vector []float32
	err    error
}

func (f fixedEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	return f.vector, f.err
}

func (f fixedEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, f.err
}

func TestProbe(t *testing.T) {
	dims, err := Probe(context.Background(), fixedEmbedder{vector: make([]float32, 384)})
	require.NoError(t, err)
	assert.Equal(t, 384, dims)

	_, err = Probe(context.Background(), fixedEmbedder{vector: []float32{}})
	assert.ErrorIs(t, err, ErrEmptyEmbedding)

	boom := errors.New("boom")
	_, err = Probe(context.Background(), fixedEmbedder{err: boom})
	assert.ErrorIs(t, err, boom)
}
