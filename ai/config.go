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


package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/embedbench/core"
)

// Backend selects the embedding client implementation.
type Backend string

const (
	// BackendHTTP posts {"inputs": ...} to a text-embeddings inference endpoint.
	BackendHTTP Backend = "http"

	// BackendOpenAI uses an OpenAI-compatible /v1/embeddings API.
	BackendOpenAI Backend = "openai"
)

// Config holds configuration for the embedding service.
type Config struct {
	// Backend selects the client. Default: http
	Backend Backend

	// EmbeddingHost is the embedding endpoint. For the http backend this is
	// the full URL that accepts POSTs; for openai it is the API base URL.
	// Example: "http://localhost:8080/embed", "http://localhost:11434/v1"
	EmbeddingHost string

	// EmbeddingModel is the model identifier. Required by the openai backend.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// BatchSize is the number of texts sent per request. 1 selects the
	// unbatched request form. Default: 1
	BatchSize int

	// Timeout bounds each request. Default: 60s
	Timeout time.Duration

	// MaxAttempts is the number of attempts per request, including the first. Default: 3
	MaxAttempts int

	// RetryDelay is the first backoff delay; it doubles on each retry. Default: 1s
	RetryDelay time.Duration

	// RateLimit caps requests per second across all workers. 0 disables it.
	RateLimit float64

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the embedding backend.
func WithBackend(backend Backend) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithEmbeddingHost sets the embedding service URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithBatchSize sets the number of texts per request.
func WithBatchSize(n int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = n
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithRetry sets the attempt count and first backoff delay.
func WithRetry(maxAttempts int, delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxAttempts = maxAttempts
		c.RetryDelay = delay
	}
}

// WithRateLimit caps requests per second.
func WithRateLimit(perSecond float64) ConfigOption {
	return func(c *Config) {
		c.RateLimit = perSecond
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) ConfigOption {
	return func(c *Config) {
		c.InsecureSkipVerify = skip
	}
}

// DefaultConfig returns a Config with defaults for a local embedding server.
func DefaultConfig() *Config {
	return &Config{
		Backend:       BackendHTTP,
		EmbeddingHost: "http://localhost:8080/embed",
		BatchSize:     1,
		Timeout:       60 * time.Second,
		MaxAttempts:   3,
		RetryDelay:    time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible hosts get a /v1 suffix if missing.
func (c *Config) Normalize() {
	if c.Backend == "" {
		c.Backend = BackendHTTP
	}
	if c.Backend == BackendOpenAI && c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Backend {
	case BackendHTTP, BackendOpenAI:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.EmbeddingHost == "" {
		return ErrMissingHost
	}
	if c.Backend == BackendOpenAI && c.EmbeddingModel == "" {
		return ErrMissingModel
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1, got %d", core.ErrConfiguration, c.BatchSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", core.ErrConfiguration)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", core.ErrConfiguration, c.MaxAttempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay cannot be negative", core.ErrConfiguration)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit cannot be negative", core.ErrConfiguration)
	}
	return nil
}
