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


package httpembed

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/embedbench/ai"
	"github.com/poiesic/embedbench/core"
	"github.com/poiesic/embedbench/metrics"
	"github.com/poiesic/embedbench/retry"
	"github.com/tmc/langchaingo/embeddings"
	"golang.org/x/time/rate"
)

const maxErrorBody = 512

// Client implements ai.Embedder against an {"inputs": ...} endpoint.
type Client struct {
	url        string
	batchSize  int
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     retry.Policy
	logger     *slog.Logger
}

var (
	_ ai.Embedder         = (*Client)(nil)
	_ embeddings.Embedder = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the HTTP client built from the config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithRetryPolicy replaces the retry policy built from the config.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) error {
		if p.MaxAttempts < 1 {
			return retry.ErrInvalidMaxAttempts
		}
		c.policy = p
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a client from config. The config is validated and
// normalized before use.
func NewClient(config *ai.Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	logger := slog.Default().With("component", "http-embedder")
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = config.MaxAttempts
	policy.BaseDelay = config.RetryDelay
	policy.Logger = logger

	c := &Client{
		url:        config.EmbeddingHost,
		batchSize:  config.BatchSize,
		httpClient: &http.Client{Timeout: config.Timeout, Transport: transport},
		policy:     policy,
		logger:     logger,
	}
	if config.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), max(1, int(config.RateLimit)))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// EmbedText embeds one text with a single unbatched request.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.request(ctx, []string{text}, false)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in groups of the configured batch size, one
// request per group. With a batch size of 1 every text is sent unbatched.
// Output order matches input order.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	batched := c.batchSize > 1
	out := make([][]float32, 0, len(texts))
	for _, group := range embeddings.BatchTexts(texts, c.batchSize) {
		vectors, err := c.request(ctx, group, batched)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedDocuments implements embeddings.Embedder.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return c.EmbedTexts(ctx, texts)
}

// EmbedQuery implements embeddings.Embedder.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.EmbedText(ctx, text)
}

// request sends one group with retries. Every attempt is reported to the
// document stats carried by ctx.
func (c *Client) request(ctx context.Context, texts []string, batched bool) ([][]float32, error) {
	var payload any = map[string]any{"inputs": texts}
	if !batched {
		payload = map[string]any{"inputs": texts[0]}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	policy := c.policy
	policy.OnAttempt = func(attempt int, elapsed time.Duration, err error) {
		metrics.ObserveAPICall(ctx, attempt, elapsed)
		if err != nil {
			c.logger.Debug("embedding request failed", "attempt", attempt, "texts", len(texts), "class", core.ErrorClass(err), "err", err)
		}
	}

	var vectors [][]float32
	err = policy.Do(ctx, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		vectors, err = c.post(ctx, body)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, received %d vectors", core.ErrBatchLengthMismatch, len(texts), len(vectors))
	}
	return vectors, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &core.HTTPError{
			Op:         http.MethodPost,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var raw any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", core.ErrUnrecognizedResponse, err)
	}
	return parseVectors(raw)
}
