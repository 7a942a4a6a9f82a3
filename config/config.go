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


package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/poiesic/embedbench/ai"
	"github.com/poiesic/embedbench/chunking"
	"github.com/poiesic/embedbench/core"
	"github.com/poiesic/embedbench/metrics"
	"github.com/poiesic/embedbench/retry"
	"github.com/poiesic/embedbench/shard"
	"gopkg.in/yaml.v3"
)

// Similarity names the vector similarity configured on the store's vector
// field. It is informational; the store enforces it.
type Similarity string

const (
	SimilarityCosine     Similarity = "cosine"
	SimilarityDotProduct Similarity = "dot_product"
	SimilarityEuclidean  Similarity = "euclidean"
)

// RunConfig is the configuration of one shard of a run.
type RunConfig struct {
	InputSource string `yaml:"input_source" toml:"input_source"`
	Manifest    string `yaml:"manifest" toml:"manifest"`
	FilePattern string `yaml:"file_pattern" toml:"file_pattern"`

	APIURL       string  `yaml:"api_url" toml:"api_url"`
	APIBackend   string  `yaml:"api_backend" toml:"api_backend"`
	APIModel     string  `yaml:"api_model" toml:"api_model"`
	APIBatchSize int     `yaml:"api_batch_size" toml:"api_batch_size"`
	APIRateLimit float64 `yaml:"api_rate_limit" toml:"api_rate_limit"`
	NoVerifySSL  bool    `yaml:"no_verify_ssl" toml:"no_verify_ssl"`

	StoreURL         string `yaml:"store_url" toml:"store_url"`
	ParentCollection string `yaml:"parent_collection" toml:"parent_collection"`
	ChunkCollection  string `yaml:"chunk_collection" toml:"chunk_collection"`
	VectorField      string `yaml:"vector_field" toml:"vector_field"`
	VectorDims       int    `yaml:"vector_dims" toml:"vector_dims"`
	Similarity       string `yaml:"similarity" toml:"similarity"`
	NormalizeVectors bool   `yaml:"normalize_vectors" toml:"normalize_vectors"`
	StoreBatchSize   int    `yaml:"store_batch_size" toml:"store_batch_size"`

	Chunker   string `yaml:"chunker" toml:"chunker"`
	ChunkSize int    `yaml:"chunk_size" toml:"chunk_size"`
	Overlap   int    `yaml:"overlap" toml:"overlap"`

	Workers       int    `yaml:"workers" toml:"workers"`
	ShardID       int    `yaml:"shard_id" toml:"shard_id"`
	ShardCount    int    `yaml:"shard_count" toml:"shard_count"`
	ShardStrategy string `yaml:"shard_strategy" toml:"shard_strategy"`

	MaxRetries int           `yaml:"max_retries" toml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" toml:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout" toml:"timeout"`

	DryRun      bool   `yaml:"dry_run" toml:"dry_run"`
	RunID       string `yaml:"run_id" toml:"run_id"`
	SummaryPath string `yaml:"summary_path" toml:"summary_path"`
}

// Default returns a RunConfig with all defaults applied.
func Default() RunConfig {
	return RunConfig{
		FilePattern:      "*.txt",
		APIBackend:       string(ai.BackendHTTP),
		APIBatchSize:     1,
		StoreURL:         "http://localhost:8983/solr",
		ParentCollection: "documents",
		ChunkCollection:  "vectors",
		VectorField:      "vector",
		Similarity:       string(SimilarityCosine),
		StoreBatchSize:   100,
		Chunker:          string(chunking.StrategyFixed),
		ChunkSize:        512,
		Overlap:          50,
		Workers:          1,
		ShardCount:       1,
		ShardStrategy:    string(shard.ByIndex),
		MaxRetries:       retry.DefaultMaxAttempts,
		RetryDelay:       retry.DefaultBaseDelay,
		Timeout:          60 * time.Second,
		SummaryPath:      ".",
	}
}

// Load reads config: defaults -> file -> env vars (env wins).
// The file format follows the extension: .yaml, .yml or .toml.
// An empty path skips the file.
func Load(path string) (RunConfig, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile overlays the values present in the file at path onto c.
func (c *RunConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading config file: %v", core.ErrConfiguration, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("%w: unsupported config file type %q", core.ErrConfiguration, ext)
	}
	if err != nil {
		return fmt.Errorf("%w: parsing %s: %v", core.ErrConfiguration, path, err)
	}
	return nil
}

// Validate checks the configuration before any work starts.
// Every error wraps core.ErrConfiguration.
func (c *RunConfig) Validate() error {
	if c.InputSource == "" && c.Manifest == "" {
		return configErr("input_source or manifest is required")
	}
	if err := requireURL("api_url", c.APIURL); err != nil {
		return err
	}
	if !c.DryRun {
		if err := requireURL("store_url", c.StoreURL); err != nil {
			return err
		}
	}
	if err := c.EmbeddingConfig().Validate(); err != nil {
		return err
	}
	if err := c.ChunkingConfig().Validate(); err != nil {
		return err
	}
	if err := c.Shard().Validate(); err != nil {
		return err
	}
	if _, err := shard.ParseStrategy(c.ShardStrategy); err != nil {
		return err
	}

	switch Similarity(c.Similarity) {
	case SimilarityCosine, SimilarityDotProduct, SimilarityEuclidean:
	default:
		return configErr("similarity must be cosine, dot_product or euclidean, got %q", c.Similarity)
	}
	if c.ParentCollection == "" || c.ChunkCollection == "" {
		return configErr("parent_collection and chunk_collection are required")
	}
	if c.ParentCollection == c.ChunkCollection {
		return configErr("parent_collection and chunk_collection must differ")
	}
	if c.VectorField == "" {
		return configErr("vector_field is required")
	}

	switch {
	case c.VectorDims < 0:
		return configErr("vector_dims must not be negative, got %d", c.VectorDims)
	case c.Workers < 1:
		return configErr("workers must be at least 1, got %d", c.Workers)
	case c.StoreBatchSize < 1:
		return configErr("store_batch_size must be at least 1, got %d", c.StoreBatchSize)
	case c.MaxRetries < 1:
		return configErr("max_retries must be at least 1, got %d", c.MaxRetries)
	case c.Timeout <= 0:
		return configErr("timeout must be positive")
	case c.RetryDelay < 0:
		return configErr("retry_delay must not be negative")
	case c.APIRateLimit < 0:
		return configErr("api_rate_limit must not be negative")
	}
	return nil
}

// EmbeddingConfig returns the embedding client configuration.
func (c *RunConfig) EmbeddingConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithBackend(ai.Backend(c.APIBackend)),
		ai.WithEmbeddingHost(c.APIURL),
		ai.WithEmbeddingModel(c.APIModel),
		ai.WithBatchSize(c.APIBatchSize),
		ai.WithTimeout(c.Timeout),
		ai.WithRetry(c.MaxRetries, c.RetryDelay),
		ai.WithRateLimit(c.APIRateLimit),
		ai.WithInsecureSkipVerify(c.NoVerifySSL),
	)
}

// ChunkingConfig returns the chunker configuration.
func (c *RunConfig) ChunkingConfig() chunking.Config {
	return chunking.Config{
		Strategy:  chunking.Strategy(c.Chunker),
		ChunkSize: c.ChunkSize,
		Overlap:   c.Overlap,
	}
}

// Shard returns this process's shard assignment.
func (c *RunConfig) Shard() core.ShardAssignment {
	return core.ShardAssignment{ID: c.ShardID, Count: c.ShardCount}
}

// RetryPolicy returns the store retry policy.
func (c *RunConfig) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = c.MaxRetries
	p.BaseDelay = c.RetryDelay
	return p
}

// Settings returns the configuration snapshot recorded in run summaries.
func (c *RunConfig) Settings() metrics.RunSettings {
	return metrics.RunSettings{
		Chunker:        c.Chunker,
		ChunkSize:      c.ChunkSize,
		Overlap:        c.Overlap,
		APIBatchSize:   c.APIBatchSize,
		StoreBatchSize: c.StoreBatchSize,
		Workers:        c.Workers,
		ShardStrategy:  c.ShardStrategy,
		Similarity:     c.Similarity,
		VectorField:    c.VectorField,
		VectorDims:     c.VectorDims,
		DryRun:         c.DryRun,
	}
}

func requireURL(name, raw string) error {
	if raw == "" {
		return configErr("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return configErr("%s must be an http(s) URL, got %q", name, raw)
	}
	return nil
}

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrConfiguration, fmt.Sprintf(format, args...))
}
