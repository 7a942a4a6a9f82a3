package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/embedbench/core"
)

// EnvPrefix prefixes the environment variable of every option, e.g.
// EMBEDBENCH_API_URL for api_url.
const EnvPrefix = "EMBEDBENCH_"

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type option struct {
	name string
	set  func(c *RunConfig, v string) error
}

func stringVar(name string, field func(*RunConfig) *string) option {
	return option{name, func(c *RunConfig, v string) error {
		*field(c) = v
		return nil
	}}
}

func intVar(name string, field func(*RunConfig) *int) option {
	return option{name, func(c *RunConfig, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}}
}

func floatVar(name string, field func(*RunConfig) *float64) option {
	return option{name, func(c *RunConfig, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}}
}

func boolVar(name string, field func(*RunConfig) *bool) option {
	return option{name, func(c *RunConfig, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}}
}

func durationVar(name string, field func(*RunConfig) *time.Duration) option {
	return option{name, func(c *RunConfig, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}}
}

var options = []option{
	stringVar("input_source", func(c *RunConfig) *string { return &c.InputSource }),
	stringVar("manifest", func(c *RunConfig) *string { return &c.Manifest }),
	stringVar("file_pattern", func(c *RunConfig) *string { return &c.FilePattern }),
	stringVar("api_url", func(c *RunConfig) *string { return &c.APIURL }),
	stringVar("api_backend", func(c *RunConfig) *string { return &c.APIBackend }),
	stringVar("api_model", func(c *RunConfig) *string { return &c.APIModel }),
	intVar("api_batch_size", func(c *RunConfig) *int { return &c.APIBatchSize }),
	floatVar("api_rate_limit", func(c *RunConfig) *float64 { return &c.APIRateLimit }),
	boolVar("no_verify_ssl", func(c *RunConfig) *bool { return &c.NoVerifySSL }),
	stringVar("store_url", func(c *RunConfig) *string { return &c.StoreURL }),
	stringVar("parent_collection", func(c *RunConfig) *string { return &c.ParentCollection }),
	stringVar("chunk_collection", func(c *RunConfig) *string { return &c.ChunkCollection }),
	stringVar("vector_field", func(c *RunConfig) *string { return &c.VectorField }),
	intVar("vector_dims", func(c *RunConfig) *int { return &c.VectorDims }),
	stringVar("similarity", func(c *RunConfig) *string { return &c.Similarity }),
	boolVar("normalize_vectors", func(c *RunConfig) *bool { return &c.NormalizeVectors }),
	intVar("store_batch_size", func(c *RunConfig) *int { return &c.StoreBatchSize }),
	stringVar("chunker", func(c *RunConfig) *string { return &c.Chunker }),
	intVar("chunk_size", func(c *RunConfig) *int { return &c.ChunkSize }),
	intVar("overlap", func(c *RunConfig) *int { return &c.Overlap }),
	intVar("workers", func(c *RunConfig) *int { return &c.Workers }),
	intVar("shard_id", func(c *RunConfig) *int { return &c.ShardID }),
	intVar("shard_count", func(c *RunConfig) *int { return &c.ShardCount }),
	stringVar("shard_strategy", func(c *RunConfig) *string { return &c.ShardStrategy }),
	intVar("max_retries", func(c *RunConfig) *int { return &c.MaxRetries }),
	durationVar("retry_delay", func(c *RunConfig) *time.Duration { return &c.RetryDelay }),
	durationVar("timeout", func(c *RunConfig) *time.Duration { return &c.Timeout }),
	boolVar("dry_run", func(c *RunConfig) *bool { return &c.DryRun }),
	stringVar("run_id", func(c *RunConfig) *string { return &c.RunID }),
	stringVar("summary_path", func(c *RunConfig) *string { return &c.SummaryPath }),
}

// EnvName returns the environment variable for an option name.
func EnvName(option string) string {
	return EnvPrefix + strings.ToUpper(option)
}

// Options returns the names of all options in file key form, e.g. api_url.
func Options() []string {
	names := make([]string, len(options))
	for i, o := range options {
		names[i] = o.name
	}
	return names
}

// Set parses value into the named option. Durations use time.ParseDuration
// syntax and booleans strconv.ParseBool syntax.
func (c *RunConfig) Set(name, value string) error {
	for _, o := range options {
		if o.name != name {
			continue
		}
		if err := o.set(c, value); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", core.ErrConfiguration, name, value, err)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown option %q", core.ErrConfiguration, name)
}

// ApplyEnv overrides c with the EMBEDBENCH_* variables that lookup finds.
// Empty values are ignored.
func (c *RunConfig) ApplyEnv(lookup LookupFunc) error {
	for _, o := range options {
		v, ok := lookup(EnvName(o.name))
		if !ok || v == "" {
			continue
		}
		if err := o.set(c, v); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", core.ErrConfiguration, EnvName(o.name), v, err)
		}
	}
	return nil
}
