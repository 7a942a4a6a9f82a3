// Package config loads run configuration for embedbench.
//
// Values are resolved in order of increasing precedence: Default, a yaml or
// toml file, EMBEDBENCH_* environment variables, and finally command line
// flags applied by the caller.
package config
