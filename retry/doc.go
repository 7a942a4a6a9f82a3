// Package retry runs operations with bounded attempts and exponential backoff.
//
// A Policy decides which errors are worth retrying; by default every error
// is retried. Callers talking to remote services use DefaultPolicy, which
// retries only transient failures (network errors, timeouts, 5xx, 429) and
// returns contract violations immediately.
package retry
