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


package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error classes
var (
	// ErrTransient marks a failure that may succeed when retried.
	ErrTransient = errors.New("transient failure")

	// ErrContractViolation marks a response that breaks the remote API contract.
	// Contract violations are never retried.
	ErrContractViolation = errors.New("contract violation")

	// ErrConfiguration marks an invalid run configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Contract violations
var (
	// ErrBatchLengthMismatch indicates an embedding response with a different
	// number of vectors than inputs.
	ErrBatchLengthMismatch = fmt.Errorf("%w: batch length mismatch", ErrContractViolation)

	// ErrUnrecognizedResponse indicates an embedding response of unknown shape.
	ErrUnrecognizedResponse = fmt.Errorf("%w: unrecognized response shape", ErrContractViolation)

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// configured dimensionality.
	ErrDimensionMismatch = fmt.Errorf("%w: vector dimension mismatch", ErrContractViolation)
)

// Document errors
var (
	// ErrInvalidShard indicates a shard assignment outside [0, count).
	ErrInvalidShard = fmt.Errorf("%w: invalid shard assignment", ErrConfiguration)

	// ErrEmptyDocumentID indicates a document without an identifier.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")
)

// HTTPError is a non-2xx response from a remote service.
type HTTPError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
}

// Temporary reports whether the status code is worth retrying.
func (e *HTTPError) Temporary() bool {
	switch {
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusRequestTimeout:
		return true
	}
	return false
}

// Is classifies the error so callers can use errors.Is with the error classes.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrTransient:
		return e.Temporary()
	case ErrContractViolation:
		return !e.Temporary()
	}
	return false
}

// IsTransient reports whether err should be retried.
// Cancellation of the caller's context is never transient; a per-call
// timeout is.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrContractViolation) || errors.Is(err, ErrConfiguration) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return false
}

// ErrorClass names the class of err for logs and summaries.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrContractViolation):
		return "contract"
	case IsTransient(err):
		return "transient"
	default:
		return "other"
	}
}
