package ai

import (
	"fmt"

	"github.com/poiesic/embedbench/core"
)

var (
	// ErrEmptyEmbedding indicates the service returned a zero-length vector.
	ErrEmptyEmbedding = fmt.Errorf("%w: empty embedding", core.ErrContractViolation)

	// ErrMissingHost indicates a config without an embedding endpoint.
	ErrMissingHost = fmt.Errorf("%w: embedding host is required", core.ErrConfiguration)

	// ErrMissingModel indicates an openai backend config without a model.
	ErrMissingModel = fmt.Errorf("%w: embedding model is required", core.ErrConfiguration)

	// ErrUnknownBackend indicates an unsupported embedding backend.
	ErrUnknownBackend = fmt.Errorf("%w: unknown embedding backend", core.ErrConfiguration)
)
