package indexing

import (
	"fmt"

	"github.com/poiesic/embedbench/core"
)

var (
	// ErrInvalidBatchSize indicates a store batch size below 1.
	ErrInvalidBatchSize = fmt.Errorf("%w: store batch size must be at least 1", core.ErrConfiguration)

	// ErrMissingCollection indicates an empty collection name.
	ErrMissingCollection = fmt.Errorf("%w: collection name cannot be empty", core.ErrConfiguration)

	// ErrMissingVectorField indicates an empty vector field name.
	ErrMissingVectorField = fmt.Errorf("%w: vector field cannot be empty", core.ErrConfiguration)
)
