package chunking

import (
	"fmt"

	"github.com/poiesic/embedbench/core"
)

var (
	// ErrInvalidChunkSize is returned when the chunk size is not positive.
	ErrInvalidChunkSize = fmt.Errorf("%w: chunk size must be positive", core.ErrConfiguration)

	// ErrInvalidOverlap is returned when overlap is negative or not smaller than the chunk size.
	ErrInvalidOverlap = fmt.Errorf("%w: overlap must be in [0, chunk size)", core.ErrConfiguration)

	// ErrUnknownStrategy is returned for a strategy name other than fixed or paragraph.
	ErrUnknownStrategy = fmt.Errorf("%w: unknown chunking strategy", core.ErrConfiguration)
)
