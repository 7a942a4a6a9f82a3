package ingestion

import (
	"errors"
	"fmt"

	"github.com/poiesic/embedbench/core"
)

var (
	// ErrChunkerRequired is returned when a chunker is not provided.
	ErrChunkerRequired = errors.New("chunker required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexerRequired is returned when an indexer is not provided.
	ErrIndexerRequired = errors.New("indexer required")

	// ErrCollectorRequired is returned when a metrics collector is not provided.
	ErrCollectorRequired = errors.New("metrics collector required")

	// ErrNoDocuments is returned when enumeration finds nothing to process.
	ErrNoDocuments = fmt.Errorf("%w: no input documents", core.ErrConfiguration)

	// ErrNotDirectory is returned when the input source is not a directory.
	ErrNotDirectory = fmt.Errorf("%w: input source is not a directory", core.ErrConfiguration)

	// ErrDuplicateDocument is returned when two input files map to the same document id.
	ErrDuplicateDocument = fmt.Errorf("%w: duplicate document id", core.ErrConfiguration)

	// errEmptyDocument marks a document that produced no chunks.
	errEmptyDocument = errors.New("document produced no chunks")
)
