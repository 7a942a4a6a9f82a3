package core

import (
	"encoding/binary"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived 64-bit identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentRef identifies an input document before it is read.
// Index is the document's position in the deterministic enumeration order
// shared by every shard of a run.
type DocumentRef struct {
	ID      string
	Path    string
	RelPath string
	Index   int
}

// Document is an input document after its contents have been read.
// It is owned by exactly one worker for its whole lifetime in the pipeline.
type Document struct {
	ID        string
	Path      string
	Filename  string
	Text      string
	SizeBytes int64
	Checksum  ID // IDFromContent(Text)
}

// ChunkCandidate is a chunk produced by a chunker before it is embedded.
type ChunkCandidate struct {
	Index int    // 0-based position in the source document
	Text  string
	Size  int // chunker units: characters for fixed, estimated tokens for paragraph
	Chars int // rune count of Text
}

// Chunk is an embedded chunk of a document.
type Chunk struct {
	ParentID string
	Index    int
	Text     string
	Size     int
	Vector   []float32
}

// ChunkID returns the store identifier of the chunk with the given index.
func ChunkID(parentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", parentID, index)
}

// ChunkRecord is the chunk collection record written to the document store.
type ChunkRecord struct {
	ID         string
	ParentID   string
	ChunkIndex int
	ChunkText  string
	ChunkSize  int
	Vector     []float32
}

// NewChunkRecord builds the store record for a chunk.
func NewChunkRecord(chunk *Chunk) *ChunkRecord {
	return &ChunkRecord{
		ID:         ChunkID(chunk.ParentID, chunk.Index),
		ParentID:   chunk.ParentID,
		ChunkIndex: chunk.Index,
		ChunkText:  chunk.Text,
		ChunkSize:  chunk.Size,
		Vector:     chunk.Vector,
	}
}

// Fields returns the record as a store document, storing the vector under vectorField.
func (r *ChunkRecord) Fields(vectorField string) map[string]any {
	return map[string]any{
		"id":          r.ID,
		"parent_id":   r.ParentID,
		"chunk_index": r.ChunkIndex,
		"chunk_text":  r.ChunkText,
		"chunk_size":  r.ChunkSize,
		vectorField:   r.Vector,
	}
}

// ParentRecord is the document-level metadata record written to the parent collection.
type ParentRecord struct {
	ID           string
	Filename     string
	Size         int // characters of extracted text
	NumChunks    int
	MinChunkSize int
	AvgChunkSize float64
	MaxChunkSize int
}

// NewParentRecord summarises a document and its chunks.
func NewParentRecord(doc *Document, chunks []*Chunk) *ParentRecord {
	rec := &ParentRecord{
		ID:        doc.ID,
		Filename:  doc.Filename,
		Size:      utf8.RuneCountInString(doc.Text),
		NumChunks: len(chunks),
	}
	if len(chunks) == 0 {
		return rec
	}

	total := 0
	rec.MinChunkSize = chunks[0].Size
	for _, c := range chunks {
		total += c.Size
		rec.MinChunkSize = min(rec.MinChunkSize, c.Size)
		rec.MaxChunkSize = max(rec.MaxChunkSize, c.Size)
	}
	rec.AvgChunkSize = float64(total) / float64(len(chunks))
	return rec
}

// Fields returns the record as a store document.
func (r *ParentRecord) Fields() map[string]any {
	return map[string]any{
		"id":             r.ID,
		"filename":       r.Filename,
		"size":           r.Size,
		"num_chunks":     r.NumChunks,
		"min_chunk_size": r.MinChunkSize,
		"avg_chunk_size": r.AvgChunkSize,
		"max_chunk_size": r.MaxChunkSize,
	}
}

// ShardAssignment places this process in a static partition of the document set.
// A document belongs to the shard iff key(document) % Count == ID.
type ShardAssignment struct {
	ID    int
	Count int
}

// SingleShard is the assignment of a run that is not sharded.
var SingleShard = ShardAssignment{ID: 0, Count: 1}

func (s ShardAssignment) String() string {
	return fmt.Sprintf("%d/%d", s.ID, s.Count)
}

// RunRecordVersion is the current schema version of ledger rows.
const RunRecordVersion = 2

// RunRecord is one row of the run-history ledger. Rows are never rewritten;
// older schema versions are upgraded when read.
type RunRecord struct {
	SchemaVersion int
	Timestamp     time.Time
	RunID         string
	Instances     int

	// Configuration
	Chunker        string
	ChunkSize      int
	Overlap        int
	APIBatchSize   int
	StoreBatchSize int
	Workers        int

	// Totals
	Documents       int
	DocumentsFailed int
	Chunks          int
	WallSeconds     float64
	DocsPerSecond   float64
	ChunksPerSecond float64
	AvgAPIMillis    float64
	AvgIndexMillis  float64

	// Added in schema version 2
	ShardStrategy    string
	Similarity       string
	VectorDims       int
	DocumentsSkipped int
	APIRetries       int
}
