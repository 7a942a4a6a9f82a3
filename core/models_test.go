package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestChunkID(t *testing.T) {
	tests := []struct {
		parent string
		index  int
		want   string
	}{
		{"doc_0001", 0, "doc_0001_chunk_0"},
		{"doc_0001", 12, "doc_0001_chunk_12"},
		{"report.v2", 3, "report.v2_chunk_3"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ChunkID(tt.parent, tt.index); got != tt.want {
				t.Errorf("ChunkID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewParentRecord(t *testing.T) {
	doc := &Document{ID: "doc", Filename: "doc.txt", Text: "naïve café", SizeBytes: 1234}
	chunks := []*Chunk{
		{ParentID: "doc", Index: 0, Size: 100},
		{ParentID: "doc", Index: 1, Size: 40},
		{ParentID: "doc", Index: 2, Size: 70},
	}

	rec := NewParentRecord(doc, chunks)

	if rec.ID != "doc" || rec.Filename != "doc.txt" || rec.Size != 10 {
		t.Errorf("unexpected identity fields: %+v", rec)
	}
	if rec.NumChunks != 3 {
		t.Errorf("NumChunks = %d, want 3", rec.NumChunks)
	}
	if rec.MinChunkSize != 40 || rec.MaxChunkSize != 100 {
		t.Errorf("min/max = %d/%d, want 40/100", rec.MinChunkSize, rec.MaxChunkSize)
	}
	if rec.AvgChunkSize != 70 {
		t.Errorf("AvgChunkSize = %v, want 70", rec.AvgChunkSize)
	}
}

func TestNewParentRecord_NoChunks(t *testing.T) {
	rec := NewParentRecord(&Document{ID: "empty"}, nil)
	if rec.NumChunks != 0 || rec.MinChunkSize != 0 || rec.AvgChunkSize != 0 {
		t.Errorf("expected zero stats, got %+v", rec)
	}
}

func TestChunkRecord_Fields(t *testing.T) {
	chunk := &Chunk{ParentID: "doc", Index: 2, Text: "hello", Size: 5, Vector: []float32{0.1, 0.2}}
	fields := NewChunkRecord(chunk).Fields("embedding_vector")

	if fields["id"] != "doc_chunk_2" {
		t.Errorf("id = %v", fields["id"])
	}
	if fields["parent_id"] != "doc" || fields["chunk_index"] != 2 {
		t.Errorf("unexpected parent fields: %v", fields)
	}
	vec, ok := fields["embedding_vector"].([]float32)
	if !ok || len(vec) != 2 {
		t.Errorf("vector stored under wrong field: %v", fields)
	}
}

func TestShardAssignment_String(t *testing.T) {
	if got := (ShardAssignment{ID: 2, Count: 4}).String(); got != "2/4" {
		t.Errorf("String() = %q", got)
	}
}
