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


package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/embedbench/core"
)

// MarshalRunRecord serializes a ledger row at the current schema version.
// Fields are written in schema order; fields added by later versions follow
// the fields of earlier versions.
func MarshalRunRecord(r *core.RunRecord) []byte {
	return marshalRunRecord(r, core.RunRecordVersion)
}

func marshalRunRecord(r *core.RunRecord, version int) []byte {
	var bs []byte

	// Version 1
	bs = appendInt(bs, version)
	bs = appendInt64(bs, r.Timestamp.UnixMicro())
	bs = appendString(bs, r.RunID)
	bs = appendInt(bs, r.Instances)
	bs = appendString(bs, r.Chunker)
	bs = appendInt(bs, r.ChunkSize)
	bs = appendInt(bs, r.Overlap)
	bs = appendInt(bs, r.APIBatchSize)
	bs = appendInt(bs, r.StoreBatchSize)
	bs = appendInt(bs, r.Workers)
	bs = appendInt(bs, r.Documents)
	bs = appendInt(bs, r.DocumentsFailed)
	bs = appendInt(bs, r.Chunks)
	bs = appendFloat(bs, r.WallSeconds)
	bs = appendFloat(bs, r.DocsPerSecond)
	bs = appendFloat(bs, r.ChunksPerSecond)
	bs = appendFloat(bs, r.AvgAPIMillis)
	bs = appendFloat(bs, r.AvgIndexMillis)

	if version < 2 {
		return bs
	}

	// Version 2
	bs = appendString(bs, r.ShardStrategy)
	bs = appendString(bs, r.Similarity)
	bs = appendInt(bs, r.VectorDims)
	bs = appendInt(bs, r.DocumentsSkipped)
	bs = appendInt(bs, r.APIRetries)
	return bs
}

// UnmarshalRunRecord deserializes a ledger row of any known schema version.
// Fields missing from older versions are left at their zero values and
// SchemaVersion reports the version the row was written with.
func UnmarshalRunRecord(data []byte) (*core.RunRecord, error) {
	rd := &rowReader{bs: data}
	r := &core.RunRecord{}

	r.SchemaVersion = rd.int()
	if rd.err == nil && (r.SchemaVersion < 1 || r.SchemaVersion > core.RunRecordVersion) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchemaVersion, r.SchemaVersion)
	}
	r.Timestamp = time.UnixMicro(rd.int64()).UTC()
	r.RunID = rd.string()
	r.Instances = rd.int()
	r.Chunker = rd.string()
	r.ChunkSize = rd.int()
	r.Overlap = rd.int()
	r.APIBatchSize = rd.int()
	r.StoreBatchSize = rd.int()
	r.Workers = rd.int()
	r.Documents = rd.int()
	r.DocumentsFailed = rd.int()
	r.Chunks = rd.int()
	r.WallSeconds = rd.float()
	r.DocsPerSecond = rd.float()
	r.ChunksPerSecond = rd.float()
	r.AvgAPIMillis = rd.float()
	r.AvgIndexMillis = rd.float()

	if r.SchemaVersion >= 2 {
		r.ShardStrategy = rd.string()
		r.Similarity = rd.string()
		r.VectorDims = rd.int()
		r.DocumentsSkipped = rd.int()
		r.APIRetries = rd.int()
	}

	if rd.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, rd.err)
	}
	if len(rd.bs) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(rd.bs))
	}
	return r, nil
}

func appendInt(bs []byte, v int) []byte {
	buf := make([]byte, varint.Int.Size(v))
	varint.Int.Marshal(v, buf)
	return append(bs, buf...)
}

func appendInt64(bs []byte, v int64) []byte {
	buf := make([]byte, varint.Int64.Size(v))
	varint.Int64.Marshal(v, buf)
	return append(bs, buf...)
}

func appendFloat(bs []byte, v float64) []byte {
	bits := math.Float64bits(v)
	buf := make([]byte, varint.Uint64.Size(bits))
	varint.Uint64.Marshal(bits, buf)
	return append(bs, buf...)
}

func appendString(bs []byte, v string) []byte {
	buf := make([]byte, ord.String.Size(v))
	ord.String.Marshal(v, buf)
	return append(bs, buf...)
}

// rowReader consumes fields in order, remembering the first error.
type rowReader struct {
	bs  []byte
	err error
}

func (r *rowReader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs)
	r.advance(n, err)
	return v
}

func (r *rowReader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs)
	r.advance(n, err)
	return v
}

func (r *rowReader) float() float64 {
	if r.err != nil {
		return 0
	}
	bits, n, err := varint.Uint64.Unmarshal(r.bs)
	r.advance(n, err)
	return math.Float64frombits(bits)
}

func (r *rowReader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs)
	r.advance(n, err)
	return v
}

func (r *rowReader) advance(n int, err error) {
	if err != nil {
		r.err = err
		return
	}
	r.bs = r.bs[n:]
}
