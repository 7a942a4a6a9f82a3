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


// Package ingestion enumerates input documents and runs them through the
// chunk, embed and index pipeline.
//
// The pipeline handles:
//   - Enumerating documents in a deterministic order shared by all shards
//   - Loading plain text and HTML documents
//   - Chunking, embedding and indexing each document on a bounded worker pool
//   - Recording per-document statistics and failures
//   - Committing the store once all documents are done
//
// A failed document is recorded and skipped; it never stops the run.
package ingestion
