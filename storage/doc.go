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


// Package storage defines where a run writes: the document store that
// receives parent and chunk records, and the run-history ledger.
//
// # Document store
//
// DocumentStore is an HTTP search index with two collections. Writes are
// sent with commit disabled and become visible only after Commit, which the
// pipeline issues once per collection at the end of a run:
//
//	store, err := solr.NewClient("http://localhost:8983/solr")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// NopStore discards writes for dry runs.
//
// # Ledger
//
// LedgerRepository is an append-only table of run records. Two
// implementations exist: csvledger for a CSV file and badger for a
// BadgerDB directory. Rows carry the schema version they were written with
// and are upgraded when read, so old ledgers stay readable:
//
//	ledger, err := csvledger.Open("history.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ledger.Close()
//
// MarshalRunRecord and UnmarshalRunRecord encode ledger rows for byte-value
// stores with mus-go.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use.
package storage
