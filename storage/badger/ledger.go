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


package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/embedbench/core"
	"github.com/poiesic/embedbench/storage"
)

// LedgerRepository implements storage.LedgerRepository for BadgerDB.
// Rows are stored with their schema version and upgraded when read.
type LedgerRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.LedgerRepository = (*LedgerRepository)(nil)

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(backend *Backend) (*LedgerRepository, error) {
	idSeq, err := backend.GetSequence(runRecordIDSeq)
	if err != nil {
		return nil, err
	}

	return &LedgerRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the row sequence.
func (r *LedgerRepository) Close() error {
	return r.idSeq.Release()
}

// Append adds rows to the end of the ledger.
func (r *LedgerRepository) Append(ctx context.Context, records ...core.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			seq, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			if err := tx.Set(makeRunRecordKey(seq), storage.MarshalRunRecord(&record)); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// List returns every row in append order.
func (r *LedgerRepository) List(ctx context.Context) ([]core.RunRecord, error) {
	var records []core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		prefix := runRecordKeyPrefix()
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			record, err := storage.UnmarshalRunRecord(data)
			if err != nil {
				return fmt.Errorf("ledger row %x: %w", item.Key(), err)
			}
			records = append(records, *record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}
