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


package csvledger

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/poiesic/embedbench/core"
	"github.com/poiesic/embedbench/storage"
)

const headerPrefix = "# columns v"

// Ledger is a storage.LedgerRepository backed by a CSV file.
type Ledger struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

var _ storage.LedgerRepository = (*Ledger)(nil)

// Open returns a ledger for the file at path. The file and its parent
// directory are created on first append.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: ledger path cannot be empty", core.ErrConfiguration)
	}
	return &Ledger{
		path:   path,
		logger: slog.Default().With("component", "csvledger", "path", path),
	}, nil
}

// Close is a no-op; the file is only held open during calls.
func (l *Ledger) Close() error {
	return nil
}

// Append writes records at the current schema version to the end of the file.
func (l *Ledger) Append(ctx context.Context, records ...core.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	versions, err := l.headerVersions()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if !versions[core.RunRecordVersion] {
		names, _ := Columns(core.RunRecordVersion)
		header := fmt.Sprintf("%s%d: %s\n", headerPrefix, core.RunRecordVersion, strings.Join(names, ","))
		if _, err := f.WriteString(header); err != nil {
			return err
		}
		l.logger.Info("writing ledger columns", "version", core.RunRecordVersion)
	}

	w := csv.NewWriter(f)
	cols := schemas[core.RunRecordVersion]
	row := make([]string, len(cols))
	for _, record := range records {
		record.SchemaVersion = core.RunRecordVersion
		for i, c := range cols {
			row[i] = c.get(&record)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

// List reads every row, upgrading rows written at older versions.
// A missing file is an empty ledger.
func (l *Ledger) List(ctx context.Context) ([]core.RunRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1

	var records []core.RunRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := r.FieldPos(0)
		record, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", l.path, line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func decodeRow(row []string) (core.RunRecord, error) {
	var record core.RunRecord
	version, err := strconv.Atoi(row[0])
	if err != nil {
		return record, fmt.Errorf("%w: schema version %q", storage.ErrSerializationFailed, row[0])
	}
	cols, ok := schemas[version]
	if !ok {
		return record, fmt.Errorf("%w: %d", storage.ErrUnknownSchemaVersion, version)
	}
	if len(row) != len(cols) {
		return record, fmt.Errorf("%w: version %d row has %d of %d columns", storage.ErrTruncatedData, version, len(row), len(cols))
	}
	for i, c := range cols {
		if err := c.set(&record, row[i]); err != nil {
			return record, fmt.Errorf("%w: column %s: %v", storage.ErrSerializationFailed, c.name, err)
		}
	}
	return record, nil
}

// headerVersions returns the versions whose column header is already in the file.
func (l *Ledger) headerVersions() (map[int]bool, error) {
	versions := map[int]bool{}
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return versions, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, headerPrefix) {
			continue
		}
		rest := strings.TrimPrefix(line, headerPrefix)
		end := strings.IndexByte(rest, ':')
		if end < 0 {
			continue
		}
		if v, err := strconv.Atoi(rest[:end]); err == nil {
			versions[v] = true
		}
	}
	return versions, scanner.Err()
}
