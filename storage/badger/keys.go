package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	runRecordPrefix = "runrec"
	runRecordIDSeq  = "runrecseq"
)

// makeRunRecordKey generates a key for a ledger row.
// Format: prefix:seq, with seq written big endian so rows iterate in append order.
func makeRunRecordKey(seq uint64) []byte {
	prefix := []byte(runRecordPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// runRecordKeyPrefix returns the prefix shared by all ledger row keys.
func runRecordKeyPrefix() []byte {
	return []byte(runRecordPrefix + ":")
}
