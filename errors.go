package embedbench

import "errors"

// ErrStoreUnreachable is returned when a collection does not answer a ping
// before the run starts.
var ErrStoreUnreachable = errors.New("document store unreachable")
