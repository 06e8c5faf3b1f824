package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// RecordPointer contains the absolute minimum metadata required to locate
// and retrieve a value from disk storage without touching the key or
// re-parsing a header. This structure is the primary memory consumer in
// the entire system, so every field here is one that a read actually
// needs.
//
// Each RecordPointer serves as a precise "address" that tells the system
// exactly where to find a value without requiring any scanning or
// additional lookups: which segment, what byte offset the value itself
// starts at, and how many bytes to read.
type RecordPointer struct {
	// Timestamp is the Unix nanosecond timestamp recorded when this entry
	// was written. It is metadata returned to readers; which of several
	// writes is the most recent is decided by segment id plus offset, never
	// by the timestamp.
	Timestamp int64

	// Offset is the absolute byte offset of the *value* subrange (not the
	// record header or key) within its segment file. A read is therefore
	// a single positioned read of ValueSize bytes starting here — no
	// header re-parsing required.
	Offset int64

	// ValueSize is the byte length of the value. Combined with Offset this
	// gives the exact read range needed to retrieve the value.
	ValueSize uint32

	// Key stores the key string associated with this entry, stamped by
	// Index.Set. It is redundant with the map key in Index.recordPointer;
	// lookups do not consult it.
	Key string

	// SegmentID identifies which segment file holds this entry. Widened
	// to uint64 relative to a fixed-width segment-count scheme, since
	// nothing in this design caps the number of segments a store can
	// accumulate over its lifetime.
	SegmentID uint64
}

// Index is the in-memory keydir: the hash table mapping every live key to
// the location of its most recent value. It is the core Bitcask
// optimization — keys stay in memory for O(1) lookup, while values stay on
// disk, so the store can hold far more data than fits in RAM.
type Index struct {
	dataDir       string                    // Filesystem path where segment files are stored.
	log           *zap.SugaredLogger        // Structured logger for index operations.
	recordPointer map[string]*RecordPointer // Core mapping from key to its disk location.
	mu            sync.RWMutex              // Protects concurrent access to recordPointer.
	closed        atomic.Bool               // Set once Close has run; guards against use-after-close.
}

// Config encapsulates the parameters required to initialize an Index.
type Config struct {
	DataDir string             // Filesystem directory containing segment files.
	Logger  *zap.SugaredLogger // Structured logger for Index operations.
}
