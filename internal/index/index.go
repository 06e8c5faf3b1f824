// Package index provides the in-memory keydir for the store: the hash
// table mapping every live key to the on-disk location of its most recent
// value. This is the core Bitcask architectural principle — keep all keys
// in memory with minimal per-entry metadata, while values stay on disk.
//
// The index enables O(1) key lookups through an in-memory hash table while
// keeping storage overhead minimal, so the store can hold far more data
// than fits in RAM.
package index

import (
	"context"
	stdErrors "errors"

	"github.com/ishanjain28/bitcask/pkg/errors"
)

var ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")

// New creates and initializes a new Index instance. The returned Index is
// immediately ready for concurrent use and includes a pre-sized map to
// reduce rehashing during initial recovery.
func New(ctx context.Context, config *Config) (*Index, error) {
	if config == nil || config.DataDir == "" || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "Index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Index{
		log:           config.Logger,
		dataDir:       config.DataDir,
		recordPointer: make(map[string]*RecordPointer, 2048),
	}, nil
}

// Set inserts or overwrites the pointer for key. Callers are responsible
// for only calling Set after the corresponding value has actually been
// durably appended — the index never invents entries for data that isn't
// on disk.
func (idx *Index) Set(key string, ptr RecordPointer) error {
	if idx.closed.Load() {
		return ErrIndexClosed
	}

	ptr.Key = key
	idx.mu.Lock()
	idx.recordPointer[key] = &ptr
	idx.mu.Unlock()
	return nil
}

// Get returns the pointer for key and true, or a zero value and false if
// the key has no live entry.
func (idx *Index) Get(key string) (RecordPointer, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ptr, ok := idx.recordPointer[key]
	if !ok {
		return RecordPointer{}, false
	}
	return *ptr, true
}

// Remove deletes key's entry, if present. Reserved for a future tombstone
// policy; unused by the current core, since tombstones are out of scope,
// but kept so callers that do need point-removal (tests, administrative
// tooling) have a correct primitive to build on.
func (idx *Index) Remove(key string) {
	idx.mu.Lock()
	delete(idx.recordPointer, key)
	idx.mu.Unlock()
}

// Len returns the number of live keys currently tracked.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.recordPointer)
}

// Keys returns a snapshot of every live key. It is not on the hot path;
// nothing in the engine or the CLI calls it.
func (idx *Index) Keys() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys := make([]string, 0, len(idx.recordPointer))
	for k := range idx.recordPointer {
		keys = append(keys, k)
	}
	return keys
}

// Close gracefully shuts down the Index, releasing the memory backing the
// keydir and preventing further use.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("closing index")

	idx.mu.Lock()
	defer idx.mu.Unlock()

	clear(idx.recordPointer)
	idx.recordPointer = nil

	idx.log.Infow("index closed")
	return nil
}
