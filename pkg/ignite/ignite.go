// Package ignite provides an embeddable, single-writer, persistent
// key/value data store, inspired by Bitcask. It combines an in-memory hash
// table (the keydir) with an append-only log structure on disk to achieve
// high throughput: reads are a hash lookup plus one positioned file read,
// writes are an append plus an index update.
package ignite

import (
	"context"

	"github.com/ishanjain28/bitcask/internal/engine"
	"github.com/ishanjain28/bitcask/pkg/logger"
	"github.com/ishanjain28/bitcask/pkg/options"
)

// Record is the value returned by Get: a key's most recent value together
// with the timestamp it was written at.
type Record = engine.Record

// Instance is an open store. It encapsulates the underlying engine and
// the configuration it was opened with.
type Instance struct {
	engine  *engine.Engine
	options *options.Options
}

// Open prepares dir as a store directory (creating it if needed),
// acquires the single-writer lock, recovers the keydir from whatever
// segments already exist, and opens a fresh active segment. Any failure
// after the lock is acquired releases it before Open returns.
func Open(dir string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New("ignite")

	conf := options.NewDefaultOptions()
	conf.DirName = dir
	for _, opt := range opts {
		opt(&conf)
	}

	eng, err := engine.New(context.Background(), &engine.Config{Logger: log, Options: &conf})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &conf}, nil
}

// Put stores key/value, overwriting any previous value for key. When it
// returns, the record has been written to the active segment file and,
// if FsyncOnPut is enabled, fsynced to disk before the keydir is updated.
// Without FsyncOnPut the record is not fsynced until Close.
func (i *Instance) Put(key, value []byte) error {
	return i.engine.Put(key, value)
}

// Get retrieves the most recently written value for key. On a miss it
// returns a not-found error (see pkg/errors.NewKeyNotFoundError).
func (i *Instance) Get(key []byte) (Record, error) {
	return i.engine.Get(key)
}

// Close flushes the active segment, closes open file handles, and removes
// the lock sentinel. After Close, the Instance is no longer usable.
func (i *Instance) Close() error {
	return i.engine.Close()
}
