// Package engine composes the record codec, storage, index, and recovery
// subsystems into the store's actual Open/Put/Get/Close surface. It is the
// only place that knows about all of them at once; every other package
// only knows its own concern.
//
// Opening an engine performs, in order: directory setup, lock acquisition,
// segment discovery, recovery (rebuilding the keydir from every segment on
// disk), and active-segment creation. Any failure after the lock is
// acquired releases it before returning, so a failed Open never leaves a
// directory permanently locked.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ishanjain28/bitcask/internal/index"
	"github.com/ishanjain28/bitcask/internal/record"
	"github.com/ishanjain28/bitcask/internal/recovery"
	"github.com/ishanjain28/bitcask/internal/storage"
	pkgerrors "github.com/ishanjain28/bitcask/pkg/errors"
	"github.com/ishanjain28/bitcask/pkg/filesys"
	"github.com/ishanjain28/bitcask/pkg/dirlock"
	"github.com/ishanjain28/bitcask/pkg/options"
	"github.com/ishanjain28/bitcask/pkg/seginfo"
)

// ErrEngineClosed is returned when attempting to perform operations on a
// closed engine.
var ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

// Record is the public read-result view returned by Get: a key's most
// recent value together with the timestamp it was written at.
type Record struct {
	Timestamp int64
	Key       []byte
	Value     []byte
}

// Engine coordinates the index, storage, and recovery subsystems and
// enforces the store's concurrency model: Put and Close are exclusive,
// Get takes a shared lock against a consistent keydir snapshot.
type Engine struct {
	options *options.Options
	log     *zap.SugaredLogger
	closed  atomic.Bool

	mu     sync.RWMutex
	lock   *dirlock.Lock
	index  *index.Index
	store  *storage.Storage
	reader *storage.Reader
}

// Config holds the parameters needed to initialize a new Engine.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New opens (or creates) a store directory and returns an Engine ready for
// Put/Get.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil || config.Options.DirName == "" {
		return nil, pkgerrors.NewValidationError(nil, pkgerrors.ErrorCodeInvalidInput, "engine configuration is required").
			WithField("config").WithRule("required")
	}

	log := config.Logger
	dir := config.Options.DirName

	if err := filesys.CreateDir(dir, 0755, true); err != nil {
		return nil, pkgerrors.NewStorageError(err, pkgerrors.ErrorCodeIO, "failed to create data directory").WithPath(dir)
	}

	lock, err := dirlock.Acquire(dir)
	if err != nil {
		return nil, err
	}

	idx, store, reader, err := bootstrap(ctx, config)
	if err != nil {
		_ = lock.Release()
		return nil, err
	}

	log.Infow("engine opened", "dir", dir, "keys", idx.Len(), "activeSegmentID", store.ActiveSegmentID())

	return &Engine{
		options: config.Options,
		log:     log,
		lock:    lock,
		index:   idx,
		store:   store,
		reader:  reader,
	}, nil
}

// bootstrap discovers segments, recovers the keydir, and opens storage for
// writing. Split out of New so a failure here can be cleanly unwound by
// the caller (lock release) without duplicating that logic at every
// return point.
func bootstrap(ctx context.Context, config *Config) (*index.Index, *storage.Storage, *storage.Reader, error) {
	dir := config.Options.DirName

	ids, malformed, err := seginfo.ListSegmentIDs(dir)
	if err != nil {
		return nil, nil, nil, pkgerrors.NewStorageError(err, pkgerrors.ErrorCodeIO, "failed to list segment files").WithPath(dir)
	}
	if len(malformed) > 0 {
		return nil, nil, nil, pkgerrors.NewStorageError(nil, pkgerrors.ErrorCodeRecoveryInconsistent, "directory contains malformed segment file names").
			WithPath(dir).WithDetail("malformed", malformed)
	}

	idx, err := recovery.Recover(dir, ids, config.Logger)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := storage.New(ctx, &storage.Config{Options: config.Options, Logger: config.Logger})
	if err != nil {
		return nil, nil, nil, err
	}

	reader := storage.NewReader(dir)
	return idx, store, reader, nil
}

// Put appends key/value as a new record and indexes it. Rotation is
// checked before the append using the pre-append size; a record is never
// split across segments.
func (e *Engine) Put(key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return ErrEngineClosed
	}

	if len(key) == 0 {
		return pkgerrors.NewValidationError(nil, pkgerrors.ErrorCodeInvalidInput, "key must not be empty").
			WithField("key").WithRule("required")
	}

	rec := record.Record{Timestamp: uint64(time.Now().UnixNano()), Key: key, Value: value}
	buf := record.Encode(rec)

	if uint64(e.store.Size()) >= e.options.SegmentSizeLimit {
		if err := e.store.Rotate(); err != nil {
			return err
		}
	}

	segID, offset, err := e.store.Append(buf)
	if err != nil {
		return err
	}

	valueOffset := offset + int64(record.HeaderLen) + int64(len(key))
	return e.index.Set(string(key), index.RecordPointer{
		Timestamp: int64(rec.Timestamp),
		Offset:    valueOffset,
		ValueSize: uint32(len(value)),
		SegmentID: segID,
	})
}

// Get returns the most recently written value for key. A miss returns a
// *pkgerrors.IndexError built by errors.NewKeyNotFoundError.
func (e *Engine) Get(key []byte) (Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed.Load() {
		return Record{}, ErrEngineClosed
	}

	ptr, ok := e.index.Get(string(key))
	if !ok {
		return Record{}, pkgerrors.NewKeyNotFoundError(string(key))
	}

	value, err := e.reader.ReadAt(ptr.SegmentID, ptr.Offset, int64(ptr.ValueSize))
	if err != nil {
		return Record{}, err
	}

	return Record{Timestamp: ptr.Timestamp, Key: key, Value: value}, nil
}

// Close flushes and closes the active segment, releases the directory
// lock, and frees the keydir. Independent teardown failures are combined
// rather than the first one masking the rest.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	e.log.Infow("closing engine")

	var err error
	err = multierr.Append(err, e.store.Close())
	err = multierr.Append(err, e.reader.Close())
	err = multierr.Append(err, e.index.Close())
	err = multierr.Append(err, e.lock.Release())

	return err
}
