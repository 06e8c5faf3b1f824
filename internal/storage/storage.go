// Package storage owns the append-only segment files that back the store:
// the active segment a writer appends to, and positioned reads against any
// segment (active or sealed) by id.
//
// The storage system operates on the concept of segments: individual files
// that hold a contiguous run of records. When the active segment reaches
// its configured size limit, the engine rotates to a new segment and all
// further writes go there; every earlier segment is immutable from that
// point on.
//
// Initialization performs a bootstrap scan: discover existing segments and
// always open a brand-new active segment at the next sequential id. A
// segment file is never reopened for append once the process that created
// it exits — this lets every segment but the active one stay immutable and
// keeps recovery's job simple: replay everything, then start clean.
package storage

import (
	"context"
	stdErrors "errors"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/ishanjain28/bitcask/pkg/errors"
	"github.com/ishanjain28/bitcask/pkg/filesys"
	"github.com/ishanjain28/bitcask/pkg/options"
	"github.com/ishanjain28/bitcask/pkg/seginfo"
	"go.uber.org/zap"
)

var ErrSegmentClosed = stdErrors.New("operation failed: cannot access closed segment")

// Storage owns the active segment file and tracks how many bytes have been
// written to it so the engine can decide when to rotate.
type Storage struct {
	size            int64              // Current size of the active segment file in bytes.
	activeSegmentID uint64             // Identifier of the segment currently being written to.
	activeSegment   *os.File           // File handle for the active segment.
	closed          atomic.Bool        // Set once Close has run; guards against use-after-close.
	options         *options.Options   // Configuration controlling storage behavior.
	log             *zap.SugaredLogger // Structured logger for operational visibility.
}

// Config encapsulates the parameters required to initialize a Storage.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New performs the bootstrap scan described in the package doc and returns
// a Storage ready to accept appends.
func New(ctx context.Context, config *Config) (*Storage, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "storage configuration is required").
			WithField("config").WithRule("required")
	}

	config.Logger.Infow(
		"initializing storage",
		"dir", config.Options.DirName,
		"segmentSizeLimit", config.Options.SegmentSizeLimit,
	)

	if err := filesys.CreateDir(config.Options.DirName, 0755, true); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create data directory").
			WithPath(config.Options.DirName).WithDetail("permission", "0755")
	}

	s := &Storage{log: config.Logger, options: config.Options}

	ids, malformed, err := seginfo.ListSegmentIDs(config.Options.DirName)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to list segment files").
			WithPath(config.Options.DirName)
	}
	if len(malformed) > 0 {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeRecoveryInconsistent, "directory contains malformed segment file names").
			WithPath(config.Options.DirName).
			WithDetail("malformed", malformed)
	}

	// The active segment is always a fresh one, created at the next
	// sequential id past whatever was recovered. A writer never reopens
	// and continues appending to a pre-existing segment file, even one
	// with room left under the size limit — every earlier segment is
	// immutable the moment a later one exists.
	targetID := seginfo.NextID(ids)
	s.size = 0

	config.Logger.Infow("starting new active segment", "newSegmentID", targetID, "recoveredSegments", len(ids))

	file, err := s.openSegmentFile(targetID)
	if err != nil {
		config.Logger.Errorw("failed to open segment file", "error", err, "segmentID", targetID)
		return nil, err
	}

	s.activeSegment = file
	s.activeSegmentID = targetID

	config.Logger.Infow("storage initialized", "activeSegmentID", targetID, "size", s.size)
	return s, nil
}

// openSegmentFile creates the segment file for segmentID and opens it for
// append. The naming scheme guarantees every id it hands out is unused, so
// creation always uses O_EXCL: if the file already exists, that's a
// RecoveryInconsistent condition, never a file to continue appending to.
func (s *Storage) openSegmentFile(segmentID uint64) (*os.File, error) {
	filename := seginfo.FormatName(segmentID)
	filePath := filepath.Join(s.options.DirName, filename)

	s.log.Infow("creating segment file", "segmentID", segmentID, "path", filePath)

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_EXCL|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		if stdErrors.Is(err, os.ErrExist) {
			return nil, errors.NewStorageError(err, errors.ErrorCodeRecoveryInconsistent, "segment file already exists for a fresh segment id").
				WithFileName(filename).WithPath(filePath).WithSegmentID(int(segmentID))
		}
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment file").
			WithFileName(filename).WithPath(filePath)
	}

	return file, nil
}

// Append writes data to the active segment and returns the absolute byte
// offset it was written at, plus the segment id it landed in. The caller
// decides when to call Rotate — Append itself never rotates.
func (s *Storage) Append(data []byte) (segmentID uint64, offset int64, err error) {
	if s.closed.Load() {
		return 0, 0, ErrSegmentClosed
	}

	offset = s.size
	n, err := s.activeSegment.Write(data)
	if err != nil {
		return 0, 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append to active segment").
			WithSegmentID(int(s.activeSegmentID)).WithOffset(int(offset))
	}
	s.size += int64(n)

	if s.options.FsyncOnPut {
		if err := s.activeSegment.Sync(); err != nil {
			return 0, 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to fsync active segment").
				WithSegmentID(int(s.activeSegmentID))
		}
	}

	return s.activeSegmentID, offset, nil
}

// Size returns the current size in bytes of the active segment.
func (s *Storage) Size() int64 {
	return s.size
}

// ActiveSegmentID returns the id of the segment currently being appended
// to.
func (s *Storage) ActiveSegmentID() uint64 {
	return s.activeSegmentID
}

// WouldExceedLimit reports whether appending n more bytes to the active
// segment would take it past the configured size limit. The engine's
// rotation check does not use it: the engine rotates once the pre-append
// size has reached the limit.
func (s *Storage) WouldExceedLimit(n int) bool {
	return uint64(s.size+int64(n)) > s.options.SegmentSizeLimit
}

// Rotate closes the current active segment and opens a new one at the
// next sequential id.
func (s *Storage) Rotate() error {
	if s.closed.Load() {
		return ErrSegmentClosed
	}

	if err := s.activeSegment.Sync(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to sync segment before rotation").
			WithSegmentID(int(s.activeSegmentID))
	}
	if err := s.activeSegment.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close segment before rotation").
			WithSegmentID(int(s.activeSegmentID))
	}

	nextID := s.activeSegmentID + 1
	file, err := s.openSegmentFile(nextID)
	if err != nil {
		return err
	}

	s.activeSegment = file
	s.activeSegmentID = nextID
	s.size = 0

	s.log.Infow("rotated to new segment", "segmentID", nextID)
	return nil
}

// Close syncs and closes the active segment. Close always syncs
// regardless of the FsyncOnPut option, matching the durability guarantee
// that data is flushed by the time Close returns.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrSegmentClosed
	}

	s.log.Infow("closing storage", "activeSegmentID", s.activeSegmentID)

	if err := s.activeSegment.Sync(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to sync active segment on close").
			WithSegmentID(int(s.activeSegmentID))
	}
	if err := s.activeSegment.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close active segment").
			WithSegmentID(int(s.activeSegmentID))
	}

	s.log.Infow("storage closed")
	return nil
}
