// Package dirlock enforces single-writer access to a store directory using
// a lock sentinel file, following the flock-based exclusion pattern used
// by Bitcask-style stores.
package dirlock

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/ishanjain28/bitcask/pkg/errors"
)

// sentinelName is the lock file created inside the store directory.
const sentinelName = "db.lock"

// Lock represents an acquired hold on a store directory. Release must be
// called exactly once to free it.
type Lock struct {
	flock *flock.Flock
	path  string
}

// Acquire takes an exclusive, non-blocking lock on dir's sentinel file. If
// another process already holds it, Acquire returns a *errors.StorageError
// with ErrorCodeLocked.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, sentinelName)
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to acquire directory lock").
			WithPath(path).
			WithFileName(sentinelName)
	}
	if !locked {
		return nil, errors.NewLockedError(path, nil)
	}

	return &Lock{flock: fl, path: path}, nil
}

// Release frees the lock and removes the sentinel file. The file is
// removed after unlocking so a crash between the two steps leaves a
// stale sentinel that a later Acquire can still unlock cleanly rather
// than a dangling advisory lock on a file nobody can find.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to release directory lock").
			WithPath(l.path).WithFileName(sentinelName)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove lock sentinel file").
			WithPath(l.path).WithFileName(sentinelName)
	}
	return nil
}

// Path returns the path of the sentinel file backing this lock.
func (l *Lock) Path() string {
	return l.path
}
