// Package filesys provides the small set of file-system primitives the
// storage engine needs for directory setup and segment enumeration.
package filesys

import (
	"errors"
	"os"
	"path/filepath"
)

var ErrIsNotDir = errors.New("path isn't a directory")

// CreateDir creates a directory at the specified path with the given
// permissions.
//
// If the directory already exists:
//   - If 'force' is true, it proceeds without error.
//   - If 'force' is false, it returns the stat error (typically nil, since
//     an existing directory isn't itself an error condition the caller
//     asked to guard against only via 'force').
//
// When 'force' is true, it also returns ErrIsNotDir if the existing path is
// a file, not a directory.
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && !os.IsNotExist(err) {
		return err
	}

	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}

	return os.Chmod(dirPath, permission)
}

// ReadDir reads the directory specified by `dirName` and returns a list of
// matching file paths. It uses `filepath.Glob`, so `dirName` can contain
// glob patterns (e.g., "mydir/*.cask").
func ReadDir(dirName string) ([]string, error) {
	return filepath.Glob(dirName)
}

// Exists checks if a file or directory at the given path exists.
func Exists(file string) (bool, error) {
	_, err := os.Stat(file)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
