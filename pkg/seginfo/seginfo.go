// Package seginfo names and enumerates segment files on disk.
//
// Filename format: NNNNNN.cask — a fixed six-digit, zero-padded decimal
// segment id followed by the ".cask" extension (e.g. "000001.cask",
// "000042.cask"). Lexicographic ordering of the filenames matches numeric
// ordering of the ids because the width is fixed.
package seginfo

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ishanjain28/bitcask/pkg/filesys"
)

// nameWidth is the fixed digit width of a segment id in its file name.
const nameWidth = 6

// extension is the fixed file extension for segment files.
const extension = ".cask"

// FormatName renders a segment id as its on-disk file name.
func FormatName(id uint64) string {
	return fmt.Sprintf("%0*d%s", nameWidth, id, extension)
}

// ParseName extracts the segment id from a file name (not a full path).
// ok is false if name isn't exactly nameWidth decimal digits followed by
// the fixed extension — a directory whose segment files don't conform to
// this must be rejected by the caller as a recovery inconsistency rather
// than silently skipped.
func ParseName(name string) (id uint64, ok bool) {
	if !strings.HasSuffix(name, extension) {
		return 0, false
	}
	stem := strings.TrimSuffix(name, extension)
	if len(stem) != nameWidth {
		return 0, false
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	parsed, err := strconv.ParseUint(stem, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// ListSegmentIDs lists every segment id present in dir, ascending. Any
// ".cask" file whose name doesn't parse as a fixed-width segment id is
// reported via malformed, letting the caller decide how to fail.
func ListSegmentIDs(dir string) (ids []uint64, malformed []string, err error) {
	matches, err := filesys.ReadDir(filepath.Join(dir, "*"+extension))
	if err != nil {
		return nil, nil, fmt.Errorf("listing segment files in %s: %w", dir, err)
	}

	for _, match := range matches {
		name := filepath.Base(match)
		id, ok := ParseName(name)
		if !ok {
			malformed = append(malformed, name)
			continue
		}
		ids = append(ids, id)
	}

	slices.Sort(ids)
	return ids, malformed, nil
}

// NextID returns the id that should follow the highest id in ids, or 1 if
// ids is empty (bootstrap case: the very first segment).
func NextID(ids []uint64) uint64 {
	if len(ids) == 0 {
		return 1
	}
	return slices.Max(ids) + 1
}
