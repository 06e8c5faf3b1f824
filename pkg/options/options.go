// Package options provides the configuration surface for the key/value
// store: directory location, the soft segment size limit that drives
// rotation, and the fsync-on-put durability upgrade.
package options

import "strings"

// Options holds the configuration used to open a store.
type Options struct {
	// DirName is the directory holding segment files and the lock
	// sentinel. Created if it does not already exist.
	DirName string `json:"dirName"`

	// SegmentSizeLimit is the soft per-segment size limit in bytes,
	// checked before each append. The active segment may end up slightly
	// larger than this after its final write.
	//
	//  - Default: 100 MiB
	//  - Minimum: 1 MiB
	//  - Maximum: 4 GiB
	SegmentSizeLimit uint64 `json:"segmentSizeLimit"`

	// FsyncOnPut, when true, fsyncs the active segment after every Put
	// before returning. When false (the default), durability is only
	// guaranteed at Close; a crash may lose the unflushed tail of the
	// active segment.
	FsyncOnPut bool `json:"fsyncOnPut"`
}

// OptionFunc modifies an Options value during construction.
type OptionFunc func(*Options)

// WithDefaultOptions resets the struct back to the package defaults,
// except for DirName which must still be set separately.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		defaults := NewDefaultOptions()
		o.SegmentSizeLimit = defaults.SegmentSizeLimit
		o.FsyncOnPut = defaults.FsyncOnPut
	}
}

// WithDirName sets the directory the store will use. Blank values are
// ignored.
func WithDirName(dir string) OptionFunc {
	return func(o *Options) {
		dir = strings.TrimSpace(dir)
		if dir != "" {
			o.DirName = dir
		}
	}
}

// WithSegmentSize sets the soft per-segment size limit, bounded by
// MinSegmentSize and MaxSegmentSize. Values outside the bound are ignored
// rather than clamped: the previous limit stays in effect and no error is
// reported.
func WithSegmentSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size >= MinSegmentSize && size <= MaxSegmentSize {
			o.SegmentSizeLimit = size
		}
	}
}

// WithFsyncOnPut toggles the fsync-after-every-put durability upgrade.
func WithFsyncOnPut(enabled bool) OptionFunc {
	return func(o *Options) {
		o.FsyncOnPut = enabled
	}
}
