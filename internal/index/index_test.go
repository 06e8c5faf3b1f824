package index

import (
	"context"
	"testing"

	"github.com/ishanjain28/bitcask/pkg/logger"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(context.Background(), &Config{DataDir: t.TempDir(), Logger: logger.New("index_test")})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return idx
}

func TestSetAndGet(t *testing.T) {
	idx := newTestIndex(t)

	ptr := RecordPointer{Timestamp: 1, Offset: 56, ValueSize: 3, SegmentID: 1}
	if err := idx.Set("foo", ptr); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := idx.Get("foo")
	if !ok {
		t.Fatal("expected key to be found")
	}
	if got.SegmentID != 1 || got.Offset != 56 || got.ValueSize != 3 {
		t.Errorf("unexpected pointer: %+v", got)
	}
	if got.Key != "foo" {
		t.Errorf("expected Key to be stamped as foo, got %q", got.Key)
	}
}

func TestGetMissingKey(t *testing.T) {
	idx := newTestIndex(t)
	if _, ok := idx.Get("missing"); ok {
		t.Fatal("expected missing key to not be found")
	}
}

func TestSetOverwritesPreviousPointer(t *testing.T) {
	idx := newTestIndex(t)

	_ = idx.Set("key", RecordPointer{Timestamp: 1, SegmentID: 1, Offset: 0, ValueSize: 1})
	_ = idx.Set("key", RecordPointer{Timestamp: 2, SegmentID: 2, Offset: 100, ValueSize: 2})

	got, ok := idx.Get("key")
	if !ok {
		t.Fatal("expected key to be found")
	}
	if got.SegmentID != 2 || got.Offset != 100 {
		t.Errorf("expected latest write to win, got %+v", got)
	}
}

func TestRemove(t *testing.T) {
	idx := newTestIndex(t)
	_ = idx.Set("key", RecordPointer{SegmentID: 1})
	idx.Remove("key")

	if _, ok := idx.Get("key"); ok {
		t.Fatal("expected key to be removed")
	}
}

func TestLen(t *testing.T) {
	idx := newTestIndex(t)
	if idx.Len() != 0 {
		t.Fatalf("expected empty index, got len %d", idx.Len())
	}
	_ = idx.Set("a", RecordPointer{SegmentID: 1})
	_ = idx.Set("b", RecordPointer{SegmentID: 1})
	if idx.Len() != 2 {
		t.Errorf("expected len 2, got %d", idx.Len())
	}
}

func TestSetAfterCloseFails(t *testing.T) {
	idx := newTestIndex(t)
	if err := idx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := idx.Set("foo", RecordPointer{}); err != ErrIndexClosed {
		t.Errorf("expected ErrIndexClosed, got %v", err)
	}
}

func TestDoubleCloseFails(t *testing.T) {
	idx := newTestIndex(t)
	if err := idx.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := idx.Close(); err != ErrIndexClosed {
		t.Errorf("expected ErrIndexClosed on second close, got %v", err)
	}
}
