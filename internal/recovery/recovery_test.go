package recovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ishanjain28/bitcask/internal/record"
	"github.com/ishanjain28/bitcask/pkg/logger"
	"github.com/ishanjain28/bitcask/pkg/seginfo"
)

func writeSegment(t *testing.T, dir string, id uint64, records []record.Record) {
	t.Helper()
	path := filepath.Join(dir, seginfo.FormatName(id))
	var buf []byte
	for _, r := range records {
		buf = append(buf, record.Encode(r)...)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("writing segment %d: %v", id, err)
	}
}

func TestRecoverSingleSegment(t *testing.T) {
	dir := t.TempDir()
	writeSegment(t, dir, 1, []record.Record{
		{Timestamp: 1, Key: []byte("a"), Value: []byte("1")},
		{Timestamp: 2, Key: []byte("b"), Value: []byte("2")},
	})

	idx, err := Recover(dir, []uint64{1}, logger.New("recovery_test"))
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", idx.Len())
	}
	ptr, ok := idx.Get("a")
	if !ok || ptr.SegmentID != 1 {
		t.Errorf("unexpected pointer for a: %+v ok=%v", ptr, ok)
	}
}

func TestRecoverLastWriteWinsAcrossSegments(t *testing.T) {
	dir := t.TempDir()
	writeSegment(t, dir, 1, []record.Record{
		{Timestamp: 1, Key: []byte("key"), Value: []byte("old")},
	})
	writeSegment(t, dir, 2, []record.Record{
		{Timestamp: 2, Key: []byte("key"), Value: []byte("new")},
	})

	idx, err := Recover(dir, []uint64{1, 2}, logger.New("recovery_test"))
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	ptr, ok := idx.Get("key")
	if !ok {
		t.Fatal("expected key to be found")
	}
	if ptr.SegmentID != 2 {
		t.Errorf("expected last write (segment 2) to win, got segment %d", ptr.SegmentID)
	}
}

func TestRecoverRejectsGapInSegmentIDs(t *testing.T) {
	dir := t.TempDir()
	writeSegment(t, dir, 1, []record.Record{{Timestamp: 1, Key: []byte("a"), Value: []byte("1")}})
	writeSegment(t, dir, 3, []record.Record{{Timestamp: 2, Key: []byte("b"), Value: []byte("2")}})

	_, err := Recover(dir, []uint64{1, 3}, logger.New("recovery_test"))
	if err == nil {
		t.Fatal("expected error for non-contiguous segment ids")
	}
}

func TestRecoverRejectsCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, seginfo.FormatName(1))
	buf := record.Encode(record.Record{Timestamp: 1, Key: []byte("a"), Value: []byte("1")})
	buf[0] ^= 0xFF
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("writing segment: %v", err)
	}

	_, err := Recover(dir, []uint64{1}, logger.New("recovery_test"))
	if err == nil {
		t.Fatal("expected error for corrupt record")
	}
}

func TestRecoverRejectsTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, seginfo.FormatName(1))
	buf := record.Encode(record.Record{Timestamp: 1, Key: []byte("a"), Value: []byte("1")})
	if err := os.WriteFile(path, buf[:len(buf)-2], 0644); err != nil {
		t.Fatalf("writing segment: %v", err)
	}

	_, err := Recover(dir, []uint64{1}, logger.New("recovery_test"))
	if err == nil {
		t.Fatal("expected error for truncated tail")
	}
}

func TestRecoverEmptyDirectory(t *testing.T) {
	idx, err := Recover(t.TempDir(), nil, logger.New("recovery_test"))
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if idx.Len() != 0 {
		t.Fatalf("expected empty index, got %d keys", idx.Len())
	}
}
