package seginfo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatNameWidth(t *testing.T) {
	cases := map[uint64]string{
		1:      "000001.cask",
		42:     "000042.cask",
		999999: "999999.cask",
	}
	for id, want := range cases {
		if got := FormatName(id); got != want {
			t.Errorf("FormatName(%d) = %q, want %q", id, got, want)
		}
	}
}

func TestParseNameRoundTrip(t *testing.T) {
	for _, id := range []uint64{1, 42, 999999} {
		name := FormatName(id)
		got, ok := ParseName(name)
		if !ok || got != id {
			t.Errorf("ParseName(%q) = %d, %v; want %d, true", name, got, ok, id)
		}
	}
}

func TestParseNameRejectsMalformed(t *testing.T) {
	bad := []string{
		"1.cask",
		"0000001.cask",
		"abcdef.cask",
		"000001.dat",
		"000001",
		"",
	}
	for _, name := range bad {
		if _, ok := ParseName(name); ok {
			t.Errorf("ParseName(%q) unexpectedly succeeded", name)
		}
	}
}

func TestListSegmentIDsSortsAndFlagsMalformed(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000003.cask", "000001.cask", "000002.cask", "garbage.cask", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	ids, malformed, err := ListSegmentIDs(dir)
	if err != nil {
		t.Fatalf("ListSegmentIDs failed: %v", err)
	}

	want := []uint64{1, 2, 3}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %v", len(want), ids)
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], id)
		}
	}

	if len(malformed) != 1 || malformed[0] != "garbage.cask" {
		t.Errorf("expected [garbage.cask] malformed, got %v", malformed)
	}
}

func TestListSegmentIDsEmptyDirectory(t *testing.T) {
	ids, malformed, err := ListSegmentIDs(t.TempDir())
	if err != nil {
		t.Fatalf("ListSegmentIDs failed: %v", err)
	}
	if len(ids) != 0 || len(malformed) != 0 {
		t.Errorf("expected empty results, got ids=%v malformed=%v", ids, malformed)
	}
}

func TestNextID(t *testing.T) {
	if got := NextID(nil); got != 1 {
		t.Errorf("NextID(nil) = %d, want 1", got)
	}
	if got := NextID([]uint64{1, 5, 3}); got != 6 {
		t.Errorf("NextID([1,5,3]) = %d, want 6", got)
	}
}
