package tui

import (
	"strings"
	"testing"
)

func TestOverlayAtCompositesIntoMiddleRow(t *testing.T) {
	base := "aaaaaa\nbbbbbb\ncccccc"

	got := overlayAt(base, "XX", 2, 1, 6, 3)

	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("line count = %d, want 3", len(lines))
	}
	if lines[0] != "aaaaaa" || lines[2] != "cccccc" {
		t.Fatalf("rows outside the overlay changed: %q", got)
	}
	if lines[1] != "bbXXbb" {
		t.Fatalf("overlay row = %q, want bbXXbb", lines[1])
	}
}

func TestOverlayAtIgnoresRowsBelowHeight(t *testing.T) {
	base := "aaaa\nbbbb"

	got := overlayAt(base, "XX", 0, 1, 4, 1)

	if got != base {
		t.Fatalf("overlay outside the visible height should be a no-op, got %q", got)
	}
}

func TestPadRightAndTruncate(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Fatalf("padRight = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Fatalf("padRight must not shorten, got %q", got)
	}
	if got := truncate("structure.pdb", 6); got != "struc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("ok", 6); got != "ok" {
		t.Fatalf("truncate widened short input: %q", got)
	}
}

func TestClampWindowFollowsCursor(t *testing.T) {
	cursor, top := 12, 0
	clampWindow(&cursor, &top, 20, 5)
	if cursor != 12 || top != 8 {
		t.Fatalf("cursor=%d top=%d, want 12/8", cursor, top)
	}

	cursor = 2
	clampWindow(&cursor, &top, 20, 5)
	if top != 2 {
		t.Fatalf("top = %d, want window pulled up to 2", top)
	}
}

func TestClampWindowBoundsCursor(t *testing.T) {
	cursor, top := 99, 0
	clampWindow(&cursor, &top, 8, 5)
	if cursor != 7 {
		t.Fatalf("cursor = %d, want clamped to 7", cursor)
	}
	if top != 3 {
		t.Fatalf("top = %d, want 3", top)
	}

	cursor = -4
	clampWindow(&cursor, &top, 8, 5)
	if cursor != 0 || top != 0 {
		t.Fatalf("cursor=%d top=%d, want 0/0", cursor, top)
	}
}
