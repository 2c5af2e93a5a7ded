package frankentui

import (
	"testing"
	"unsafe"
)

func TestCellSize(t *testing.T) {
	if sz := unsafe.Sizeof(Cell{}); sz != 16 {
		t.Fatalf("expected Cell to be 16 bytes, got %d", sz)
	}
}

func TestNewCellScalar(t *testing.T) {
	c := NewCell('x', DefaultStyle())
	if c.Rune() != 'x' {
		t.Fatalf("expected rune 'x', got %q", c.Rune())
	}
	if c.IsPooled() || c.IsContinuation() {
		t.Fatalf("scalar cell misclassified as pooled/continuation")
	}
}

func TestNewCellOutOfRange(t *testing.T) {
	c := NewCell(rune(1<<21+5), DefaultStyle())
	if c.Rune() != 0xFFFD {
		t.Fatalf("expected replacement char for out-of-range rune, got %q", c.Rune())
	}
}

func TestCellLinkID(t *testing.T) {
	c := NewCell('a', DefaultStyle())
	c = c.WithLinkID(42)
	if c.LinkID() != 42 {
		t.Fatalf("expected link id 42, got %d", c.LinkID())
	}
	if c.Rune() != 'a' {
		t.Fatalf("WithLinkID should not disturb content, got rune %q", c.Rune())
	}
}

func TestBitsEqual(t *testing.T) {
	a := NewCell('a', DefaultStyle().Bold())
	b := NewCell('a', DefaultStyle().Bold())
	c := NewCell('a', DefaultStyle())
	if !BitsEqual(a, b) {
		t.Fatal("expected identical cells to compare equal")
	}
	if BitsEqual(a, c) {
		t.Fatal("expected cells with differing attrs to compare unequal")
	}
}

func TestContinuationCell(t *testing.T) {
	if !ContinuationCell.IsContinuation() {
		t.Fatal("ContinuationCell should report IsContinuation")
	}
	if ContinuationCell.IsPooled() {
		t.Fatal("ContinuationCell should not report IsPooled")
	}
}
