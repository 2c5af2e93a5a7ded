package frankentui

import "testing"

func TestNewBuffer(t *testing.T) {
	buf := NewBuffer(NewPool(), 80, 24)
	if w, h := buf.Size(); w != 80 || h != 24 {
		t.Fatalf("expected 80x24, got %dx%d", w, h)
	}
	for y := 0; y < buf.Height(); y++ {
		for x := 0; x < buf.Width(); x++ {
			if buf.Get(x, y).Rune() != ' ' {
				t.Fatalf("expected space at (%d,%d)", x, y)
			}
		}
	}
}

func TestBufferInBounds(t *testing.T) {
	buf := NewBuffer(NewPool(), 10, 10)
	tests := []struct {
		x, y   int
		expect bool
	}{
		{0, 0, true},
		{9, 9, true},
		{-1, 0, false},
		{0, -1, false},
		{10, 0, false},
		{0, 10, false},
	}
	for _, tt := range tests {
		if got := buf.InBounds(tt.x, tt.y); got != tt.expect {
			t.Errorf("InBounds(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.expect)
		}
	}
}

func TestBufferSetGet(t *testing.T) {
	buf := NewBuffer(NewPool(), 10, 10)
	c := NewCell('z', DefaultStyle().Bold())
	buf.Set(3, 4, c)
	if got := buf.Get(3, 4); !BitsEqual(got, c) {
		t.Fatalf("expected round-trip cell, got different bits")
	}
}

func TestBufferSetOutOfBoundsNoop(t *testing.T) {
	buf := NewBuffer(NewPool(), 10, 10)
	buf.Set(-1, 0, NewCell('a', DefaultStyle()))
	buf.Set(0, 100, NewCell('a', DefaultStyle()))
	// no panic
}

func TestBufferScissorClipsWrites(t *testing.T) {
	buf := NewBuffer(NewPool(), 10, 10)
	buf.PushScissor(Rect{X0: 2, Y0: 2, X1: 5, Y1: 5})
	buf.Set(0, 0, NewCell('a', DefaultStyle()))
	if buf.Get(0, 0).Rune() != ' ' {
		t.Fatal("write outside scissor rect should be dropped")
	}
	buf.Set(3, 3, NewCell('b', DefaultStyle()))
	if buf.Get(3, 3).Rune() != 'b' {
		t.Fatal("write inside scissor rect should land")
	}
	buf.PopScissor()
	buf.Set(0, 0, NewCell('c', DefaultStyle()))
	if buf.Get(0, 0).Rune() != 'c' {
		t.Fatal("write after PopScissor should land once the clip is gone")
	}
}

func TestBufferScissorNested(t *testing.T) {
	buf := NewBuffer(NewPool(), 10, 10)
	buf.PushScissor(Rect{X0: 0, Y0: 0, X1: 8, Y1: 8})
	buf.PushScissor(Rect{X0: 4, Y0: 4, X1: 10, Y1: 10})
	buf.Set(6, 6, NewCell('x', DefaultStyle()))
	if buf.Get(6, 6).Rune() != 'x' {
		t.Fatal("write within intersection of nested scissors should land")
	}
	buf.Set(9, 9, NewCell('y', DefaultStyle()))
	if buf.Get(9, 9).Rune() != ' ' {
		t.Fatal("write outside the intersected (narrower) rect should be dropped")
	}
}

func TestBufferPopScissorUnbalancedPanics(t *testing.T) {
	buf := NewBuffer(NewPool(), 10, 10)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unbalanced PopScissor")
		}
	}()
	buf.PopScissor()
}

func TestBufferPopOpacityUnbalancedPanics(t *testing.T) {
	buf := NewBuffer(NewPool(), 10, 10)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unbalanced PopOpacity")
		}
	}()
	buf.PopOpacity()
}

func TestBufferOpacityClamped(t *testing.T) {
	buf := NewBuffer(NewPool(), 10, 10)

	buf.PushOpacity(5.0) // out of range, should clamp to 1.0
	buf.Set(0, 0, Cell{fg: DefaultColor(), bg: RGB(255, 0, 0), content: uint32(' ')})
	full := buf.Get(0, 0).bg
	buf.PopOpacity()

	buf.PushOpacity(0.0)
	buf.Set(1, 0, Cell{fg: DefaultColor(), bg: RGB(255, 0, 0), content: uint32(' ')})
	faded := buf.Get(1, 0).bg
	buf.PopOpacity()

	if full != RGB(255, 0, 0) {
		t.Fatalf("opacity 1.0 should leave background unchanged, got %v", full)
	}
	if faded == RGB(255, 0, 0) {
		t.Fatal("opacity 0.0 should fully blend background toward default")
	}
}

func TestBufferPutGraphemeWide(t *testing.T) {
	buf := NewBuffer(NewPool(), 10, 10)
	buf.PutGrapheme(3, 0, []byte("中"), DefaultStyle())
	if buf.Get(3, 0).Rune() == ' ' {
		t.Fatal("expected wide glyph to be placed")
	}
	if !buf.Get(4, 0).IsContinuation() {
		t.Fatal("expected continuation cell in the column after a wide glyph")
	}
}

func TestBufferPutGraphemeWideAtLastColumnDegrades(t *testing.T) {
	buf := NewBuffer(NewPool(), 10, 10)
	buf.PutGrapheme(9, 0, []byte("中"), DefaultStyle())
	if buf.Get(9, 0).Rune() != 0xFFFD {
		t.Fatalf("expected replacement char at last column, got %q", buf.Get(9, 0).Rune())
	}
}

func TestBufferResizePreservesOverlap(t *testing.T) {
	buf := NewBuffer(NewPool(), 5, 5)
	buf.Set(1, 1, NewCell('q', DefaultStyle()))
	buf.Resize(10, 10)
	if w, h := buf.Size(); w != 10 || h != 10 {
		t.Fatalf("expected resized dimensions 10x10, got %dx%d", w, h)
	}
	if buf.Get(1, 1).Rune() != 'q' {
		t.Fatal("expected overlapping cell to survive resize")
	}
}

func TestBufferCopyFromDimensionMismatchNoop(t *testing.T) {
	a := NewBuffer(NewPool(), 5, 5)
	b := NewBuffer(NewPool(), 6, 6)
	b.Set(0, 0, NewCell('z', DefaultStyle()))
	a.CopyFrom(b) // dimension mismatch: a must be left unchanged
	if a.Get(0, 0).Rune() != ' ' {
		t.Fatal("CopyFrom with mismatched dimensions should be a no-op")
	}
}
