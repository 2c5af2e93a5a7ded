package frankentui

import "testing"

func TestComputeNoChanges(t *testing.T) {
	pool := NewPool()
	a := NewBuffer(pool, 10, 5)
	b := NewBuffer(pool, 10, 5)
	runs, err := Compute(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs for identical buffers, got %v", runs)
	}
}

func TestComputeDimensionMismatch(t *testing.T) {
	pool := NewPool()
	a := NewBuffer(pool, 10, 5)
	b := NewBuffer(pool, 11, 5)
	_, err := Compute(a, b)
	if err != ErrDimensionMismatch {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestComputeZeroDimensions(t *testing.T) {
	pool := NewPool()
	a := NewBuffer(pool, 0, 0)
	b := NewBuffer(pool, 0, 0)
	runs, err := Compute(a, b)
	if err != nil || runs != nil {
		t.Fatalf("expected nil, nil for zero-dimension buffers, got %v, %v", runs, err)
	}
}

func TestComputeSingleCellRun(t *testing.T) {
	pool := NewPool()
	a := NewBuffer(pool, 10, 5)
	b := NewBuffer(pool, 10, 5)
	b.Set(4, 2, NewCell('x', DefaultStyle()))

	runs, err := Compute(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected exactly one run, got %d: %v", len(runs), runs)
	}
	r := runs[0]
	if r.Y != 2 || r.X0 != 4 || r.X1 != 5 {
		t.Fatalf("unexpected run bounds: %+v", r)
	}
}

func TestComputeContiguousRun(t *testing.T) {
	pool := NewPool()
	a := NewBuffer(pool, 10, 5)
	b := NewBuffer(pool, 10, 5)
	for x := 2; x < 6; x++ {
		b.Set(x, 1, NewCell('y', DefaultStyle()))
	}

	runs, err := Compute(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one contiguous run, got %d: %v", len(runs), runs)
	}
	if runs[0] != (ChangeRun{Y: 1, X0: 2, X1: 6}) {
		t.Fatalf("unexpected run: %+v", runs[0])
	}
}

func TestComputeWideGlyphRun(t *testing.T) {
	pool := NewPool()
	a := NewBuffer(pool, 10, 5)
	b := NewBuffer(pool, 10, 5)
	b.PutGrapheme(3, 0, []byte("中"), DefaultStyle())

	runs, err := Compute(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected a single run spanning the glyph and its continuation cell, got %v", runs)
	}
	if runs[0].X0 != 3 || runs[0].X1 != 5 {
		t.Fatalf("expected run [3,5), got %+v", runs[0])
	}
}
