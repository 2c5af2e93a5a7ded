package frankentui

import (
	"bytes"
	"errors"
	"unsafe"
)

// ErrDimensionMismatch is returned by Compute when old and new buffers have
// different dimensions. Per spec.md §4.3, this is the caller's signal to
// rebuild from scratch rather than diff - a resize already atomically
// replaced both buffers, so there is nothing meaningful to compare.
var ErrDimensionMismatch = errors.New("frankentui: diff buffers have mismatched dimensions")

// ChangeRun is a contiguous horizontal range [X0,X1) on row Y where old and
// new differ. A single changed wide glyph and its continuation cell always
// form one run, since the continuation marker is itself compared like any
// other cell (spec.md §4.3).
type ChangeRun struct {
	Y, X0, X1 int
}

// Compute returns the ordered list of change runs between old and new,
// grounded on the teacher's Screen.Flush in screen.go, which already scans
// row-by-row with a dirty-row fast-skip before comparing cells - split out
// here into a pure function so it can be tested in isolation (spec.md §4.3
// "diff(B,B) == []" invariant) independent of any I/O.
func Compute(old, new *Buffer) ([]ChangeRun, error) {
	if old.width != new.width || old.height != new.height {
		return nil, ErrDimensionMismatch
	}
	if old.width == 0 || old.height == 0 {
		return nil, nil
	}

	var runs []ChangeRun
	for y := 0; y < old.height; y++ {
		oldRow := old.Row(y)
		newRow := new.Row(y)
		if rowBytesEqual(oldRow, newRow) {
			continue
		}
		x := 0
		for x < old.width {
			if BitsEqual(oldRow[x], newRow[x]) {
				x++
				continue
			}
			x0 := x
			for x < old.width && !BitsEqual(oldRow[x], newRow[x]) {
				x++
			}
			runs = append(runs, ChangeRun{Y: y, X0: x0, X1: x})
		}
	}
	return runs, nil
}

// rowBytesEqual reinterprets two equal-length Cell rows as raw bytes and
// compares them in one pass, matching spec.md §4.3's "compare the two row
// slices as raw byte sequences (cells are trivially copyable)". Cell has no
// pointer fields, so this reinterpretation is sound for equality purposes.
func rowBytesEqual(a, b []Cell) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	n := len(a) * int(unsafe.Sizeof(Cell{}))
	ab := unsafe.Slice((*byte)(unsafe.Pointer(&a[0])), n)
	bb := unsafe.Slice((*byte)(unsafe.Pointer(&b[0])), n)
	return bytes.Equal(ab, bb)
}
