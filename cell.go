package frankentui

import "unsafe"

// Cell is a single terminal grid unit: four packed 32-bit words so that
// four cells tile one 64-byte cache line (spec.md 3). Go has no portable
// way to request a type's alignment (no `alignas` equivalent), so only the
// size invariant is asserted at compile time below; the layout is still
// four contiguous uint32 words with no padding, so slices of Cell remain
// gap-free at 16 bytes/cell regardless of the slice's base alignment.
type Cell struct {
	content uint32 // scalar (bits 0-20) or pool id (tag bit 31 set)
	fg      Color
	bg      Color
	attrs   uint32 // lower 16 bits Attribute, upper 16 bits hyperlink id
}

var _ [unsafe.Sizeof(Cell{})]byte = [16]byte{} // compile error unless sizeof(Cell) == 16

const (
	contentTagBit      = uint32(1) << 31
	contentIndexMask   = uint32(1)<<24 - 1 // bits 0-23
	contentWidthShift  = 24
	contentWidthMask   = uint32(0x7F) << contentWidthShift // bits 24-30
	scalarMask         = uint32(1)<<21 - 1                 // bits 0-20
)

// ContinuationCell is the distinguished marker occupying the second column
// of a wide (display-width-2) glyph. It carries the tag bit with a zero
// index and zero width, a combination intern() never returns for a real
// cluster (slot 0 is reserved at pool construction - see grapheme.go).
var ContinuationCell = Cell{content: contentTagBit}

// EmptyCell returns a cell holding a space with default style.
func EmptyCell() Cell {
	return NewCell(' ', DefaultStyle())
}

// NewCell builds a cell from a scalar rune and a style. Runes outside the
// 21-bit scalar range are replaced with U+FFFD.
func NewCell(r rune, style Style) Cell {
	content := uint32(r) & scalarMask
	if uint32(r) > scalarMask {
		content = uint32(0xFFFD)
	}
	return Cell{
		content: content,
		fg:      style.FG,
		bg:      style.BG,
		attrs:   uint32(style.Attr),
	}
}

// newPoolCell builds a cell referencing a grapheme pool slot.
func newPoolCell(id uint32, width uint8, style Style) Cell {
	content := contentTagBit | (id & contentIndexMask) | (uint32(width) << contentWidthShift)
	return Cell{
		content: content,
		fg:      style.FG,
		bg:      style.BG,
		attrs:   uint32(style.Attr),
	}
}

// IsContinuation reports whether the cell is a wide-glyph continuation
// marker (never rendered directly; the presenter skips it).
func (c Cell) IsContinuation() bool {
	return c.content == contentTagBit
}

// IsPooled reports whether the cell's content is a grapheme pool reference
// rather than a literal Unicode scalar.
func (c Cell) IsPooled() bool {
	return c.content&contentTagBit != 0 && !c.IsContinuation()
}

// Rune returns the literal scalar content, or 0 if the cell is pooled or a
// continuation marker.
func (c Cell) Rune() rune {
	if c.content&contentTagBit != 0 {
		return 0
	}
	return rune(c.content & scalarMask)
}

// PoolRef returns the pool index and display width for a pooled cell.
// Meaningless (zero, zero) for non-pooled cells.
func (c Cell) PoolRef() (id uint32, width uint8) {
	if !c.IsPooled() {
		return 0, 0
	}
	return c.content & contentIndexMask, uint8((c.content & contentWidthMask) >> contentWidthShift)
}

// Style reconstructs the ergonomic Style view of the cell's packed colors
// and attribute bits (the hyperlink id is excluded; use LinkID).
func (c Cell) Style() Style {
	return Style{FG: c.fg, BG: c.bg, Attr: Attribute(uint16(c.attrs))}
}

// LinkID returns the cell's hyperlink id (0 = no link).
func (c Cell) LinkID() uint16 {
	return uint16(c.attrs >> 16)
}

// WithLinkID returns a copy of c carrying the given hyperlink id.
func (c Cell) WithLinkID(id uint16) Cell {
	c.attrs = c.attrs&0x0000FFFF | uint32(id)<<16
	return c
}

// BitsEqual reports whether two cells are identical across all four packed
// words. Written branchlessly per spec.md 3's hot-path contract: the XOR of
// each word pair is ORed together and compared with zero, with no
// short-circuit evaluation, rather than relying on Go's struct `==` (which
// already lowers to an equivalent memcmp for this shape, but the explicit
// form documents and pins the contract if a field is ever added).
func BitsEqual(a, b Cell) bool {
	return (a.content^b.content)|
		uint32(a.fg^b.fg)|
		uint32(a.bg^b.bg)|
		(a.attrs^b.attrs) == 0
}

// Equal is an ergonomic alias for BitsEqual.
func (c Cell) Equal(other Cell) bool { return BitsEqual(c, other) }
