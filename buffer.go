package frankentui

// DegradeLevel describes how aggressively a frame should simplify its
// rendering. The host sets it through Buffer.SetDegradeLevel (Session
// never sets it) and drawing code reads it (spec.md 3). This kernel does not implement the
// backdrops that consume most of these levels; the field is still part of
// the contract so callers upstream of the kernel can branch on it.
type DegradeLevel uint8

const (
	DegradeFull DegradeLevel = iota
	DegradeSimpleBorders
	DegradeNoStyling
	DegradeEssentialOnly
	DegradeSkeleton
	DegradeSkipFrame
)

// Rect is an inclusive-exclusive rectangle used by the scissor stack: cells
// with X0<=x<X1 and Y0<=y<Y1 are writable.
type Rect struct {
	X0, Y0, X1, Y1 int
}

func (r Rect) intersect(o Rect) Rect {
	out := Rect{X0: r.X0, Y0: r.Y0, X1: r.X1, Y1: r.Y1}
	if o.X0 > out.X0 {
		out.X0 = o.X0
	}
	if o.Y0 > out.Y0 {
		out.Y0 = o.Y0
	}
	if o.X1 < out.X1 {
		out.X1 = o.X1
	}
	if o.Y1 < out.Y1 {
		out.Y1 = o.Y1
	}
	return out
}

func (r Rect) contains(x, y int) bool {
	return x >= r.X0 && x < r.X1 && y >= r.Y0 && y < r.Y1
}

// Buffer is a row-major grid of cells backed by the process-wide grapheme
// pool (spec.md 3/4.2). Dimensions are fixed for the buffer's lifetime
// except across Resize, which replaces the backing storage wholesale.
// Adapted from the teacher's Buffer in buffer.go: storage layout and
// Resize semantics are kept; Set/Get are generalized for the packed Cell.
// The teacher's row-level dirty tracking is not carried over - each frame
// here is a freshly allocated buffer diffed whole against the previous
// front buffer (Compute's own row-equality fast path, see diff.go), so
// there is no persistent buffer across frames for a dirty flag to track.
// The border-merge logic (which depended on the teacher's rune-keyed
// Cell) is dropped since box-drawing merge is a widget-layer concern
// excluded by spec.md §1.
type Buffer struct {
	pool   *Pool
	cells  []Cell
	width  int
	height int

	scissors []Rect
	opacity  []float64

	degrade DegradeLevel
}

// NewBuffer creates a width x height buffer of empty cells backed by pool.
// A 0x0 buffer is valid; every operation on it is a no-op (spec.md §8).
func NewBuffer(pool *Pool, width, height int) *Buffer {
	b := &Buffer{pool: pool}
	b.reset(width, height)
	return b
}

func (b *Buffer) reset(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([]Cell, width*height)
	empty := EmptyCell()
	for i := range cells {
		cells[i] = empty
	}
	b.cells = cells
	b.width = width
	b.height = height
	b.scissors = b.scissors[:0]
	b.opacity = b.opacity[:0]
}

// Width returns the buffer width.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height.
func (b *Buffer) Height() int { return b.height }

// Size returns the buffer dimensions.
func (b *Buffer) Size() (width, height int) { return b.width, b.height }

// InBounds reports whether x,y lies within the buffer's full extent
// (ignoring any active scissor clip).
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

func (b *Buffer) index(x, y int) int { return y*b.width + x }

// writable reports whether x,y is inside the buffer and the current
// scissor clip, if any.
func (b *Buffer) writable(x, y int) bool {
	if !b.InBounds(x, y) {
		return false
	}
	if len(b.scissors) == 0 {
		return true
	}
	return b.scissors[len(b.scissors)-1].contains(x, y)
}

// Get returns the cell at x,y, or an empty cell if out of bounds.
func (b *Buffer) Get(x, y int) Cell {
	if !b.InBounds(x, y) {
		return EmptyCell()
	}
	return b.cells[b.index(x, y)]
}

// Set writes a cell at x,y, subject to the active scissor clip and opacity
// stack. Out-of-bounds or clipped writes are silently dropped, matching
// spec.md §8's "buffer of dimension 0x0: all operations are no-ops".
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.writable(x, y) {
		return
	}
	c.bg = b.blendBG(c.bg)
	b.cells[b.index(x, y)] = c
}

// blendBG applies the opacity stack to a background color before it lands
// in a cell: the stack's values are multiplied and the color is blended
// toward the terminal default with that product as its weight. The default
// color has no RGB value to mix with, so a combined opacity of 1 keeps the
// color and any lower opacity yields the terminal default. Foreground and
// attributes are never touched.
func (b *Buffer) blendBG(bg Color) Color {
	if len(b.opacity) == 0 {
		return bg
	}
	product := 1.0
	for _, a := range b.opacity {
		product *= a
	}
	return bg.blend(DefaultColor(), product)
}

// PutGrapheme writes a grapheme cluster (interned via the buffer's pool) at
// x,y, placing a ContinuationCell in the next column for width-2 clusters.
// A width-2 cluster landing in the buffer's last column degrades to a
// width-1 replacement character, never writing past the row (spec.md §8
// boundary behavior), grounded on the teacher's WriteSpans double-width
// placeholder handling in buffer.go.
func (b *Buffer) PutGrapheme(x, y int, cluster []byte, style Style) {
	content, err := b.pool.Intern(cluster)
	if err != nil {
		content = uint32(0xFFFD)
	}
	width := uint8(1)
	if content&contentTagBit != 0 {
		width = uint8((content & contentWidthMask) >> contentWidthShift)
	}
	if width == 2 && x+1 >= b.width {
		b.Set(x, y, NewCell(0xFFFD, style))
		return
	}
	cell := Cell{content: content, fg: style.FG, bg: style.BG, attrs: uint32(style.Attr)}
	b.Set(x, y, cell)
	if width == 2 {
		b.Set(x+1, y, ContinuationCell)
	}
}

// Row returns a direct slice view of row y's cells for the diff engine's
// fast-path row comparison (spec.md §4.3). The slice aliases the buffer's
// storage and must not be retained past the buffer's next mutation.
func (b *Buffer) Row(y int) []Cell {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.width
	return b.cells[start : start+b.width]
}

// PushScissor intersects a new clip rectangle with the current one (or the
// full buffer, if the stack is empty) and pushes it. PopScissor restores
// the previous clip. Calling PopScissor with no matching push is a
// programmer error and panics, matching the teacher's assert-on-misuse
// convention for invariants that should never fire in correct code.
func (b *Buffer) PushScissor(r Rect) {
	cur := Rect{X0: 0, Y0: 0, X1: b.width, Y1: b.height}
	if len(b.scissors) > 0 {
		cur = b.scissors[len(b.scissors)-1]
	}
	b.scissors = append(b.scissors, cur.intersect(r))
}

func (b *Buffer) PopScissor() {
	if len(b.scissors) == 0 {
		panic("frankentui: PopScissor with no matching PushScissor")
	}
	b.scissors = b.scissors[:len(b.scissors)-1]
}

// PushOpacity pushes a background-blend multiplier, clamped to [0,1].
// PopOpacity restores the previous multiplier; unbalanced pop panics.
func (b *Buffer) PushOpacity(a float64) {
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	b.opacity = append(b.opacity, a)
}

func (b *Buffer) PopOpacity() {
	if len(b.opacity) == 0 {
		panic("frankentui: PopOpacity with no matching PushOpacity")
	}
	b.opacity = b.opacity[:len(b.opacity)-1]
}

// DegradeLevel returns the buffer's current degrade level.
func (b *Buffer) DegradeLevel() DegradeLevel { return b.degrade }

// SetDegradeLevel sets the buffer's degrade level, for drawing code
// upstream of the kernel to read. Nothing inside the kernel calls it.
func (b *Buffer) SetDegradeLevel(l DegradeLevel) { b.degrade = l }

// Fill fills every cell with c.
func (b *Buffer) Fill(c Cell) {
	for i := range b.cells {
		b.cells[i] = c
	}
}

// Clear resets the buffer to empty cells.
func (b *Buffer) Clear() {
	b.Fill(EmptyCell())
}

// FillRect fills a rectangular region, clipped to the buffer and to the
// active scissor clip, if any. The opacity stack is not applied: cells are
// written exactly as given.
func (b *Buffer) FillRect(x, y, width, height int, c Cell) {
	for dy := 0; dy < height; dy++ {
		row := y + dy
		if row < 0 || row >= b.height {
			continue
		}
		base := row * b.width
		for dx := 0; dx < width; dx++ {
			col := x + dx
			if b.writable(col, row) {
				b.cells[base+col] = c
			}
		}
	}
}

// CopyFrom replaces b's contents with src's. Both buffers must share
// dimensions; used by Session to promote a committed back buffer into the
// front buffer after a present.
func (b *Buffer) CopyFrom(src *Buffer) {
	if b.width != src.width || b.height != src.height {
		return
	}
	copy(b.cells, src.cells)
}

// Resize replaces the buffer's storage with a new width x height grid.
// Existing content is preserved where coordinates still fit; the scissor
// and opacity stacks are reset, matching spec.md's "resize atomically
// replaces both buffers and clears cursor-tracking".
func (b *Buffer) Resize(width, height int) {
	if width == b.width && height == b.height {
		return
	}
	old := b.cells
	oldW, oldH := b.width, b.height
	b.reset(width, height)
	minW, minH := oldW, oldH
	if width < minW {
		minW = width
	}
	if height < minH {
		minH = height
	}
	for y := 0; y < minH; y++ {
		copy(b.cells[y*width:y*width+minW], old[y*oldW:y*oldW+minW])
	}
}
