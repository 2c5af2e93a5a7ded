package frankentui

import (
	"bytes"
	"io"

	"github.com/charmbracelet/x/ansi"
)

const (
	escSyncBegin = "\x1b[?2026h"
	escSyncEnd   = "\x1b[?2026l"
)

// unknownCursor is the sentinel cursor position after a presenter reset or
// a session resize (spec.md §4.4 "last cursor position, or unknown").
const unknownCursor = -1

// Presenter converts a run list into a single buffered ANSI byte stream.
// The last cursor position is carried from one Present call to the next;
// the last emitted style and the open hyperlink id are tracked within a
// call and reset at its end (style reset, link closed); whether sync
// output was begun is a local of each call. Grounded on the teacher's
// Screen.writeCell/writeStyle/writeColor/writeIntToBuf in screen.go - the
// reset-then-apply SGR policy and last-style tracking are kept; byte
// construction is rebased on charmbracelet/x/ansi's sequence constructors.
type Presenter struct {
	cursorX, cursorY int
	lastStyle        Style
	haveLastStyle    bool
	openLink         uint16
	buf              bytes.Buffer
}

// NewPresenter returns a presenter with cursor tracking reset to unknown,
// as required after a session resize or on first use.
func NewPresenter() *Presenter {
	return &Presenter{cursorX: unknownCursor, cursorY: unknownCursor}
}

// ResetCursor forces the next Present call to re-emit a cursor-position
// command regardless of the presenter's tracked position. Session calls
// this after Resize, per spec.md's "resize... clears cursor-tracking".
func (p *Presenter) ResetCursor() {
	p.cursorX, p.cursorY = unknownCursor, unknownCursor
}

// Present runs the spec.md §4.4 algorithm against runs computed from old
// vs new, writing the resulting bytes through w in one buffered call. It
// never interprets I/O errors; it only surfaces them. Presenting a buffer
// against itself (zero runs) writes zero bytes, satisfying the presenter
// idempotence invariant.
func (p *Presenter) Present(w io.Writer, new *Buffer, runs []ChangeRun, links HyperlinkRegistry, caps Capabilities) error {
	if len(runs) == 0 {
		return nil
	}

	p.buf.Reset()
	syncOpen := false
	if caps.SyncOutput && !caps.Multiplexer {
		p.buf.WriteString(escSyncBegin)
		syncOpen = true
	}

	pool := new.pool
	for _, run := range runs {
		if p.cursorX != run.X0 || p.cursorY != run.Y {
			// CUP is 1-based; cursorX/Y tracking itself stays 0-based to
			// match Buffer coordinates, only the emitted params get +1
			// (teacher's writeCell does the same y+1/x+1 conversion).
			p.buf.WriteString(ansi.CursorPosition(run.X0+1, run.Y+1))
			p.cursorX, p.cursorY = run.X0, run.Y
		}
		x := run.X0
		for x < run.X1 {
			cell := new.Get(x, run.Y)
			if cell.IsContinuation() {
				x++
				continue
			}

			linkID := cell.LinkID()
			if linkID != p.openLink {
				if p.openLink != 0 {
					p.buf.WriteString(ansi.ResetHyperlink())
				}
				if linkID != 0 {
					p.buf.WriteString(ansi.SetHyperlink(links[linkID], ""))
				}
				p.openLink = linkID
			}

			style := cell.Style()
			if !p.haveLastStyle || !style.Equal(p.lastStyle) {
				writeSGR(&p.buf, style, caps.Profile)
				p.lastStyle = style
				p.haveLastStyle = true
			}

			width := writeGlyph(&p.buf, pool, cell)
			p.cursorX += int(width)
			x += int(width)
		}
	}

	if p.openLink != 0 {
		p.buf.WriteString(ansi.ResetHyperlink())
		p.openLink = 0
	}
	p.buf.WriteString(ansi.ResetStyle)
	p.haveLastStyle = false
	if syncOpen {
		p.buf.WriteString(escSyncEnd)
	}

	_, err := w.Write(p.buf.Bytes())
	return err
}

// writeGlyph emits a cell's content bytes and returns its display width.
// A continuation cell is handled by the caller before this is reached.
func writeGlyph(buf *bytes.Buffer, pool *Pool, cell Cell) uint8 {
	if cell.IsPooled() {
		_, width := cell.PoolRef()
		bs, _ := pool.Resolve(cell.content)
		buf.Write(bs)
		return width
	}
	r := cell.Rune()
	buf.WriteRune(r)
	return 1
}

// writeSGR emits a full reset followed by the style's SGR codes, downgraded
// to the given color profile (spec.md §4.4 baseline reset-then-apply
// policy - see SPEC_FULL.md §4.7 for why incremental SGR is not
// implemented). Color byte construction follows the teacher's writeColor
// in screen.go, adapted for the packed Color/Attribute types.
func writeSGR(buf *bytes.Buffer, style Style, profile ColorProfile) {
	buf.WriteString("\x1b[0")
	if style.Attr.Has(AttrBold) {
		buf.WriteString(";1")
	}
	if style.Attr.Has(AttrDim) || style.Attr.Has(AttrFaint) {
		buf.WriteString(";2")
	}
	if style.Attr.Has(AttrItalic) {
		buf.WriteString(";3")
	}
	if style.Attr.Has(AttrUnderline) {
		buf.WriteString(";4")
	}
	if style.Attr.Has(AttrBlink) {
		buf.WriteString(";5")
	}
	if style.Attr.Has(AttrInverse) {
		buf.WriteString(";7")
	}
	if style.Attr.Has(AttrStrikethrough) {
		buf.WriteString(";9")
	}
	writeColorCode(buf, style.FG, true, profile)
	writeColorCode(buf, style.BG, false, profile)
	buf.WriteByte('m')
}

func writeColorCode(buf *bytes.Buffer, c Color, fg bool, profile ColorProfile) {
	if c.IsDefault() {
		if fg {
			buf.WriteString(";39")
		} else {
			buf.WriteString(";49")
		}
		return
	}
	switch profile {
	case ProfileTrueColor:
		_, r, g, b := c.RGBA()
		if fg {
			buf.WriteString(";38;2;")
		} else {
			buf.WriteString(";48;2;")
		}
		writeUint(buf, r)
		buf.WriteByte(';')
		writeUint(buf, g)
		buf.WriteByte(';')
		writeUint(buf, b)
	case Profile256:
		idx := c.ANSI256Index()
		if fg {
			buf.WriteString(";38;5;")
		} else {
			buf.WriteString(";48;5;")
		}
		writeUint(buf, idx)
	case Profile16:
		idx := int(c.ANSI16Index())
		base := 30
		if !fg {
			base = 40
		}
		if idx >= 8 {
			base += 60
			idx -= 8
		}
		buf.WriteByte(';')
		writeUint(buf, uint8(base+idx))
	default: // ProfileMono
		if fg {
			buf.WriteString(";39")
		} else {
			buf.WriteString(";49")
		}
	}
}

func writeUint(buf *bytes.Buffer, n uint8) {
	if n >= 100 {
		buf.WriteByte('0' + n/100)
		n %= 100
		buf.WriteByte('0' + n/10)
		buf.WriteByte('0' + n%10)
		return
	}
	if n >= 10 {
		buf.WriteByte('0' + n/10)
		buf.WriteByte('0' + n%10)
		return
	}
	buf.WriteByte('0' + n)
}
