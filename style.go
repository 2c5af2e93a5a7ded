package frankentui

// Attribute is a style bitflag. The lower 16 bits of Cell.attrs are an
// Attribute bitset; the upper 16 bits carry a hyperlink id (spec.md 3).
type Attribute uint16

const (
	AttrNone Attribute = 0
	AttrBold Attribute = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrInverse
	AttrStrikethrough
	AttrFaint
)

// Has returns true if the attribute set contains the given attribute.
func (a Attribute) Has(attr Attribute) bool { return a&attr != 0 }

// With returns a new attribute set with the given attribute added.
func (a Attribute) With(attr Attribute) Attribute { return a | attr }

// Without returns a new attribute set with the given attribute removed.
func (a Attribute) Without(attr Attribute) Attribute { return a &^ attr }

// Style is the ergonomic view widgets construct; Frame resolves it into a
// Cell's packed fg/bg/attrs words at write time.
type Style struct {
	FG   Color
	BG   Color
	Attr Attribute
}

// DefaultStyle returns a style with default colors and no attributes.
func DefaultStyle() Style {
	return Style{FG: DefaultColor(), BG: DefaultColor()}
}

// Foreground returns a copy of s with the given foreground color.
func (s Style) Foreground(c Color) Style { s.FG = c; return s }

// Background returns a copy of s with the given background color.
func (s Style) Background(c Color) Style { s.BG = c; return s }

// Bold returns a copy of s with bold enabled.
func (s Style) Bold() Style { s.Attr = s.Attr.With(AttrBold); return s }

// Dim returns a copy of s with dim enabled.
func (s Style) Dim() Style { s.Attr = s.Attr.With(AttrDim); return s }

// Italic returns a copy of s with italic enabled.
func (s Style) Italic() Style { s.Attr = s.Attr.With(AttrItalic); return s }

// Underline returns a copy of s with underline enabled.
func (s Style) Underline() Style { s.Attr = s.Attr.With(AttrUnderline); return s }

// Inverse returns a copy of s with inverse video enabled.
func (s Style) Inverse() Style { s.Attr = s.Attr.With(AttrInverse); return s }

// Strikethrough returns a copy of s with strikethrough enabled.
func (s Style) Strikethrough() Style { s.Attr = s.Attr.With(AttrStrikethrough); return s }

// Equal reports whether two styles carry identical colors and attributes.
func (s Style) Equal(other Style) bool { return s == other }
