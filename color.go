package frankentui

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorProfile describes the color depth a terminal can render, used to
// downgrade colors before presentation.
type ColorProfile uint8

const (
	ProfileTrueColor ColorProfile = iota
	Profile256
	Profile16
	ProfileMono
)

// Color is a packed RGBA value: bits 31-24 alpha, 23-16 red, 15-8 green, 7-0
// blue. Alpha 0 means "use the terminal's default foreground/background";
// any other alpha is treated as fully opaque for SGR emission purposes.
// Fractional alpha only ever exists transiently while Frame resolves an
// opacity-stack blend into a concrete opaque Color before it is written into
// a Cell - see Buffer.blendBG.
type Color uint32

const (
	alphaOpaque  = 0xFF
	alphaDefault = 0x00
)

// DefaultColor returns the terminal's default foreground/background.
func DefaultColor() Color {
	return Color(alphaDefault) << 24
}

// RGB packs an opaque 24-bit truecolor value.
func RGB(r, g, b uint8) Color {
	return Color(alphaOpaque)<<24 | Color(r)<<16 | Color(g)<<8 | Color(b)
}

// Hex packs an opaque color from a 24-bit hex literal (e.g. 0xFF5500).
func Hex(hex uint32) Color {
	return RGB(uint8(hex>>16), uint8(hex>>8), uint8(hex))
}

// IsDefault reports whether c carries the "terminal default" alpha.
func (c Color) IsDefault() bool {
	return uint8(c>>24) == alphaDefault
}

// RGBA unpacks the four component bytes.
func (c Color) RGBA() (a, r, g, b uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// opaque sets a non-default color's alpha to fully opaque without changing
// its RGB payload. A default color is returned unchanged.
func (c Color) opaque() Color {
	if c.IsDefault() {
		return c
	}
	return c&0x00FFFFFF | Color(alphaOpaque)<<24
}

// blend performs a Porter-Duff "over" of c atop dst using weight a in [0,1].
// Used by Buffer's opacity stack to darken backgrounds without touching
// foreground or attributes (spec.md 4.2).
func (c Color) blend(dst Color, a float64) Color {
	if c.IsDefault() || dst.IsDefault() {
		if a >= 1 {
			return c
		}
		return dst
	}
	_, r1, g1, b1 := c.RGBA()
	_, r2, g2, b2 := dst.RGBA()
	mix := func(x, y uint8) uint8 {
		return uint8(a*float64(x) + (1-a)*float64(y))
	}
	return RGB(mix(r1, r2), mix(g1, g2), mix(b1, b2))
}

// Downgrade clamps c to the given color profile. Downgrading an
// already-downgraded color is idempotent: a 16-color value fed back through
// Profile16, or a monochrome value fed back through ProfileMono, returns
// unchanged.
func (c Color) Downgrade(profile ColorProfile) Color {
	if c.IsDefault() {
		return c
	}
	switch profile {
	case ProfileTrueColor:
		return c
	case Profile256:
		_, r, g, b := c.RGBA()
		idx := nearest256(r, g, b)
		return colorFrom256(idx)
	case Profile16:
		_, r, g, b := c.RGBA()
		idx := nearest16(r, g, b)
		return colorFrom16(idx)
	case ProfileMono:
		_, r, g, b := c.RGBA()
		if luminance(r, g, b) > 0.5 {
			return RGB(255, 255, 255)
		}
		return RGB(0, 0, 0)
	default:
		return c
	}
}

// ANSI256Index returns the nearest 256-color palette index for c.
func (c Color) ANSI256Index() uint8 {
	_, r, g, b := c.RGBA()
	return nearest256(r, g, b)
}

// ANSI16Index returns the nearest basic 16-color palette index for c.
func (c Color) ANSI16Index() uint8 {
	_, r, g, b := c.RGBA()
	return nearest16(r, g, b)
}

func luminance(r, g, b uint8) float64 {
	return 0.2126*float64(r)/255 + 0.7152*float64(g)/255 + 0.0722*float64(b)/255
}

func toLab(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// ansi256Palette and ansi16Palette are precomputed once; go-colorful gives us
// Lab-distance comparisons so the nearest match accounts for perceptual
// distance rather than naive Euclidean RGB distance.
var ansi256Palette = build256Palette()
var ansi16Palette = build16Palette()

func build16Palette() [16]colorful.Color {
	basic := [16][3]uint8{
		{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
		{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
		{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	var out [16]colorful.Color
	for i, c := range basic {
		out[i] = toLab(c[0], c[1], c[2])
	}
	return out
}

func build256Palette() [256]colorful.Color {
	var out [256]colorful.Color
	for i, c := range ansi16Palette {
		out[i] = c
	}
	steps := [6]uint8{0, 95, 135, 175, 215, 255}
	idx := 16
	for ri := 0; ri < 6; ri++ {
		for gi := 0; gi < 6; gi++ {
			for bi := 0; bi < 6; bi++ {
				out[idx] = toLab(steps[ri], steps[gi], steps[bi])
				idx++
			}
		}
	}
	for i := 0; i < 24; i++ {
		v := uint8(8 + i*10)
		out[232+i] = toLab(v, v, v)
	}
	return out
}

func nearest256(r, g, b uint8) uint8 {
	target := toLab(r, g, b)
	best, bestDist := 0, math.MaxFloat64
	for i, c := range ansi256Palette {
		d := target.DistanceLab(c)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return uint8(best)
}

func nearest16(r, g, b uint8) uint8 {
	target := toLab(r, g, b)
	best, bestDist := 0, math.MaxFloat64
	for i, c := range ansi16Palette {
		d := target.DistanceLab(c)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return uint8(best)
}

func colorFrom256(idx uint8) Color {
	c := ansi256Palette[idx]
	r, g, b := c.Clamped().RGB255()
	return RGB(r, g, b)
}

func colorFrom16(idx uint8) Color {
	c := ansi16Palette[idx]
	r, g, b := c.Clamped().RGB255()
	return RGB(r, g, b)
}
