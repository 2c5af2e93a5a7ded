package frankentui

import (
	"errors"
	"sync"
	"unicode/utf8"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"golang.org/x/text/width"
)

// ErrInvalidCluster is returned by Intern when the given bytes are not
// valid UTF-8.
var ErrInvalidCluster = errors.New("frankentui: invalid grapheme cluster")

// ErrPoolExhausted is returned by Intern when the pool's 24-bit slot space
// is saturated. Callers should fall back to a replacement character and
// surface a warning out-of-band rather than treat this as fatal.
var ErrPoolExhausted = errors.New("frankentui: grapheme pool exhausted")

const maxPoolSlots = 1 << 24

// graphemeEntry is one interned cluster: its canonical bytes and computed
// display width.
type graphemeEntry struct {
	bytes []byte
	width uint8
}

// Pool is a process-scoped, append-only interning table mapping grapheme
// cluster bytes to small numeric ids, shared immutably among buffers
// (spec.md 3/4.1). Slot 0 is reserved so index-0/width-0 can serve as
// Cell's continuation-marker sentinel without colliding with a real
// intern() result.
type Pool struct {
	mu      sync.RWMutex
	byBytes map[string]uint32
	slots   []graphemeEntry
}

// NewPool creates an empty grapheme pool with slot 0 reserved.
func NewPool() *Pool {
	return &Pool{
		byBytes: make(map[string]uint32),
		slots:   []graphemeEntry{{}}, // slot 0 reserved
	}
}

// Intern maps a grapheme cluster to a Cell-content-compatible id: a single
// scalar that fits in 21 bits with display width 1 is returned as a scalar
// id with no storage; anything else (a single wide scalar, or multi-scalar
// ZWJ/emoji/combining-mark clusters) is interned into a pool slot so its
// width is kept, allocating one on first sight.
func (p *Pool) Intern(cluster []byte) (content uint32, err error) {
	if !utf8.Valid(cluster) {
		return 0, ErrInvalidCluster
	}

	if r, size := utf8.DecodeRune(cluster); size == len(cluster) && r != utf8.RuneError {
		w := runeDisplayWidth(r)
		if uint32(r) <= scalarMask && w == 1 {
			return uint32(r), nil
		}
		return p.internCluster(cluster, w)
	}

	return p.internCluster(cluster, clampWidth(uniseg.StringWidth(string(cluster))))
}

// runeDisplayWidth is the single-rune fast path: mattn/go-runewidth handles
// the common case cheaply, with golang.org/x/text/width's East-Asian-Width
// classification overriding it for the Wide/Fullwidth categories runewidth's
// table sometimes under-counts as ambiguous.
func runeDisplayWidth(r rune) uint8 {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return clampWidth(runewidth.RuneWidth(r))
}

func (p *Pool) internCluster(cluster []byte, w uint8) (uint32, error) {
	key := string(cluster)

	p.mu.RLock()
	if id, ok := p.byBytes[key]; ok {
		p.mu.RUnlock()
		return p.pack(id, w), nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.byBytes[key]; ok {
		return p.pack(id, w), nil
	}
	if len(p.slots) >= maxPoolSlots {
		return 0, ErrPoolExhausted
	}
	id := uint32(len(p.slots))
	buf := make([]byte, len(cluster))
	copy(buf, cluster)
	p.slots = append(p.slots, graphemeEntry{bytes: buf, width: w})
	p.byBytes[key] = id
	return p.pack(id, w), nil
}

func (p *Pool) pack(id uint32, w uint8) uint32 {
	return contentTagBit | (id & contentIndexMask) | (uint32(w) << contentWidthShift)
}

// Resolve returns the canonical bytes and display width for a content word
// previously returned by Intern (or a literal scalar content word built by
// NewCell). Total for any id Intern has returned, including scalar ids.
func (p *Pool) Resolve(content uint32) (bytes []byte, w uint8) {
	if content&contentTagBit == 0 {
		r := rune(content & scalarMask)
		return []byte(string(r)), runeDisplayWidth(r)
	}
	id := content & contentIndexMask
	p.mu.RLock()
	defer p.mu.RUnlock()
	if int(id) >= len(p.slots) {
		return nil, 0
	}
	e := p.slots[id]
	return e.bytes, e.width
}

func clampWidth(w int) uint8 {
	if w <= 0 {
		return 1
	}
	if w >= 2 {
		return 2
	}
	return uint8(w)
}
