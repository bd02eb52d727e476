// Package font provides the built-in fixed bitmap font used for e-paper
// text rendering. The base face is 8x16; the 32 and 64 sizes are derived
// by integer scaling of the same table, which keeps the panel legible at
// clock-digit sizes without carrying three glyph tables.
package font

import "sync"

const (
	baseWidth  = 8
	baseHeight = 16
)

// Sizes supported by the built-in face, keyed by glyph height in pixels.
var scaleForSize = map[int]int{
	16: 1,
	32: 2,
	64: 4,
}

// Fixed is the built-in glyph source. It satisfies the display package's
// GlyphSource interface. Safe for concurrent use.
type Fixed struct {
	mu    sync.Mutex
	cache map[cacheKey][]byte
}

type cacheKey struct {
	r    rune
	size int
}

var builtin = &Fixed{cache: make(map[cacheKey][]byte)}

// Default returns the built-in fixed font.
func Default() *Fixed {
	return builtin
}

func (f *Fixed) SupportsSize(size int) bool {
	_, ok := scaleForSize[size]
	return ok
}

// Glyph returns the packed MSB-first row-major bitmap for r at the given
// size. ok is false for unsupported sizes and for runes outside the
// table's coverage (printable ASCII plus a few symbols).
func (f *Fixed) Glyph(r rune, size int) (data []byte, width, height int, ok bool) {
	scale, sizeOK := scaleForSize[size]
	if !sizeOK {
		return nil, 0, 0, false
	}
	base, found := lookup(r)
	if !found {
		return nil, 0, 0, false
	}
	if scale == 1 {
		return base[:], baseWidth, baseHeight, true
	}

	key := cacheKey{r: r, size: size}
	f.mu.Lock()
	defer f.mu.Unlock()
	if cached, hit := f.cache[key]; hit {
		return cached, baseWidth * scale, baseHeight * scale, true
	}
	scaled := scaleGlyph(base, scale)
	f.cache[key] = scaled
	return scaled, baseWidth * scale, baseHeight * scale, true
}

func lookup(r rune) ([baseHeight]byte, bool) {
	if r >= 0x20 && r <= 0x7E {
		return ascii[r-0x20], true
	}
	g, ok := extra[r]
	return g, ok
}

// scaleGlyph expands an 8x16 glyph by an integer factor in both axes.
// Each source bit becomes a factor×factor block; output rows are
// factor bytes wide.
func scaleGlyph(src [baseHeight]byte, factor int) []byte {
	stride := baseWidth * factor / 8
	out := make([]byte, stride*baseHeight*factor)
	for row := 0; row < baseHeight; row++ {
		// Build one expanded row, then replicate it factor times.
		expanded := make([]byte, stride)
		for bx := 0; bx < baseWidth; bx++ {
			if src[row]&(0x80>>bx) == 0 {
				continue
			}
			for i := 0; i < factor; i++ {
				px := bx*factor + i
				expanded[px/8] |= 0x80 >> (px % 8)
			}
		}
		for dup := 0; dup < factor; dup++ {
			copy(out[(row*factor+dup)*stride:], expanded)
		}
	}
	return out
}
