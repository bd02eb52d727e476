// Package display implements the two-plane 1bpp framebuffer for a
// black/white/red e-paper panel, along with the drawing primitives the
// rest of the application composes screens with.
//
// A Canvas owns two parallel bit-planes (black ink, red ink) over a
// W×H pixel grid. White is encoded as "no bit set in either plane"; at
// most one plane bit is ever set for a given pixel. The planes are packed
// MSB-first with linear index pos = x + y*width.
package display

import (
	"fmt"
)

// GlyphSource resolves a character to a packed monochrome bitmap.
//
// Glyph bitmaps are row-major, MSB-first, with width a multiple of 8, so
// that len(data) == width*height/8. Returning ok=false means the source
// has no glyph for this rune at this size.
type GlyphSource interface {
	Glyph(r rune, size int) (data []byte, width, height int, ok bool)
	SupportsSize(size int) bool
}

// MissingGlyphPolicy controls how Canvas.Text reacts to characters the
// glyph source cannot resolve.
type MissingGlyphPolicy int

const (
	// SkipMissingGlyphs silently drops unknown characters and keeps
	// laying out the rest of the string. This is the default.
	SkipMissingGlyphs MissingGlyphPolicy = iota
	// FailOnMissingGlyph aborts Text with ErrGlyphNotFound. Pixels
	// drawn before the failing character remain on the canvas.
	FailOnMissingGlyph
)

// Canvas is the in-memory frame for one redraw cycle. It is not safe for
// concurrent use; the caller sequences compositing and panel draws.
type Canvas struct {
	width  int
	height int
	black  []byte
	red    []byte
	border Color

	glyphs GlyphSource
	policy MissingGlyphPolicy
}

// NewCanvas allocates a canvas of the given dimensions.
//
// width*height must be a multiple of 8 (the packing scheme has no
// partial bytes) and border must be White, Black or Red. A Black or Red
// border pre-fills the matching plane, so every pixel reads as the
// border color until the first Clear.
func NewCanvas(width, height int, border Color, glyphs GlyphSource) (*Canvas, error) {
	if width <= 0 || height <= 0 || width*height%8 != 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidArgument, width, height)
	}
	if border != White && border != Black && border != Red {
		return nil, fmt.Errorf("%w: border color %s", ErrInvalidArgument, border)
	}
	c := &Canvas{
		width:  width,
		height: height,
		black:  make([]byte, width*height/8),
		red:    make([]byte, width*height/8),
		border: border,
		glyphs: glyphs,
	}
	switch border {
	case Black:
		fill(c.black, 0xFF)
	case Red:
		fill(c.red, 0xFF)
	}
	return c, nil
}

func (c *Canvas) Width() int         { return c.width }
func (c *Canvas) Height() int        { return c.height }
func (c *Canvas) BorderColor() Color { return c.border }

// SetMissingGlyphPolicy selects how Text handles unknown characters.
func (c *Canvas) SetMissingGlyphPolicy(p MissingGlyphPolicy) {
	c.policy = p
}

// Planes returns copies of the black and red bit-planes.
func (c *Canvas) Planes() (black, red []byte) {
	black = make([]byte, len(c.black))
	red = make([]byte, len(c.red))
	copy(black, c.black)
	copy(red, c.red)
	return black, red
}

// Clear resets every pixel to the given color. White zeroes both planes;
// Black or Red additionally fills the matching plane.
func (c *Canvas) Clear(color Color) {
	fill(c.black, 0)
	fill(c.red, 0)
	switch color.base() {
	case Black:
		fill(c.black, 0xFF)
	case Red:
		fill(c.red, 0xFF)
	}
}

// SetPixel writes one pixel. Both plane bits are cleared before the
// target bit is set, so a pixel can never carry black and red at once.
// InvBlack and InvRed are accepted for API uniformity with Bitmap and
// behave as their base colors here.
func (c *Canvas) SetPixel(x, y int, color Color) error {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return fmt.Errorf("%w: (%d,%d) on %dx%d canvas", ErrOutOfBounds, x, y, c.width, c.height)
	}
	pos := x + y*c.width
	mask := byte(0x80) >> (pos % 8)
	c.black[pos/8] &^= mask
	c.red[pos/8] &^= mask
	switch color.base() {
	case Black:
		c.black[pos/8] |= mask
	case Red:
		c.red[pos/8] |= mask
	}
	return nil
}

// GetPixel reads one pixel back. Black wins if both plane bits were
// somehow set, which SetPixel itself never produces.
func (c *Canvas) GetPixel(x, y int) (Color, error) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return White, fmt.Errorf("%w: (%d,%d) on %dx%d canvas", ErrOutOfBounds, x, y, c.width, c.height)
	}
	pos := x + y*c.width
	mask := byte(0x80) >> (pos % 8)
	if c.black[pos/8]&mask != 0 {
		return Black, nil
	}
	if c.red[pos/8]&mask != 0 {
		return Red, nil
	}
	return White, nil
}

// Bitmap blits a packed 1bpp source bitmap onto the canvas.
//
// data is row-major, MSB-first, with row stride w/8 bytes; w must be a
// multiple of 8 and len(data) must equal w*h/8. For plain colors a
// source bit of 1 is foreground; for InvBlack/InvRed a source bit of 0
// is foreground. Only foreground pixels are written — the blit overlays
// rather than overwrites, so callers wanting exact replacement must
// clear the region first.
func (c *Canvas) Bitmap(x, y, w, h int, data []byte, color Color) error {
	if w <= 0 || h <= 0 || w%8 != 0 || len(data) != w*h/8 {
		return fmt.Errorf("%w: %dx%d bitmap with %d bytes", ErrInvalidArgument, w, h, len(data))
	}
	if x < 0 || y < 0 || x+w > c.width || y+h > c.height {
		return fmt.Errorf("%w: %dx%d bitmap at (%d,%d) on %dx%d canvas",
			ErrInvalidArgument, w, h, x, y, c.width, c.height)
	}
	stride := w / 8
	for by := 0; by < h; by++ {
		for bx := 0; bx < w; bx++ {
			bit := data[by*stride+bx/8] & (byte(0x80) >> (bx % 8))
			foreground := bit != 0
			if color.inverted() {
				foreground = bit == 0
			}
			if !foreground {
				continue
			}
			if err := c.SetPixel(x+bx, y+by, color.base()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Rectangle fills every pixel of the rectangle with color. White clears
// the region, Black/Red ink it.
func (c *Canvas) Rectangle(x, y, w, h int, color Color) error {
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > c.width || y+h > c.height {
		return fmt.Errorf("%w: %dx%d rectangle at (%d,%d) on %dx%d canvas",
			ErrInvalidArgument, w, h, x, y, c.width, c.height)
	}
	for ry := y; ry < y+h; ry++ {
		for rx := x; rx < x+w; rx++ {
			if err := c.SetPixel(rx, ry, color); err != nil {
				return err
			}
		}
	}
	return nil
}

// Text lays out a string starting at (x, y) using the canvas glyph
// source at the given font size.
//
// Behavior:
//   - '\n' resets the cursor to x and advances it down by size pixels.
//   - A glyph that would cross the right edge wraps to the next line
//     before drawing.
//   - Each glyph is blitted with Bitmap, so text overlays whatever is
//     already on the canvas.
//   - Unknown characters follow the configured MissingGlyphPolicy.
//
// The returned value is the final horizontal cursor position, which lets
// callers chain fragments of different sizes or colors on one line.
func (c *Canvas) Text(x, y, size int, s string, color Color) (int, error) {
	if c.glyphs == nil || !c.glyphs.SupportsSize(size) {
		return x, fmt.Errorf("%w: unsupported font size %d", ErrInvalidArgument, size)
	}
	cursorX, cursorY := x, y
	for _, r := range s {
		if r == '\n' {
			cursorX = x
			cursorY += size
			continue
		}
		data, w, h, ok := c.glyphs.Glyph(r, size)
		if !ok {
			if c.policy == FailOnMissingGlyph {
				return cursorX, fmt.Errorf("%w: %q at size %d", ErrGlyphNotFound, r, size)
			}
			continue
		}
		if cursorX+w > c.width {
			cursorX = x
			cursorY += size
		}
		if err := c.Bitmap(cursorX, cursorY, w, h, data, color); err != nil {
			return cursorX, err
		}
		cursorX += w
	}
	return cursorX, nil
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
