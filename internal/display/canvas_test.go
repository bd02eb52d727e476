package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGlyphs serves solid 8x8 blocks for every rune except the ones
// marked missing. Good enough to test layout without a real font.
type fakeGlyphs struct {
	missing map[rune]bool
}

func (f *fakeGlyphs) Glyph(r rune, size int) ([]byte, int, int, bool) {
	if size != 8 || f.missing[r] {
		return nil, 0, 0, false
	}
	return bytes.Repeat([]byte{0xFF}, 8), 8, 8, true
}

func (f *fakeGlyphs) SupportsSize(size int) bool { return size == 8 }

func TestNewCanvasValidation(t *testing.T) {
	_, err := NewCanvas(0, 8, White, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewCanvas(3, 3, White, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument, "9 pixels cannot pack into whole bytes")

	_, err = NewCanvas(16, 8, InvBlack, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument, "inverted colors are blit modifiers, not border colors")

	c, err := NewCanvas(16, 8, White, nil)
	require.NoError(t, err)
	assert.Equal(t, 16, c.Width())
	assert.Equal(t, 8, c.Height())
	assert.Equal(t, White, c.BorderColor())
}

func TestNewCanvasBorderPrefill(t *testing.T) {
	c, err := NewCanvas(16, 8, Red, nil)
	require.NoError(t, err)

	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			px, err := c.GetPixel(x, y)
			require.NoError(t, err)
			require.Equal(t, Red, px)
		}
	}
	black, red := c.Planes()
	assert.Equal(t, bytes.Repeat([]byte{0x00}, 16), black)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 16), red)

	c.Clear(White)
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			px, err := c.GetPixel(x, y)
			require.NoError(t, err)
			require.Equal(t, White, px)
		}
	}
}

func TestSetPixelRoundTrip(t *testing.T) {
	c, err := NewCanvas(16, 8, White, nil)
	require.NoError(t, err)

	for _, color := range []Color{Black, Red, White} {
		require.NoError(t, c.SetPixel(5, 3, color))
		got, err := c.GetPixel(5, 3)
		require.NoError(t, err)
		assert.Equal(t, color, got)
	}

	// Inverted colors degrade to their base color for single pixels.
	require.NoError(t, c.SetPixel(5, 3, InvRed))
	got, err := c.GetPixel(5, 3)
	require.NoError(t, err)
	assert.Equal(t, Red, got)
}

func TestSetPixelReplacesPlaneBit(t *testing.T) {
	c, err := NewCanvas(16, 8, White, nil)
	require.NoError(t, err)

	require.NoError(t, c.SetPixel(0, 0, Black))
	require.NoError(t, c.SetPixel(0, 0, Red))

	black, red := c.Planes()
	for i := range black {
		assert.Zero(t, black[i]&red[i], "byte %d has a pixel inked in both planes", i)
	}
	got, err := c.GetPixel(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Red, got)
}

func TestPixelOutOfBounds(t *testing.T) {
	c, err := NewCanvas(16, 8, White, nil)
	require.NoError(t, err)

	for _, pt := range [][2]int{{-1, 0}, {0, -1}, {16, 0}, {0, 8}} {
		assert.ErrorIs(t, c.SetPixel(pt[0], pt[1], Black), ErrOutOfBounds)
		_, err := c.GetPixel(pt[0], pt[1])
		assert.ErrorIs(t, err, ErrOutOfBounds)
	}
}

func TestClear(t *testing.T) {
	c, err := NewCanvas(16, 8, White, nil)
	require.NoError(t, err)
	require.NoError(t, c.SetPixel(2, 2, Red))

	c.Clear(Black)
	black, red := c.Planes()
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 16), black)
	assert.Equal(t, bytes.Repeat([]byte{0x00}, 16), red)

	c.Clear(Red)
	black, red = c.Planes()
	assert.Equal(t, bytes.Repeat([]byte{0x00}, 16), black)
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 16), red)

	c.Clear(White)
	black, red = c.Planes()
	assert.Equal(t, bytes.Repeat([]byte{0x00}, 16), black)
	assert.Equal(t, bytes.Repeat([]byte{0x00}, 16), red)
}

func TestBitmapOverlay(t *testing.T) {
	c, err := NewCanvas(16, 8, White, nil)
	require.NoError(t, err)
	require.NoError(t, c.SetPixel(0, 0, Red))

	// 8x2 all-ones blit at (8, 0) inks exactly that region black.
	require.NoError(t, c.Bitmap(8, 0, 8, 2, []byte{0xFF, 0xFF}, Black))

	got, err := c.GetPixel(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Red, got, "blit must not disturb pixels outside its region")

	for y := 0; y < 2; y++ {
		for x := 8; x < 16; x++ {
			px, err := c.GetPixel(x, y)
			require.NoError(t, err)
			require.Equal(t, Black, px)
		}
	}
	px, err := c.GetPixel(8, 2)
	require.NoError(t, err)
	assert.Equal(t, White, px)
}

func TestBitmapZeroBitsLeaveBackground(t *testing.T) {
	c, err := NewCanvas(16, 8, White, nil)
	require.NoError(t, err)
	require.NoError(t, c.SetPixel(1, 0, Black))

	// Source bit 0 is background for plain colors: nothing is drawn,
	// nothing is erased.
	require.NoError(t, c.Bitmap(0, 0, 8, 1, []byte{0x00}, Red))
	got, err := c.GetPixel(1, 0)
	require.NoError(t, err)
	assert.Equal(t, Black, got)
}

func TestBitmapInverted(t *testing.T) {
	// An all-zero source with InvRed must behave exactly like a red
	// rectangle of the same size.
	blit, err := NewCanvas(16, 8, White, nil)
	require.NoError(t, err)
	require.NoError(t, blit.Bitmap(0, 2, 8, 2, []byte{0x00, 0x00}, InvRed))

	rect, err := NewCanvas(16, 8, White, nil)
	require.NoError(t, err)
	require.NoError(t, rect.Rectangle(0, 2, 8, 2, Red))

	blitBlack, blitRed := blit.Planes()
	rectBlack, rectRed := rect.Planes()
	assert.Equal(t, rectBlack, blitBlack)
	assert.Equal(t, rectRed, blitRed)
}

func TestBitmapValidation(t *testing.T) {
	c, err := NewCanvas(16, 8, White, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Bitmap(0, 0, 4, 2, []byte{0xFF}, Black), ErrInvalidArgument,
		"width must be a multiple of 8")
	assert.ErrorIs(t, c.Bitmap(0, 0, 8, 2, []byte{0xFF}, Black), ErrInvalidArgument,
		"payload length must match dimensions")
	assert.ErrorIs(t, c.Bitmap(12, 0, 8, 1, []byte{0xFF}, Black), ErrInvalidArgument,
		"bitmap must fit inside the canvas")
}

func TestRectangleWhiteErases(t *testing.T) {
	c, err := NewCanvas(16, 8, Black, nil)
	require.NoError(t, err)

	require.NoError(t, c.Rectangle(4, 2, 8, 4, White))
	px, err := c.GetPixel(5, 3)
	require.NoError(t, err)
	assert.Equal(t, White, px)
	px, err = c.GetPixel(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Black, px)
}

func TestTextWraps(t *testing.T) {
	c, err := NewCanvas(64, 24, White, &fakeGlyphs{})
	require.NoError(t, err)

	// Ten 8px glyphs on a 64px canvas: eight fit, the ninth wraps.
	endX, err := c.Text(0, 0, 8, "ABCDEFGHIJ", Black)
	require.NoError(t, err)
	assert.Equal(t, 16, endX)

	px, err := c.GetPixel(0, 8)
	require.NoError(t, err)
	assert.Equal(t, Black, px, "wrapped glyphs land on the next line")
}

func TestTextNewline(t *testing.T) {
	c, err := NewCanvas(64, 24, White, &fakeGlyphs{})
	require.NoError(t, err)

	endX, err := c.Text(8, 0, 8, "A\nB", Red)
	require.NoError(t, err)
	assert.Equal(t, 16, endX, "newline resets the cursor to the starting X")

	px, err := c.GetPixel(8, 8)
	require.NoError(t, err)
	assert.Equal(t, Red, px)
	px, err = c.GetPixel(0, 8)
	require.NoError(t, err)
	assert.Equal(t, White, px, "indented text keeps its left margin after newline")
}

func TestTextChainedFragments(t *testing.T) {
	c, err := NewCanvas(64, 24, White, &fakeGlyphs{})
	require.NoError(t, err)

	x, err := c.Text(0, 0, 8, "AB", Black)
	require.NoError(t, err)
	x, err = c.Text(x, 0, 8, "C", Red)
	require.NoError(t, err)
	assert.Equal(t, 24, x)

	px, err := c.GetPixel(16, 0)
	require.NoError(t, err)
	assert.Equal(t, Red, px)
}

func TestTextMissingGlyphPolicies(t *testing.T) {
	glyphs := &fakeGlyphs{missing: map[rune]bool{'?': true}}

	c, err := NewCanvas(64, 24, White, glyphs)
	require.NoError(t, err)

	// Default policy: the unknown rune is skipped without advancing.
	endX, err := c.Text(0, 0, 8, "A?B", Black)
	require.NoError(t, err)
	assert.Equal(t, 16, endX)

	c.SetMissingGlyphPolicy(FailOnMissingGlyph)
	_, err = c.Text(0, 8, 8, "A?B", Black)
	require.ErrorIs(t, err, ErrGlyphNotFound)

	px, err := c.GetPixel(0, 8)
	require.NoError(t, err)
	assert.Equal(t, Black, px, "glyphs before the failure stay drawn")
}

func TestTextUnsupportedSize(t *testing.T) {
	c, err := NewCanvas(64, 24, White, &fakeGlyphs{})
	require.NoError(t, err)
	_, err = c.Text(0, 0, 12, "A", Black)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	bare, err := NewCanvas(64, 24, White, nil)
	require.NoError(t, err)
	_, err = bare.Text(0, 0, 8, "A", Black)
	assert.ErrorIs(t, err, ErrInvalidArgument, "canvas without a glyph source cannot lay out text")
}
