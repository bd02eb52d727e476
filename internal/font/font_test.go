package font

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportsSize(t *testing.T) {
	f := Default()
	assert.True(t, f.SupportsSize(16))
	assert.True(t, f.SupportsSize(32))
	assert.True(t, f.SupportsSize(64))
	assert.False(t, f.SupportsSize(8))
	assert.False(t, f.SupportsSize(0))
}

func TestGlyphBase(t *testing.T) {
	f := Default()
	data, w, h, ok := f.Glyph('A', 16)
	require.True(t, ok)
	assert.Equal(t, 8, w)
	assert.Equal(t, 16, h)
	require.Len(t, data, 16)

	var inked bool
	for _, b := range data {
		if b != 0 {
			inked = true
			break
		}
	}
	assert.True(t, inked, "a letter glyph must have ink")

	space, _, _, ok := f.Glyph(' ', 16)
	require.True(t, ok)
	for _, b := range space {
		assert.Zero(t, b)
	}
}

func TestGlyphExtra(t *testing.T) {
	_, _, _, ok := Default().Glyph('°', 16)
	assert.True(t, ok, "degree sign is needed for temperature readouts")
}

func TestGlyphUnknown(t *testing.T) {
	f := Default()
	_, _, _, ok := f.Glyph('か', 16)
	assert.False(t, ok)
	_, _, _, ok = f.Glyph('A', 24)
	assert.False(t, ok)
}

func TestGlyphScaling(t *testing.T) {
	f := Default()
	base, _, _, ok := f.Glyph('A', 16)
	require.True(t, ok)
	scaled, w, h, ok := f.Glyph('A', 32)
	require.True(t, ok)
	assert.Equal(t, 16, w)
	assert.Equal(t, 32, h)
	require.Len(t, scaled, 16*32/8)

	// Every base pixel must map to a 2x2 block at double coordinates.
	stride := w / 8
	for row := 0; row < 16; row++ {
		for bx := 0; bx < 8; bx++ {
			want := base[row]&(0x80>>bx) != 0
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					x, y := bx*2+dx, row*2+dy
					got := scaled[y*stride+x/8]&(0x80>>(x%8)) != 0
					require.Equal(t, want, got, "pixel (%d,%d)", x, y)
				}
			}
		}
	}
}

func TestGlyphScaledCacheStable(t *testing.T) {
	f := Default()
	a, _, _, ok := f.Glyph('B', 64)
	require.True(t, ok)
	b, _, _, ok := f.Glyph('B', 64)
	require.True(t, ok)
	assert.Equal(t, a, b)
}
