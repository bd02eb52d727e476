package convert

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epdweather/internal/display"
)

func TestCanvasImageColors(t *testing.T) {
	c, err := display.NewCanvas(16, 8, display.White, nil)
	require.NoError(t, err)
	require.NoError(t, c.SetPixel(0, 0, display.Black))
	require.NoError(t, c.SetPixel(1, 0, display.Red))

	img := CanvasImage(c)
	assert.Equal(t, black, img.NRGBAAt(0, 0))
	assert.Equal(t, red, img.NRGBAAt(1, 0))
	assert.Equal(t, white, img.NRGBAAt(2, 0))
}

func TestWritePNGRoundTrip(t *testing.T) {
	c, err := display.NewCanvas(16, 8, display.White, nil)
	require.NoError(t, err)
	require.NoError(t, c.Rectangle(0, 0, 8, 8, display.Red))

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, c))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
	assert.Equal(t, 8, decoded.Bounds().Dy())
}
