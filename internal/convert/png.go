// Package convert turns the packed two-plane canvas into a conventional
// image for the web preview. The panel colors map to plain sRGB: white
// background, black ink, a panel-ish red for the second plane.
package convert

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"epdweather/internal/display"
)

var (
	white = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	black = color.NRGBA{A: 0xFF}
	red   = color.NRGBA{R: 0xC0, G: 0x10, B: 0x10, A: 0xFF}
)

// CanvasImage renders the canvas into an NRGBA image, pixel for pixel.
func CanvasImage(c *display.Canvas) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.Width(), c.Height()))
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			px, err := c.GetPixel(x, y)
			if err != nil {
				continue
			}
			switch px {
			case display.Black:
				img.SetNRGBA(x, y, black)
			case display.Red:
				img.SetNRGBA(x, y, red)
			default:
				img.SetNRGBA(x, y, white)
			}
		}
	}
	return img
}

// WritePNG encodes the canvas as a PNG stream.
func WritePNG(w io.Writer, c *display.Canvas) error {
	return png.Encode(w, CanvasImage(c))
}
