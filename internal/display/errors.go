package display

import "errors"

var (
	// ErrOutOfBounds is returned when a pixel coordinate lies outside
	// the canvas.
	ErrOutOfBounds = errors.New("display: coordinates out of bounds")

	// ErrInvalidArgument is returned for malformed geometry, mismatched
	// bitmap buffer lengths or unsupported font sizes. It always
	// indicates a caller bug.
	ErrInvalidArgument = errors.New("display: invalid argument")

	// ErrGlyphNotFound is returned by Text under the FailOnMissingGlyph
	// policy when a character has no glyph at the requested size.
	ErrGlyphNotFound = errors.New("display: glyph not found")
)
