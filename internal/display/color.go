package display

// Color is a drawable color on the tri-color panel.
//
// Only White, Black and Red exist as stored pixel states. InvBlack and
// InvRed are blit-time modifiers: passed to Bitmap they mean "draw the
// base color where the source bit is 0" (used for highlighted text). A
// Canvas never stores an inverted color.
type Color uint8

const (
	White Color = iota
	Black
	Red
	InvBlack
	InvRed
)

// base maps the inverted variants to their stored color.
func (c Color) base() Color {
	switch c {
	case InvBlack:
		return Black
	case InvRed:
		return Red
	}
	return c
}

// inverted reports whether c flips the source bit meaning during a blit.
func (c Color) inverted() bool {
	return c == InvBlack || c == InvRed
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	case Red:
		return "red"
	case InvBlack:
		return "inv-black"
	case InvRed:
		return "inv-red"
	}
	return "unknown"
}
