package chess

// Color is one of the two sides of a game. The zero value means no side.
type Color string

// Possible color variations in a chess game
const (
	NoColor Color = ""
	White   Color = "w"
	Black   Color = "b"
)

// Opp returns the opposite color for the given color.
func (c Color) Opp() Color {
	if c == White {
		return Black
	}

	return White
}

// Name returns the long form used for seat assignment ("white", "black").
func (c Color) Name() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return ""
	}
}

// Valid reports whether c is White or Black.
func (c Color) Valid() bool {
	return c == White || c == Black
}
