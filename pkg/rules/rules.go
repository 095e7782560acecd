// Package rules is the boundary to the chess rules engine. Rooms never look
// inside a position; they ask it questions through this interface.
package rules

import (
	"errors"

	"github.com/HackenWijaya/ChessHero/pkg/chess"
)

var (
	ErrInvalidSquare = errors.New("invalid square")
	ErrIllegalMove   = errors.New("illegal move")
)

// Target is one legal destination from a square
type Target struct {
	To        string
	Promotion bool
}

// Position is a game position owned by exactly one room.
type Position interface {
	// LegalMoves lists the legal destinations for the piece on square.
	LegalMoves(square string) ([]Target, error)

	// Apply plays from-to (with an optional promotion piece "q", "r", "b"
	// or "n") and mutates the position. A rejected move leaves it untouched.
	Apply(from, to, promotion string) error

	InCheck() bool
	Checkmate() bool
	Stalemate() bool
	InsufficientMaterial() bool
	ThreefoldRepetition() bool
	FiftyMoveDraw() bool
	Draw() bool

	Turn() chess.Color
	FEN() string
}

// Engine creates starting positions
type Engine interface {
	NewPosition() Position
}

// ValidSquare reports whether s names a board square in algebraic form ("e4").
func ValidSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}
