package rules

import (
	"fmt"
	"strings"

	chesslib "github.com/corentings/chess/v2"

	"github.com/HackenWijaya/ChessHero/pkg/chess"
)

// Standard is the rules engine for orthodox chess backed by corentings/chess.
type Standard struct{}

// NewStandard returns the standard chess rules engine
func NewStandard() Standard {
	return Standard{}
}

// NewPosition returns the initial position
func (Standard) NewPosition() Position {
	return &position{game: chesslib.NewGame()}
}

type position struct {
	game *chesslib.Game
}

func (p *position) LegalMoves(square string) (targets []Target, err error) {
	if !ValidSquare(square) {
		return nil, fmt.Errorf("%q: %w", square, ErrInvalidSquare)
	}

	defer func() {
		if r := recover(); r != nil {
			targets, err = nil, fmt.Errorf("%q: %v: %w", square, r, ErrInvalidSquare)
		}
	}()

	targets = []Target{}
	// Promotions come back once per piece; report each destination once.
	seen := make(map[string]int)
	for _, m := range p.game.ValidMoves() {
		if m.S1().String() != square {
			continue
		}

		to := m.S2().String()
		promo := m.Promo() != chesslib.NoPieceType
		if i, ok := seen[to]; ok {
			targets[i].Promotion = targets[i].Promotion || promo
			continue
		}

		seen[to] = len(targets)
		targets = append(targets, Target{To: to, Promotion: promo})
	}

	return targets, nil
}

func (p *position) Apply(from, to, promotion string) (err error) {
	if !ValidSquare(from) || !ValidSquare(to) {
		return fmt.Errorf("%s%s: %w", from, to, ErrIllegalMove)
	}

	promotion = strings.ToLower(promotion)
	switch promotion {
	case "", "q", "r", "b", "n":
	default:
		return fmt.Errorf("promotion %q: %w", promotion, ErrIllegalMove)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s%s: %v: %w", from, to, r, ErrIllegalMove)
		}
	}()

	move, ok := p.find(from, to, promotion)
	if !ok {
		return fmt.Errorf("%s%s%s: %w", from, to, promotion, ErrIllegalMove)
	}

	san := chesslib.AlgebraicNotation{}.Encode(p.game.Position(), move)
	if err := p.game.PushMove(san, nil); err != nil {
		return fmt.Errorf("%s: %v: %w", san, err, ErrIllegalMove)
	}

	return nil
}

var promotionPieces = map[string]chesslib.PieceType{
	"q": chesslib.Queen,
	"r": chesslib.Rook,
	"b": chesslib.Bishop,
	"n": chesslib.Knight,
}

// find returns the legal move from-to. A promotion without a piece
// becomes a queen; a piece given for a non-promoting move is ignored.
func (p *position) find(from, to, promotion string) (*chesslib.Move, bool) {
	for _, m := range p.game.ValidMoves() {
		if m.S1().String() != from || m.S2().String() != to {
			continue
		}
		if m.Promo() == chesslib.NoPieceType {
			return &m, true
		}

		want := promotionPieces[promotion]
		if promotion == "" {
			want = chesslib.Queen
		}
		if m.Promo() == want {
			return &m, true
		}
	}
	return nil, false
}

func (p *position) InCheck() bool {
	moves := p.game.Moves()
	if n := len(moves); n > 0 {
		return moves[n-1].HasTag(chesslib.Check)
	}
	return false
}

func (p *position) Checkmate() bool {
	return p.game.Method() == chesslib.Checkmate
}

func (p *position) Stalemate() bool {
	return p.game.Method() == chesslib.Stalemate
}

func (p *position) InsufficientMaterial() bool {
	return p.game.Method() == chesslib.InsufficientMaterial
}

func (p *position) ThreefoldRepetition() bool {
	return p.game.Method() == chesslib.FivefoldRepetition || p.eligible(chesslib.ThreefoldRepetition)
}

func (p *position) FiftyMoveDraw() bool {
	return p.game.Method() == chesslib.SeventyFiveMoveRule || p.eligible(chesslib.FiftyMoveRule)
}

func (p *position) Draw() bool {
	return p.game.Outcome() == chesslib.Draw || p.ThreefoldRepetition() || p.FiftyMoveDraw()
}

func (p *position) eligible(method chesslib.Method) bool {
	for _, m := range p.game.EligibleDraws() {
		if m == method {
			return true
		}
	}
	return false
}

func (p *position) Turn() chess.Color {
	if p.game.Position().Turn() == chesslib.Black {
		return chess.Black
	}
	return chess.White
}

func (p *position) FEN() string {
	return p.game.FEN()
}
