package rules

import (
	"errors"
	"strings"
	"testing"

	chesslib "github.com/corentings/chess/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackenWijaya/ChessHero/pkg/chess"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func play(t *testing.T, pos Position, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		require.NoError(t, pos.Apply(mv[:2], mv[2:4], mv[4:]), "move %s", mv)
	}
}

func fromFEN(t *testing.T, fen string) *position {
	t.Helper()
	opt, err := chesslib.FEN(fen)
	require.NoError(t, err)
	return &position{game: chesslib.NewGame(opt)}
}

func TestStandard_InitialPosition(t *testing.T) {
	pos := NewStandard().NewPosition()

	assert.Equal(t, startFEN, pos.FEN())
	assert.Equal(t, chess.White, pos.Turn())
	assert.False(t, pos.InCheck())
	assert.False(t, pos.Checkmate())
	assert.False(t, pos.Draw())
}

func TestStandard_LegalMoves(t *testing.T) {
	pos := NewStandard().NewPosition()

	targets, err := pos.LegalMoves("e2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Target{{To: "e3"}, {To: "e4"}}, targets)

	targets, err = pos.LegalMoves("e4")
	require.NoError(t, err)
	assert.Empty(t, targets)
	assert.NotNil(t, targets)
}

func TestStandard_LegalMovesRejectsBadSquare(t *testing.T) {
	pos := NewStandard().NewPosition()

	for _, sq := range []string{"", "z9", "e", "e22", "E2"} {
		_, err := pos.LegalMoves(sq)
		assert.True(t, errors.Is(err, ErrInvalidSquare), "square %q", sq)
	}
}

func TestStandard_ApplyAdvancesTurn(t *testing.T) {
	pos := NewStandard().NewPosition()

	require.NoError(t, pos.Apply("e2", "e4", ""))

	assert.Equal(t, chess.Black, pos.Turn())
	assert.Contains(t, pos.FEN(), "4P3")
}

func TestStandard_ApplyRejectsIllegalMove(t *testing.T) {
	pos := NewStandard().NewPosition()
	before := pos.FEN()

	cases := []struct{ from, to, promo string }{
		{"e2", "e5", ""},
		{"e7", "e5", ""}, // black piece on white's turn
		{"x1", "e4", ""},
		{"e2", "e4", "k"},
	}
	for _, tc := range cases {
		err := pos.Apply(tc.from, tc.to, tc.promo)
		assert.True(t, errors.Is(err, ErrIllegalMove), "%s%s%s", tc.from, tc.to, tc.promo)
	}

	assert.Equal(t, before, pos.FEN())
	assert.Equal(t, chess.White, pos.Turn())
}

func TestStandard_FoolsMateIsCheckmate(t *testing.T) {
	pos := NewStandard().NewPosition()

	play(t, pos, "f2f3", "e7e5", "g2g4", "d8h4")

	assert.True(t, pos.InCheck())
	assert.True(t, pos.Checkmate())
	assert.False(t, pos.Stalemate())
}

func TestStandard_CheckIsReported(t *testing.T) {
	pos := NewStandard().NewPosition()

	play(t, pos, "e2e4", "f7f6", "d1h5")

	assert.True(t, pos.InCheck())
	assert.False(t, pos.Checkmate())
}

func TestStandard_ThreefoldRepetition(t *testing.T) {
	pos := NewStandard().NewPosition()

	play(t, pos,
		"g1f3", "g8f6", "f3g1", "f6g8",
		"g1f3", "g8f6", "f3g1", "f6g8",
	)

	assert.True(t, pos.ThreefoldRepetition())
	assert.True(t, pos.Draw())
}

func TestStandard_PromotionDefaultsToQueen(t *testing.T) {
	pos := NewStandard().NewPosition()

	play(t, pos,
		"h2h4", "g7g5", "h4g5", "h7h6", "g5h6", "b8c6", "h6h7", "c6b8",
	)

	targets, err := pos.LegalMoves("h7")
	require.NoError(t, err)
	assert.Contains(t, targets, Target{To: "g8", Promotion: true})

	require.NoError(t, pos.Apply("h7", "g8", ""))
	assert.True(t, strings.HasPrefix(pos.FEN(), "rnbqkbQr/"), pos.FEN())
}

func TestStandard_Underpromotion(t *testing.T) {
	pos := NewStandard().NewPosition()

	play(t, pos,
		"h2h4", "g7g5", "h4g5", "h7h6", "g5h6", "b8c6", "h6h7", "c6b8",
		"h7g8n",
	)

	assert.True(t, strings.HasPrefix(pos.FEN(), "rnbqkbNr/"), pos.FEN())
	assert.Equal(t, chess.Black, pos.Turn())
}

func TestStandard_PromotionPieceIgnoredOnOrdinaryMove(t *testing.T) {
	pos := NewStandard().NewPosition()

	require.NoError(t, pos.Apply("e2", "e4", "q"))
	assert.Equal(t, chess.Black, pos.Turn())
}

func TestStandard_MovesAreRecordedInOrder(t *testing.T) {
	pos := NewStandard().NewPosition()

	play(t, pos, "e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6", "b5c6", "d7c6", "e1g1")

	assert.Equal(t, "r1bqkbnr/1pp2ppp/p1p5/4p3/4P3/5N2/PPPP1PPP/RNBQ1RK1 b kq - 1 5", pos.FEN())
}

func TestStandard_InsufficientMaterial(t *testing.T) {
	pos := fromFEN(t, "8/8/8/4k3/8/8/3qK3/8 w - - 0 1")
	require.False(t, pos.InsufficientMaterial())

	require.NoError(t, pos.Apply("e2", "d2", ""))

	assert.True(t, pos.InsufficientMaterial())
	assert.True(t, pos.Draw())
	assert.False(t, pos.Checkmate())
	assert.False(t, pos.Stalemate())
}

func TestStandard_FiftyMoveDraw(t *testing.T) {
	pos := fromFEN(t, "4k3/8/8/8/8/8/4P3/R3K3 w - - 99 80")
	require.False(t, pos.FiftyMoveDraw())

	require.NoError(t, pos.Apply("a1", "a2", ""))

	assert.True(t, pos.FiftyMoveDraw())
	assert.True(t, pos.Draw())
	assert.False(t, pos.InsufficientMaterial())
}

func TestStandard_FiftyMoveCounterResetsOnPawnMove(t *testing.T) {
	pos := fromFEN(t, "4k3/8/8/8/8/8/4P3/R3K3 w - - 99 80")

	require.NoError(t, pos.Apply("e2", "e4", ""))

	assert.False(t, pos.FiftyMoveDraw())
}
