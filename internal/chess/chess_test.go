package chess

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sq(t *testing.T, s string) Position {
	t.Helper()
	p, ok := ParseSquare(s)
	require.True(t, ok, "bad square %q", s)
	return p
}

func place(t *testing.T, pieces map[string]Piece) Board {
	t.Helper()
	var b Board
	for s, p := range pieces {
		pos := sq(t, s)
		b[pos.Row][pos.Col] = p
	}
	return b
}

var (
	wK = Piece{Type: King, Color: White}
	bK = Piece{Type: King, Color: Black}
	bQ = Piece{Type: Queen, Color: Black}
	wR = Piece{Type: Rook, Color: White}
	wP = Piece{Type: Pawn, Color: White}
	bP = Piece{Type: Pawn, Color: Black}
)

func TestInitialPosition(t *testing.T) {
	b := NewBoard()
	assert.Equal(t, Piece{Type: King, Color: White}, b.At(sq(t, "e1")))
	assert.Equal(t, Piece{Type: Queen, Color: Black}, b.At(sq(t, "d8")))
	assert.Equal(t, Pawn, b.At(sq(t, "a7")).Type)
	assert.True(t, b.At(sq(t, "e4")).Empty())

	assert.Len(t, AllLegalMoves(b, White), 20)
	assert.Len(t, AllLegalMoves(b, Black), 20)
	assert.Equal(t, Ongoing, GameStatus(b, White))
	assert.False(t, IsInCheck(b, White))
}

func TestPawnMoves(t *testing.T) {
	b := NewBoard()
	moves := PseudoLegalMoves(b, sq(t, "e2"))
	assert.ElementsMatch(t, []Position{sq(t, "e3"), sq(t, "e4")}, moves)

	// blocked push, diagonal capture only
	b = place(t, map[string]Piece{"e1": wK, "e8": bK, "d4": wP, "d5": bP, "e5": bP})
	moves = PseudoLegalMoves(b, sq(t, "d4"))
	assert.Equal(t, []Position{sq(t, "e5")}, moves)

	// a moved pawn has no double push
	b = place(t, map[string]Piece{"e1": wK, "e8": bK, "c3": wP})
	assert.Equal(t, []Position{sq(t, "c4")}, PseudoLegalMoves(b, sq(t, "c3")))
}

func TestSlidersStopAtBlockers(t *testing.T) {
	b := place(t, map[string]Piece{"a1": wK, "h8": bK, "d4": wR, "d7": bP, "f4": wP})
	moves := PseudoLegalMoves(b, sq(t, "d4"))
	assert.Contains(t, moves, sq(t, "d7"))
	assert.NotContains(t, moves, sq(t, "d8"))
	assert.Contains(t, moves, sq(t, "e4"))
	assert.NotContains(t, moves, sq(t, "f4"))
	assert.Contains(t, moves, sq(t, "d1"))
	assert.Contains(t, moves, sq(t, "a4"))
}

func TestKnightAndKing(t *testing.T) {
	b := place(t, map[string]Piece{"a1": wK, "h8": bK, "b1": {Type: Knight, Color: White}})
	assert.ElementsMatch(t,
		[]Position{sq(t, "a3"), sq(t, "c3"), sq(t, "d2")},
		PseudoLegalMoves(b, sq(t, "b1")))
	assert.ElementsMatch(t,
		[]Position{sq(t, "a2"), sq(t, "b2")},
		PseudoLegalMoves(b, sq(t, "a1")))
}

func TestPinnedPieceCannotExposeKing(t *testing.T) {
	b := place(t, map[string]Piece{
		"e1": wK, "e2": wR, "e8": {Type: Rook, Color: Black}, "a8": bK,
	})
	moves := LegalMoves(b, sq(t, "e2"))
	for _, m := range moves {
		assert.Equal(t, 4, m.Col, "pinned rook must stay on the e-file, got %s", m)
	}
	assert.Contains(t, moves, sq(t, "e8"))
}

func TestCheckmateWithSupportedQueen(t *testing.T) {
	b := place(t, map[string]Piece{"a1": wK, "a2": bQ, "b3": bK})
	assert.True(t, IsInCheck(b, White))
	assert.Empty(t, AllLegalMoves(b, White))
	assert.Equal(t, Checkmate, GameStatus(b, White))

	// without the queen white is free to move
	b[6][0] = Piece{}
	assert.Equal(t, Ongoing, GameStatus(b, White))
}

func TestUnsupportedQueenCanBeCaptured(t *testing.T) {
	b := place(t, map[string]Piece{"a1": wK, "a2": bQ, "h8": bK})
	assert.True(t, IsInCheck(b, White))
	assert.Equal(t, []Move{{From: sq(t, "a1"), To: sq(t, "a2")}}, AllLegalMoves(b, White))
	assert.Equal(t, Ongoing, GameStatus(b, White))

	b[6][0] = Piece{}
	assert.Equal(t, Ongoing, GameStatus(b, White))
}

func TestStalemate(t *testing.T) {
	b := place(t, map[string]Piece{"a1": wK, "b3": bQ, "h8": bK})
	assert.False(t, IsInCheck(b, White))
	assert.Equal(t, Stalemate, GameStatus(b, White))
}

func TestKingIsNeverCaptured(t *testing.T) {
	// black to move may not "capture" the white king even though it is attacked
	b := place(t, map[string]Piece{"e1": wK, "e8": bK, "e5": {Type: Rook, Color: Black}})
	for _, m := range LegalMoves(b, sq(t, "e5")) {
		assert.NotEqual(t, sq(t, "e1"), m)
	}
	assert.Contains(t, PseudoLegalMoves(b, sq(t, "e5")), sq(t, "e1"))
}

func TestApplyMoveCapturesAndPromotes(t *testing.T) {
	b := place(t, map[string]Piece{"a1": wK, "h1": bK, "b7": wP, "c8": {Type: Knight, Color: Black}})
	next, captured := ApplyMove(b, sq(t, "b7"), sq(t, "c8"))
	assert.Equal(t, Knight, captured.Type)
	assert.Equal(t, Piece{Type: Queen, Color: White, HasMoved: true}, next.At(sq(t, "c8")))
	assert.True(t, next.At(sq(t, "b7")).Empty())

	// the input board is untouched
	assert.Equal(t, Pawn, b.At(sq(t, "b7")).Type)

	same, none := ApplyMove(b, Position{Row: -1, Col: 3}, sq(t, "c8"))
	assert.Equal(t, b, same)
	assert.True(t, none.Empty())
}

func TestLegalMovesNeverLeaveKingInCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for game := 0; game < 20; game++ {
		b := NewBoard()
		turn := White
		for ply := 0; ply < 60; ply++ {
			moves := AllLegalMoves(b, turn)
			if len(moves) == 0 {
				break
			}
			for _, m := range moves {
				next, captured := ApplyMove(b, m.From, m.To)
				require.False(t, IsInCheck(next, turn), "move %s leaves %s in check\n%s", m.UCI(), turn, b)
				require.NotEqual(t, King, captured.Type)
			}
			m := moves[rng.Intn(len(moves))]
			b, _ = ApplyMove(b, m.From, m.To)
			turn = turn.Opponent()
		}
	}
}

func TestMissingKingPanics(t *testing.T) {
	b := place(t, map[string]Piece{"e1": wK})
	assert.Panics(t, func() { IsInCheck(b, Black) })
}

func TestParseSquareAndUCI(t *testing.T) {
	p, ok := ParseSquare("a8")
	require.True(t, ok)
	assert.Equal(t, Position{Row: 0, Col: 0}, p)
	assert.Equal(t, "h1", Position{Row: 7, Col: 7}.String())

	for _, bad := range []string{"", "i1", "a9", "a0", "e22"} {
		_, ok := ParseSquare(bad)
		assert.False(t, ok, bad)
	}

	from, to, ok := ParseUCI("e7e8q")
	require.True(t, ok)
	assert.Equal(t, "e7", from.String())
	assert.Equal(t, "e8", to.String())

	_, _, ok = ParseUCI("e2")
	assert.False(t, ok)
}

func TestFENRoundTrip(t *testing.T) {
	b := NewBoard()
	fen := b.FEN(White)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1", fen)

	got, turn, err := ParseFEN(fen)
	require.NoError(t, err)
	assert.Equal(t, White, turn)
	assert.Equal(t, b, got)
}

func TestParseFENMarksMovedPawns(t *testing.T) {
	b, turn, err := ParseFEN("4k3/8/8/8/4P3/8/3P4/4K3 b - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, Black, turn)
	assert.True(t, b.At(sq(t, "e4")).HasMoved)
	assert.False(t, b.At(sq(t, "d2")).HasMoved)
}

func TestParseFENRejectsMissingKing(t *testing.T) {
	_, _, err := ParseFEN("8/8/8/8/8/8/8/K7 w - - 0 1")
	assert.Error(t, err)

	_, _, err = ParseFEN("not a fen")
	assert.Error(t, err)
}

func TestBoardString(t *testing.T) {
	s := NewBoard().String()
	assert.Contains(t, s, "8 ♜♞♝♛♚♝♞♜")
	assert.Contains(t, s, "1 ♖♘♗♕♔♗♘♖")
}
