package chess

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/pkg/errors"
)

var toLibType = map[PieceType]nchess.PieceType{
	Pawn:   nchess.Pawn,
	Knight: nchess.Knight,
	Bishop: nchess.Bishop,
	Rook:   nchess.Rook,
	Queen:  nchess.Queen,
	King:   nchess.King,
}

var fromLibType = map[nchess.PieceType]PieceType{
	nchess.Pawn:   Pawn,
	nchess.Knight: Knight,
	nchess.Bishop: Bishop,
	nchess.Rook:   Rook,
	nchess.Queen:  Queen,
	nchess.King:   King,
}

func libColor(c Color) nchess.Color {
	if c == Black {
		return nchess.Black
	}
	return nchess.White
}

func libSquare(p Position) nchess.Square {
	return nchess.NewSquare(nchess.File(p.Col), nchess.Rank(7-p.Row))
}

// FEN encodes the board with turn as the side to move. Castling and en passant
// fields are always "-" because the engine supports neither.
func (b Board) FEN(turn Color) string {
	m := make(map[nchess.Square]nchess.Piece)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b[r][c]
			if p.Empty() {
				continue
			}
			m[libSquare(Position{Row: r, Col: c})] = nchess.NewPiece(toLibType[p.Type], libColor(p.Color))
		}
	}
	side := "w"
	if turn == Black {
		side = "b"
	}
	return fmt.Sprintf("%s %s - - 0 1", nchess.NewBoard(m).String(), side)
}

// ParseFEN decodes a position and the side to move. The position must hold
// exactly one king per color. Pawns off their start rank are marked as moved.
func ParseFEN(fen string) (Board, Color, error) {
	var b Board
	placement, _, _ := strings.Cut(strings.TrimSpace(fen), " ")
	if w, bl := strings.Count(placement, "K"), strings.Count(placement, "k"); w != 1 || bl != 1 {
		return b, White, errors.Errorf("chess: position needs one king per side, got %d white and %d black", w, bl)
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return b, White, errors.Wrap(err, "chess: bad fen")
	}
	pos := nchess.NewGame(opt).Position()
	lb := pos.Board()
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			lp := lb.Piece(libSquare(Position{Row: r, Col: c}))
			if lp == nchess.NoPiece {
				continue
			}
			p := Piece{Type: fromLibType[lp.Type()], Color: White}
			if lp.Color() == nchess.Black {
				p.Color = Black
			}
			if p.Type == Pawn {
				start := 6
				if p.Color == Black {
					start = 1
				}
				p.HasMoved = r != start
			}
			b[r][c] = p
		}
	}
	if w, bl := b.countKings(); w != 1 || bl != 1 {
		return Board{}, White, errors.Errorf("chess: fen decoded to %d white and %d black kings", w, bl)
	}
	turn := White
	if pos.Turn() == nchess.Black {
		turn = Black
	}
	return b, turn, nil
}
