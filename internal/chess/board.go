// Package chess is a small chess rules engine: per-piece movement, a single-ply
// self-check filter, and checkmate/stalemate detection. There is no castling and
// no en passant. Pawns always promote to a queen.
package chess

import (
	"strings"
)

// Color is a side.
type Color uint8

const (
	White Color = iota
	Black
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// MarshalText encodes the color as "white" or "black".
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ParseColor accepts white/black and w/b.
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	}
	return White, false
}

// PieceType is the kind of piece. The zero value is an empty square.
type PieceType uint8

const (
	NoPiece PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (t PieceType) String() string {
	if int(t) < len(pieceNames) {
		return pieceNames[t]
	}
	return ""
}

// MarshalText encodes the type by name.
func (t PieceType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Piece occupies a square. A zero Piece means the square is empty.
type Piece struct {
	Type     PieceType `json:"type"`
	Color    Color     `json:"color"`
	HasMoved bool      `json:"hasMoved"`
}

// Empty reports whether p is the empty square.
func (p Piece) Empty() bool { return p.Type == NoPiece }

var symbols = map[Color][7]string{
	White: {"", "♙", "♘", "♗", "♖", "♕", "♔"},
	Black: {"", "♟", "♞", "♝", "♜", "♛", "♚"},
}

// Symbol returns the Unicode chess glyph, or "" for an empty square.
func (p Piece) Symbol() string {
	if p.Empty() {
		return ""
	}
	return symbols[p.Color][p.Type]
}

// Position is a square by array coordinates. Row 0 is rank 8, column 0 is file a.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Valid reports whether p is on the board.
func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < 8 && p.Col >= 0 && p.Col < 8
}

// String returns algebraic notation, e.g. "e2".
func (p Position) String() string {
	if !p.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + p.Col), byte('8' - p.Row)})
}

// ParseSquare reads an algebraic square such as "e4".
func ParseSquare(s string) (Position, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Position{}, false
	}
	p := Position{Row: int('8' - s[1]), Col: int(s[0] - 'a')}
	if s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Position{}, false
	}
	return p, true
}

// ParseUCI reads a move like "e2e4". A trailing promotion letter is accepted and
// ignored since promotion is always to a queen.
func ParseUCI(s string) (from, to Position, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return from, to, false
	}
	if from, ok = ParseSquare(s[:2]); !ok {
		return from, to, false
	}
	if to, ok = ParseSquare(s[2:4]); !ok {
		return from, to, false
	}
	return from, to, true
}

// Board is the 8x8 grid.
type Board [8][8]Piece

// At returns the piece at p, or the empty piece when p is off the board.
func (b *Board) At(p Position) Piece {
	if !p.Valid() {
		return Piece{}
	}
	return b[p.Row][p.Col]
}

// NewBoard returns the standard starting position. Black's back rank is row 0.
func NewBoard() Board {
	var b Board
	back := [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for c := 0; c < 8; c++ {
		b[0][c] = Piece{Type: back[c], Color: Black}
		b[1][c] = Piece{Type: Pawn, Color: Black}
		b[6][c] = Piece{Type: Pawn, Color: White}
		b[7][c] = Piece{Type: back[c], Color: White}
	}
	return b
}

// String renders the board with glyphs, rank 8 first.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		sb.WriteByte(byte('8' - r))
		sb.WriteByte(' ')
		for c := 0; c < 8; c++ {
			if s := b[r][c].Symbol(); s != "" {
				sb.WriteString(s)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  abcdefgh")
	return sb.String()
}

// kingSquare finds c's king. A board without one violates the engine's invariant.
func (b *Board) kingSquare(c Color) Position {
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			if p := b[r][col]; p.Type == King && p.Color == c {
				return Position{Row: r, Col: col}
			}
		}
	}
	panic("chess: no " + c.String() + " king on board")
}

// countKings returns the number of kings of each color.
func (b *Board) countKings() (white, black int) {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if p := b[r][c]; p.Type == King {
				if p.Color == White {
					white++
				} else {
					black++
				}
			}
		}
	}
	return white, black
}
