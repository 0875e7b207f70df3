package chess

var (
	rookDirs   = [][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirs = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	queenDirs  = append(append([][2]int{}, rookDirs...), bishopDirs...)
	knightJump = [][2]int{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
)

// Move is a from/to pair.
type Move struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// UCI returns the move as e.g. "e2e4".
func (m Move) UCI() string { return m.From.String() + m.To.String() }

// PseudoLegalMoves lists the targets allowed by the piece's movement shape,
// without checking whether the mover's own king is left attacked.
func PseudoLegalMoves(b Board, from Position) []Position {
	p := b.At(from)
	if p.Empty() {
		return nil
	}
	var moves []Position
	switch p.Type {
	case Pawn:
		dir, start := -1, 6
		if p.Color == Black {
			dir, start = 1, 1
		}
		one := Position{Row: from.Row + dir, Col: from.Col}
		if one.Valid() && b.At(one).Empty() {
			moves = append(moves, one)
			two := Position{Row: from.Row + 2*dir, Col: from.Col}
			if from.Row == start && b.At(two).Empty() {
				moves = append(moves, two)
			}
		}
		for _, dc := range []int{-1, 1} {
			t := Position{Row: from.Row + dir, Col: from.Col + dc}
			if q := b.At(t); t.Valid() && !q.Empty() && q.Color != p.Color {
				moves = append(moves, t)
			}
		}
	case Rook:
		moves = slide(b, from, p.Color, rookDirs)
	case Bishop:
		moves = slide(b, from, p.Color, bishopDirs)
	case Queen:
		moves = slide(b, from, p.Color, queenDirs)
	case Knight:
		moves = step(b, from, p.Color, knightJump)
	case King:
		moves = step(b, from, p.Color, queenDirs)
	}
	return moves
}

func slide(b Board, from Position, c Color, dirs [][2]int) []Position {
	var out []Position
	for _, d := range dirs {
		t := Position{Row: from.Row + d[0], Col: from.Col + d[1]}
		for t.Valid() {
			q := b.At(t)
			if q.Empty() {
				out = append(out, t)
			} else {
				if q.Color != c {
					out = append(out, t)
				}
				break
			}
			t = Position{Row: t.Row + d[0], Col: t.Col + d[1]}
		}
	}
	return out
}

func step(b Board, from Position, c Color, offsets [][2]int) []Position {
	var out []Position
	for _, d := range offsets {
		t := Position{Row: from.Row + d[0], Col: from.Col + d[1]}
		if !t.Valid() {
			continue
		}
		if q := b.At(t); q.Empty() || q.Color != c {
			out = append(out, t)
		}
	}
	return out
}

// IsInCheck reports whether any opposing piece attacks c's king.
// It panics if c has no king.
func IsInCheck(b Board, c Color) bool {
	king := b.kingSquare(c)
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			p := b[r][col]
			if p.Empty() || p.Color == c {
				continue
			}
			for _, t := range PseudoLegalMoves(b, Position{Row: r, Col: col}) {
				if t == king {
					return true
				}
			}
		}
	}
	return false
}

// LegalMoves filters the pseudo-legal moves to those that leave the mover's
// king safe. A king is never a capture target.
func LegalMoves(b Board, from Position) []Position {
	p := b.At(from)
	if p.Empty() {
		return nil
	}
	var out []Position
	for _, t := range PseudoLegalMoves(b, from) {
		if b.At(t).Type == King {
			continue
		}
		next, _ := ApplyMove(b, from, t)
		if !IsInCheck(next, p.Color) {
			out = append(out, t)
		}
	}
	return out
}

// AllLegalMoves lists every legal move for c.
func AllLegalMoves(b Board, c Color) []Move {
	var out []Move
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			p := b[r][col]
			if p.Empty() || p.Color != c {
				continue
			}
			from := Position{Row: r, Col: col}
			for _, t := range LegalMoves(b, from) {
				out = append(out, Move{From: from, To: t})
			}
		}
	}
	return out
}

// IsLegal reports whether from->to is among the legal moves of the piece on from.
func IsLegal(b Board, from, to Position) bool {
	for _, t := range LegalMoves(b, from) {
		if t == to {
			return true
		}
	}
	return false
}

// ApplyMove relocates the piece and returns the new board and any captured piece.
// Pawns reaching the last rank become queens. Off-board coordinates or an empty
// source square leave the board unchanged.
func ApplyMove(b Board, from, to Position) (Board, Piece) {
	p := b.At(from)
	if p.Empty() || !to.Valid() || from == to {
		return b, Piece{}
	}
	captured := b[to.Row][to.Col]
	p.HasMoved = true
	if p.Type == Pawn && (to.Row == 0 || to.Row == 7) {
		p.Type = Queen
	}
	b[to.Row][to.Col] = p
	b[from.Row][from.Col] = Piece{}
	return b, captured
}

// Status is the state of the game for the side to move.
type Status string

const (
	Ongoing   Status = "ongoing"
	Checkmate Status = "checkmate"
	Stalemate Status = "stalemate"
)

// GameStatus reports checkmate, stalemate or ongoing for the side to move.
func GameStatus(b Board, toMove Color) Status {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b[r][c]
			if p.Empty() || p.Color != toMove {
				continue
			}
			if len(LegalMoves(b, Position{Row: r, Col: c})) > 0 {
				return Ongoing
			}
		}
	}
	if IsInCheck(b, toMove) {
		return Checkmate
	}
	return Stalemate
}
