package sudoku

// MaxMistakes ends the game as a loss once reached.
const MaxMistakes = 3

// Outcome classifies a player's entry.
type Outcome int

const (
	// Ignored means the entry was malformed or not allowed; nothing changed.
	Ignored Outcome = iota
	// Placed means the value was written.
	Placed
	// Incorrect means the value was rejected and counted as a mistake.
	Incorrect
)

func (o Outcome) String() string {
	switch o {
	case Placed:
		return "placed"
	case Incorrect:
		return "incorrect"
	default:
		return "ignored"
	}
}

// Game is one puzzle being played.
type Game struct {
	Puzzle
	Mistakes int
}

// NewGame starts play on p.
func NewGame(p Puzzle) *Game {
	return &Game{Puzzle: p}
}

// Submit enters v at (r, c). Only the solution's value is ever written.
func (g *Game) Submit(r, c int, v uint8) Outcome {
	if g.Over() || !inRange(r, c) || v < 1 || v > 9 || g.Original[r][c] {
		return Ignored
	}
	if g.Solved[r][c] != v {
		g.Mistakes++
		return Incorrect
	}
	g.Grid[r][c] = v
	return Placed
}

// Clear blanks a cell the player filled.
func (g *Game) Clear(r, c int) Outcome {
	if g.Over() || !inRange(r, c) || g.Original[r][c] || g.Grid[r][c] == 0 {
		return Ignored
	}
	g.Grid[r][c] = 0
	return Placed
}

// Editable reports whether the player may write at (r, c).
func (g *Game) Editable(r, c int) bool {
	return inRange(r, c) && !g.Original[r][c]
}

// Complete reports whether every cell is filled.
func (g *Game) Complete() bool { return IsComplete(&g.Grid) }

// Lost reports whether the mistake limit was reached.
func (g *Game) Lost() bool { return g.Mistakes >= MaxMistakes }

// Over reports whether no further entries are accepted.
func (g *Game) Over() bool { return g.Complete() || g.Lost() }
