// Package tiles implements the 2048 sliding-tile game as a pure state machine.
package tiles

import (
	"math"
	"math/rand"
	"strings"
)

const (
	// Size is the board edge length.
	Size = 4
	// WinningTile is the value that marks a won game. Play continues past it.
	WinningTile = 2048
)

// Board is a 4x4 grid. Zero is an empty cell.
type Board [Size][Size]int

// Cell addresses a single board cell.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Direction is the direction tiles travel in.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// MoveResult is the outcome of sliding a board.
type MoveResult struct {
	Board      Board `json:"board"`
	ScoreDelta int   `json:"scoreDelta"`
	Moved      bool  `json:"moved"`
}

// Engine spawns tiles from its random source.
type Engine struct {
	rng *rand.Rand
}

// NewEngine creates an engine. A nil rng falls back to a time-seeded source.
func NewEngine(rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Engine{rng: rng}
}

// Initialize returns an empty board with two spawned tiles.
func (e *Engine) Initialize() Board {
	var b Board
	e.Spawn(&b)
	e.Spawn(&b)
	return b
}

// Spawn places a 2 (90%) or a 4 on a random empty cell. It reports false on a full board.
func (e *Engine) Spawn(b *Board) bool {
	empty := EmptyCells(*b)
	if len(empty) == 0 {
		return false
	}
	c := empty[e.rng.Intn(len(empty))]
	v := 2
	if e.rng.Float64() >= 0.9 {
		v = 4
	}
	b[c.Row][c.Col] = v
	return true
}

// Move slides the board and spawns a tile when anything moved.
func (e *Engine) Move(b Board, d Direction) MoveResult {
	res := Slide(b, d)
	if res.Moved {
		e.Spawn(&res.Board)
	}
	return res
}

// Slide resolves a move without spawning. An unknown direction is a no-op.
func Slide(b Board, d Direction) MoveResult {
	res := MoveResult{Board: b}
	if !d.Valid() {
		return res
	}
	for i := 0; i < Size; i++ {
		var line [Size]int
		for k := 0; k < Size; k++ {
			r, c := lineCell(d, i, k)
			line[k] = b[r][c]
		}
		merged, pts := mergeLine(line)
		res.ScoreDelta += pts
		for k := 0; k < Size; k++ {
			r, c := lineCell(d, i, k)
			if res.Board[r][c] != merged[k] {
				res.Moved = true
			}
			res.Board[r][c] = merged[k]
		}
	}
	return res
}

// lineCell maps position k of line i, read in the direction of travel, to a board cell.
func lineCell(d Direction, i, k int) (int, int) {
	switch d {
	case Left:
		return i, k
	case Right:
		return i, Size - 1 - k
	case Up:
		return k, i
	default: // Down
		return Size - 1 - k, i
	}
}

// mergeLine compacts a line towards index 0, then merges adjacent equal pairs
// from the leading edge. A merged tile does not merge again in the same move.
func mergeLine(line [Size]int) ([Size]int, int) {
	vals := make([]int, 0, Size)
	for _, v := range line {
		if v != 0 {
			vals = append(vals, v)
		}
	}
	var out [Size]int
	n, pts := 0, 0
	for i := 0; i < len(vals); i++ {
		if i+1 < len(vals) && vals[i] == vals[i+1] {
			out[n] = vals[i] * 2
			pts += out[n]
			i++
		} else {
			out[n] = vals[i]
		}
		n++
	}
	return out, pts
}

// IsWon reports whether any cell holds the winning tile.
func IsWon(b Board) bool {
	for _, row := range b {
		for _, v := range row {
			if v == WinningTile {
				return true
			}
		}
	}
	return false
}

// IsOver reports whether no move can change the board.
func IsOver(b Board) bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			v := b[r][c]
			if v == 0 {
				return false
			}
			if r < Size-1 && b[r+1][c] == v {
				return false
			}
			if c < Size-1 && b[r][c+1] == v {
				return false
			}
		}
	}
	return true
}

// EmptyCells lists empty cells in row-major order.
func EmptyCells(b Board) []Cell {
	var out []Cell
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] == 0 {
				out = append(out, Cell{Row: r, Col: c})
			}
		}
	}
	return out
}

// MaxTile returns the largest tile on the board.
func MaxTile(b Board) int {
	m := 0
	for _, row := range b {
		for _, v := range row {
			if v > m {
				m = v
			}
		}
	}
	return m
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// ParseDirection accepts up/down/left/right in any case.
func ParseDirection(s string) (Direction, bool) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Valid()
}

// DirectionFromKey maps browser arrow key names.
func DirectionFromKey(key string) (Direction, bool) {
	switch key {
	case "ArrowUp":
		return Up, true
	case "ArrowDown":
		return Down, true
	case "ArrowLeft":
		return Left, true
	case "ArrowRight":
		return Right, true
	}
	return "", false
}

// DirectionFromSwipe picks the dominant axis of a touch gesture. Screen y grows downwards.
func DirectionFromSwipe(dx, dy float64) (Direction, bool) {
	if dx == 0 && dy == 0 {
		return "", false
	}
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return Right, true
		}
		return Left, true
	}
	if dy > 0 {
		return Down, true
	}
	return Up, true
}
