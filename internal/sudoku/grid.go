// Package sudoku generates 9x9 puzzles and runs the puzzle state machine.
package sudoku

import "strings"

// Grid holds digits 1..9 with 0 meaning blank.
type Grid [9][9]uint8

// Cell identifies a cell on the grid.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Difficulty selects how many cells are removed from the solved grid.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// Removals is the number of blanks carved out for d.
func (d Difficulty) Removals() int {
	switch d {
	case Easy:
		return 30
	case Hard:
		return 50
	default:
		return 40
	}
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	default:
		return "medium"
	}
}

// ParseDifficulty maps easy/medium/hard. Anything else is Medium.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy
	case "hard":
		return Hard
	default:
		return Medium
	}
}

func inRange(r, c int) bool {
	return r >= 0 && r < 9 && c >= 0 && c < 9
}

// IsValidPlacement checks row, column and box uniqueness of v at (r, c).
// The target cell itself is not compared.
func IsValidPlacement(g *Grid, r, c int, v uint8) bool {
	if !inRange(r, c) || v < 1 || v > 9 {
		return false
	}
	for i := 0; i < 9; i++ {
		if i != c && g[r][i] == v {
			return false
		}
		if i != r && g[i][c] == v {
			return false
		}
	}
	br, bc := (r/3)*3, (c/3)*3
	for dr := 0; dr < 3; dr++ {
		for dc := 0; dc < 3; dc++ {
			rr, cc := br+dr, bc+dc
			if (rr != r || cc != c) && g[rr][cc] == v {
				return false
			}
		}
	}
	return true
}

// IsComplete reports whether no blank remains.
func IsComplete(g *Grid) bool {
	_, _, ok := findEmpty(g)
	return !ok
}

// Conflicts returns every cell that repeats a digit in its row, column or box.
func Conflicts(g *Grid) []Cell {
	conf := make([]Cell, 0, 8)
	// rows
	for r := 0; r < 9; r++ {
		m := 0
		for c := 0; c < 9; c++ {
			conf = mark(conf, &m, g[r][c], r, c)
		}
	}
	// cols
	for c := 0; c < 9; c++ {
		m := 0
		for r := 0; r < 9; r++ {
			conf = mark(conf, &m, g[r][c], r, c)
		}
	}
	// boxes
	for br := 0; br < 3; br++ {
		for bc := 0; bc < 3; bc++ {
			m := 0
			for dr := 0; dr < 3; dr++ {
				for dc := 0; dc < 3; dc++ {
					r, c := br*3+dr, bc*3+dc
					conf = mark(conf, &m, g[r][c], r, c)
				}
			}
		}
	}
	return conf
}

func mark(conf []Cell, seen *int, v uint8, r, c int) []Cell {
	if v == 0 {
		return conf
	}
	bit := 1 << v
	if *seen&bit != 0 {
		conf = append(conf, Cell{Row: r, Col: c})
	}
	*seen |= bit
	return conf
}

func findEmpty(g *Grid) (int, int, bool) {
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if g[r][c] == 0 {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}
