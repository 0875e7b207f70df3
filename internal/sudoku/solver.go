package sudoku

import (
	"context"
	"github.com/pkg/errors"
)

var errUnsolvable = errors.New("sudoku: grid has no solution")

// Solve fills g in place with row-major backtracking. It returns false and
// leaves g untouched when the grid is unsolvable or ctx is done.
func Solve(ctx context.Context, g *Grid) bool {
	work := *g
	var dfs func() bool
	dfs = func() bool {
		if ctx.Err() != nil {
			return false
		}
		r, c, ok := findEmpty(&work)
		if !ok {
			return true
		}
		for v := uint8(1); v <= 9; v++ {
			if IsValidPlacement(&work, r, c, v) {
				work[r][c] = v
				if dfs() {
					return true
				}
				work[r][c] = 0
			}
		}
		return false
	}
	if !dfs() {
		return false
	}
	*g = work
	return true
}

// Hint returns the first blank cell that admits exactly one digit.
func Hint(g Grid) (Cell, uint8, bool) {
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			if g[r][c] != 0 {
				continue
			}
			if v, ok := soleCandidate(&g, r, c); ok {
				return Cell{Row: r, Col: c}, v, true
			}
		}
	}
	return Cell{}, 0, false
}

func soleCandidate(g *Grid, r, c int) (uint8, bool) {
	var last uint8
	count := 0
	for v := uint8(1); v <= 9; v++ {
		if IsValidPlacement(g, r, c, v) {
			count++
			last = v
			if count > 1 {
				return 0, false
			}
		}
	}
	return last, count == 1
}
