package sudoku

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"
)

// Puzzle pairs the player's grid with its solution.
type Puzzle struct {
	Solved     Grid       `json:"-"`
	Grid       Grid       `json:"grid"`
	Original   [9][9]bool `json:"original"`
	Difficulty Difficulty `json:"-"`
}

// Generator builds puzzles from its random source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator. A nil rng falls back to a random seed.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Generator{rng: rng}
}

// Generate seeds the diagonal boxes, solves the rest and removes d.Removals() cells.
func (g *Generator) Generate(ctx context.Context, d Difficulty) (Puzzle, error) {
	var solved Grid
	// the three diagonal boxes share no row, column or box
	for b := 0; b < 9; b += 3 {
		g.fillBox(&solved, b, b)
	}
	if !Solve(ctx, &solved) {
		if err := ctx.Err(); err != nil {
			return Puzzle{}, errors.Wrap(err, "sudoku: generate")
		}
		return Puzzle{}, errUnsolvable
	}

	p := Puzzle{Solved: solved, Grid: solved, Difficulty: d}
	cells := make([]int, 81)
	for i := range cells {
		cells[i] = i
	}
	g.rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })
	for _, pos := range cells[:d.Removals()] {
		p.Grid[pos/9][pos%9] = 0
	}
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			p.Original[r][c] = p.Grid[r][c] != 0
		}
	}
	return p, nil
}

func (g *Generator) fillBox(grid *Grid, row, col int) {
	nums := []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9}
	g.rng.Shuffle(len(nums), func(i, j int) { nums[i], nums[j] = nums[j], nums[i] })
	for i := 0; i < 9; i++ {
		grid[row+i/3][col+i%3] = nums[i]
	}
}
