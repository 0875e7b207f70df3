package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"tinygames/internal/sudoku"
)

// generateTimeout bounds puzzle generation. The solver normally finishes in microseconds.
const generateTimeout = 2 * time.Second

type sudokuSession struct {
	game     *sudoku.Game
	selected *sudoku.Cell
	clock    countdown
	state    State
}

func newSudokuSession(limit int, difficulty string, rng *rand.Rand) (*sudokuSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()
	p, err := sudoku.NewGenerator(rng).Generate(ctx, sudoku.ParseDifficulty(difficulty))
	if err != nil {
		return nil, errors.Wrap(err, "generate sudoku")
	}
	return &sudokuSession{
		game:  sudoku.NewGame(p),
		clock: countdown{Limit: limit},
		state: InProgress,
	}, nil
}

func (s *sudokuSession) Game() GameID { return GameSudoku }

func (s *sudokuSession) State() State { return s.state }

func (s *sudokuSession) Apply(in Input) error {
	if s.state != InProgress {
		return terminalErr(s.state)
	}
	switch in.Kind {
	case InputSelect:
		if !inGrid(in.Row, in.Col) {
			return ErrInvalidMove
		}
		s.selected = &sudoku.Cell{Row: in.Row, Col: in.Col}
		return nil
	case InputDigit:
		return s.enterSelected(in.Value)
	case InputKey:
		switch in.Key {
		case "Backspace", "Delete":
			return s.clearSelected()
		}
		if len(in.Key) == 1 && in.Key[0] >= '1' && in.Key[0] <= '9' {
			return s.enterSelected(int(in.Key[0] - '0'))
		}
		return ErrInvalidMove
	case InputClear:
		return s.clearSelected()
	case InputEnter:
		return s.enter(in.Row, in.Col, in.Value)
	}
	return ErrInvalidMove
}

func inGrid(r, c int) bool { return r >= 0 && r < 9 && c >= 0 && c < 9 }

func (s *sudokuSession) enterSelected(v int) error {
	if s.selected == nil {
		return ErrInvalidMove
	}
	return s.enter(s.selected.Row, s.selected.Col, v)
}

func (s *sudokuSession) enter(r, c, v int) error {
	if v < 1 || v > 9 {
		return ErrInvalidMove
	}
	switch s.game.Submit(r, c, uint8(v)) {
	case sudoku.Incorrect:
		if s.game.Lost() {
			s.state = Completed
		}
		return ErrIncorrectEntry
	case sudoku.Placed:
		if s.game.Complete() {
			s.state = Completed
		}
		return nil
	}
	return ErrInvalidMove
}

func (s *sudokuSession) clearSelected() error {
	if s.selected == nil {
		return ErrInvalidMove
	}
	if s.game.Clear(s.selected.Row, s.selected.Col) != sudoku.Placed {
		return ErrInvalidMove
	}
	return nil
}

func (s *sudokuSession) Tick(elapsed int) {
	if s.state != InProgress {
		return
	}
	if s.clock.advance(elapsed) {
		s.state = TimedOut
	}
}

func (s *sudokuSession) MaxSeconds() int { return s.clock.Limit }

func (s *sudokuSession) Result() Result {
	won := s.state == Completed && s.game.Complete()
	return Result{
		Won:             &won,
		TimeUsedSeconds: s.clock.Used,
		Mistakes:        ptr(s.game.Mistakes),
	}
}

type sudokuView struct {
	Grid             sudoku.Grid  `json:"grid"`
	Original         [9][9]bool   `json:"original"`
	Selected         *sudoku.Cell `json:"selected"`
	Mistakes         int          `json:"mistakes"`
	MaxMistakes      int          `json:"maxMistakes"`
	Difficulty       string       `json:"difficulty"`
	RemainingSeconds int          `json:"remainingSeconds"`
}

func (s *sudokuSession) View() any {
	return sudokuView{
		Grid:             s.game.Grid,
		Original:         s.game.Original,
		Selected:         s.selected,
		Mistakes:         s.game.Mistakes,
		MaxMistakes:      sudoku.MaxMistakes,
		Difficulty:       s.game.Difficulty.String(),
		RemainingSeconds: s.clock.remaining(),
	}
}
