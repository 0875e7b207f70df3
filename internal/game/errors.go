package game

import "github.com/pkg/errors"

var (
	// ErrInvalidMove rejects an input without changing the session.
	ErrInvalidMove = errors.New("invalid move")
	// ErrIncorrectEntry is a sudoku value that does not match the solution. It counts as a mistake.
	ErrIncorrectEntry = errors.New("incorrect entry")
	// ErrTimeExpired is returned for input to a session whose clock ran out.
	ErrTimeExpired = errors.New("time expired")
	// ErrBudgetExceeded refuses a start that would overrun the daily playtime budget.
	ErrBudgetExceeded = errors.New("daily budget exceeded")
	ErrUnknownGame    = errors.New("unknown game")
	ErrUnknownSession = errors.New("unknown session")
)
