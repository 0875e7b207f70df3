package game

import (
	"math/rand"
)

// Session is one play-through of a game. Apply and Tick are reducers over the
// session's own state. Once State is terminal neither has any effect.
type Session interface {
	Game() GameID
	// Apply handles one input. ErrInvalidMove leaves the state untouched.
	Apply(in Input) error
	// Tick advances the countdown by elapsed seconds.
	Tick(elapsed int)
	State() State
	// MaxSeconds is the most time the session can charge in total.
	MaxSeconds() int
	Result() Result
	// View is a JSON-ready snapshot of the board.
	View() any
}

// NewSession starts a session of id. A time limit that is unset or larger than
// the catalog limit is clamped to it.
func NewSession(id GameID, cfg Config, rng *rand.Rand) (Session, error) {
	info, ok := Lookup(id)
	if !ok {
		return nil, ErrUnknownGame
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	limit := cfg.TimeLimitSeconds
	if limit <= 0 || limit > info.TimeLimitSeconds {
		limit = info.TimeLimitSeconds
	}
	switch id {
	case Game2048:
		return newTilesSession(limit, rng), nil
	case GameSudoku:
		return newSudokuSession(limit, cfg.Difficulty, rng)
	case GameChess:
		return newChessSession(limit, cfg.MaxTotalSeconds, cfg.FEN)
	}
	return nil, ErrUnknownGame
}

// countdown is a per-session clock in whole seconds.
type countdown struct {
	Limit int `json:"limit"`
	Used  int `json:"used"`
}

// advance adds elapsed seconds and reports whether the clock hit zero.
func (c *countdown) advance(elapsed int) bool {
	if elapsed <= 0 {
		return c.expired()
	}
	c.Used += elapsed
	if c.Used > c.Limit {
		c.Used = c.Limit
	}
	return c.expired()
}

func (c countdown) expired() bool { return c.Used >= c.Limit }

func (c countdown) remaining() int { return c.Limit - c.Used }

func ptr[T any](v T) *T { return &v }
