package game

import (
	"math/rand"

	"tinygames/internal/tiles"
)

type tilesSession struct {
	engine *tiles.Engine
	board  tiles.Board
	score  int
	moves  int
	won    bool
	clock  countdown
	state  State
}

func newTilesSession(limit int, rng *rand.Rand) *tilesSession {
	e := tiles.NewEngine(rng)
	return &tilesSession{
		engine: e,
		board:  e.Initialize(),
		clock:  countdown{Limit: limit},
		state:  InProgress,
	}
}

func (s *tilesSession) Game() GameID { return Game2048 }

func (s *tilesSession) State() State { return s.state }

func (s *tilesSession) Apply(in Input) error {
	if s.state != InProgress {
		return terminalErr(s.state)
	}
	var (
		d  tiles.Direction
		ok bool
	)
	switch in.Kind {
	case InputDirection:
		d, ok = tiles.ParseDirection(in.Direction)
	case InputKey:
		d, ok = tiles.DirectionFromKey(in.Key)
	case InputSwipe:
		d, ok = tiles.DirectionFromSwipe(in.DX, in.DY)
	}
	if !ok {
		return ErrInvalidMove
	}
	res := s.engine.Move(s.board, d)
	if !res.Moved {
		// a blocked slide is not a failure
		return nil
	}
	s.board = res.Board
	s.score += res.ScoreDelta
	s.moves++
	if tiles.IsWon(s.board) {
		s.won = true
	}
	if tiles.IsOver(s.board) {
		s.state = Completed
	}
	return nil
}

func (s *tilesSession) Tick(elapsed int) {
	if s.state != InProgress {
		return
	}
	if s.clock.advance(elapsed) {
		s.state = TimedOut
	}
}

func (s *tilesSession) MaxSeconds() int { return s.clock.Limit }

func (s *tilesSession) Result() Result {
	won := s.won && s.state != TimedOut
	return Result{
		Won:             &won,
		Score:           ptr(s.score),
		TimeUsedSeconds: s.clock.Used,
	}
}

type tilesView struct {
	Board            tiles.Board `json:"board"`
	Score            int         `json:"score"`
	Moves            int         `json:"moves"`
	MaxTile          int         `json:"maxTile"`
	Won              bool        `json:"won"`
	Over             bool        `json:"over"`
	RemainingSeconds int         `json:"remainingSeconds"`
}

func (s *tilesSession) View() any {
	return tilesView{
		Board:            s.board,
		Score:            s.score,
		Moves:            s.moves,
		MaxTile:          tiles.MaxTile(s.board),
		Won:              s.won,
		Over:             tiles.IsOver(s.board),
		RemainingSeconds: s.clock.remaining(),
	}
}

// terminalErr is the rejection for input arriving after the session ended.
func terminalErr(st State) error {
	if st == TimedOut {
		return ErrTimeExpired
	}
	return ErrInvalidMove
}
