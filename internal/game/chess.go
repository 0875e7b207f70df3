package game

import (
	"github.com/pkg/errors"

	"tinygames/internal/chess"
)

// historyEntry is one played move.
type historyEntry struct {
	Piece  chess.PieceType `json:"piece"`
	From   chess.Position  `json:"from"`
	To     chess.Position  `json:"to"`
	Player chess.Color     `json:"player"`
	UCI    string          `json:"uci"`
}

// chessSession is a two-player game on one board. Each side has its own clock
// equal to the time limit. Only the side to move is charged by Tick. total
// caps both clocks together; when it runs out the side to move loses on time.
type chessSession struct {
	board      chess.Board
	turn       chess.Color
	selected   *chess.Position
	validMoves []chess.Position
	clocks     [2]countdown
	total      countdown
	history    []historyEntry
	captured   [2][]chess.PieceType
	status     chess.Status
	winner     *chess.Color
	state      State
}

func newChessSession(limit, maxTotal int, fen string) (*chessSession, error) {
	if maxTotal <= 0 || maxTotal > 2*limit {
		maxTotal = 2 * limit
	}
	s := &chessSession{
		board:  chess.NewBoard(),
		turn:   chess.White,
		clocks: [2]countdown{{Limit: limit}, {Limit: limit}},
		total:  countdown{Limit: maxTotal},
		state:  InProgress,
	}
	if fen != "" {
		b, turn, err := chess.ParseFEN(fen)
		if err != nil {
			return nil, errors.Wrap(err, "load position")
		}
		s.board, s.turn = b, turn
	}
	s.settle()
	return s, nil
}

func (s *chessSession) Game() GameID { return GameChess }

func (s *chessSession) State() State { return s.state }

func (s *chessSession) Apply(in Input) error {
	if s.state != InProgress {
		return terminalErr(s.state)
	}
	switch in.Kind {
	case InputClick:
		return s.click(chess.Position{Row: in.Row, Col: in.Col})
	case InputMove:
		from, to, ok := chess.ParseUCI(in.UCI)
		if !ok {
			return ErrInvalidMove
		}
		if err := s.move(from, to); err != nil {
			return err
		}
		s.deselect()
		return nil
	}
	return ErrInvalidMove
}

// click follows select-then-target: the first click picks one of the mover's
// pieces, the second plays to a highlighted square or drops the selection.
func (s *chessSession) click(p chess.Position) error {
	if !p.Valid() {
		return ErrInvalidMove
	}
	if s.selected != nil {
		from, targets := *s.selected, s.validMoves
		s.deselect()
		for _, t := range targets {
			if t == p {
				return s.move(from, p)
			}
		}
		return nil
	}
	piece := s.board.At(p)
	if piece.Empty() || piece.Color != s.turn {
		return ErrInvalidMove
	}
	s.selected = &p
	s.validMoves = chess.LegalMoves(s.board, p)
	return nil
}

func (s *chessSession) deselect() {
	s.selected = nil
	s.validMoves = nil
}

func (s *chessSession) move(from, to chess.Position) error {
	piece := s.board.At(from)
	if piece.Empty() || piece.Color != s.turn || !chess.IsLegal(s.board, from, to) {
		return ErrInvalidMove
	}
	next, captured := chess.ApplyMove(s.board, from, to)
	if !captured.Empty() {
		s.captured[s.turn] = append(s.captured[s.turn], captured.Type)
	}
	s.history = append(s.history, historyEntry{
		Piece:  piece.Type,
		From:   from,
		To:     to,
		Player: s.turn,
		UCI:    chess.Move{From: from, To: to}.UCI(),
	})
	s.board = next
	s.turn = s.turn.Opponent()
	s.settle()
	return nil
}

// settle ends the game when the side to move has no legal move.
func (s *chessSession) settle() {
	s.status = chess.GameStatus(s.board, s.turn)
	switch s.status {
	case chess.Checkmate:
		w := s.turn.Opponent()
		s.winner = &w
		s.state = Completed
	case chess.Stalemate:
		s.state = Completed
	}
}

func (s *chessSession) Tick(elapsed int) {
	if s.state != InProgress || elapsed <= 0 {
		return
	}
	n := min(elapsed, s.total.remaining(), s.clocks[s.turn].remaining())
	s.total.advance(n)
	if s.clocks[s.turn].advance(n) || s.total.expired() {
		w := s.turn.Opponent()
		s.winner = &w
		s.state = TimedOut
		s.deselect()
	}
}

func (s *chessSession) MaxSeconds() int { return s.total.Limit }

func (s *chessSession) Result() Result {
	r := Result{
		TimeUsedSeconds: s.clocks[chess.White].Used + s.clocks[chess.Black].Used,
		MoveCount:       ptr(len(s.history)),
	}
	if s.winner != nil {
		r.Won = ptr(*s.winner == chess.White)
		r.Winner = s.winner.String()
	}
	return r
}

type chessClocks struct {
	White int `json:"white"`
	Black int `json:"black"`
	Total int `json:"total"`
}

type chessView struct {
	Board      chess.Board         `json:"board"`
	FEN        string              `json:"fen"`
	Turn       chess.Color         `json:"turn"`
	Selected   *chess.Position     `json:"selected"`
	ValidMoves []chess.Position    `json:"validMoves"`
	Check      bool                `json:"check"`
	Status     chess.Status        `json:"status"`
	Winner     *chess.Color        `json:"winner"`
	Remaining  chessClocks         `json:"remainingSeconds"`
	History    []historyEntry      `json:"history"`
	Captured   map[string][]string `json:"captured"`
}

func (s *chessSession) View() any {
	captured := map[string][]string{"white": {}, "black": {}}
	for _, c := range []chess.Color{chess.White, chess.Black} {
		for _, t := range s.captured[c] {
			captured[c.String()] = append(captured[c.String()], chess.Piece{Type: t, Color: c.Opponent()}.Symbol())
		}
	}
	return chessView{
		Board:      s.board,
		FEN:        s.board.FEN(s.turn),
		Turn:       s.turn,
		Selected:   s.selected,
		ValidMoves: s.validMoves,
		Check:      chess.IsInCheck(s.board, s.turn),
		Status:     s.status,
		Winner:     s.winner,
		Remaining: chessClocks{
			White: s.clocks[chess.White].remaining(),
			Black: s.clocks[chess.Black].remaining(),
			Total: s.total.remaining(),
		},
		History:  s.history,
		Captured: captured,
	}
}
