package game

import (
	"time"
)

// GameID names one of the playable games.
type GameID string

const (
	Game2048   GameID = "2048"
	GameSudoku GameID = "sudoku"
	GameChess  GameID = "chess"
)

// Info is a catalog entry.
type Info struct {
	ID               GameID   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Icon             string   `json:"icon"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
	Difficulty       string   `json:"difficulty"`
	Skills           []string `json:"skills"`
}

var catalog = []Info{
	{
		ID:               Game2048,
		Name:             "2048",
		Description:      "Combine tiles to reach 2048 and improve logical thinking",
		Icon:             "🧩",
		TimeLimitSeconds: 300,
		Difficulty:       "Medium",
		Skills:           []string{"Pattern Recognition", "Strategic Planning", "Number Logic"},
	},
	{
		ID:               GameSudoku,
		Name:             "Sudoku",
		Description:      "Fill the grid with numbers 1-9 to enhance problem-solving skills",
		Icon:             "🔢",
		TimeLimitSeconds: 600,
		Difficulty:       "Medium",
		Skills:           []string{"Logical Reasoning", "Critical Thinking", "Concentration"},
	},
	{
		ID:               GameChess,
		Name:             "Chess",
		Description:      "Strategic board game to develop planning and tactical thinking",
		Icon:             "♟️",
		TimeLimitSeconds: 900,
		Difficulty:       "Hard",
		Skills:           []string{"Strategic Thinking", "Planning", "Spatial Awareness"},
	},
}

// Catalog returns the playable games in display order.
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a catalog entry.
func Lookup(id GameID) (Info, bool) {
	for _, g := range catalog {
		if g.ID == id {
			return g, true
		}
	}
	return Info{}, false
}

// Config is the per-session start configuration.
type Config struct {
	TimeLimitSeconds int    `json:"timeLimitSeconds,omitempty"`
	Difficulty       string `json:"difficulty,omitempty"`
	FEN              string `json:"fen,omitempty"`
	// MaxTotalSeconds caps the time charged across all of a session's clocks.
	// Zero leaves only the clocks themselves. The hub sets it from the budget.
	MaxTotalSeconds  int    `json:"-"`
}

// Input kinds accepted by Session.Apply.
const (
	InputDirection = "direction"
	InputKey       = "key"
	InputSwipe     = "swipe"
	InputSelect    = "select"
	InputDigit     = "digit"
	InputClear     = "clear"
	InputEnter     = "enter"
	InputClick     = "click"
	InputMove      = "move"
)

// Input is a single player event. Which fields matter depends on Kind.
type Input struct {
	Kind      string  `json:"kind"`
	Direction string  `json:"direction,omitempty"`
	Key       string  `json:"key,omitempty"`
	DX        float64 `json:"dx,omitempty"`
	DY        float64 `json:"dy,omitempty"`
	Row       int     `json:"row"`
	Col       int     `json:"col"`
	Value     int     `json:"value,omitempty"`
	UCI       string  `json:"uci,omitempty"`
}

// Result is the outcome of a session. Fields a game does not report stay nil.
type Result struct {
	Won             *bool  `json:"won"`
	Score           *int   `json:"score"`
	TimeUsedSeconds int    `json:"timeUsedSeconds"`
	Mistakes        *int   `json:"mistakes"`
	MoveCount       *int   `json:"moveCount"`
	Winner          string `json:"winner,omitempty"`
}

// StatsRecord accumulates a player's history for one game.
type StatsRecord struct {
	GamesPlayed      int       `json:"gamesPlayed"`
	TotalTimeSeconds int       `json:"totalTime"`
	BestScore        int       `json:"bestScore"`
	Wins             int       `json:"wins"`
	LastPlayed       time.Time `json:"lastPlayed"`
}

// WinRate is wins over games played, 0 when nothing was played.
func (s StatsRecord) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed)
}

// AverageSeconds is the mean time per game.
func (s StatsRecord) AverageSeconds() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalTimeSeconds) / float64(s.GamesPlayed)
}

// DailyBudget is the playtime spent on Date (YYYY-MM-DD, local time).
type DailyBudget struct {
	Date             string `json:"date"`
	SecondsUsedToday int    `json:"secondsUsedToday"`
}

// State is the lifecycle of a session.
type State string

const (
	Idle       State = "idle"
	InProgress State = "in_progress"
	Completed  State = "completed"
	TimedOut   State = "timed_out"
	Abandoned  State = "abandoned"
)

// Terminal reports whether no further input or tick is accepted.
func (s State) Terminal() bool {
	return s == Completed || s == TimedOut || s == Abandoned
}

// SkillLevel is the label derived from win rate and pace.
type SkillLevel string

const (
	Beginner     SkillLevel = "Beginner"
	Intermediate SkillLevel = "Intermediate"
	Advanced     SkillLevel = "Advanced"
	Expert       SkillLevel = "Expert"
)

// Skill classifies a stats record. Each tier needs every threshold strictly met.
func Skill(s StatsRecord) SkillLevel {
	if s.GamesPlayed == 0 {
		return Beginner
	}
	rate, avg := s.WinRate(), s.AverageSeconds()
	switch {
	case rate > 0.7 && avg < 300:
		return Expert
	case rate > 0.5 && avg < 600:
		return Advanced
	case rate > 0.3:
		return Intermediate
	}
	return Beginner
}

// Progress is min(100, gamesPlayed*10 + winRate*50).
func Progress(s StatsRecord) float64 {
	p := float64(s.GamesPlayed*10) + s.WinRate()*50
	if p > 100 {
		return 100
	}
	return p
}

// Snapshot is the JSON view of a session handed to clients and watchers.
type Snapshot struct {
	Kind             string     `json:"kind"`
	ID               string     `json:"id"`
	Player           string     `json:"player,omitempty"`
	Game             GameID     `json:"game"`
	State            State      `json:"state"`
	TimeLimitSeconds int        `json:"timeLimitSeconds"`
	Result           Result     `json:"result"`
	View             any        `json:"view"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          *time.Time `json:"endedAt,omitempty"`
	Watchers         int        `json:"watchers"`
}

// Card is a catalog entry with the player's standing in that game.
type Card struct {
	Info
	CanStart bool        `json:"canStart"`
	Skill    SkillLevel  `json:"skillLevel"`
	Progress float64     `json:"progress"`
	Stats    StatsRecord `json:"stats"`
}

// Overview is everything the games hub page shows.
type Overview struct {
	Budget           DailyBudget `json:"budget"`
	DailyMaxSeconds  int         `json:"dailyMaxSeconds"`
	RemainingSeconds int         `json:"remainingSeconds"`
	Games            []Card      `json:"games"`
	GamesTried       int         `json:"gamesTried"`
	TotalWins        int         `json:"totalWins"`
}
