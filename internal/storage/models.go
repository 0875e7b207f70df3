package storage

import (
	"time"

	"github.com/google/uuid"
)

// StatsEntry is one key/value blob, e.g. a player's per-game stats.
type StatsEntry struct {
	Key       string `gorm:"column:stats_key;primaryKey;size:191"`
	Value     []byte
	UpdatedAt time.Time
}

// SessionRecord is the history row written when a session ends.
type SessionRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID       string    `gorm:"uniqueIndex;size:64"`
	Player          string    `gorm:"index;size:191"`
	Game            string    `gorm:"index;size:32"`
	State           string    `gorm:"size:32"`
	Won             *bool
	Score           *int
	Mistakes        *int
	MoveCount       *int
	Winner          string
	TimeUsedSeconds int
	StartedAt       time.Time
	EndedAt         time.Time `gorm:"index"`
	CreatedAt       time.Time
}
