package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a gorm DB instance. It serves as a key/value stats store and
// keeps the session history.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// Get returns the blob stored at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	var e StatsEntry
	err := s.db.WithContext(ctx).First(&e, "stats_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "storage: get %s", key)
	}
	return e.Value, true, nil
}

// Set upserts the blob at key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s == nil {
		return nil
	}
	e := StatsEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stats_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	return errors.Wrapf(err, "storage: set %s", key)
}

// RecordSession inserts a finished session. A session id is written once.
func (s *Store) RecordSession(ctx context.Context, rec SessionRecord) error {
	if s == nil {
		return nil
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(&rec).Error
	return errors.Wrapf(err, "storage: record session %s", rec.SessionID)
}

// RecentSessions lists a player's latest sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, player string, limit int) ([]SessionRecord, error) {
	if s == nil {
		return nil, nil
	}
	var out []SessionRecord
	err := s.db.WithContext(ctx).
		Where("player = ?", player).
		Order("ended_at desc").
		Limit(limit).
		Find(&out).Error
	return out, errors.Wrap(err, "storage: recent sessions")
}

// Summary aggregates a player's recorded sessions.
type Summary struct {
	Sessions      int64 `json:"sessions"`
	Completed     int64 `json:"completed"`
	TimedOut      int64 `json:"timedOut"`
	Abandoned     int64 `json:"abandoned"`
	Wins          int64 `json:"wins"`
	SecondsPlayed int64 `json:"secondsPlayed"`
}

// FetchSummary aggregates counts for a player's history.
func (s *Store) FetchSummary(ctx context.Context, player string) (Summary, error) {
	var sum Summary
	if s == nil {
		return sum, nil
	}
	var rows []struct {
		State string
		N     int64
	}
	q := s.db.WithContext(ctx).Model(&SessionRecord{}).Where("player = ?", player)
	if err := q.Session(&gorm.Session{}).Select("state, count(*) as n").Group("state").Scan(&rows).Error; err != nil {
		return sum, errors.Wrap(err, "storage: summary by state")
	}
	for _, r := range rows {
		sum.Sessions += r.N
		switch r.State {
		case "completed":
			sum.Completed = r.N
		case "timed_out":
			sum.TimedOut = r.N
		case "abandoned":
			sum.Abandoned = r.N
		}
	}
	if err := q.Session(&gorm.Session{}).Where("won = ?", true).Count(&sum.Wins).Error; err != nil {
		return sum, errors.Wrap(err, "storage: summary wins")
	}
	if err := q.Session(&gorm.Session{}).Select("COALESCE(SUM(time_used_seconds), 0)").Scan(&sum.SecondsPlayed).Error; err != nil {
		return sum, errors.Wrap(err, "storage: summary time")
	}
	return sum, nil
}
