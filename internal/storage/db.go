package storage

import (
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens the Postgres database at dsn and performs migrations.
func New(dsn string) (*gorm.DB, error) {
	return Open(postgres.Open(dsn))
}

// Open connects through any gorm dialector and performs migrations.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, errors.Wrap(err, "storage: open")
	}
	if err := db.AutoMigrate(&StatsEntry{}, &SessionRecord{}); err != nil {
		return nil, errors.Wrap(err, "storage: migrate")
	}
	return db, nil
}
