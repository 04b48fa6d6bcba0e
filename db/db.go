package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens (and creates if needed) the SQLite database at path and migrates the tables.
// Pass ":memory:" for a throwaway database.
func Open(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	if err := createDBDirectory(path); err != nil {
		return nil, err
	}

	gormDB, err := openDatabase(path)
	if err != nil {
		return nil, err
	}

	if err := migrateTables(gormDB); err != nil {
		return nil, err
	}

	configureLogger(gormDB)

	log.Debug().Str("path", path).Msg("Database initialized successfully")
	return gormDB, nil
}

// createDBDirectory creates the directory for the database file if it does not exist.
func createDBDirectory(path string) error {
	if path == ":memory:" || filepath.Dir(path) == "." {
		return nil
	}
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error().Err(err).Msg("Failed to create database directory")
			return err
		}
	}
	return nil
}

func openDatabase(path string) (*gorm.DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return gormDB, nil
}

func migrateTables(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(&Entry{}); err != nil {
		log.Error().Err(err).Msg("Failed to auto-migrate database")
		return err
	}
	return nil
}

// configureLogger keeps gorm quiet unless debug logging is on.
func configureLogger(gormDB *gorm.DB) {
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gormDB.Logger = gormDB.Logger.LogMode(logger.Silent)
	} else {
		gormDB.Logger = gormDB.Logger.LogMode(logger.Info)
	}
}

// Close closes the underlying connection. A nil handle is a no-op.
func Close(gormDB *gorm.DB) error {
	if gormDB == nil {
		return nil
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get raw database connection")
		return err
	}
	return sqlDB.Close()
}
