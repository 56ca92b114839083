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

// Database variables
var (
	Db   *gorm.DB                                                   // GORM database instance
	Path = filepath.Join(os.Getenv("HOME"), ".blogctl/credentials.db") // Default database path
)

// InitDB opens the database at Path and creates the tables if they don't exist.
func InitDB() error {
	if err := createDBDirectory(); err != nil {
		return err
	}

	if err := openDatabase(); err != nil {
		return err
	}

	if err := migrateTables(Db); err != nil {
		return err
	}

	configureLogger()

	log.Debug().Str("path", Path).Msg("Database initialized successfully")
	return nil
}

// GetDB returns the open database, or nil before InitDB.
func GetDB() *gorm.DB { return Db }

// createDBDirectory creates the parent directory of Path with owner-only
// permissions, since the database holds credentials.
func createDBDirectory() error {
	if Path == ":memory:" || Path == "file::memory:" {
		return nil
	}
	if _, err := os.Stat(filepath.Dir(Path)); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(Path), 0o700); err != nil {
			log.Error().Err(err).Msg("Failed to create database directory")
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return nil
}

func openDatabase() error {
	var err error
	Db, err = gorm.Open(sqlite.Open(Path), &gorm.Config{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return fmt.Errorf("failed to open database: %w", err)
	}
	return nil
}

// Migrate creates or updates the tables on db.
func Migrate(db *gorm.DB) error {
	return migrateTables(db)
}

func migrateTables(db *gorm.DB) error {
	if err := db.AutoMigrate(&Credential{}); err != nil {
		log.Error().Err(err).Msg("Failed to auto-migrate database")
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// configureLogger silences GORM unless debug logging is on.
func configureLogger() {
	if zerolog.GlobalLevel() == zerolog.Disabled {
		Db.Logger = Db.Logger.LogMode(logger.Silent)
	} else {
		Db.Logger = Db.Logger.LogMode(logger.Info)
	}
}

// CloseDB closes the database connection.
func CloseDB() error {
	if Db == nil {
		return nil
	}
	sqlDB, err := Db.DB()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get raw database connection")
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	Db = nil
	return nil
}
