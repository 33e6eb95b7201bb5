package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// KVEntry is one persisted store document
type KVEntry struct {
	Key       string `gorm:"primaryKey;column:entry_key"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName pins the table name
func (KVEntry) TableName() string {
	return "kv_entries"
}

// Event is a calendar event. Only its start time matters to the analytics core.
type Event struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `gorm:"not null" json:"title"`
	StartsAt  time.Time `gorm:"not null;index" json:"starts_at"`
}

// Open sets up the database connection and runs migrations.
// ":memory:" opens a private in-memory database.
func Open(dbPath string) (*gorm.DB, error) {
	if dbPath != ":memory:" {
		// Ensure the directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Quiet by default
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection keeps ":memory:" databases shared and serializes writers
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := runMigrations(gdb); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return gdb, nil
}

// DefaultPath returns the path to the SQLite database file
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".pulse", "pulse.db"), nil
}

// runMigrations creates/updates the database schema
func runMigrations(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&KVEntry{},
		&Event{},
	)
}

// Close closes the database connection
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
