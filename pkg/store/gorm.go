// Package store implements the persistent candidate store on top of
// GORM and SQLite. All status transitions go through single atomic
// transactions so concurrent reservations never overlap.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/luchenqun/lucky-dog/pkg/models"
)

// Config contains candidate store configuration.
type Config struct {
	// Path is the path to the SQLite database file. ":memory:" creates
	// an in-memory store (tests only; nothing survives a restart).
	Path string
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}

// Store is the GORM-backed candidate store.
type Store struct {
	db     *gorm.DB
	config *Config

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// New opens (or creates) the candidate store and runs auto-migration.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = &Config{}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store configuration: %w", err)
	}

	dsn := config.Path
	if config.Path != ":memory:" {
		// Ensure parent directory exists for SQLite
		if dir := filepath.Dir(config.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		// SQLite tuning for concurrent access:
		// - journal_mode(WAL): Write-Ahead Logging for concurrent readers/single writer
		// - busy_timeout(5000): Wait up to 5 seconds when database is locked
		// - _txlock=immediate: take the write lock at BEGIN. Read-then-write
		//   transactions (batch reservation) would otherwise upgrade from a
		//   deferred read lock, and that upgrade fails with SQLITE_BUSY
		//   instead of waiting out the busy timeout.
		dsn = config.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Suppress GORM logs by default
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}

	return &Store{
		db:     db,
		config: config,
		now:    time.Now,
	}, nil
}

// Open opens an existing candidate store, failing when the database
// file does not exist. The coordinator refuses to start without a
// seeded store; use the import command to create one.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("database file %q not found: %w", path, err)
		}
	}
	return New(&Config{Path: path})
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying GORM database connection.
// This is useful for advanced queries or testing.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Name returns the base file name of the backing database. The reset
// policy compares it against the configured sample name.
func (s *Store) Name() string {
	return filepath.Base(s.config.Path)
}

// convertNotFoundError converts gorm.ErrRecordNotFound to the appropriate domain error.
func convertNotFoundError(err error, notFoundErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundErr
	}
	return err
}
