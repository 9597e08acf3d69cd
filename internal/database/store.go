// Package database holds the local replica store and its repositories.
// Unlike a package-level connection, the Store is constructed explicitly and
// handed to each component, with an open/close lifecycle owned by the caller.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a database handle plus the dialect it speaks. The local
// replica is sqlite; the durable shared store behind the sync transport is
// postgres, reached through the same repository code.
type Store struct {
	DB      *sqlx.DB
	dialect string
}

// Open connects to the given database and initializes the schema.
// driver is "sqlite3" or "postgres".
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{DB: db, dialect: driver}
	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenLocal opens the sqlite replica under dataDir, creating it if needed.
func OpenLocal(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return Open("sqlite3", filepath.Join(dataDir, "mishnahbot.db"))
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// initSchema creates necessary tables if they don't exist. The DDL sticks
// to the sqlite/postgres common subset so both sides share one schema.
func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			start_date TEXT NOT NULL,
			schedule_type TEXT NOT NULL,
			pace_units_per_day INTEGER NOT NULL,
			review_intensity TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_study_log (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			track_id TEXT NOT NULL,
			study_date TEXT NOT NULL,
			content_id TEXT NOT NULL DEFAULT '',
			is_completed BOOLEAN NOT NULL DEFAULT false,
			completed_at TIMESTAMP,
			updated_at TIMESTAMP NOT NULL,
			device_id TEXT NOT NULL DEFAULT '',
			UNIQUE(user_id, track_id, study_date)
		)`,
		`CREATE TABLE IF NOT EXISTS schedule_entries (
			track_id TEXT NOT NULL,
			date TEXT NOT NULL,
			global_index INTEGER NOT NULL,
			content_ref TEXT NOT NULL,
			node_type TEXT NOT NULL,
			UNIQUE(track_id, date, global_index, node_type)
		)`,
		`CREATE TABLE IF NOT EXISTS content_cache (
			ref_id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_study_log_track_date
			ON user_study_log(track_id, study_date)`,
		`CREATE INDEX IF NOT EXISTS idx_schedule_track_date
			ON schedule_entries(track_id, date)`,
	}
	for _, stmt := range statements {
		if _, err := s.DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
