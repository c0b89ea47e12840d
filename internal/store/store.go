package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite"

	"github.com/sadopc/hourtree/internal/logging"
)

// Store persists projects, work sessions and tasks in SQLite. It holds a single
// connection and is meant for one goroutine of control.
type Store struct {
	db *sql.DB
}

var connPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: an in-memory database lives and dies with it.
	db.SetMaxOpenConns(1)

	for _, pragma := range connPragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations[i] moves the schema from user_version i to i+1.
var migrations = []string{
	`
	CREATE TABLE projects (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		name         TEXT NOT NULL DEFAULT '',
		target_hours REAL,
		parent       INTEGER REFERENCES projects(id),
		archived     INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE work (
		time_start INTEGER NOT NULL,
		duration   INTEGER NOT NULL,
		project_id INTEGER REFERENCES projects(id)
	);
	CREATE TABLE tasks (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		project_id INTEGER REFERENCES projects(id)
	);
	CREATE INDEX idx_projects_parent ON projects(parent);
	CREATE INDEX idx_work_project    ON work(project_id);
	CREATE INDEX idx_work_start      ON work(time_start);
	CREATE INDEX idx_tasks_project   ON tasks(project_id);
	`,
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this build (%d)", version, len(migrations))
	}

	for v := version; v < len(migrations); v++ {
		if err := s.applyMigration(v); err != nil {
			return fmt.Errorf("schema v%d: %w", v+1, err)
		}
		logging.Logger().Info("schema migrated", "version", v+1)
	}
	return nil
}

func (s *Store) applyMigration(v int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migrations[v]); err != nil {
		return err
	}
	// PRAGMA does not take bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
		return err
	}
	return tx.Commit()
}

// DefaultDBPath is hourtree.db under the XDG data directory.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "hourtree", "hourtree.db")
}
