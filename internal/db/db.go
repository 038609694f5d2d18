package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when a task or comment id does not exist
var ErrNotFound = errors.New("not found")

// DB wraps the database connection
type DB struct {
	*sql.DB
	now func() time.Time
}

// New opens the database file at path, creating it and its directory if
// needed. An empty path selects DefaultPath.
func New(path string) (*DB, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return Open(path + "?_foreign_keys=on")
}

// Open connects to dsn and initializes the schema
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway, and :memory: databases are per connection
	db.SetMaxOpenConns(1)

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// DefaultPath returns the database location under the XDG data directory
func DefaultPath() (string, error) {
	// Use XDG data directory or fallback to home directory
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "taskdeck", "taskdeck.db"), nil
}

// Seed inserts sample tasks and comments when the database has no tasks.
// It reports whether anything was inserted.
func (db *DB) Seed(ctx context.Context) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	samples := []struct {
		title, description, author, comment string
	}{
		{"Complete project setup", "Set up the server and client environment", "John Doe", "This looks good to start with"},
		{"Implement CRUD APIs", "Build REST APIs for tasks and comments", "Jane Smith", "Make sure to follow REST principles"},
		{"Create terminal interface", "Build the TUI components for task management", "Bob Johnson", "Keep the keybindings discoverable"},
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := db.now()
	for _, s := range samples {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (title, description, completed, created_at, updated_at) VALUES (?, ?, 0, ?, ?)
		`, s.title, s.description, now, now)
		if err != nil {
			return false, err
		}
		taskID, err := res.LastInsertId()
		if err != nil {
			return false, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO comments (task_id, author, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		`, taskID, s.author, s.comment, now, now); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
