package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/sandrolain/goexpr/pkg/ast"
)

const sqliteDriver = "sqlite"

// SQLite persists parsed expressions in a SQLite database, so that a
// cache survives process restarts.
type SQLite struct {
	mu    sync.Mutex
	db    *sql.DB
	owned bool
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for
// a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	// an in-memory database only lives as long as its connection
	db.SetMaxOpenConns(1)

	s, err := NewSQLite(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSQLite uses an already opened database, creating the cache table if
// needed.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS parsed_expressions (
			key TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			ast TEXT NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("create sqlite cache table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Get loads the expression stored under key.
func (s *SQLite) Get(key string) (*ast.ParsedExpression, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data string
	err := s.db.QueryRow("SELECT ast FROM parsed_expressions WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	parsed, err := ast.UnmarshalParsed([]byte(data))
	if err != nil {
		return nil, false, err
	}
	return parsed, true, nil
}

// Put stores parsed under key.
func (s *SQLite) Put(key string, parsed *ast.ParsedExpression) error {
	data, err := ast.MarshalParsed(parsed)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO parsed_expressions (key, source, ast) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET source = excluded.source, ast = excluded.ast
	`, key, parsed.Source(), string(data))
	return err
}

// Delete removes the entry stored under key.
func (s *SQLite) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM parsed_expressions WHERE key = ?", key)
	return err
}

// Len returns the number of stored entries.
func (s *SQLite) Len() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM parsed_expressions").Scan(&n)
	return n, err
}

// Close closes the database if it was opened by OpenSQLite.
func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
