package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite DSN parameters applied to every connection.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"

	defaultReadConns = 4
)

// ErrDatabaseNotFound is returned by OpenReadOnly when the database file does
// not exist.
var ErrDatabaseNotFound = errors.New("database not found")

// Store wraps a SQLite database holding loaded tables.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path for loading.
//
// The handle is limited to one open connection: SQLite has a single writer,
// and loads into the same store serialize on it.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", buildDSN(path, false))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := ping(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing database for concurrent lookups.
// Connections run with query_only set, so writes through this handle fail.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, true))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(defaultReadConns)
	db.SetMaxIdleConns(defaultReadConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := ping(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func ping(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// buildDSN constructs a go-sqlite3 DSN with the connection pragmas.
func buildDSN(path string, readOnly bool) string {
	params := url.Values{}
	params.Set("_busy_timeout", defaultBusyTimeout)
	if readOnly {
		params.Set("_query_only", "true")
	} else {
		params.Set("_journal_mode", defaultJournalMode)
		params.Set("_synchronous", defaultSynchronous)
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
