// Package history records evaluated programs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	source     TEXT NOT NULL,
	result     TEXT NOT NULL,
	is_error   BOOLEAN NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
)`

// DefaultLimit is used by List when limit is not positive.
const DefaultLimit = 20

// Entry is one recorded evaluation.
type Entry struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Result    string    `json:"result"`
	IsError   bool      `json:"isError"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is a SQLite-backed evaluation history. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at dsn and makes sure the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("history: empty dsn")
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: opening %s: %w", dsn, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: creating schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Record stores e. ID is assigned by the database; a zero CreatedAt is
// replaced by the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evaluations (source, result, is_error, created_at) VALUES (?, ?, ?, ?)`,
		e.Source, e.Result, e.IsError, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("history: recording evaluation: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, result, is_error, created_at FROM evaluations ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: listing evaluations: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Source, &e.Result, &e.IsError, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scanning evaluation: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: listing evaluations: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
