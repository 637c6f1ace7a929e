// Package sqldb persists traversal records in SQLite.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/strataweb/strata/internal/ports"
)

// Store is the SQLite-backed traversal store.
type Store struct {
	db *sqlx.DB
}

var _ ports.TraversalStore = (*Store)(nil)

// Open opens (or creates) the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer; modernc sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute pragma: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS traversals (
id TEXT PRIMARY KEY,
method TEXT NOT NULL,
path TEXT NOT NULL,
route_pattern TEXT NOT NULL DEFAULT '',
status_code INTEGER NOT NULL,
outcome TEXT NOT NULL,
error_kind TEXT NOT NULL DEFAULT '',
error_message TEXT NOT NULL DEFAULT '',
hook_errors TEXT NOT NULL DEFAULT '',
duration_ns INTEGER NOT NULL DEFAULT 0,
created_at TIMESTAMP NOT NULL
)`)
	return err
}

// SaveTraversal inserts one traversal record.
func (s *Store) SaveTraversal(ctx context.Context, rec *ports.TraversalRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO traversals (
id, method, path, route_pattern, status_code, outcome,
error_kind, error_message, hook_errors, duration_ns, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Method, rec.Path, rec.Route, rec.StatusCode, rec.Outcome,
		rec.ErrorKind, rec.ErrorMessage, rec.HookErrors, int64(rec.Duration), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("save traversal: %w", err)
	}
	return nil
}

// GetTraversal returns the record with the given id, or nil when absent.
func (s *Store) GetTraversal(ctx context.Context, id string) (*ports.TraversalRecord, error) {
	var rec ports.TraversalRecord
	err := s.db.GetContext(ctx, &rec,
		`SELECT id, method, path, route_pattern, status_code, outcome,
error_kind, error_message, hook_errors, duration_ns, created_at
FROM traversals WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get traversal: %w", err)
	}
	return &rec, nil
}

// ListRecentTraversals returns up to limit records, newest first.
func (s *Store) ListRecentTraversals(ctx context.Context, limit int) ([]*ports.TraversalRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []*ports.TraversalRecord
	err := s.db.SelectContext(ctx, &recs,
		`SELECT id, method, path, route_pattern, status_code, outcome,
error_kind, error_message, hook_errors, duration_ns, created_at
FROM traversals ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list traversals: %w", err)
	}
	return recs, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
