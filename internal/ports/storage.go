package ports

import (
	"context"
	"time"
)

// TraversalRecord is the persisted summary of one completed traversal.
type TraversalRecord struct {
	ID           string        `db:"id"`
	Method       string        `db:"method"`
	Path         string        `db:"path"`
	Route        string        `db:"route_pattern"`
	StatusCode   int           `db:"status_code"`
	Outcome      string        `db:"outcome"`
	ErrorKind    string        `db:"error_kind"`
	ErrorMessage string        `db:"error_message"`
	HookErrors   string        `db:"hook_errors"` // JSON array, empty when none
	Duration     time.Duration `db:"duration_ns"`
	CreatedAt    time.Time     `db:"created_at"`
}

// TraversalStore persists traversal records for audit and inspection.
type TraversalStore interface {
	SaveTraversal(ctx context.Context, rec *TraversalRecord) error
	GetTraversal(ctx context.Context, id string) (*TraversalRecord, error)
	ListRecentTraversals(ctx context.Context, limit int) ([]*TraversalRecord, error)
	Close() error
}
