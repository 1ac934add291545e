package store

import (
	"context"
	"errors"

	"basegraph.app/intake/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// SessionStore holds in-progress interviews keyed by session id.
// Implementations must be safe for concurrent use on distinct keys.
// Concurrent writes to the same key are last-writer-wins.
type SessionStore interface {
	// GetOrCreate returns the stored session or a fresh empty one.
	// A fresh session is not persisted until Save.
	GetOrCreate(ctx context.Context, id string) (*model.Session, error)
	Get(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	// Evict removes the session. Evicting an unknown id is not an error;
	// the bool reports whether anything was removed.
	Evict(ctx context.Context, id string) (bool, error)
}

// ReportLedger records completed reports.
type ReportLedger interface {
	Append(ctx context.Context, report *model.Report) error
}
