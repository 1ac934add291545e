package store

import (
	"context"
	"encoding/json"
	"fmt"

	"basegraph.app/intake/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
)

const createReportsTable = `
CREATE TABLE IF NOT EXISTS bug_reports (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	user_id     TEXT,
	record      JSONB NOT NULL,
	locations   JSONB NOT NULL DEFAULT '{}'::jsonb,
	ticket      JSONB,
	created_at  TIMESTAMPTZ NOT NULL
)`

const createReportsSessionIndex = `
CREATE INDEX IF NOT EXISTS bug_reports_session_id_idx ON bug_reports (session_id)`

const insertReport = `
INSERT INTO bug_reports (id, session_id, user_id, record, locations, ticket, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

// execer is the slice of pgxpool.Pool the ledger needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGReportLedger appends completed reports to Postgres.
type PGReportLedger struct {
	db execer
}

func NewPGReportLedger(db execer) *PGReportLedger {
	return &PGReportLedger{db: db}
}

// EnsureSchema creates the ledger table and its index if they do not exist.
// The server runs it inside a transaction.
func (l *PGReportLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, createReportsTable); err != nil {
		return fmt.Errorf("creating bug_reports table: %w", err)
	}
	if _, err := l.db.Exec(ctx, createReportsSessionIndex); err != nil {
		return fmt.Errorf("creating bug_reports index: %w", err)
	}
	return nil
}

func (l *PGReportLedger) Append(ctx context.Context, report *model.Report) error {
	record, err := json.Marshal(report.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	locations := report.Locations
	if locations == nil {
		locations = model.ArchivedLocations{}
	}
	locs, err := json.Marshal(locations)
	if err != nil {
		return fmt.Errorf("encode locations: %w", err)
	}

	var ticket []byte
	if report.Ticket != nil {
		if ticket, err = json.Marshal(report.Ticket); err != nil {
			return fmt.Errorf("encode ticket: %w", err)
		}
	}

	var userID *string
	if report.UserID != "" {
		userID = &report.UserID
	}

	if _, err := l.db.Exec(ctx, insertReport,
		report.ID,
		report.SessionID,
		userID,
		record,
		locs,
		ticket,
		report.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert report %s: %w", report.ID, err)
	}
	return nil
}
