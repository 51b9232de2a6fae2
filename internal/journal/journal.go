package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/MAGLaboratory/security-monitor/internal/infrastructure/database"
)

// Event kinds recorded in the journal.
const (
	KindCommand       = "command"
	KindState         = "state"
	KindRotation      = "rotation"
	KindEscalation    = "escalation"
	KindEngineFailure = "engine_failure"
)

// recordTimeout bounds a single journal write.
const recordTimeout = 3 * time.Second

// Entry is one journal row.
type Entry struct {
	ID     int64
	At     time.Time
	Kind   string
	Detail string
}

// Journal persists monitor events.
type Journal struct {
	db *database.DB
}

// New creates a journal over an opened database.
func New(db *database.DB) *Journal {
	return &Journal{db: db}
}

// Record appends one event.
func (j *Journal) Record(ctx context.Context, kind, detail string) error {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO journal (kind, detail) VALUES (?, ?)`,
		kind, detail,
	); err != nil {
		return fmt.Errorf("recording %s event: %w", kind, err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at, kind, detail FROM journal ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.At, &e.Kind, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading journal rows: %w", err)
	}
	return entries, nil
}

// CountSince returns how many events of one kind were recorded at or
// after the given time. Used by the checkup reply.
func (j *Journal) CountSince(ctx context.Context, kind string, since time.Time) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journal WHERE kind = ? AND at >= ?`,
		kind, since.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s events: %w", kind, err)
	}
	return n, nil
}
