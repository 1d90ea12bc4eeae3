package outbox

import (
	"context"
	"database/sql"
	"time"

	"meetdesk/internal/adapters/storage"
	domain "meetdesk/internal/domain/outbox"
)

const entryColumns = `id, channel, payload, status, attempts, max_attempts, next_attempt_at, last_attempted_at,
	created_at, external_id, error_message`

// SQLiteStore implements the outbox Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an outbox entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM outbox WHERE id = ?", id)
	e, err := scanEntry(row.Scan)
	if err != nil {
		return domain.Entry{}, storage.NotFound(err, domain.ErrNotFound)
	}
	return e, nil
}

// Save persists an outbox entry to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
		   next_attempt_at=excluded.next_attempt_at, last_attempted_at=excluded.last_attempted_at,
		   external_id=excluded.external_id, error_message=excluded.error_message`,
		e.ID, e.Channel, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		storage.FormatTime(e.NextAttemptAt), storage.FormatTime(e.LastAttemptedAt),
		storage.FormatTime(e.CreatedAt), e.ExternalID, e.ErrorMessage)
	return err
}

// Claim reserves e for a delivery attempt with a conditional update.
// POST: domain.ErrClaimed when status or attempts changed since e was read
func (s *SQLiteStore) Claim(ctx context.Context, e domain.Entry, leaseUntil time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET attempts = attempts + 1, next_attempt_at = ?
		 WHERE id = ? AND status = ? AND attempts = ?`,
		storage.FormatTime(leaseUntil), e.ID, e.Status, e.Attempts)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrClaimed
	}
	return nil
}

// ListDue returns entries ready for another delivery attempt.
// PRE: limit > 0
func (s *SQLiteStore) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+` FROM outbox
		 WHERE status IN (?, ?) AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
		 ORDER BY created_at ASC LIMIT ?`,
		domain.StatusPending, domain.StatusRetrying, storage.FormatTime(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListByStatus returns entries in status, most recently attempted first.
// PRE: limit > 0
func (s *SQLiteStore) ListByStatus(ctx context.Context, status string, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+` FROM outbox WHERE status = ?
		 ORDER BY last_attempted_at DESC, created_at DESC LIMIT ?`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// CountByStatus returns entry counts keyed by status.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM outbox GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// PurgeDone deletes delivered entries created before cutoff.
func (s *SQLiteStore) PurgeDone(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM outbox WHERE status = ? AND created_at < ?",
		domain.StatusDone, storage.FormatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scanEntry extracts an Entry from a row scanner function.
func scanEntry(scan func(dest ...interface{}) error) (domain.Entry, error) {
	var e domain.Entry
	var createdAt string
	var nextAttemptAt, lastAttemptedAt sql.NullString
	err := scan(&e.ID, &e.Channel, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&nextAttemptAt, &lastAttemptedAt, &createdAt, &e.ExternalID, &e.ErrorMessage)
	if err != nil {
		return domain.Entry{}, err
	}
	e.CreatedAt, _ = storage.ParseTime(createdAt)
	e.NextAttemptAt = storage.NullTime(nextAttemptAt)
	e.LastAttemptedAt = storage.NullTime(lastAttemptedAt)
	return e, nil
}

// scanEntries scans multiple rows into a slice of Entries.
func scanEntries(rows *sql.Rows) ([]domain.Entry, error) {
	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
