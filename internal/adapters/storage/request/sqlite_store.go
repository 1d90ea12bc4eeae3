package request

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"meetdesk/internal/adapters/storage"
	eventstore "meetdesk/internal/adapters/storage/event"
	"meetdesk/internal/domain/event"
	domain "meetdesk/internal/domain/request"
)

const requestColumns = "q.id, q.program_id, q.event_id, q.participant_id, q.status, q.note, q.reason, q.submitted_at, q.decided_at, q.decided_by"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new request store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a request by ID.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Request, error) {
	return getRequest(ctx, s.db, id)
}

// Submit inserts a pending request after the duplicate, roster and per-program
// limit checks, all inside one transaction. maxPerProgram <= 0 disables the limit.
// PRE: r has been validated and r.Status is pending
func (s *SQLiteStore) Submit(ctx context.Context, r domain.Request, maxPerProgram int) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var live, onRoster, inProgram int
		err := tx.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM participation_request WHERE event_id = ? AND participant_id = ? AND status IN ('pending', 'approved')),
			(SELECT COUNT(*) FROM roster_entry WHERE event_id = ? AND participant_id = ?),
			(SELECT COUNT(*) FROM participation_request WHERE program_id = ? AND participant_id = ? AND status IN ('pending', 'approved'))`,
			r.EventID, r.ParticipantID, r.EventID, r.ParticipantID, r.ProgramID, r.ParticipantID).
			Scan(&live, &onRoster, &inProgram)
		if err != nil {
			return err
		}
		switch {
		case live > 0:
			return domain.ErrDuplicate
		case onRoster > 0:
			return event.ErrAlreadyOnRoster
		case maxPerProgram > 0 && inProgram >= maxPerProgram:
			return domain.ErrLimitReached
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO participation_request
			(id, program_id, event_id, participant_id, status, note, reason, submitted_at, decided_at, decided_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.ProgramID, r.EventID, r.ParticipantID, r.Status, r.Note, r.Reason,
			storage.FormatTime(r.SubmittedAt), storage.FormatTime(r.DecidedAt), r.DecidedBy)
		return err
	})
}

// List returns requests matching f, oldest first so the queue is worked in order.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]Row, error) {
	where, args := f.clauses()
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+requestColumns+`,
		p.name, p.register_no, p.email, COALESCE(d.code, ''), e.name, g.name
		FROM participation_request q
		JOIN participant p ON p.id = q.participant_id
		LEFT JOIN department d ON d.id = p.department_id
		JOIN event e ON e.id = q.event_id
		JOIN program g ON g.id = q.program_id`+where+`
		ORDER BY q.submitted_at, q.id LIMIT ? OFFSET ?`, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		r, err := scanRequest(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &row.ParticipantName, &row.RegisterNo, &row.Email,
				&row.DepartmentCode, &row.EventName, &row.ProgramName)...)
		})
		if err != nil {
			return nil, err
		}
		row.Request = r
		out = append(out, row)
	}
	return out, rows.Err()
}

// Count returns the number of requests matching f, ignoring paging.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args := f.clauses()
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM participation_request q"+where, args...).Scan(&n)
	return n, err
}

func (f ListFilter) clauses() (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(col, v string) {
		if v != "" {
			conds = append(conds, col+" = ?")
			args = append(args, v)
		}
	}
	add("q.status", f.Status)
	add("q.program_id", f.ProgramID)
	add("q.event_id", f.EventID)
	add("q.participant_id", f.ParticipantID)
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Approve marks a pending request approved and puts the participant on the
// event roster in one transaction. The status update is conditional, so of two
// concurrent approvals exactly one succeeds and the other gets domain.ErrNotPending.
// POST: on error nothing changed
func (s *SQLiteStore) Approve(ctx context.Context, id, by string, now time.Time) (domain.Request, error) {
	var out domain.Request
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := decide(ctx, tx, id, `UPDATE participation_request SET status = 'approved', decided_at = ?, decided_by = ?
			WHERE id = ? AND status = 'pending'`, storage.FormatTime(now), by, id); err != nil {
			return err
		}
		r, err := getRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		err = eventstore.Admit(ctx, tx, event.RosterEntry{
			EventID:       r.EventID,
			ParticipantID: r.ParticipantID,
			AddedAt:       now,
			AddedBy:       by,
		})
		if err != nil && !errors.Is(err, event.ErrAlreadyOnRoster) {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

// Reject marks a pending request rejected with a reason.
func (s *SQLiteStore) Reject(ctx context.Context, id, by, reason string, now time.Time) (domain.Request, error) {
	var out domain.Request
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := decide(ctx, tx, id, `UPDATE participation_request SET status = 'rejected', reason = ?, decided_at = ?, decided_by = ?
			WHERE id = ? AND status = 'pending'`, reason, storage.FormatTime(now), by, id); err != nil {
			return err
		}
		r, err := getRequest(ctx, tx, id)
		out = r
		return err
	})
	return out, err
}

// Withdraw cancels a pending or approved request. Withdrawing an approved
// request also removes the roster entry it created.
func (s *SQLiteStore) Withdraw(ctx context.Context, id string, now time.Time) (domain.Request, error) {
	var out domain.Request
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		r, err := getRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		wasApproved := r.Status == domain.StatusApproved
		if err := r.Withdraw(now); err != nil {
			return err
		}
		if err := decide(ctx, tx, id, `UPDATE participation_request SET status = 'withdrawn', decided_at = ?
			WHERE id = ? AND status IN ('pending', 'approved')`, storage.FormatTime(now), id); err != nil {
			return err
		}
		if wasApproved {
			if _, err := tx.ExecContext(ctx, "DELETE FROM roster_entry WHERE event_id = ? AND participant_id = ?",
				r.EventID, r.ParticipantID); err != nil {
				return err
			}
		}
		out = r
		return nil
	})
	return out, err
}

// decide runs a conditional status update and explains a zero-row result.
func decide(ctx context.Context, tx *sql.Tx, id, query string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM participation_request WHERE id = ?", id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrNotPending
}

func getRequest(ctx context.Context, q storage.Queryer, id string) (domain.Request, error) {
	row := q.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM participation_request q WHERE q.id = ?", id)
	r, err := scanRequest(row.Scan)
	if err != nil {
		return domain.Request{}, storage.NotFound(err, domain.ErrNotFound)
	}
	return r, nil
}

func scanRequest(scan func(dest ...interface{}) error) (domain.Request, error) {
	var r domain.Request
	var submittedAt string
	var decidedAt sql.NullString
	err := scan(&r.ID, &r.ProgramID, &r.EventID, &r.ParticipantID, &r.Status, &r.Note, &r.Reason,
		&submittedAt, &decidedAt, &r.DecidedBy)
	if err != nil {
		return domain.Request{}, err
	}
	r.SubmittedAt, _ = storage.ParseTime(submittedAt)
	r.DecidedAt = storage.NullTime(decidedAt)
	return r, nil
}
