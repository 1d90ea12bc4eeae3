package certificate

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"meetdesk/internal/adapters/storage"
	domain "meetdesk/internal/domain/certificate"
)

const certColumns = "c.id, c.serial, c.program_id, c.event_id, c.participant_id, c.kind, c.position, c.issued_at, c.issued_by"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new certificate store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a certificate by ID.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Certificate, error) {
	return getCert(ctx, s.db, "c.id = ?", id)
}

// GetBySerial retrieves a certificate by its printed serial.
func (s *SQLiteStore) GetBySerial(ctx context.Context, serial string) (domain.Certificate, error) {
	return getCert(ctx, s.db, "c.serial = ?", serial)
}

// Issue numbers and stores a certificate. A certificate already issued for the
// same participant, event and kind is returned unchanged with created = false.
// Winner certificates take their position from the roster entry.
// PRE: c carries ID, ProgramID, EventID, ParticipantID, Kind, IssuedAt
// POST: serials within a program increase: <prefix>-<year>-<seq>; a revoked
// serial is never handed out again
func (s *SQLiteStore) Issue(ctx context.Context, c domain.Certificate, serialPrefix string, year int) (domain.Certificate, bool, error) {
	var out domain.Certificate
	created := false
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := getCert(ctx, tx, "c.participant_id = ? AND c.event_id = ? AND c.kind = ?",
			c.ParticipantID, c.EventID, c.Kind)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		var position int
		err = tx.QueryRowContext(ctx, "SELECT position FROM roster_entry WHERE event_id = ? AND participant_id = ?",
			c.EventID, c.ParticipantID).Scan(&position)
		if err != nil {
			return storage.NotFound(err, domain.ErrNotOnRoster)
		}
		c.Position = 0
		if c.Kind == domain.KindWinner {
			c.Position = position
		}
		if err := c.Validate(); err != nil {
			return err
		}

		// the counter outlives revoked rows so a printed serial is never reissued
		var seq int
		if err := tx.QueryRowContext(ctx, `INSERT INTO certificate_seq (program_id, last_seq) VALUES (?, 1)
			ON CONFLICT(program_id) DO UPDATE SET last_seq = last_seq + 1
			RETURNING last_seq`, c.ProgramID).Scan(&seq); err != nil {
			return err
		}
		c.Serial = domain.FormatSerial(serialPrefix, year, seq)

		if _, err := tx.ExecContext(ctx, `INSERT INTO certificate (id, serial, seq, program_id, event_id, participant_id,
			kind, position, issued_at, issued_by) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Serial, seq, c.ProgramID, c.EventID, c.ParticipantID, c.Kind, c.Position,
			storage.FormatTime(c.IssuedAt), c.IssuedBy); err != nil {
			return err
		}
		out, created = c, true
		return nil
	})
	if err != nil {
		return domain.Certificate{}, false, err
	}
	return out, created, nil
}

// List returns certificates matching f ordered by serial.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]Row, error) {
	where, args := f.clauses()
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+certColumns+`,
		p.name, p.register_no, p.email, COALESCE(d.name, ''), e.name, g.name
		FROM certificate c
		JOIN participant p ON p.id = c.participant_id
		LEFT JOIN department d ON d.id = p.department_id
		JOIN event e ON e.id = c.event_id
		JOIN program g ON g.id = c.program_id`+where+`
		ORDER BY c.program_id, c.seq LIMIT ? OFFSET ?`, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		c, err := scanCert(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &row.ParticipantName, &row.RegisterNo, &row.Email,
				&row.DepartmentName, &row.EventName, &row.ProgramName)...)
		})
		if err != nil {
			return nil, err
		}
		row.Certificate = c
		out = append(out, row)
	}
	return out, rows.Err()
}

// Count returns the number of certificates matching f.
func (s *SQLiteStore) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args := f.clauses()
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM certificate c"+where, args...).Scan(&n)
	return n, err
}

// Delete revokes a certificate.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM certificate WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (f ListFilter) clauses() (string, []interface{}) {
	var conds []string
	var args []interface{}
	for _, c := range []struct{ col, v string }{
		{"c.program_id", f.ProgramID},
		{"c.event_id", f.EventID},
		{"c.participant_id", f.ParticipantID},
	} {
		if c.v != "" {
			conds = append(conds, c.col+" = ?")
			args = append(args, c.v)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func getCert(ctx context.Context, q storage.Queryer, where string, args ...interface{}) (domain.Certificate, error) {
	row := q.QueryRowContext(ctx, "SELECT "+certColumns+" FROM certificate c WHERE "+where, args...)
	c, err := scanCert(row.Scan)
	if err != nil {
		return domain.Certificate{}, storage.NotFound(err, domain.ErrNotFound)
	}
	return c, nil
}

func scanCert(scan func(dest ...interface{}) error) (domain.Certificate, error) {
	var c domain.Certificate
	var issuedAt string
	err := scan(&c.ID, &c.Serial, &c.ProgramID, &c.EventID, &c.ParticipantID, &c.Kind, &c.Position, &issuedAt, &c.IssuedBy)
	if err != nil {
		return domain.Certificate{}, err
	}
	c.IssuedAt, _ = storage.ParseTime(issuedAt)
	return c, nil
}
