package program

import (
	"context"
	"database/sql"

	"meetdesk/internal/adapters/storage"
	domain "meetdesk/internal/domain/program"
)

const programColumns = "p.id, p.name, p.slug, p.year, p.venue, p.start_date, p.end_date, p.description, p.active, p.created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new program store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a program by ID.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Program, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+programColumns+" FROM program p WHERE p.id = ?", id)
	p, err := scanProgram(row.Scan)
	if err != nil {
		return domain.Program{}, storage.NotFound(err, domain.ErrNotFound)
	}
	return p, nil
}

// GetActive returns the single active program.
// POST: domain.ErrNoActiveProgram when none is active
func (s *SQLiteStore) GetActive(ctx context.Context) (domain.Program, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+programColumns+" FROM program p WHERE p.active = 1")
	p, err := scanProgram(row.Scan)
	if err != nil {
		return domain.Program{}, storage.NotFound(err, domain.ErrNoActiveProgram)
	}
	return p, nil
}

// Save inserts or updates a program. The active flag is only changed by Activate/Deactivate.
// PRE: p has been validated
// POST: a clashing slug yields domain.ErrDuplicateSlug
func (s *SQLiteStore) Save(ctx context.Context, p domain.Program) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO program (id, name, slug, year, venue, start_date, end_date, description, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, slug=excluded.slug, year=excluded.year, venue=excluded.venue,
		start_date=excluded.start_date, end_date=excluded.end_date, description=excluded.description`,
		p.ID, p.Name, p.Slug, p.Year, p.Venue,
		storage.FormatDate(p.StartDate), storage.FormatDate(p.EndDate), p.Description,
		storage.FormatTime(p.CreatedAt),
	)
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateSlug
	}
	return err
}

// List returns every program, newest first, with event and pending request counts.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+programColumns+`,
		(SELECT COUNT(*) FROM event e WHERE e.program_id = p.id),
		(SELECT COUNT(*) FROM participation_request r WHERE r.program_id = p.id AND r.status = 'pending')
		FROM program p ORDER BY p.start_date DESC, p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		var events, pending int
		p, err := scanProgram(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &events, &pending)...)
		})
		if err != nil {
			return nil, err
		}
		sm.Program, sm.Events, sm.PendingRequests = p, events, pending
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Activate makes id the only active program.
// POST: exactly one row has active = 1, or nothing changed
func (s *SQLiteStore) Activate(ctx context.Context, id string) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE program SET active = 0 WHERE active = 1 AND id != ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "UPDATE program SET active = 1 WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// Deactivate clears the active flag of id.
func (s *SQLiteStore) Deactivate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE program SET active = 0 WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteCascade removes a program with its events, rosters, teams, requests
// and certificates in one transaction.
// POST: either the program and all dependents are gone, or nothing changed
func (s *SQLiteStore) DeleteCascade(ctx context.Context, id string) (CascadeResult, error) {
	var res CascadeResult
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM program WHERE id = ?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrNotFound
		}

		steps := []struct {
			query string
			count *int64
		}{
			{"DELETE FROM certificate WHERE program_id = ?", &res.Certificates},
			{"DELETE FROM participation_request WHERE program_id = ?", &res.Requests},
			{"DELETE FROM roster_entry WHERE event_id IN (SELECT id FROM event WHERE program_id = ?)", &res.RosterRows},
			{"DELETE FROM team WHERE program_id = ?", &res.Teams},
			{"DELETE FROM event WHERE program_id = ?", &res.Events},
			{"DELETE FROM certificate_seq WHERE program_id = ?", nil},
			{"DELETE FROM program WHERE id = ?", nil},
		}
		for _, st := range steps {
			r, err := tx.ExecContext(ctx, st.query, id)
			if err != nil {
				return err
			}
			if st.count != nil {
				*st.count, _ = r.RowsAffected()
			}
		}
		return nil
	})
	if err != nil {
		return CascadeResult{}, err
	}
	return res, nil
}

// scanProgram extracts a Program from a row scanner function.
func scanProgram(scan func(dest ...interface{}) error) (domain.Program, error) {
	var p domain.Program
	var start, end, createdAt string
	var active int
	err := scan(&p.ID, &p.Name, &p.Slug, &p.Year, &p.Venue, &start, &end, &p.Description, &active, &createdAt)
	if err != nil {
		return domain.Program{}, err
	}
	p.StartDate, _ = storage.ParseTime(start)
	p.EndDate, _ = storage.ParseTime(end)
	p.CreatedAt, _ = storage.ParseTime(createdAt)
	p.Active = active == 1
	return p, nil
}
