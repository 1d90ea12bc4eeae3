package event

import (
	"context"
	"database/sql"

	"meetdesk/internal/adapters/storage"
	domain "meetdesk/internal/domain/event"
	"meetdesk/internal/domain/participant"
	"meetdesk/internal/domain/request"
)

const eventColumns = `e.id, e.program_id, e.name, e.category, e.gender, e.kind, e.capacity, e.max_per_department,
	e.venue, e.scheduled_at, e.status, e.registration_open, e.description, e.created_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an event by ID.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	return getEvent(ctx, s.db, id)
}

// Save inserts or updates an event.
// PRE: e has been validated
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO event (id, program_id, name, category, gender, kind, capacity,
		max_per_department, venue, scheduled_at, status, registration_open, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, category=excluded.category, gender=excluded.gender,
		kind=excluded.kind, capacity=excluded.capacity, max_per_department=excluded.max_per_department,
		venue=excluded.venue, scheduled_at=excluded.scheduled_at, status=excluded.status,
		registration_open=excluded.registration_open, description=excluded.description`,
		e.ID, e.ProgramID, e.Name, e.Category, e.Gender, e.Kind, e.Capacity, e.MaxPerDepartment,
		e.Venue, storage.FormatTime(e.ScheduledAt), e.Status, storage.BoolInt(e.RegistrationOpen),
		e.Description, storage.FormatTime(e.CreatedAt),
	)
	if storage.IsForeignKeyViolation(err) {
		return domain.ErrMissingProgram
	}
	return err
}

// Delete removes an event with its roster, teams, requests and certificates.
// POST: either everything is removed or nothing is
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, q := range []string{
			"DELETE FROM certificate WHERE event_id = ?",
			"DELETE FROM participation_request WHERE event_id = ?",
			"DELETE FROM roster_entry WHERE event_id = ?",
			"DELETE FROM team WHERE event_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM event WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// ListByProgram returns a program's events ordered by schedule, then name.
func (s *SQLiteStore) ListByProgram(ctx context.Context, programID string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+`,
		(SELECT COUNT(*) FROM roster_entry r WHERE r.event_id = e.id),
		(SELECT COUNT(*) FROM participation_request q WHERE q.event_id = e.id AND q.status = 'pending')
		FROM event e WHERE e.program_id = ?
		ORDER BY e.scheduled_at IS NULL, e.scheduled_at, e.name`, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		e, err := scanEvent(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &sm.RosterSize, &sm.PendingRequests)...)
		})
		if err != nil {
			return nil, err
		}
		sm.Event = e
		out = append(out, sm)
	}
	return out, rows.Err()
}

// RosterSize returns the number of roster entries of an event.
func (s *SQLiteStore) RosterSize(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM roster_entry WHERE event_id = ?", eventID).Scan(&n)
	return n, err
}

// Roster lists an event's entries, podium positions first, then by name.
func (s *SQLiteStore) Roster(ctx context.Context, eventID string) ([]RosterRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT r.event_id, r.participant_id, COALESCE(r.team_id, ''), r.position,
		r.result, r.added_at, r.added_by,
		p.name, p.register_no, p.email, p.gender, p.department_id, COALESCE(d.code, ''), COALESCE(b.name, ''),
		COALESCE(t.name, '')
		FROM roster_entry r
		JOIN participant p ON p.id = r.participant_id
		LEFT JOIN department d ON d.id = p.department_id
		LEFT JOIN batch b ON b.id = p.batch_id
		LEFT JOIN team t ON t.id = r.team_id
		WHERE r.event_id = ?
		ORDER BY r.position = 0, r.position, p.name COLLATE NOCASE`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RosterRow
	for rows.Next() {
		var row RosterRow
		var addedAt string
		if err := rows.Scan(&row.EventID, &row.ParticipantID, &row.TeamID, &row.Position,
			&row.Result, &addedAt, &row.AddedBy,
			&row.Name, &row.RegisterNo, &row.Email, &row.Gender, &row.DepartmentID, &row.DepartmentCode, &row.BatchName,
			&row.TeamName); err != nil {
			return nil, err
		}
		row.AddedAt, _ = storage.ParseTime(addedAt)
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetRosterEntry returns one roster entry.
// POST: domain.ErrNotOnRoster when absent
func (s *SQLiteStore) GetRosterEntry(ctx context.Context, eventID, participantID string) (domain.RosterEntry, error) {
	var e domain.RosterEntry
	var addedAt string
	err := s.db.QueryRowContext(ctx, `SELECT event_id, participant_id, COALESCE(team_id, ''), position, result, added_at, added_by
		FROM roster_entry WHERE event_id = ? AND participant_id = ?`, eventID, participantID).
		Scan(&e.EventID, &e.ParticipantID, &e.TeamID, &e.Position, &e.Result, &addedAt, &e.AddedBy)
	if err != nil {
		return domain.RosterEntry{}, storage.NotFound(err, domain.ErrNotOnRoster)
	}
	e.AddedAt, _ = storage.ParseTime(addedAt)
	return e, nil
}

// AddToRoster admits a participant to an event after checking capacity,
// department cap, gender and duplicates in the same transaction as the insert.
func (s *SQLiteStore) AddToRoster(ctx context.Context, entry domain.RosterEntry) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return Admit(ctx, tx, entry)
	})
}

// Admit checks admission rules and inserts the roster row inside tx.
// Request approval reuses it so the check and the insert share one transaction.
// PRE: tx holds the write lock (immediate transaction)
// POST: the row exists, or a domain error explains why not
func Admit(ctx context.Context, tx *sql.Tx, entry domain.RosterEntry) error {
	ev, err := getEvent(ctx, tx, entry.EventID)
	if err != nil {
		return err
	}

	var p participant.Participant
	err = tx.QueryRowContext(ctx, "SELECT id, gender, department_id FROM participant WHERE id = ?", entry.ParticipantID).
		Scan(&p.ID, &p.Gender, &p.DepartmentID)
	if err != nil {
		return storage.NotFound(err, participant.ErrNotFound)
	}

	var state domain.RosterState
	var mine int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN p.department_id = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN r.participant_id = ? THEN 1 ELSE 0 END), 0)
		FROM roster_entry r JOIN participant p ON p.id = r.participant_id
		WHERE r.event_id = ?`, p.DepartmentID, p.ID, ev.ID).Scan(&state.Size, &state.DepartmentCount, &mine)
	if err != nil {
		return err
	}
	state.AlreadyOnRoster = mine > 0

	if err := ev.CheckAdmission(p, state); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO roster_entry (event_id, participant_id, team_id, position, result, added_at, added_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.EventID, entry.ParticipantID, storage.NullString(entry.TeamID), entry.Position, entry.Result,
		storage.FormatTime(entry.AddedAt), entry.AddedBy)
	if storage.IsUniqueViolation(err) {
		return domain.ErrAlreadyOnRoster
	}
	return err
}

// RemoveFromRoster drops a participant from an event. An approved request for
// the same event is marked withdrawn so it no longer counts towards limits.
func (s *SQLiteStore) RemoveFromRoster(ctx context.Context, eventID, participantID string) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM roster_entry WHERE event_id = ? AND participant_id = ?", eventID, participantID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotOnRoster
		}
		_, err = tx.ExecContext(ctx, `UPDATE participation_request SET status = ?
			WHERE event_id = ? AND participant_id = ? AND status = ?`,
			request.StatusWithdrawn, eventID, participantID, request.StatusApproved)
		return err
	})
}

// SetResult records a position and result for a roster entry.
// INVARIANT: in individual events each podium position 1-3 is held by at most one entry
func (s *SQLiteStore) SetResult(ctx context.Context, eventID, participantID string, position int, result string) error {
	if err := domain.ValidateResult(position, result); err != nil {
		return err
	}
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ev, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if position > 0 && !ev.IsTeamEvent() {
			var taken int
			err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM roster_entry
				WHERE event_id = ? AND position = ? AND participant_id != ?`, eventID, position, participantID).Scan(&taken)
			if err != nil {
				return err
			}
			if taken > 0 {
				return domain.ErrPositionTaken
			}
		}
		res, err := tx.ExecContext(ctx, "UPDATE roster_entry SET position = ?, result = ? WHERE event_id = ? AND participant_id = ?",
			position, result, eventID, participantID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotOnRoster
		}
		return nil
	})
}

func getEvent(ctx context.Context, q storage.Queryer, id string) (domain.Event, error) {
	row := q.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM event e WHERE e.id = ?", id)
	e, err := scanEvent(row.Scan)
	if err != nil {
		return domain.Event{}, storage.NotFound(err, domain.ErrNotFound)
	}
	return e, nil
}

// scanEvent extracts an Event from a row scanner function.
func scanEvent(scan func(dest ...interface{}) error) (domain.Event, error) {
	var e domain.Event
	var scheduledAt sql.NullString
	var createdAt string
	var open int
	err := scan(&e.ID, &e.ProgramID, &e.Name, &e.Category, &e.Gender, &e.Kind, &e.Capacity, &e.MaxPerDepartment,
		&e.Venue, &scheduledAt, &e.Status, &open, &e.Description, &createdAt)
	if err != nil {
		return domain.Event{}, err
	}
	e.ScheduledAt = storage.NullTime(scheduledAt)
	e.RegistrationOpen = open == 1
	e.CreatedAt, _ = storage.ParseTime(createdAt)
	return e, nil
}
