package team

import (
	"context"
	"database/sql"

	"meetdesk/internal/adapters/storage"
	"meetdesk/internal/domain/event"
	domain "meetdesk/internal/domain/team"
)

const teamColumns = "t.id, t.program_id, t.event_id, t.name, COALESCE(t.department_id, ''), t.created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new team store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a team by ID.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Team, error) {
	return getTeam(ctx, s.db, id)
}

// Save inserts or updates a team; only name and department change on update.
// POST: a name already used in the event yields domain.ErrDuplicateName
func (s *SQLiteStore) Save(ctx context.Context, t domain.Team) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO team (id, program_id, event_id, name, department_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, department_id=excluded.department_id`,
		t.ID, t.ProgramID, t.EventID, t.Name, storage.NullString(t.DepartmentID), storage.FormatTime(t.CreatedAt))
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateName
	}
	if storage.IsForeignKeyViolation(err) {
		return domain.ErrMissingEvent
	}
	return err
}

// Delete removes a team; its members stay on the event roster without a team.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE roster_entry SET team_id = NULL WHERE team_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM team WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// ListByEvent returns an event's teams ordered by name.
func (s *SQLiteStore) ListByEvent(ctx context.Context, eventID string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+teamColumns+`, COALESCE(d.code, ''),
		(SELECT COUNT(*) FROM roster_entry r WHERE r.team_id = t.id)
		FROM team t LEFT JOIN department d ON d.id = t.department_id
		WHERE t.event_id = ? ORDER BY t.name COLLATE NOCASE`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		t, err := scanTeam(func(dest ...interface{}) error {
			return rows.Scan(append(dest, &sm.DepartmentCode, &sm.Members)...)
		})
		if err != nil {
			return nil, err
		}
		sm.Team = t
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Members lists a team's members by name.
func (s *SQLiteStore) Members(ctx context.Context, teamID string) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT r.team_id, p.id, p.name, p.register_no
		FROM roster_entry r JOIN participant p ON p.id = r.participant_id
		WHERE r.team_id = ? ORDER BY p.name COLLATE NOCASE`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.TeamID, &m.ParticipantID, &m.Name, &m.RegisterNo); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddMember assigns a rostered participant to a team.
// PRE: the participant is on the roster of the team's event
// POST: event.ErrNotOnRoster when not rostered; domain.ErrAlreadyInTeam when in another team
func (s *SQLiteStore) AddMember(ctx context.Context, teamID, participantID string) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		t, err := getTeam(ctx, tx, teamID)
		if err != nil {
			return err
		}
		var current sql.NullString
		err = tx.QueryRowContext(ctx, "SELECT team_id FROM roster_entry WHERE event_id = ? AND participant_id = ?",
			t.EventID, participantID).Scan(&current)
		if err != nil {
			return storage.NotFound(err, event.ErrNotOnRoster)
		}
		if current.Valid && current.String != "" && current.String != teamID {
			return domain.ErrAlreadyInTeam
		}
		_, err = tx.ExecContext(ctx, "UPDATE roster_entry SET team_id = ? WHERE event_id = ? AND participant_id = ?",
			teamID, t.EventID, participantID)
		return err
	})
}

// RemoveMember unassigns a participant from a team, keeping the roster entry.
func (s *SQLiteStore) RemoveMember(ctx context.Context, teamID, participantID string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE roster_entry SET team_id = NULL WHERE team_id = ? AND participant_id = ?",
		teamID, participantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func getTeam(ctx context.Context, q storage.Queryer, id string) (domain.Team, error) {
	row := q.QueryRowContext(ctx, "SELECT "+teamColumns+" FROM team t WHERE t.id = ?", id)
	t, err := scanTeam(row.Scan)
	if err != nil {
		return domain.Team{}, storage.NotFound(err, domain.ErrNotFound)
	}
	return t, nil
}

func scanTeam(scan func(dest ...interface{}) error) (domain.Team, error) {
	var t domain.Team
	var createdAt string
	if err := scan(&t.ID, &t.ProgramID, &t.EventID, &t.Name, &t.DepartmentID, &createdAt); err != nil {
		return domain.Team{}, err
	}
	t.CreatedAt, _ = storage.ParseTime(createdAt)
	return t, nil
}
