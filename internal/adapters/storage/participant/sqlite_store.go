package participant

import (
	"context"
	"database/sql"
	"strings"

	"meetdesk/internal/adapters/storage"
	domain "meetdesk/internal/domain/participant"
)

const participantColumns = "p.id, p.register_no, p.name, p.email, p.phone, p.gender, p.department_id, p.batch_id, p.created_at, p.updated_at"

const upsertParticipant = `INSERT INTO participant (id, register_no, name, email, phone, gender, department_id, batch_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET register_no=excluded.register_no, name=excluded.name, email=excluded.email,
	phone=excluded.phone, gender=excluded.gender, department_id=excluded.department_id,
	batch_id=excluded.batch_id, updated_at=excluded.updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new participant store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a participant by ID.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Participant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+participantColumns+" FROM participant p WHERE p.id = ?", id)
	p, err := scanParticipant(row.Scan)
	if err != nil {
		return domain.Participant{}, storage.NotFound(err, domain.ErrNotFound)
	}
	return p, nil
}

// GetByRegisterNo retrieves a participant by register number.
func (s *SQLiteStore) GetByRegisterNo(ctx context.Context, registerNo string) (domain.Participant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+participantColumns+" FROM participant p WHERE p.register_no = ?",
		strings.ToUpper(strings.TrimSpace(registerNo)))
	p, err := scanParticipant(row.Scan)
	if err != nil {
		return domain.Participant{}, storage.NotFound(err, domain.ErrNotFound)
	}
	return p, nil
}

// Save inserts or updates a participant.
// PRE: p has been validated; department and batch exist
// POST: a clashing register number yields domain.ErrDuplicateRegister
func (s *SQLiteStore) Save(ctx context.Context, p domain.Participant) error {
	_, err := s.db.ExecContext(ctx, upsertParticipant, participantArgs(p)...)
	return translate(err)
}

// SaveMany upserts every participant in one transaction; any failure saves none.
func (s *SQLiteStore) SaveMany(ctx context.Context, ps []domain.Participant) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertParticipant)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range ps {
			if _, err := stmt.ExecContext(ctx, participantArgs(p)...); err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

// Delete removes a participant together with their roster entries, team
// memberships, requests and certificates.
// POST: either everything is removed or nothing is
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, table := range []string{"certificate", "participation_request", "roster_entry"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE participant_id = ?", id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM participant WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// List returns a page of participants matching filter.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]Row, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + participantColumns + `, d.code, d.name, b.name
		FROM participant p
		JOIN department d ON d.id = p.department_id
		JOIN batch b ON b.id = p.batch_id` + where + orderBy(filter) + " LIMIT ? OFFSET ?"
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var createdAt, updatedAt string
		err := rows.Scan(&r.ID, &r.RegisterNo, &r.Name, &r.Email, &r.Phone, &r.Gender,
			&r.DepartmentID, &r.BatchID, &createdAt, &updatedAt,
			&r.DepartmentCode, &r.DepartmentName, &r.BatchName)
		if err != nil {
			return nil, err
		}
		r.CreatedAt, _ = storage.ParseTime(createdAt)
		r.UpdatedAt, _ = storage.ParseTime(updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns how many participants match filter, ignoring paging.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := buildWhere(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM participant p"+where, args...).Scan(&n)
	return n, err
}

func buildWhere(f ListFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + q + "%"
		clauses = append(clauses, "(p.name LIKE ? OR p.register_no LIKE ? OR p.email LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.DepartmentID != "" {
		clauses = append(clauses, "p.department_id = ?")
		args = append(args, f.DepartmentID)
	}
	if f.BatchID != "" {
		clauses = append(clauses, "p.batch_id = ?")
		args = append(args, f.BatchID)
	}
	if f.Gender != "" {
		clauses = append(clauses, "p.gender = ?")
		args = append(args, f.Gender)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderBy(f ListFilter) string {
	col := "p.name COLLATE NOCASE"
	switch f.Sort {
	case "register_no":
		col = "p.register_no"
	case "created_at":
		col = "p.created_at"
	case "department":
		col = "d.code"
	}
	dir := " ASC"
	if f.Desc {
		dir = " DESC"
	}
	return " ORDER BY " + col + dir + ", p.register_no"
}

func participantArgs(p domain.Participant) []interface{} {
	return []interface{}{
		p.ID, p.RegisterNo, p.Name, p.Email, p.Phone, p.Gender, p.DepartmentID, p.BatchID,
		storage.FormatTime(p.CreatedAt), storage.FormatTime(p.UpdatedAt),
	}
}

func translate(err error) error {
	switch {
	case storage.IsUniqueViolation(err):
		return domain.ErrDuplicateRegister
	case storage.IsForeignKeyViolation(err):
		return domain.ErrMissingDepartment
	}
	return err
}

// scanParticipant extracts a Participant from a row scanner function.
func scanParticipant(scan func(dest ...interface{}) error) (domain.Participant, error) {
	var p domain.Participant
	var createdAt, updatedAt string
	err := scan(&p.ID, &p.RegisterNo, &p.Name, &p.Email, &p.Phone, &p.Gender,
		&p.DepartmentID, &p.BatchID, &createdAt, &updatedAt)
	if err != nil {
		return domain.Participant{}, err
	}
	p.CreatedAt, _ = storage.ParseTime(createdAt)
	p.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return p, nil
}
