package resource

import (
	"context"
	"database/sql"
	"strings"

	"meetdesk/internal/adapters/storage"
	domain "meetdesk/internal/domain/resource"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new resource store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetDepartment retrieves a department by ID.
// POST: Returns the entity or domain.ErrDepartmentAbsent
func (s *SQLiteStore) GetDepartment(ctx context.Context, id string) (domain.Department, error) {
	return s.getDepartment(ctx, "id = ?", id)
}

// GetDepartmentByCode retrieves a department by its code, case-insensitively.
func (s *SQLiteStore) GetDepartmentByCode(ctx context.Context, code string) (domain.Department, error) {
	return s.getDepartment(ctx, "code = ?", strings.ToUpper(strings.TrimSpace(code)))
}

func (s *SQLiteStore) getDepartment(ctx context.Context, where string, arg string) (domain.Department, error) {
	var d domain.Department
	var createdAt string
	err := s.db.QueryRowContext(ctx, "SELECT id, name, code, created_at FROM department WHERE "+where, arg).
		Scan(&d.ID, &d.Name, &d.Code, &createdAt)
	if err != nil {
		return domain.Department{}, storage.NotFound(err, domain.ErrDepartmentAbsent)
	}
	d.CreatedAt, _ = storage.ParseTime(createdAt)
	return d, nil
}

// SaveDepartment inserts or updates a department.
// PRE: d has been validated
// POST: a clashing code yields domain.ErrDuplicateCode
func (s *SQLiteStore) SaveDepartment(ctx context.Context, d domain.Department) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO department (id, name, code, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, code=excluded.code`,
		d.ID, d.Name, d.Code, storage.FormatTime(d.CreatedAt))
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateCode
	}
	return err
}

// DeleteDepartment removes a department that no participant references.
// POST: domain.ErrInUse if referenced, domain.ErrDepartmentAbsent if missing
func (s *SQLiteStore) DeleteDepartment(ctx context.Context, id string) error {
	return s.deleteUnreferenced(ctx, "department", "department_id", id, domain.ErrDepartmentAbsent)
}

// ListDepartments returns every department ordered by code.
func (s *SQLiteStore) ListDepartments(ctx context.Context) ([]DepartmentRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT d.id, d.name, d.code, d.created_at,
		(SELECT COUNT(*) FROM participant p WHERE p.department_id = d.id)
		FROM department d ORDER BY d.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DepartmentRow
	for rows.Next() {
		var r DepartmentRow
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Name, &r.Code, &createdAt, &r.Participants); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = storage.ParseTime(createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetBatch retrieves a batch by ID.
// POST: Returns the entity or domain.ErrBatchAbsent
func (s *SQLiteStore) GetBatch(ctx context.Context, id string) (domain.Batch, error) {
	return s.getBatch(ctx, "id = ?", id)
}

// GetBatchByName retrieves a batch by its name, case-insensitively.
func (s *SQLiteStore) GetBatchByName(ctx context.Context, name string) (domain.Batch, error) {
	return s.getBatch(ctx, "name = ? COLLATE NOCASE", strings.TrimSpace(name))
}

func (s *SQLiteStore) getBatch(ctx context.Context, where string, arg string) (domain.Batch, error) {
	var b domain.Batch
	var createdAt string
	err := s.db.QueryRowContext(ctx, "SELECT id, name, start_year, end_year, created_at FROM batch WHERE "+where, arg).
		Scan(&b.ID, &b.Name, &b.StartYear, &b.EndYear, &createdAt)
	if err != nil {
		return domain.Batch{}, storage.NotFound(err, domain.ErrBatchAbsent)
	}
	b.CreatedAt, _ = storage.ParseTime(createdAt)
	return b, nil
}

// SaveBatch inserts or updates a batch.
// PRE: b has been validated
// POST: a clashing name yields domain.ErrDuplicateBatch
func (s *SQLiteStore) SaveBatch(ctx context.Context, b domain.Batch) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO batch (id, name, start_year, end_year, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, start_year=excluded.start_year, end_year=excluded.end_year`,
		b.ID, b.Name, b.StartYear, b.EndYear, storage.FormatTime(b.CreatedAt))
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateBatch
	}
	return err
}

// DeleteBatch removes a batch that no participant references.
func (s *SQLiteStore) DeleteBatch(ctx context.Context, id string) error {
	return s.deleteUnreferenced(ctx, "batch", "batch_id", id, domain.ErrBatchAbsent)
}

// ListBatches returns every batch, newest intake first.
func (s *SQLiteStore) ListBatches(ctx context.Context) ([]BatchRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT b.id, b.name, b.start_year, b.end_year, b.created_at,
		(SELECT COUNT(*) FROM participant p WHERE p.batch_id = b.id)
		FROM batch b ORDER BY b.start_year DESC, b.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BatchRow
	for rows.Next() {
		var r BatchRow
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Name, &r.StartYear, &r.EndYear, &createdAt, &r.Participants); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = storage.ParseTime(createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// deleteUnreferenced checks the participant reference count and deletes in one transaction.
func (s *SQLiteStore) deleteUnreferenced(ctx context.Context, table, column, id string, notFound error) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var refs int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM participant WHERE "+column+" = ?", id).Scan(&refs); err != nil {
			return err
		}
		if refs > 0 {
			return domain.ErrInUse
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound
		}
		return nil
	})
}
