package account

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"meetdesk/internal/adapters/storage"
	domain "meetdesk/internal/domain/account"
)

const accountColumns = "id, email, name, password_hash, role, status, created_at, failed_logins, locked_until, password_change_required"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE id = ?", id)
	entity, err := scanAccount(row.Scan)
	if err != nil {
		return domain.Account{}, storage.NotFound(err, domain.ErrNotFound)
	}
	return entity, nil
}

// GetByEmail retrieves an Account by email, case-insensitively.
// PRE: email is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE email = ?", domain.NormalizeEmail(email))
	entity, err := scanAccount(row.Scan)
	if err != nil {
		return domain.Account{}, storage.NotFound(err, domain.ErrNotFound)
	}
	return entity, nil
}

// Save persists an Account (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted; a clashing email yields domain.ErrEmailTaken
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	return saveAccount(ctx, s.db, entity)
}

// SaveRetainingAdmin saves entity unless that would leave no active admin.
// The write and the admin count share one transaction.
// POST: domain.ErrLastAdmin and nothing changed if no active admin would remain
func (s *SQLiteStore) SaveRetainingAdmin(ctx context.Context, entity domain.Account) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := saveAccount(ctx, tx, entity); err != nil {
			return err
		}
		return requireActiveAdmin(ctx, tx)
	})
}

// DeleteRetainingAdmin deletes an account unless it is the last active admin.
// POST: domain.ErrLastAdmin and nothing changed if no active admin would remain
func (s *SQLiteStore) DeleteRetainingAdmin(ctx context.Context, id string) error {
	return storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := deleteAccount(ctx, tx, id); err != nil {
			return err
		}
		return requireActiveAdmin(ctx, tx)
	})
}

func requireActiveAdmin(ctx context.Context, q storage.Queryer) error {
	n, err := countActiveAdmins(ctx, q)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrLastAdmin
	}
	return nil
}

func saveAccount(ctx context.Context, q storage.Queryer, entity domain.Account) error {
	updates := []string{
		"email=excluded.email",
		"name=excluded.name",
		"password_hash=excluded.password_hash",
		"role=excluded.role",
		"status=excluded.status",
		"failed_logins=excluded.failed_logins",
		"locked_until=excluded.locked_until",
		"password_change_required=excluded.password_change_required",
	}
	query := fmt.Sprintf(
		"INSERT INTO account (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO UPDATE SET %s",
		accountColumns, strings.Join(updates, ", "),
	)
	_, err := q.ExecContext(ctx, query,
		entity.ID,
		domain.NormalizeEmail(entity.Email),
		entity.Name,
		entity.PasswordHash,
		entity.Role,
		entity.Status,
		storage.FormatTime(entity.CreatedAt),
		entity.FailedLogins,
		storage.FormatTime(entity.LockedUntil),
		storage.BoolInt(entity.PasswordChangeRequired),
	)
	if storage.IsUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

// Delete removes an Account and, through the foreign key, its tokens.
// PRE: id is non-empty
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return deleteAccount(ctx, s.db, id)
}

func deleteAccount(ctx context.Context, q storage.Queryer, id string) error {
	res, err := q.ExecContext(ctx, "DELETE FROM account WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List retrieves Accounts based on the filter, oldest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Account, error) {
	var qb strings.Builder
	var where []string
	var args []interface{}

	qb.WriteString("SELECT " + accountColumns + " FROM account")
	if filter.Role != "" {
		where = append(where, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if len(where) > 0 {
		qb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	qb.WriteString(" ORDER BY created_at, email LIMIT ? OFFSET ?")
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Account
	for rows.Next() {
		entity, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the total number of accounts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&count)
	return count, err
}

// CountActiveAdmins returns how many admins can currently sign in.
func (s *SQLiteStore) CountActiveAdmins(ctx context.Context) (int, error) {
	return countActiveAdmins(ctx, s.db)
}

func countActiveAdmins(ctx context.Context, q storage.Queryer) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM account WHERE role = ? AND status = ?",
		domain.RoleAdmin, domain.StatusActive,
	).Scan(&count)
	return count, err
}

// SaveActivationToken persists a token (insert or update).
func (s *SQLiteStore) SaveActivationToken(ctx context.Context, token domain.ActivationToken) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO activation_token (id, account_id, token, expires_at, used, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET used=excluded.used, expires_at=excluded.expires_at`,
		token.ID, token.AccountID, token.Token,
		storage.FormatTime(token.ExpiresAt), storage.BoolInt(token.Used), storage.FormatTime(token.CreatedAt),
	)
	return err
}

// GetActivationTokenByToken looks a token up by its secret value.
// POST: Returns the token or domain.ErrTokenInvalid
func (s *SQLiteStore) GetActivationTokenByToken(ctx context.Context, token string) (domain.ActivationToken, error) {
	var t domain.ActivationToken
	var expiresAt, createdAt string
	var used int
	err := s.db.QueryRowContext(ctx,
		"SELECT id, account_id, token, expires_at, used, created_at FROM activation_token WHERE token = ?", token,
	).Scan(&t.ID, &t.AccountID, &t.Token, &expiresAt, &used, &createdAt)
	if err != nil {
		return domain.ActivationToken{}, storage.NotFound(err, domain.ErrTokenInvalid)
	}
	t.ExpiresAt, _ = storage.ParseTime(expiresAt)
	t.CreatedAt, _ = storage.ParseTime(createdAt)
	t.Used = used == 1
	return t, nil
}

// InvalidateTokensForAccount marks every outstanding token of the account as used.
func (s *SQLiteStore) InvalidateTokensForAccount(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE activation_token SET used = 1 WHERE account_id = ? AND used = 0", accountID)
	return err
}

// scanAccount extracts an Account from a row scanner function.
func scanAccount(scan func(dest ...interface{}) error) (domain.Account, error) {
	var entity domain.Account
	var createdAt string
	var lockedUntil sql.NullString
	var changeRequired int
	err := scan(
		&entity.ID,
		&entity.Email,
		&entity.Name,
		&entity.PasswordHash,
		&entity.Role,
		&entity.Status,
		&createdAt,
		&entity.FailedLogins,
		&lockedUntil,
		&changeRequired,
	)
	if err != nil {
		return domain.Account{}, err
	}
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	entity.LockedUntil = storage.NullTime(lockedUntil)
	entity.PasswordChangeRequired = changeRequired == 1
	return entity, nil
}
