package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// TimeLayout is the TEXT format every timestamp column uses. The fraction is
// fixed width so that string comparison in SQL orders timestamps correctly.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DateLayout is the TEXT format for date-only columns.
const DateLayout = "2006-01-02"

// Open opens the SQLite database at path with the pragmas every store relies on.
// PRE: path is a file path or ":memory:"
// POST: foreign keys on, WAL journal, 5s busy timeout, immediate write transactions
func Open(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Queryer is satisfied by SQLDB and *sql.Tx, so row helpers run inside or outside a transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Queryer = (*sql.Tx)(nil)
	_ Queryer = SQLDB(nil)
)

// WithTx runs fn inside a transaction, committing on nil and rolling back otherwise.
// PRE: fn uses only tx for database access
// POST: all of fn's writes are applied, or none are
func WithTx(ctx context.Context, db SQLDB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// FormatTime renders t for a TEXT column; the zero time becomes NULL.
func FormatTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(TimeLayout)
}

// FormatDate renders a date-only column; the zero time becomes NULL.
func FormatDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(DateLayout)
}

// ParseTime reads a timestamp written by FormatTime or by SQLite itself.
func ParseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		DateLayout,
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}

// NullTime parses a nullable timestamp column, yielding the zero time for NULL.
func NullTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, _ := ParseTime(ns.String)
	return t
}

// BoolInt maps a bool onto SQLite's integer booleans.
func BoolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func IsForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// NullString maps an empty string onto NULL for optional foreign keys.
func NullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// NotFound wraps sql.ErrNoRows as notFound so callers match a single sentinel.
func NotFound(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}
