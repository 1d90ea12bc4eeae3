package audit

import (
	"context"
	"strings"

	"meetdesk/internal/adapters/storage"
	domain "meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/domainerr"
)

// ErrNotFound is returned when an audit event does not exist.
var ErrNotFound = domainerr.NotFound("audit event not found")

const eventColumns = `id, timestamp, category, action, severity, actor_id, actor_email, actor_role,
	resource_id, resource_type, description, ip_address, user_agent, metadata`

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an audit event.
// PRE: event is valid
// POST: Event is persisted
func (s *SQLiteStore) Save(ctx context.Context, event domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_event (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, storage.FormatTime(event.Timestamp), string(event.Category), string(event.Action),
		string(event.Severity), event.ActorID, event.ActorEmail, event.ActorRole,
		event.ResourceID, event.ResourceType, event.Description, event.IPAddress, event.UserAgent, event.Metadata)
	return err
}

// List returns audit events with optional filtering.
// PRE: limit > 0
// POST: Returns events ordered by timestamp desc
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit, offset int) ([]domain.Event, error) {
	where, args := filter.clauses()
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM audit_event"+where+" ORDER BY timestamp DESC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count returns the number of events matching filter.
func (s *SQLiteStore) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := filter.clauses()
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_event"+where, args...).Scan(&n)
	return n, err
}

// GetByID retrieves a specific audit event.
// PRE: id is non-empty
// POST: Returns the event or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM audit_event WHERE id = ?", id)
	e, err := scanEvent(row.Scan)
	if err != nil {
		return domain.Event{}, storage.NotFound(err, ErrNotFound)
	}
	return e, nil
}

func (f Filter) clauses() (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		conds = append(conds, cond)
		args = append(args, v)
	}
	if f.Category != "" {
		add("category = ?", string(f.Category))
	}
	if f.Action != "" {
		add("action = ?", string(f.Action))
	}
	if f.Severity != "" {
		add("severity = ?", string(f.Severity))
	}
	if f.ActorID != "" {
		add("actor_id = ?", f.ActorID)
	}
	if f.ResourceID != "" {
		add("resource_id = ?", f.ResourceID)
	}
	if !f.From.IsZero() {
		add("timestamp >= ?", storage.FormatTime(f.From))
	}
	if !f.To.IsZero() {
		add("timestamp <= ?", storage.FormatTime(f.To))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanEvent extracts an Event from a row scanner function.
func scanEvent(scan func(dest ...interface{}) error) (domain.Event, error) {
	var e domain.Event
	var timestamp string
	err := scan(&e.ID, &timestamp, &e.Category, &e.Action, &e.Severity, &e.ActorID, &e.ActorEmail, &e.ActorRole,
		&e.ResourceID, &e.ResourceType, &e.Description, &e.IPAddress, &e.UserAgent, &e.Metadata)
	if err != nil {
		return domain.Event{}, err
	}
	e.Timestamp, _ = storage.ParseTime(timestamp)
	return e, nil
}
