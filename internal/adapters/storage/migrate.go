package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	stmts   string
}

// migrations are applied in order. Never edit a released migration; append a new one.
var migrations = []migration{
	{1, "core schema", `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		password_change_required INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS activation_token (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		used INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		FOREIGN KEY (account_id) REFERENCES account(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS department (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS batch (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		start_year INTEGER NOT NULL,
		end_year INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS participant (
		id TEXT PRIMARY KEY,
		register_no TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL,
		department_id TEXT NOT NULL,
		batch_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (department_id) REFERENCES department(id),
		FOREIGN KEY (batch_id) REFERENCES batch(id)
	);

	CREATE TABLE IF NOT EXISTS program (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		year INTEGER NOT NULL,
		venue TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS event (
		id TEXT PRIMARY KEY,
		program_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		gender TEXT NOT NULL,
		kind TEXT NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 0,
		max_per_department INTEGER NOT NULL DEFAULT 0,
		venue TEXT NOT NULL DEFAULT '',
		scheduled_at TEXT,
		status TEXT NOT NULL,
		registration_open INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (program_id) REFERENCES program(id)
	);

	CREATE TABLE IF NOT EXISTS team (
		id TEXT PRIMARY KEY,
		program_id TEXT NOT NULL,
		event_id TEXT NOT NULL,
		name TEXT NOT NULL,
		department_id TEXT,
		created_at TEXT NOT NULL,
		UNIQUE (event_id, name),
		FOREIGN KEY (program_id) REFERENCES program(id),
		FOREIGN KEY (event_id) REFERENCES event(id)
	);

	CREATE TABLE IF NOT EXISTS roster_entry (
		event_id TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		team_id TEXT,
		position INTEGER NOT NULL DEFAULT 0,
		result TEXT NOT NULL DEFAULT '',
		added_at TEXT NOT NULL,
		added_by TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (event_id, participant_id),
		FOREIGN KEY (event_id) REFERENCES event(id),
		FOREIGN KEY (participant_id) REFERENCES participant(id),
		FOREIGN KEY (team_id) REFERENCES team(id)
	);

	CREATE TABLE IF NOT EXISTS participation_request (
		id TEXT PRIMARY KEY,
		program_id TEXT NOT NULL,
		event_id TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		status TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		submitted_at TEXT NOT NULL,
		decided_at TEXT,
		decided_by TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (program_id) REFERENCES program(id),
		FOREIGN KEY (event_id) REFERENCES event(id),
		FOREIGN KEY (participant_id) REFERENCES participant(id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		meet_name TEXT NOT NULL,
		institution_name TEXT NOT NULL DEFAULT '',
		tagline TEXT NOT NULL DEFAULT '',
		primary_color TEXT NOT NULL,
		contact_email TEXT NOT NULL DEFAULT '',
		registration_open INTEGER NOT NULL DEFAULT 0,
		max_events_per_participant INTEGER NOT NULL,
		logo_key TEXT NOT NULL DEFAULT '',
		banner_key TEXT NOT NULL DEFAULT '',
		certificate_template_key TEXT NOT NULL DEFAULT '',
		signature_key TEXT NOT NULL DEFAULT '',
		signatory_name TEXT NOT NULL DEFAULT '',
		signatory_title TEXT NOT NULL DEFAULT '',
		certificate_layout TEXT NOT NULL DEFAULT '',
		updated_at TEXT,
		updated_by TEXT NOT NULL DEFAULT ''
	);
	`},
	{2, "single active program and lookup indexes", `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_program_single_active ON program(active) WHERE active = 1;
	CREATE INDEX IF NOT EXISTS idx_participant_department ON participant(department_id);
	CREATE INDEX IF NOT EXISTS idx_participant_batch ON participant(batch_id);
	CREATE INDEX IF NOT EXISTS idx_event_program ON event(program_id);
	CREATE INDEX IF NOT EXISTS idx_roster_participant ON roster_entry(participant_id);
	CREATE INDEX IF NOT EXISTS idx_request_status ON participation_request(status, submitted_at);
	CREATE INDEX IF NOT EXISTS idx_request_participant ON participation_request(participant_id, program_id);
	`},
	{3, "certificates", `
	CREATE TABLE IF NOT EXISTS certificate (
		id TEXT PRIMARY KEY,
		serial TEXT NOT NULL UNIQUE,
		seq INTEGER NOT NULL,
		program_id TEXT NOT NULL,
		event_id TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		issued_at TEXT NOT NULL,
		issued_by TEXT NOT NULL DEFAULT '',
		UNIQUE (participant_id, event_id, kind),
		UNIQUE (program_id, seq),
		FOREIGN KEY (program_id) REFERENCES program(id),
		FOREIGN KEY (event_id) REFERENCES event(id),
		FOREIGN KEY (participant_id) REFERENCES participant(id)
	);
	`},
	{4, "outbox and audit log", `
	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		channel TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		next_attempt_at TEXT,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_outbox_due ON outbox(status, next_attempt_at);

	CREATE TABLE IF NOT EXISTS audit_event (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		action TEXT NOT NULL,
		severity TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		actor_email TEXT NOT NULL DEFAULT '',
		actor_role TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		resource_type TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_event(timestamp);
	`},
	{5, "certificate serial counter", `
	CREATE TABLE IF NOT EXISTS certificate_seq (
		program_id TEXT PRIMARY KEY,
		last_seq INTEGER NOT NULL,
		FOREIGN KEY (program_id) REFERENCES program(id)
	);
	INSERT OR IGNORE INTO certificate_seq (program_id, last_seq)
		SELECT program_id, MAX(seq) FROM certificate GROUP BY program_id;
	`},
}

// LatestSchemaVersion is the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, 0 for an untracked database.
// PRE: db is a valid connection
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// A file database that already holds data is snapshotted with VACUUM INTO first.
// PRE: db is a valid connection; dbPath is the file it was opened from or ":memory:"
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if current > 0 && dbPath != "" && dbPath != ":memory:" {
		if err := backup(db, dbPath, current); err != nil {
			return err
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		slog.Info("schema_event", "event", "migration_applied", "version", m.version, "name", m.name)
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(m.stmts, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)",
		m.version, m.name, time.Now().UTC().Format(TimeLayout)); err != nil {
		return err
	}
	return tx.Commit()
}

func backup(db *sql.DB, dbPath string, version int) error {
	dest := fmt.Sprintf("%s.v%d.bak", dbPath, version)
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("backup before migration: %w", err)
	}
	slog.Info("schema_event", "event", "backup_written", "path", dest)
	return nil
}
