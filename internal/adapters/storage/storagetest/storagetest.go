// Package storagetest provides a migrated in-memory database and row fixtures
// for store tests.
package storagetest

import (
	"database/sql"
	"testing"

	"meetdesk/internal/adapters/storage"
)

// Created is the created_at value every fixture row uses.
const Created = "2026-01-05T08:00:00Z"

// OpenMigrated returns an in-memory database with every migration applied.
func OpenMigrated(t testing.TB) *sql.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func mustExec(t testing.TB, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("fixture %q: %v", query, err)
	}
}

// Department inserts a department row.
func Department(t testing.TB, db *sql.DB, id, code string) {
	t.Helper()
	mustExec(t, db, "INSERT INTO department (id, name, code, created_at) VALUES (?, ?, ?, ?)", id, code+" Dept", code, Created)
}

// Batch inserts a batch row.
func Batch(t testing.TB, db *sql.DB, id, name string) {
	t.Helper()
	mustExec(t, db, "INSERT INTO batch (id, name, start_year, end_year, created_at) VALUES (?, ?, 2023, 2027, ?)", id, name, Created)
}

// Participant inserts a participant row.
func Participant(t testing.TB, db *sql.DB, id, registerNo, gender, departmentID, batchID string) {
	t.Helper()
	mustExec(t, db, `INSERT INTO participant (id, register_no, name, email, gender, department_id, batch_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, registerNo, "Student "+registerNo, id+"@college.edu", gender, departmentID, batchID, Created, Created)
}

// Program inserts a program row.
func Program(t testing.TB, db *sql.DB, id, slug string, active bool) {
	t.Helper()
	mustExec(t, db, `INSERT INTO program (id, name, slug, year, start_date, end_date, active, created_at)
		VALUES (?, ?, ?, 2026, '2026-02-10', '2026-02-12', ?, ?)`,
		id, "Program "+slug, slug, storage.BoolInt(active), Created)
}

// Event inserts an open, scheduled event row.
func Event(t testing.TB, db *sql.DB, id, programID, gender, kind string, capacity, maxPerDept int) {
	t.Helper()
	mustExec(t, db, `INSERT INTO event (id, program_id, name, category, gender, kind, capacity, max_per_department, status, registration_open, created_at)
		VALUES (?, ?, ?, 'track', ?, ?, ?, ?, 'scheduled', 1, ?)`,
		id, programID, "Event "+id, gender, kind, capacity, maxPerDept, Created)
}

// RosterEntry inserts a roster row.
func RosterEntry(t testing.TB, db *sql.DB, eventID, participantID string, position int) {
	t.Helper()
	mustExec(t, db, "INSERT INTO roster_entry (event_id, participant_id, position, added_at) VALUES (?, ?, ?, ?)",
		eventID, participantID, position, Created)
}

// Request inserts a participation request row.
func Request(t testing.TB, db *sql.DB, id, programID, eventID, participantID, status string) {
	t.Helper()
	mustExec(t, db, `INSERT INTO participation_request (id, program_id, event_id, participant_id, status, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)`, id, programID, eventID, participantID, status, Created)
}

// Count returns SELECT COUNT(*) FROM table [WHERE where].
func Count(t testing.TB, db *sql.DB, table, where string, args ...interface{}) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
