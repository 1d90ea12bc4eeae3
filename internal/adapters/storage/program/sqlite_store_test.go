package program

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetdesk/internal/adapters/storage/storagetest"
	domain "meetdesk/internal/domain/program"
)

func TestSQLiteStore_SaveGetList(t *testing.T) {
	db := storagetest.OpenMigrated(t)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	p := domain.Program{
		ID: "p1", Name: "Sports Meet", Slug: "sports-meet-2026", Year: 2026, Venue: "Main Ground",
		StartDate:   time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC),
		Description: "# Welcome",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Slug != p.Slug || !got.StartDate.Equal(p.StartDate) || got.Description != "# Welcome" || got.Active {
		t.Errorf("got %+v", got)
	}

	dup := p
	dup.ID = "p2"
	if err := store.Save(ctx, dup); !errors.Is(err, domain.ErrDuplicateSlug) {
		t.Errorf("duplicate slug = %v", err)
	}

	storagetest.Event(t, db, "e1", "p1", "mixed", "individual", 0, 0)
	storagetest.Event(t, db, "e2", "p1", "mixed", "individual", 0, 0)
	list, err := store.List(ctx)
	if err != nil || len(list) != 1 || list[0].Events != 2 {
		t.Errorf("List = %+v, %v", list, err)
	}
}

func TestSQLiteStore_ActivateIsExclusive(t *testing.T) {
	db := storagetest.OpenMigrated(t)
	storagetest.Program(t, db, "a", "a", true)
	storagetest.Program(t, db, "b", "b", false)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	if err := store.Activate(ctx, "b"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	active, err := store.GetActive(ctx)
	if err != nil || active.ID != "b" {
		t.Fatalf("GetActive = %+v, %v", active, err)
	}
	if n := storagetest.Count(t, db, "program", "active = 1"); n != 1 {
		t.Errorf("active programs = %d", n)
	}
	if err := store.Activate(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Activate missing = %v", err)
	}
	if n := storagetest.Count(t, db, "program", "active = 1 AND id = 'b'"); n != 1 {
		t.Error("failed activation must not clear the current active program")
	}

	if err := store.Deactivate(ctx, "b"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := store.GetActive(ctx); !errors.Is(err, domain.ErrNoActiveProgram) {
		t.Errorf("GetActive after deactivate = %v", err)
	}
}

func TestSQLiteStore_DeleteCascade(t *testing.T) {
	db := storagetest.OpenMigrated(t)
	storagetest.Department(t, db, "cs", "CS")
	storagetest.Batch(t, db, "b", "2023-2027")
	storagetest.Participant(t, db, "s1", "R1", "male", "cs", "b")
	storagetest.Program(t, db, "keep", "keep", false)
	storagetest.Program(t, db, "gone", "gone", true)
	storagetest.Event(t, db, "e1", "gone", "mixed", "team", 0, 0)
	storagetest.Event(t, db, "e2", "keep", "mixed", "individual", 0, 0)
	storagetest.RosterEntry(t, db, "e1", "s1", 0)
	storagetest.RosterEntry(t, db, "e2", "s1", 0)
	storagetest.Request(t, db, "r1", "gone", "e1", "s1", "approved")
	if _, err := db.Exec(`INSERT INTO team (id, program_id, event_id, name, created_at) VALUES ('t1', 'gone', 'e1', 'Blue', ?)`, storagetest.Created); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO certificate (id, serial, seq, program_id, event_id, participant_id, kind, issued_at)
		VALUES ('c1', 'GONE-2026-000001', 1, 'gone', 'e1', 's1', 'participation', ?)`, storagetest.Created); err != nil {
		t.Fatal(err)
	}

	store := NewSQLiteStore(db)
	res, err := store.DeleteCascade(context.Background(), "gone")
	if err != nil {
		t.Fatalf("DeleteCascade: %v", err)
	}
	want := CascadeResult{Events: 1, RosterRows: 1, Teams: 1, Requests: 1, Certificates: 1}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}
	if n := storagetest.Count(t, db, "event", ""); n != 1 {
		t.Errorf("events left = %d, want 1", n)
	}
	if n := storagetest.Count(t, db, "roster_entry", ""); n != 1 {
		t.Errorf("roster rows left = %d, want 1", n)
	}
	if _, err := store.DeleteCascade(context.Background(), "gone"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete = %v", err)
	}
}
