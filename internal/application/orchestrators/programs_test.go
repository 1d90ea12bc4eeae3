package orchestrators

import (
	"context"
	"errors"
	"testing"

	programStore "meetdesk/internal/adapters/storage/program"
	"meetdesk/internal/adapters/storage/storagetest"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/program"
)

func TestSaveProgram(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenMigrated(t)
	storagetest.Program(t, db, "prog-old", "annual-meet-2025", false)
	deps := ProgramDeps{Store: programStore.NewSQLiteStore(db), Audit: &memAudit{}, GenerateID: sequentialIDs("prog"), Now: fixedNow}

	p, err := ExecuteSaveProgram(ctx, ProgramInput{
		Actor: admin, Name: "  Sports Meet 2026 ", StartDate: "2026-02-10", EndDate: "2026-02-12",
	}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Slug != "sports-meet-2026" || p.Year != 2026 || p.Active {
		t.Errorf("created = %+v", p)
	}

	tests := []struct {
		name    string
		input   ProgramInput
		wantErr error
	}{
		{"duplicate slug", ProgramInput{Name: "Annual Meet", Slug: "annual-meet-2025", StartDate: "2026-01-01", EndDate: "2026-01-02"}, program.ErrDuplicateSlug},
		{"date order", ProgramInput{Name: "Backwards", StartDate: "2026-03-02", EndDate: "2026-03-01"}, program.ErrDateOrder},
		{"missing dates", ProgramInput{Name: "Undated"}, program.ErrMissingDates},
		{"bad slug", ProgramInput{Name: "X", Slug: "Not A Slug", StartDate: "2026-01-01", EndDate: "2026-01-01"}, program.ErrInvalidSlug},
		{"update missing", ProgramInput{ID: "ghost", Name: "X", StartDate: "2026-01-01", EndDate: "2026-01-01"}, program.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExecuteSaveProgram(ctx, tt.input, deps); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := ExecuteSaveProgram(ctx, ProgramInput{Name: "X", StartDate: "10/02/2026", EndDate: "2026-02-12"}, deps); err == nil {
		t.Error("non-ISO date accepted")
	}

	updated, err := ExecuteSaveProgram(ctx, ProgramInput{
		Actor: admin, ID: p.ID, Name: "Sports Meet 2026", Slug: p.Slug, Venue: "Main Ground",
		StartDate: "2026-02-10", EndDate: "2026-02-13",
	}, deps)
	if err != nil || updated.Venue != "Main Ground" || updated.EndDate.Day() != 13 {
		t.Fatalf("update = %+v, %v", updated, err)
	}
}

func TestActivateProgram_SingleActive(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenMigrated(t)
	storagetest.Program(t, db, "p1", "one", true)
	storagetest.Program(t, db, "p2", "two", false)
	deps := ProgramDeps{Store: programStore.NewSQLiteStore(db), Audit: &memAudit{}, GenerateID: sequentialIDs("prog"), Now: fixedNow}

	p, err := ExecuteActivateProgram(ctx, admin, "p2", deps)
	if err != nil || !p.Active {
		t.Fatalf("activate p2 = %+v, %v", p, err)
	}
	if n := storagetest.Count(t, db, "program", "active = 1"); n != 1 {
		t.Errorf("active programs = %d, want 1", n)
	}
	active, err := deps.Store.GetActive(ctx)
	if err != nil || active.ID != "p2" {
		t.Errorf("GetActive = %s, %v", active.ID, err)
	}

	if _, err := ExecuteActivateProgram(ctx, admin, "ghost", deps); !errors.Is(err, program.ErrNotFound) {
		t.Errorf("activate ghost err = %v", err)
	}
	if n := storagetest.Count(t, db, "program", "active = 1 AND id = 'p2'"); n != 1 {
		t.Error("failed activation must not clear the active program")
	}

	if err := ExecuteDeactivateProgram(ctx, admin, "p2", deps); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := deps.Store.GetActive(ctx); !errors.Is(err, program.ErrNoActiveProgram) {
		t.Errorf("GetActive after deactivate err = %v", err)
	}
}

func TestDeleteProgram_Cascade(t *testing.T) {
	ctx := context.Background()
	db := storagetest.OpenMigrated(t)
	storagetest.Department(t, db, "d-cs", "CS")
	storagetest.Batch(t, db, "b-23", "2023-2027")
	storagetest.Participant(t, db, "s1", "23CS001", "male", "d-cs", "b-23")
	storagetest.Participant(t, db, "s2", "23CS002", "male", "d-cs", "b-23")
	storagetest.Program(t, db, "p1", "one", true)
	storagetest.Program(t, db, "p2", "two", false)
	storagetest.Event(t, db, "e1", "p1", "mixed", "individual", 0, 0)
	storagetest.Event(t, db, "e2", "p1", "mixed", "individual", 0, 0)
	storagetest.Event(t, db, "e3", "p2", "mixed", "individual", 0, 0)
	storagetest.RosterEntry(t, db, "e1", "s1", 1)
	storagetest.RosterEntry(t, db, "e3", "s2", 0)
	storagetest.Request(t, db, "r1", "p1", "e1", "s1", "approved")
	storagetest.Request(t, db, "r2", "p1", "e2", "s2", "pending")
	au := &memAudit{}
	deps := ProgramDeps{Store: programStore.NewSQLiteStore(db), Audit: au, GenerateID: sequentialIDs("prog"), Now: fixedNow}

	res, err := ExecuteDeleteProgram(ctx, admin, "p1", deps)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := programStore.CascadeResult{Events: 2, RosterRows: 1, Requests: 2}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}
	if n := storagetest.Count(t, db, "event", ""); n != 1 {
		t.Errorf("events left = %d, want 1", n)
	}
	if n := storagetest.Count(t, db, "roster_entry", ""); n != 1 {
		t.Errorf("roster rows left = %d, want 1", n)
	}
	if len(au.events) != 1 || au.events[0].Severity != audit.SeverityCritical {
		t.Errorf("audit = %+v", au.events)
	}

	if _, err := ExecuteDeleteProgram(ctx, admin, "p1", deps); !errors.Is(err, program.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}
