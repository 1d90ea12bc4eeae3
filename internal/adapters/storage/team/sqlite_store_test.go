package team

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetdesk/internal/adapters/storage/storagetest"
	"meetdesk/internal/domain/event"
	domain "meetdesk/internal/domain/team"
)

func TestSQLiteStore_TeamMembership(t *testing.T) {
	db := storagetest.OpenMigrated(t)
	storagetest.Department(t, db, "cs", "CS")
	storagetest.Batch(t, db, "b", "2023-2027")
	storagetest.Participant(t, db, "a", "CS01", "male", "cs", "b")
	storagetest.Participant(t, db, "c", "CS02", "male", "cs", "b")
	storagetest.Program(t, db, "p", "meet", true)
	storagetest.Event(t, db, "relay", "p", "mixed", "team", 0, 0)
	storagetest.RosterEntry(t, db, "relay", "a", 0)

	store := NewSQLiteStore(db)
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"blue", "red"} {
		tm := domain.Team{ID: id, ProgramID: "p", EventID: "relay", Name: "Team " + id, DepartmentID: "cs", CreatedAt: now}
		if err := store.Save(ctx, tm); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	clash := domain.Team{ID: "x", ProgramID: "p", EventID: "relay", Name: "Team blue", CreatedAt: now}
	if err := store.Save(ctx, clash); !errors.Is(err, domain.ErrDuplicateName) {
		t.Errorf("duplicate name = %v", err)
	}

	if err := store.AddMember(ctx, "blue", "a"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := store.AddMember(ctx, "blue", "a"); err != nil {
		t.Errorf("re-adding to the same team should be a no-op: %v", err)
	}
	if err := store.AddMember(ctx, "red", "a"); !errors.Is(err, domain.ErrAlreadyInTeam) {
		t.Errorf("second team = %v", err)
	}
	if err := store.AddMember(ctx, "blue", "c"); !errors.Is(err, event.ErrNotOnRoster) {
		t.Errorf("unrostered member = %v", err)
	}
	if err := store.AddMember(ctx, "ghost", "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown team = %v", err)
	}

	members, err := store.Members(ctx, "blue")
	if err != nil || len(members) != 1 || members[0].RegisterNo != "CS01" {
		t.Errorf("Members = %+v, %v", members, err)
	}
	list, err := store.ListByEvent(ctx, "relay")
	if err != nil || len(list) != 2 || list[0].Members != 1 || list[0].DepartmentCode != "CS" {
		t.Errorf("ListByEvent = %+v, %v", list, err)
	}

	if err := store.Delete(ctx, "blue"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := storagetest.Count(t, db, "roster_entry", "team_id IS NULL"); n != 1 {
		t.Error("deleting a team must keep its members on the roster")
	}
	if err := store.RemoveMember(ctx, "red", "a"); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Errorf("RemoveMember non-member = %v", err)
	}
}
