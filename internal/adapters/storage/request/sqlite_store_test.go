package request

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"meetdesk/internal/adapters/storage/storagetest"
	"meetdesk/internal/domain/event"
	domain "meetdesk/internal/domain/request"
)

var now = time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

func seedRequestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := storagetest.OpenMigrated(t)
	storagetest.Department(t, db, "cs", "CS")
	storagetest.Batch(t, db, "b", "2023-2027")
	storagetest.Participant(t, db, "s1", "CS01", "male", "cs", "b")
	storagetest.Participant(t, db, "s2", "CS02", "male", "cs", "b")
	storagetest.Program(t, db, "p", "meet", true)
	storagetest.Event(t, db, "solo", "p", "mixed", "individual", 1, 0)
	storagetest.Event(t, db, "open", "p", "mixed", "individual", 0, 0)
	storagetest.Event(t, db, "jump", "p", "mixed", "individual", 0, 0)
	return db
}

func pending(id, eventID, participantID string) domain.Request {
	return domain.Request{ID: id, ProgramID: "p", EventID: eventID, ParticipantID: participantID,
		Status: domain.StatusPending, SubmittedAt: now}
}

func TestSQLiteStore_Submit(t *testing.T) {
	db := seedRequestDB(t)
	storagetest.RosterEntry(t, db, "jump", "s2", 0)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	if err := store.Submit(ctx, pending("r1", "solo", "s1"), 2); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	tests := []struct {
		name string
		req  domain.Request
		max  int
		want error
	}{
		{"duplicate", pending("r2", "solo", "s1"), 2, domain.ErrDuplicate},
		{"already rostered", pending("r3", "jump", "s2"), 2, event.ErrAlreadyOnRoster},
		{"within limit", pending("r4", "open", "s1"), 2, nil},
		{"limit reached", pending("r5", "jump", "s1"), 2, domain.ErrLimitReached},
		{"no limit", pending("r6", "jump", "s1"), 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Submit(ctx, tt.req, tt.max); !errors.Is(err, tt.want) {
				t.Errorf("Submit = %v, want %v", err, tt.want)
			}
		})
	}

	rows, err := store.List(ctx, ListFilter{ParticipantID: "s1"})
	if err != nil || len(rows) != 3 {
		t.Fatalf("List = %d, %v", len(rows), err)
	}
	if rows[0].EventName == "" || rows[0].RegisterNo != "CS01" || rows[0].DepartmentCode != "CS" {
		t.Errorf("row not joined: %+v", rows[0])
	}
	if n, _ := store.Count(ctx, ListFilter{Status: domain.StatusPending, EventID: "solo"}); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestSQLiteStore_ApproveEnrollsOnce(t *testing.T) {
	db := seedRequestDB(t)
	storagetest.Request(t, db, "r1", "p", "open", "s1", domain.StatusPending)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Approve(ctx, "r1", "staff", now)
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrNotPending):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Errorf("ok = %d, conflicts = %d; want 1 and 1", ok, conflicts)
	}
	if n := storagetest.Count(t, db, "roster_entry", "event_id = 'open'"); n != 1 {
		t.Errorf("roster rows = %d, want 1", n)
	}

	r, err := store.GetByID(ctx, "r1")
	if err != nil || r.Status != domain.StatusApproved || r.DecidedBy != "staff" || !r.DecidedAt.Equal(now) {
		t.Errorf("request = %+v, %v", r, err)
	}
	if _, err := store.Approve(ctx, "missing", "staff", now); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("approve missing = %v", err)
	}
}

func TestSQLiteStore_ApproveRollsBackWhenFull(t *testing.T) {
	db := seedRequestDB(t)
	storagetest.Request(t, db, "r1", "p", "solo", "s1", domain.StatusPending)
	storagetest.Request(t, db, "r2", "p", "solo", "s2", domain.StatusPending)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	if _, err := store.Approve(ctx, "r1", "staff", now); err != nil {
		t.Fatalf("first approval: %v", err)
	}
	if _, err := store.Approve(ctx, "r2", "staff", now); !errors.Is(err, event.ErrEventFull) {
		t.Fatalf("second approval = %v, want ErrEventFull", err)
	}
	r2, _ := store.GetByID(ctx, "r2")
	if r2.Status != domain.StatusPending {
		t.Errorf("failed approval left status %q, want pending", r2.Status)
	}
}

func TestSQLiteStore_RejectAndWithdraw(t *testing.T) {
	db := seedRequestDB(t)
	storagetest.Request(t, db, "r1", "p", "open", "s1", domain.StatusPending)
	storagetest.Request(t, db, "r2", "p", "jump", "s1", domain.StatusPending)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	r, err := store.Reject(ctx, "r1", "staff", "heats are full", now)
	if err != nil || r.Status != domain.StatusRejected || r.Reason != "heats are full" {
		t.Fatalf("Reject = %+v, %v", r, err)
	}
	if _, err := store.Reject(ctx, "r1", "staff", "again", now); !errors.Is(err, domain.ErrNotPending) {
		t.Errorf("second reject = %v", err)
	}
	if _, err := store.Withdraw(ctx, "r1", now); !errors.Is(err, domain.ErrCannotWithdraw) {
		t.Errorf("withdraw rejected = %v", err)
	}

	if _, err := store.Approve(ctx, "r2", "staff", now); err != nil {
		t.Fatal(err)
	}
	w, err := store.Withdraw(ctx, "r2", now)
	if err != nil || w.Status != domain.StatusWithdrawn {
		t.Fatalf("Withdraw = %+v, %v", w, err)
	}
	if n := storagetest.Count(t, db, "roster_entry", "event_id = 'jump'"); n != 0 {
		t.Errorf("withdrawing an approved request should free the roster slot, rows = %d", n)
	}
}
