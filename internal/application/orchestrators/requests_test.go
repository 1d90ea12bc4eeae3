package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	eventStore "meetdesk/internal/adapters/storage/event"
	participantStore "meetdesk/internal/adapters/storage/participant"
	programStore "meetdesk/internal/adapters/storage/program"
	requestStore "meetdesk/internal/adapters/storage/request"
	"meetdesk/internal/adapters/storage/storagetest"
	"meetdesk/internal/domain/event"
	"meetdesk/internal/domain/outbox"
	"meetdesk/internal/domain/request"
	"meetdesk/internal/domain/settings"
)

func requestFixture(t *testing.T) (*sql.DB, RequestDeps, *memOutbox, *memSettings) {
	t.Helper()
	db := storagetest.OpenMigrated(t)
	storagetest.Department(t, db, "d-cs", "CS")
	storagetest.Department(t, db, "d-me", "ME")
	storagetest.Batch(t, db, "b-23", "2023-2027")
	storagetest.Participant(t, db, "s1", "23CS001", "male", "d-cs", "b-23")
	storagetest.Participant(t, db, "s3", "23ME001", "female", "d-me", "b-23")
	storagetest.Participant(t, db, "s4", "23ME002", "male", "d-me", "b-23")
	storagetest.Program(t, db, "p1", "one", true)
	storagetest.Program(t, db, "p2", "two", false)
	storagetest.Event(t, db, "e-men", "p1", "male", "individual", 1, 0)
	storagetest.Event(t, db, "e-mixed", "p1", "mixed", "individual", 0, 0)
	storagetest.Event(t, db, "e-relay", "p1", "mixed", "team", 0, 0)
	storagetest.Event(t, db, "e-old", "p2", "mixed", "individual", 0, 0)
	storagetest.Event(t, db, "e-shut", "p1", "mixed", "individual", 0, 0)
	if _, err := db.Exec("UPDATE event SET registration_open = 0 WHERE id = 'e-shut'"); err != nil {
		t.Fatal(err)
	}

	st := settings.Default()
	st.RegistrationOpen = true
	st.MaxEventsPerParticipant = 2
	ms := &memSettings{s: st}
	ob := &memOutbox{}
	return db, RequestDeps{
		Store:        requestStore.NewSQLiteStore(db),
		Participants: participantStore.NewSQLiteStore(db),
		Events:       eventStore.NewSQLiteStore(db),
		Programs:     programStore.NewSQLiteStore(db),
		Settings:     ms,
		Audit:        &memAudit{},
		Mailer:       testMailer(ob),
		GenerateID:   sequentialIDs("req"),
		Now:          fixedNow,
	}, ob, ms
}

func TestSubmitRequest(t *testing.T) {
	ctx := context.Background()
	db, deps, ob, ms := requestFixture(t)
	s1 := Identity{RegisterNo: "23cs001", Email: " S1@College.edu "}

	r, err := ExecuteSubmitRequest(ctx, SubmitRequestInput{Identity: s1, EventID: "e-men", Note: " fast "}, deps)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if r.Status != request.StatusPending || r.ProgramID != "p1" || r.Note != "fast" {
		t.Errorf("request = %+v", r)
	}
	if ob.count(outbox.ChannelTelegram) != 1 {
		t.Errorf("telegram alerts = %d, want 1", ob.count(outbox.ChannelTelegram))
	}

	tests := []struct {
		name    string
		input   SubmitRequestInput
		wantErr error
	}{
		{"wrong email", SubmitRequestInput{Identity: Identity{RegisterNo: "23CS001", Email: "other@college.edu"}, EventID: "e-mixed"}, request.ErrIdentityMismatch},
		{"unknown register", SubmitRequestInput{Identity: Identity{RegisterNo: "99XX999", Email: "s1@college.edu"}, EventID: "e-mixed"}, request.ErrIdentityMismatch},
		{"blank identity", SubmitRequestInput{EventID: "e-mixed"}, request.ErrIdentityMismatch},
		{"inactive program", SubmitRequestInput{Identity: s1, EventID: "e-old"}, request.ErrRegistrationClosed},
		{"event closed", SubmitRequestInput{Identity: s1, EventID: "e-shut"}, request.ErrRegistrationClosed},
		{"unknown event", SubmitRequestInput{Identity: s1, EventID: "ghost"}, event.ErrNotFound},
		{"gender", SubmitRequestInput{Identity: Identity{RegisterNo: "23ME001", Email: "s3@college.edu"}, EventID: "e-men"}, event.ErrGenderMismatch},
		{"duplicate", SubmitRequestInput{Identity: s1, EventID: "e-men"}, request.ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExecuteSubmitRequest(ctx, tt.input, deps); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := ExecuteSubmitRequest(ctx, SubmitRequestInput{Identity: s1, EventID: "e-mixed"}, deps); err != nil {
		t.Fatalf("second event: %v", err)
	}
	if _, err := ExecuteSubmitRequest(ctx, SubmitRequestInput{Identity: s1, EventID: "e-relay"}, deps); !errors.Is(err, request.ErrLimitReached) {
		t.Errorf("third event err = %v, want ErrLimitReached", err)
	}

	ms.s.RegistrationOpen = false
	s4 := Identity{RegisterNo: "23ME002", Email: "s4@college.edu"}
	if _, err := ExecuteSubmitRequest(ctx, SubmitRequestInput{Identity: s4, EventID: "e-mixed"}, deps); !errors.Is(err, request.ErrRegistrationClosed) {
		t.Errorf("closed registration err = %v", err)
	}
	if n := storagetest.Count(t, db, "participation_request", ""); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestDecideRequests(t *testing.T) {
	ctx := context.Background()
	db, deps, ob, _ := requestFixture(t)
	storagetest.Request(t, db, "r1", "p1", "e-men", "s1", "pending")
	storagetest.Request(t, db, "r4", "p1", "e-men", "s4", "pending")

	r, err := ExecuteApproveRequest(ctx, admin, "r1", deps)
	if err != nil {
		t.Fatalf("approve r1: %v", err)
	}
	if r.Status != request.StatusApproved || r.DecidedBy != admin.ID {
		t.Errorf("approved = %+v", r)
	}
	if n := storagetest.Count(t, db, "roster_entry", "event_id = 'e-men'"); n != 1 {
		t.Errorf("roster = %d, want 1", n)
	}
	mails := ob.emails(t)
	if len(mails) != 1 || mails[0].To != "s1@college.edu" || !strings.Contains(mails[0].Subject, "you are in") {
		t.Errorf("approval mail = %+v", mails)
	}

	// capacity 1 is taken: the approval rolls back and r4 stays pending
	if _, err := ExecuteApproveRequest(ctx, admin, "r4", deps); !errors.Is(err, event.ErrEventFull) {
		t.Errorf("approve r4 err = %v, want ErrEventFull", err)
	}
	if n := storagetest.Count(t, db, "participation_request", "id = 'r4' AND status = 'pending'"); n != 1 {
		t.Error("r4 should still be pending")
	}
	if _, err := ExecuteApproveRequest(ctx, admin, "r1", deps); !errors.Is(err, request.ErrNotPending) {
		t.Errorf("re-approve err = %v", err)
	}
	if _, err := ExecuteApproveRequest(ctx, admin, "ghost", deps); !errors.Is(err, request.ErrNotFound) {
		t.Errorf("approve ghost err = %v", err)
	}

	if _, err := ExecuteRejectRequest(ctx, admin, "r4", "   ", deps); !errors.Is(err, request.ErrReasonRequired) {
		t.Errorf("blank reason err = %v", err)
	}
	rejected, err := ExecuteRejectRequest(ctx, admin, "r4", "event is full", deps)
	if err != nil || rejected.Reason != "event is full" {
		t.Fatalf("reject = %+v, %v", rejected, err)
	}
	mails = ob.emails(t)
	if len(mails) != 2 || !strings.Contains(mails[1].Text, "event is full") {
		t.Errorf("rejection mail = %+v", mails)
	}
}

func TestWithdrawRequest(t *testing.T) {
	ctx := context.Background()
	db, deps, _, _ := requestFixture(t)
	storagetest.Request(t, db, "r1", "p1", "e-men", "s1", "approved")
	storagetest.RosterEntry(t, db, "e-men", "s1", 0)
	storagetest.Request(t, db, "r3", "p1", "e-mixed", "s3", "rejected")

	s1 := Identity{RegisterNo: "23CS001", Email: "s1@college.edu"}
	if _, err := ExecuteWithdrawRequest(ctx, WithdrawRequestInput{Identity: s1, RequestID: "r3"}, deps); !errors.Is(err, request.ErrNotFound) {
		t.Errorf("foreign request err = %v", err)
	}
	r, err := ExecuteWithdrawRequest(ctx, WithdrawRequestInput{Identity: s1, RequestID: "r1"}, deps)
	if err != nil || r.Status != request.StatusWithdrawn {
		t.Fatalf("withdraw = %+v, %v", r, err)
	}
	if n := storagetest.Count(t, db, "roster_entry", "event_id = 'e-men'"); n != 0 {
		t.Errorf("roster rows = %d, want 0", n)
	}
	if _, err := ExecuteWithdrawRequest(ctx, WithdrawRequestInput{Identity: s1, RequestID: "r1"}, deps); !errors.Is(err, request.ErrCannotWithdraw) {
		t.Errorf("second withdraw err = %v", err)
	}
	s3 := Identity{RegisterNo: "23ME001", Email: "s3@college.edu"}
	if _, err := ExecuteWithdrawRequest(ctx, WithdrawRequestInput{Identity: s3, RequestID: "r3"}, deps); !errors.Is(err, request.ErrCannotWithdraw) {
		t.Errorf("withdraw rejected err = %v", err)
	}
}

func TestBulkDecide(t *testing.T) {
	ctx := context.Background()
	db, deps, _, _ := requestFixture(t)
	storagetest.Request(t, db, "r1", "p1", "e-mixed", "s1", "pending")
	storagetest.Request(t, db, "r3", "p1", "e-mixed", "s3", "pending")
	storagetest.Request(t, db, "r4", "p1", "e-mixed", "s4", "rejected")

	results := ExecuteBulkDecide(ctx, admin, []string{"r1", "r4", "ghost", "r3"}, true, "", deps)
	want := []bool{true, false, false, true}
	if len(results) != len(want) {
		t.Fatalf("results = %+v", results)
	}
	for i, ok := range want {
		if results[i].OK != ok {
			t.Errorf("results[%d] = %+v, want ok=%v", i, results[i], ok)
		}
	}
	if results[1].Error == "" {
		t.Error("failed result should carry an error message")
	}
	if n := storagetest.Count(t, db, "roster_entry", "event_id = 'e-mixed'"); n != 2 {
		t.Errorf("roster = %d, want 2", n)
	}

	results = ExecuteBulkDecide(ctx, admin, []string{"r1"}, false, "", deps)
	if results[0].OK {
		t.Error("reject without reason should fail")
	}
}
