package projections

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	certStore "meetdesk/internal/adapters/storage/certificate"
	eventStore "meetdesk/internal/adapters/storage/event"
	outboxStore "meetdesk/internal/adapters/storage/outbox"
	participantStore "meetdesk/internal/adapters/storage/participant"
	programStore "meetdesk/internal/adapters/storage/program"
	requestStore "meetdesk/internal/adapters/storage/request"
	resourceStore "meetdesk/internal/adapters/storage/resource"
	"meetdesk/internal/adapters/storage/storagetest"
	teamStore "meetdesk/internal/adapters/storage/team"
	"meetdesk/internal/application/listutil"
	"meetdesk/internal/domain/certificate"
	"meetdesk/internal/domain/program"
)

func fixture(t *testing.T) *sql.DB {
	t.Helper()
	db := storagetest.OpenMigrated(t)
	storagetest.Department(t, db, "d-cs", "CS")
	storagetest.Department(t, db, "d-me", "ME")
	storagetest.Batch(t, db, "b-23", "2023-2027")
	storagetest.Participant(t, db, "s1", "23CS001", "male", "d-cs", "b-23")
	storagetest.Participant(t, db, "s2", "23CS002", "female", "d-cs", "b-23")
	storagetest.Participant(t, db, "s3", "23ME001", "male", "d-me", "b-23")
	storagetest.Program(t, db, "p1", "one", true)
	storagetest.Program(t, db, "p2", "two", false)
	storagetest.Event(t, db, "e1", "p1", "male", "individual", 4, 0)
	storagetest.Event(t, db, "e2", "p1", "mixed", "team", 0, 0)
	storagetest.Event(t, db, "e3", "p2", "mixed", "individual", 0, 0)
	storagetest.RosterEntry(t, db, "e1", "s1", 1)
	storagetest.Request(t, db, "r1", "p1", "e1", "s3", "pending")
	storagetest.Request(t, db, "r2", "p1", "e2", "s2", "pending")
	storagetest.Request(t, db, "r3", "p2", "e3", "s1", "pending")
	storagetest.Request(t, db, "r4", "p1", "e1", "s1", "approved")
	return db
}

func dashboardDeps(db *sql.DB) GetDashboardDeps {
	return GetDashboardDeps{
		Participants: participantStore.NewSQLiteStore(db),
		Resources:    resourceStore.NewSQLiteStore(db),
		Programs:     programStore.NewSQLiteStore(db),
		Events:       eventStore.NewSQLiteStore(db),
		Requests:     requestStore.NewSQLiteStore(db),
		Certificates: certStore.NewSQLiteStore(db),
		Outbox:       outboxStore.NewSQLiteStore(db),
	}
}

func TestQueryGetDashboard(t *testing.T) {
	ctx := context.Background()
	db := fixture(t)
	_, _, err := certStore.NewSQLiteStore(db).Issue(ctx, certificate.Certificate{
		ID: "c1", ProgramID: "p1", EventID: "e1", ParticipantID: "s1",
		Kind: certificate.KindParticipation, IssuedAt: time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC),
	}, "ONE", 2026)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	res, err := QueryGetDashboard(ctx, dashboardDeps(db))
	if err != nil {
		t.Fatalf("QueryGetDashboard() error = %v", err)
	}
	if res.Participants != 3 || res.Departments != 2 || res.Batches != 1 || res.Programs != 2 {
		t.Errorf("counts = %+v", res)
	}
	if res.ActiveProgram == nil || res.ActiveProgram.ID != "p1" || res.ActiveEvents != 2 {
		t.Fatalf("active program = %+v, events = %d", res.ActiveProgram, res.ActiveEvents)
	}
	if res.PendingRequests != 3 {
		t.Errorf("PendingRequests = %d, want 3 across programs", res.PendingRequests)
	}
	if res.CertificatesIssued != 1 {
		t.Errorf("CertificatesIssued = %d, want 1", res.CertificatesIssued)
	}
	if len(res.RecentRequests) != 2 {
		t.Fatalf("RecentRequests = %+v, want the 2 pending of p1", res.RecentRequests)
	}
	for _, r := range res.RecentRequests {
		if r.ProgramID != "p1" || r.Status != "pending" || r.ParticipantName == "" {
			t.Errorf("recent request = %+v", r)
		}
	}
}

func TestQueryGetDashboard_NoActiveProgram(t *testing.T) {
	db := fixture(t)
	if _, err := db.Exec("UPDATE program SET active = 0"); err != nil {
		t.Fatal(err)
	}
	res, err := QueryGetDashboard(context.Background(), dashboardDeps(db))
	if err != nil {
		t.Fatalf("QueryGetDashboard() error = %v", err)
	}
	if res.ActiveProgram != nil || res.ActiveEvents != 0 {
		t.Errorf("active = %+v, events = %d; want none", res.ActiveProgram, res.ActiveEvents)
	}
	if res.RecentRequests == nil || len(res.RecentRequests) != 0 {
		t.Errorf("RecentRequests = %#v, want empty non-nil", res.RecentRequests)
	}
}

func TestQueryGetParticipantList(t *testing.T) {
	ctx := context.Background()
	store := participantStore.NewSQLiteStore(fixture(t))

	tests := []struct {
		name      string
		query     string
		wantRegs  []string
		wantTotal int
		wantPages int
	}{
		{"all by name", "", []string{"23CS001", "23CS002", "23ME001"}, 3, 1},
		{"department filter", "department=d-cs", []string{"23CS001", "23CS002"}, 2, 1},
		{"gender filter", "gender=female", []string{"23CS002"}, 1, 1},
		{"search", "q=23me", []string{"23ME001"}, 1, 1},
		{"sorted desc by register", "sort=register_no&dir=desc", []string{"23ME001", "23CS002", "23CS001"}, 3, 1},
		{"second page", "per_page=2&page=2&sort=register_no", []string{"23ME001"}, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			params := listutil.Parse(q, participantStore.SortColumns, ParticipantFilterKeys)
			res, err := QueryGetParticipantList(ctx, params, store)
			if err != nil {
				t.Fatalf("QueryGetParticipantList() error = %v", err)
			}
			var regs []string
			for _, p := range res.Participants {
				regs = append(regs, p.RegisterNo)
			}
			if strings.Join(regs, ",") != strings.Join(tt.wantRegs, ",") {
				t.Errorf("register numbers = %v, want %v", regs, tt.wantRegs)
			}
			if res.Page.Total != tt.wantTotal || res.Page.TotalPages != tt.wantPages {
				t.Errorf("page = %+v", res.Page)
			}
		})
	}
}

func TestQueryGetRequestList(t *testing.T) {
	store := requestStore.NewSQLiteStore(fixture(t))
	q := url.Values{"status": {"pending"}, "program": {"p1"}}
	res, err := QueryGetRequestList(context.Background(), listutil.Parse(q, nil, RequestFilterKeys), store)
	if err != nil {
		t.Fatalf("QueryGetRequestList() error = %v", err)
	}
	if res.Page.Total != 2 || len(res.Requests) != 2 {
		t.Fatalf("requests = %+v", res)
	}
	if res.Requests[0].EventName == "" || res.Requests[0].ProgramName != "Program one" || res.Requests[0].DecidedAt != nil {
		t.Errorf("first request = %+v", res.Requests[0])
	}
}

func TestQueryGetProgramDetail(t *testing.T) {
	ctx := context.Background()
	db := fixture(t)
	if _, err := db.Exec("UPDATE program SET description = ? WHERE id = 'p1'", "Opening **ceremony** at 8"); err != nil {
		t.Fatal(err)
	}
	deps := GetProgramDetailDeps{Programs: programStore.NewSQLiteStore(db), Events: eventStore.NewSQLiteStore(db)}

	d, err := QueryGetProgramDetail(ctx, "p1", deps)
	if err != nil {
		t.Fatalf("QueryGetProgramDetail() error = %v", err)
	}
	if !strings.Contains(d.DescriptionHTML, "<strong>ceremony</strong>") {
		t.Errorf("DescriptionHTML = %q", d.DescriptionHTML)
	}
	if d.Events != 2 || len(d.EventList) != 2 || d.PendingRequests != 2 {
		t.Errorf("events = %d (%d listed), pending = %d", d.Events, len(d.EventList), d.PendingRequests)
	}
	for _, e := range d.EventList {
		switch e.ID {
		case "e1":
			if e.SeatsLeft == nil || *e.SeatsLeft != 3 || e.RosterSize != 1 {
				t.Errorf("e1 = %+v", e)
			}
		case "e2":
			if e.SeatsLeft != nil {
				t.Errorf("unlimited event has SeatsLeft = %d", *e.SeatsLeft)
			}
		}
	}

	if _, err := QueryGetProgramDetail(ctx, "missing", deps); !errors.Is(err, program.ErrNotFound) {
		t.Errorf("missing program err = %v", err)
	}

	if _, err := db.Exec("UPDATE event SET registration_open = 0 WHERE id = 'e2'"); err != nil {
		t.Fatal(err)
	}
	pub, err := QueryGetActiveProgram(ctx, deps)
	if err != nil {
		t.Fatalf("QueryGetActiveProgram() error = %v", err)
	}
	if len(pub.EventList) != 1 || pub.EventList[0].ID != "e1" || pub.EventList[0].PendingRequests != 0 {
		t.Errorf("public events = %+v", pub.EventList)
	}
	if _, err := db.Exec("UPDATE program SET active = 0"); err != nil {
		t.Fatal(err)
	}
	if _, err := QueryGetActiveProgram(ctx, deps); !errors.Is(err, program.ErrNoActiveProgram) {
		t.Errorf("no active program err = %v", err)
	}
}

func TestQueryGetEventDetail(t *testing.T) {
	ctx := context.Background()
	db := fixture(t)
	storagetest.RosterEntry(t, db, "e2", "s2", 0)
	storagetest.RosterEntry(t, db, "e2", "s3", 0)
	if _, err := db.Exec(`INSERT INTO team (id, program_id, event_id, name, department_id, created_at)
		VALUES ('t1', 'p1', 'e2', 'Blue', 'd-cs', ?)`, storagetest.Created); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE roster_entry SET team_id = 't1' WHERE event_id = 'e2' AND participant_id = 's2'"); err != nil {
		t.Fatal(err)
	}
	deps := GetEventDetailDeps{Events: eventStore.NewSQLiteStore(db), Teams: teamStore.NewSQLiteStore(db)}

	d, err := QueryGetEventDetail(ctx, "e2", deps)
	if err != nil {
		t.Fatalf("QueryGetEventDetail() error = %v", err)
	}
	if d.RosterSize != 2 || len(d.Roster) != 2 {
		t.Errorf("roster = %+v", d.Roster)
	}
	if len(d.Teams) != 1 || d.Teams[0].Name != "Blue" || len(d.Teams[0].Members) != 1 || d.Teams[0].Members[0].ParticipantID != "s2" {
		t.Errorf("teams = %+v", d.Teams)
	}

	ind, err := QueryGetEventDetail(ctx, "e1", deps)
	if err != nil {
		t.Fatalf("individual event: %v", err)
	}
	if len(ind.Teams) != 0 || len(ind.Roster) != 1 || ind.Roster[0].Position != 1 {
		t.Errorf("individual event detail = %+v", ind)
	}
}
