package certificate

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetdesk/internal/adapters/storage/storagetest"
	domain "meetdesk/internal/domain/certificate"
)

func TestSQLiteStore_Issue(t *testing.T) {
	db := storagetest.OpenMigrated(t)
	storagetest.Department(t, db, "cs", "CS")
	storagetest.Batch(t, db, "b", "2023-2027")
	storagetest.Participant(t, db, "gold", "CS01", "male", "cs", "b")
	storagetest.Participant(t, db, "ran", "CS02", "male", "cs", "b")
	storagetest.Participant(t, db, "absent", "CS03", "male", "cs", "b")
	storagetest.Program(t, db, "p", "meet-2026", true)
	storagetest.Event(t, db, "100m", "p", "male", "individual", 0, 0)
	storagetest.RosterEntry(t, db, "100m", "gold", 1)
	storagetest.RosterEntry(t, db, "100m", "ran", 0)

	store := NewSQLiteStore(db)
	ctx := context.Background()
	issued := time.Date(2026, 2, 12, 17, 0, 0, 0, time.UTC)
	cert := func(id, pid, kind string) domain.Certificate {
		return domain.Certificate{ID: id, ProgramID: "p", EventID: "100m", ParticipantID: pid, Kind: kind,
			IssuedAt: issued, IssuedBy: "admin"}
	}

	c1, created, err := store.Issue(ctx, cert("c1", "gold", domain.KindWinner), "MEET", 2026)
	if err != nil || !created {
		t.Fatalf("Issue winner = %v, %v", created, err)
	}
	if c1.Serial != "MEET-2026-000001" || c1.Position != 1 {
		t.Errorf("winner = %+v", c1)
	}

	c2, _, err := store.Issue(ctx, cert("c2", "ran", domain.KindParticipation), "MEET", 2026)
	if err != nil || c2.Serial != "MEET-2026-000002" {
		t.Errorf("participation = %+v, %v", c2, err)
	}

	again, created, err := store.Issue(ctx, cert("c3", "gold", domain.KindWinner), "MEET", 2026)
	if err != nil || created || again.ID != "c1" {
		t.Errorf("reissue = %+v, created %v, %v", again, created, err)
	}

	tests := []struct {
		name string
		c    domain.Certificate
		want error
	}{
		{"not on roster", cert("c4", "absent", domain.KindParticipation), domain.ErrNotOnRoster},
		{"winner without podium", cert("c5", "ran", domain.KindWinner), domain.ErrWinnerPosition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := store.Issue(ctx, tt.c, "MEET", 2026); !errors.Is(err, tt.want) {
				t.Errorf("Issue = %v, want %v", err, tt.want)
			}
		})
	}

	rows, err := store.List(ctx, ListFilter{EventID: "100m"})
	if err != nil || len(rows) != 2 || rows[0].ParticipantName == "" || rows[0].ProgramName == "" {
		t.Fatalf("List = %+v, %v", rows, err)
	}
	bySerial, err := store.GetBySerial(ctx, c2.Serial)
	if err != nil || bySerial.ID != "c2" {
		t.Errorf("GetBySerial = %+v, %v", bySerial, err)
	}
	if n, _ := store.Count(ctx, ListFilter{ParticipantID: "gold"}); n != 1 {
		t.Errorf("Count = %d", n)
	}

	if err := store.Delete(ctx, "c2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, "c2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted lookup = %v", err)
	}
}

func TestSQLiteStore_Issue_RevokedSerialNotReused(t *testing.T) {
	db := storagetest.OpenMigrated(t)
	storagetest.Department(t, db, "cs", "CS")
	storagetest.Batch(t, db, "b", "2023-2027")
	storagetest.Participant(t, db, "pa1", "CS01", "male", "cs", "b")
	storagetest.Participant(t, db, "pa2", "CS02", "male", "cs", "b")
	storagetest.Program(t, db, "p", "sports-meet", true)
	storagetest.Event(t, db, "100m", "p", "male", "individual", 0, 0)
	storagetest.RosterEntry(t, db, "100m", "pa1", 0)
	storagetest.RosterEntry(t, db, "100m", "pa2", 0)

	store := NewSQLiteStore(db)
	ctx := context.Background()
	issue := func(id, pid string) domain.Certificate {
		t.Helper()
		c, _, err := store.Issue(ctx, domain.Certificate{ID: id, ProgramID: "p", EventID: "100m", ParticipantID: pid,
			Kind: domain.KindParticipation, IssuedAt: time.Now()}, "SPORTS-MEET", 2026)
		if err != nil {
			t.Fatalf("Issue(%s) = %v", pid, err)
		}
		return c
	}

	c1 := issue("c1", "pa1")
	if err := store.Delete(ctx, c1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	c2 := issue("c2", "pa2")
	if c2.Serial == c1.Serial {
		t.Fatalf("revoked serial %s handed to %s", c1.Serial, c2.ParticipantID)
	}
	if c2.Serial != "SPORTS-MEET-2026-000002" {
		t.Errorf("next serial = %s, want SPORTS-MEET-2026-000002", c2.Serial)
	}
	if _, err := store.GetBySerial(ctx, c1.Serial); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("revoked serial lookup = %v, want ErrNotFound", err)
	}

	// the original holder gets a fresh serial too
	if c3 := issue("c3", "pa1"); c3.Serial != "SPORTS-MEET-2026-000003" {
		t.Errorf("reissue serial = %s, want SPORTS-MEET-2026-000003", c3.Serial)
	}
}
