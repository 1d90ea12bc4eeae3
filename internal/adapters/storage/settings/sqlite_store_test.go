package settings

import (
	"context"
	"testing"
	"time"

	"meetdesk/internal/adapters/storage/storagetest"
	domain "meetdesk/internal/domain/settings"
)

func TestSQLiteStore_DefaultsThenSave(t *testing.T) {
	store := NewSQLiteStore(storagetest.OpenMigrated(t))
	ctx := context.Background()

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.MeetName != domain.DefaultMeetName || got.MaxEventsPerParticipant != domain.DefaultMaxEventsPerParticipant {
		t.Errorf("defaults = %+v", got)
	}

	got.MeetName = "Inter-Department Meet"
	got.RegistrationOpen = true
	got.LogoKey = "logo/abc.webp"
	got.CertificateLayout.NameFontSize = 40
	got.UpdatedAt = time.Date(2026, 1, 20, 8, 0, 0, 0, time.UTC)
	got.UpdatedBy = "admin@college.edu"
	if err := got.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got.Tagline = "Faster, higher"
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	back, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if back.MeetName != "Inter-Department Meet" || !back.RegistrationOpen || back.LogoKey != "logo/abc.webp" ||
		back.Tagline != "Faster, higher" || back.CertificateLayout.NameFontSize != 40 ||
		!back.UpdatedAt.Equal(got.UpdatedAt) {
		t.Errorf("round trip = %+v", back)
	}
}
