package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"meetdesk/internal/adapters/storage"
	domain "meetdesk/internal/domain/settings"
)

// SQLiteStore implements Store using SQLite. The single row has id 1.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new settings store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns the settings, falling back to defaults before the first save.
func (s *SQLiteStore) Get(ctx context.Context) (domain.Settings, error) {
	out := domain.Default()
	var open int
	var layout string
	var updatedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT meet_name, institution_name, tagline, primary_color, contact_email,
		registration_open, max_events_per_participant, logo_key, banner_key, certificate_template_key, signature_key,
		signatory_name, signatory_title, certificate_layout, updated_at, updated_by
		FROM settings WHERE id = 1`).Scan(
		&out.MeetName, &out.InstitutionName, &out.Tagline, &out.PrimaryColor, &out.ContactEmail,
		&open, &out.MaxEventsPerParticipant, &out.LogoKey, &out.BannerKey, &out.CertificateTemplateKey, &out.SignatureKey,
		&out.SignatoryName, &out.SignatoryTitle, &layout, &updatedAt, &out.UpdatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Default(), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	out.RegistrationOpen = open == 1
	out.UpdatedAt = storage.NullTime(updatedAt)
	if layout != "" {
		if err := json.Unmarshal([]byte(layout), &out.CertificateLayout); err != nil {
			return domain.Settings{}, fmt.Errorf("decode certificate layout: %w", err)
		}
	}
	return out, nil
}

// Save writes the settings row, creating it on first use.
func (s *SQLiteStore) Save(ctx context.Context, st domain.Settings) error {
	layout, err := json.Marshal(st.CertificateLayout)
	if err != nil {
		return fmt.Errorf("encode certificate layout: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO settings (id, meet_name, institution_name, tagline, primary_color,
		contact_email, registration_open, max_events_per_participant, logo_key, banner_key, certificate_template_key,
		signature_key, signatory_name, signatory_title, certificate_layout, updated_at, updated_by)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET meet_name=excluded.meet_name, institution_name=excluded.institution_name,
		tagline=excluded.tagline, primary_color=excluded.primary_color, contact_email=excluded.contact_email,
		registration_open=excluded.registration_open, max_events_per_participant=excluded.max_events_per_participant,
		logo_key=excluded.logo_key, banner_key=excluded.banner_key, certificate_template_key=excluded.certificate_template_key,
		signature_key=excluded.signature_key, signatory_name=excluded.signatory_name, signatory_title=excluded.signatory_title,
		certificate_layout=excluded.certificate_layout, updated_at=excluded.updated_at, updated_by=excluded.updated_by`,
		st.MeetName, st.InstitutionName, st.Tagline, st.PrimaryColor, st.ContactEmail,
		storage.BoolInt(st.RegistrationOpen), st.MaxEventsPerParticipant, st.LogoKey, st.BannerKey,
		st.CertificateTemplateKey, st.SignatureKey, st.SignatoryName, st.SignatoryTitle, string(layout),
		storage.FormatTime(st.UpdatedAt), st.UpdatedBy)
	return err
}
