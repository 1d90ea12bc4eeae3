package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"meetdesk/internal/adapters/assets"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/certificate"
	"meetdesk/internal/domain/settings"
)

// SettingsStore reads and writes the settings singleton.
type SettingsStore interface {
	Get(ctx context.Context) (settings.Settings, error)
	Save(ctx context.Context, s settings.Settings) error
}

// SettingsDeps holds dependencies for settings and branding assets.
type SettingsDeps struct {
	Store  SettingsStore
	Assets assets.Store
	Audit  AuditSink
	Now    func() time.Time
}

// SettingsInput carries every admin-editable setting. Asset keys change only through uploads.
type SettingsInput struct {
	Actor                   audit.Actor
	MeetName                string
	InstitutionName         string
	Tagline                 string
	PrimaryColor            string
	ContactEmail            string
	RegistrationOpen        bool
	MaxEventsPerParticipant int
	SignatoryName           string
	SignatoryTitle          string
	CertificateLayout       *certificate.Layout // nil keeps the current layout
}

// ExecuteUpdateSettings validates and stores new settings.
// POST: asset keys are unchanged
func ExecuteUpdateSettings(ctx context.Context, input SettingsInput, deps SettingsDeps) (settings.Settings, error) {
	s, err := deps.Store.Get(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	wasOpen := s.RegistrationOpen
	s.MeetName = input.MeetName
	s.InstitutionName = strings.TrimSpace(input.InstitutionName)
	s.Tagline = strings.TrimSpace(input.Tagline)
	s.PrimaryColor = strings.ToUpper(strings.TrimSpace(input.PrimaryColor))
	s.ContactEmail = strings.ToLower(strings.TrimSpace(input.ContactEmail))
	s.RegistrationOpen = input.RegistrationOpen
	s.MaxEventsPerParticipant = input.MaxEventsPerParticipant
	s.SignatoryName = strings.TrimSpace(input.SignatoryName)
	s.SignatoryTitle = strings.TrimSpace(input.SignatoryTitle)
	if input.CertificateLayout != nil {
		s.CertificateLayout = *input.CertificateLayout
	}
	s.UpdatedAt = deps.Now()
	s.UpdatedBy = input.Actor.ID
	if err := s.Validate(); err != nil {
		return settings.Settings{}, err
	}
	if err := deps.Store.Save(ctx, s); err != nil {
		return settings.Settings{}, err
	}
	slog.Info("settings_event", "event", "settings_updated", "by", input.Actor.ID, "registration_open", s.RegistrationOpen)
	ev := audit.NewEvent(input.Actor, audit.CategorySettings, audit.ActionUpdate, deps.Now()).
		WithResource("settings", "singleton")
	if wasOpen != s.RegistrationOpen {
		state := "closed"
		if s.RegistrationOpen {
			state = "opened"
		}
		ev = ev.WithSeverity(audit.SeverityWarning).WithDescription("registration " + state)
	}
	recordAudit(ctx, deps.Audit, ev)
	return s, nil
}

// UploadAssetInput is a raw image upload for one branding slot.
type UploadAssetInput struct {
	Actor audit.Actor
	Kind  string
	Data  []byte
}

// ExecuteUploadAsset processes an image, stores it under a fresh key and
// points the settings slot at it. The previous object is deleted afterwards.
// POST: a failed settings save removes the new object again
func ExecuteUploadAsset(ctx context.Context, input UploadAssetInput, deps SettingsDeps) (settings.Settings, error) {
	if !settings.IsValidAssetKind(input.Kind) {
		return settings.Settings{}, settings.ErrInvalidAssetKind
	}
	img, err := assets.Process(input.Kind, input.Data)
	if err != nil {
		return settings.Settings{}, err
	}
	s, err := deps.Store.Get(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	key := assets.NewKey(input.Kind, img.Ext, deps.Now())
	if err := deps.Assets.Put(ctx, key, img.ContentType, img.Data); err != nil {
		return settings.Settings{}, err
	}
	previous := s.SetAssetKey(input.Kind, key)
	s.UpdatedAt = deps.Now()
	s.UpdatedBy = input.Actor.ID
	if err := deps.Store.Save(ctx, s); err != nil {
		removeAsset(ctx, deps.Assets, key)
		return settings.Settings{}, err
	}
	if previous != "" {
		removeAsset(ctx, deps.Assets, previous)
	}
	slog.Info("settings_event", "event", "asset_uploaded", "kind", input.Kind, "key", key,
		"width", img.Width, "height", img.Height, "bytes", len(img.Data))
	recordAudit(ctx, deps.Audit, audit.NewEvent(input.Actor, audit.CategorySettings, audit.ActionUpdate, deps.Now()).
		WithResource("asset", key).
		WithDescription("uploaded "+input.Kind))
	return s, nil
}

// ExecuteDeleteAsset clears a branding slot and deletes its object.
func ExecuteDeleteAsset(ctx context.Context, actor audit.Actor, kind string, deps SettingsDeps) (settings.Settings, error) {
	if !settings.IsValidAssetKind(kind) {
		return settings.Settings{}, settings.ErrInvalidAssetKind
	}
	s, err := deps.Store.Get(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	previous := s.SetAssetKey(kind, "")
	if previous == "" {
		return settings.Settings{}, settings.ErrAssetNotSet
	}
	s.UpdatedAt = deps.Now()
	s.UpdatedBy = actor.ID
	if err := deps.Store.Save(ctx, s); err != nil {
		return settings.Settings{}, err
	}
	removeAsset(ctx, deps.Assets, previous)
	slog.Info("settings_event", "event", "asset_deleted", "kind", kind, "key", previous)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategorySettings, audit.ActionDelete, deps.Now()).
		WithResource("asset", previous).
		WithDescription("removed "+kind))
	return s, nil
}

// removeAsset deletes an object; an orphaned object is only logged.
func removeAsset(ctx context.Context, store assets.Store, key string) {
	if err := store.Delete(ctx, key); err != nil {
		slog.Warn("settings_event", "event", "asset_delete_failed", "key", key, "error", err)
	}
}
