package web

import (
	"io"
	"net/http"
	"time"

	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/domain/certificate"
	"meetdesk/internal/domain/domainerr"
	"meetdesk/internal/domain/settings"
)

// maxAssetUpload caps branding image uploads before decoding.
const maxAssetUpload = 10 << 20

type brandingView struct {
	MeetName         string `json:"meet_name"`
	InstitutionName  string `json:"institution_name"`
	Tagline          string `json:"tagline"`
	PrimaryColor     string `json:"primary_color"`
	ContactEmail     string `json:"contact_email"`
	RegistrationOpen bool   `json:"registration_open"`
	LogoURL          string `json:"logo_url,omitempty"`
	BannerURL        string `json:"banner_url,omitempty"`
}

type settingsView struct {
	brandingView
	MaxEventsPerParticipant int                `json:"max_events_per_participant"`
	CertificateTemplateURL  string             `json:"certificate_template_url,omitempty"`
	SignatureURL            string             `json:"signature_url,omitempty"`
	SignatoryName           string             `json:"signatory_name"`
	SignatoryTitle          string             `json:"signatory_title"`
	CertificateLayout       certificate.Layout `json:"certificate_layout"`
	UpdatedAt               *time.Time         `json:"updated_at,omitempty"`
	UpdatedBy               string             `json:"updated_by,omitempty"`
}

func assetURL(key string) string {
	if key == "" || services.Assets == nil {
		return ""
	}
	return services.Assets.URL(key)
}

func toBrandingView(s settings.Settings) brandingView {
	return brandingView{
		MeetName:         s.MeetName,
		InstitutionName:  s.InstitutionName,
		Tagline:          s.Tagline,
		PrimaryColor:     s.PrimaryColor,
		ContactEmail:     s.ContactEmail,
		RegistrationOpen: s.RegistrationOpen,
		LogoURL:          assetURL(s.LogoKey),
		BannerURL:        assetURL(s.BannerKey),
	}
}

func toSettingsView(s settings.Settings) settingsView {
	v := settingsView{
		brandingView:            toBrandingView(s),
		MaxEventsPerParticipant: s.MaxEventsPerParticipant,
		CertificateTemplateURL:  assetURL(s.CertificateTemplateKey),
		SignatureURL:            assetURL(s.SignatureKey),
		SignatoryName:           s.SignatoryName,
		SignatoryTitle:          s.SignatoryTitle,
		CertificateLayout:       s.CertificateLayout,
		UpdatedBy:               s.UpdatedBy,
	}
	if !s.UpdatedAt.IsZero() {
		at := s.UpdatedAt
		v.UpdatedAt = &at
	}
	return v
}

// handleBranding handles GET /api/branding, the public subset of settings.
func handleBranding(w http.ResponseWriter, r *http.Request) {
	s, err := stores.Settings.Get(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, toBrandingView(s))
}

// handleGetSettings handles GET /api/settings
func handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := stores.Settings.Get(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsView(s))
}

type settingsRequest struct {
	MeetName                string              `json:"meet_name" validate:"required"`
	InstitutionName         string              `json:"institution_name"`
	Tagline                 string              `json:"tagline"`
	PrimaryColor            string              `json:"primary_color" validate:"required,hexcolor"`
	ContactEmail            string              `json:"contact_email" validate:"omitempty,email"`
	RegistrationOpen        bool                `json:"registration_open"`
	MaxEventsPerParticipant int                 `json:"max_events_per_participant" validate:"min=1,max=20"`
	SignatoryName           string              `json:"signatory_name"`
	SignatoryTitle          string              `json:"signatory_title"`
	CertificateLayout       *certificate.Layout `json:"certificate_layout"`
}

// handleUpdateSettings handles PUT /api/settings. Asset slots are not touched.
func handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s, err := orchestrators.ExecuteUpdateSettings(r.Context(), orchestrators.SettingsInput{
		Actor:                   actorFrom(r),
		MeetName:                req.MeetName,
		InstitutionName:         req.InstitutionName,
		Tagline:                 req.Tagline,
		PrimaryColor:            req.PrimaryColor,
		ContactEmail:            req.ContactEmail,
		RegistrationOpen:        req.RegistrationOpen,
		MaxEventsPerParticipant: req.MaxEventsPerParticipant,
		SignatoryName:           req.SignatoryName,
		SignatoryTitle:          req.SignatoryTitle,
		CertificateLayout:       req.CertificateLayout,
	}, settingsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsView(s))
}

// handleUploadAsset handles POST /api/settings/assets/{kind} (multipart, field "file").
func handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAssetUpload)
	if err := r.ParseMultipartForm(maxAssetUpload); err != nil {
		writeError(w, domainerr.Invalid("expected a multipart upload under 10 MB"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, domainerr.Invalid("file is required"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		internalError(w, err)
		return
	}

	s, err := orchestrators.ExecuteUploadAsset(r.Context(), orchestrators.UploadAssetInput{
		Actor: actorFrom(r),
		Kind:  r.PathValue("kind"),
		Data:  data,
	}, settingsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsView(s))
}

// handleDeleteAsset handles DELETE /api/settings/assets/{kind}
func handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	s, err := orchestrators.ExecuteDeleteAsset(r.Context(), actorFrom(r), r.PathValue("kind"), settingsDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsView(s))
}
