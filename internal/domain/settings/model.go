package settings

import (
	"strings"
	"time"

	"meetdesk/internal/domain/certificate"
	"meetdesk/internal/domain/domainerr"
)

// Asset kinds that can be uploaded from the settings page.
const (
	AssetLogo                = "logo"
	AssetBanner              = "banner"
	AssetCertificateTemplate = "certificate_template"
	AssetSignature           = "signature"
)

// Defaults applied to a fresh installation.
const (
	DefaultMeetName                = "Annual Athletic Meet"
	DefaultPrimaryColor            = "#1D4ED8"
	DefaultMaxEventsPerParticipant = 3
	MaxTextLength                  = 200
	MaxEventsCeiling               = 20
)

// Domain errors
var (
	ErrEmptyMeetName    = domainerr.Invalid("meet name cannot be empty")
	ErrTextTooLong      = domainerr.Invalid("text fields cannot exceed 200 characters")
	ErrInvalidColor     = domainerr.Invalid("primary color must be #RRGGBB")
	ErrInvalidEmail     = domainerr.Invalid("contact email must be valid")
	ErrInvalidMaxEvents = domainerr.Invalid("max events per participant must be between 1 and 20")
	ErrInvalidAssetKind = domainerr.Invalid("asset kind must be one of: logo, banner, certificate_template, signature")
	ErrAssetNotSet      = domainerr.NotFound("asset is not set")
)

// Settings is the singleton system configuration edited by admins.
type Settings struct {
	MeetName                string
	InstitutionName         string
	Tagline                 string
	PrimaryColor            string
	ContactEmail            string
	RegistrationOpen        bool
	MaxEventsPerParticipant int
	LogoKey                 string
	BannerKey               string
	CertificateTemplateKey  string
	SignatureKey            string
	SignatoryName           string
	SignatoryTitle          string
	CertificateLayout       certificate.Layout
	UpdatedAt               time.Time
	UpdatedBy               string
}

// Default returns the settings used before an admin saves any.
func Default() Settings {
	return Settings{
		MeetName:                DefaultMeetName,
		PrimaryColor:            DefaultPrimaryColor,
		RegistrationOpen:        false,
		MaxEventsPerParticipant: DefaultMaxEventsPerParticipant,
		CertificateLayout:       certificate.DefaultLayout(),
	}
}

// Validate checks if the Settings have valid data.
// PRE: Settings struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Settings) Validate() error {
	s.MeetName = strings.TrimSpace(s.MeetName)
	if s.MeetName == "" {
		return ErrEmptyMeetName
	}
	for _, v := range []string{s.MeetName, s.InstitutionName, s.Tagline, s.SignatoryName, s.SignatoryTitle} {
		if len(v) > MaxTextLength {
			return ErrTextTooLong
		}
	}
	if !certificate.IsColor(s.PrimaryColor) {
		return ErrInvalidColor
	}
	if s.ContactEmail != "" && !strings.Contains(s.ContactEmail, "@") {
		return ErrInvalidEmail
	}
	if s.MaxEventsPerParticipant < 1 || s.MaxEventsPerParticipant > MaxEventsCeiling {
		return ErrInvalidMaxEvents
	}
	return s.CertificateLayout.Validate()
}

// IsValidAssetKind reports whether kind names an uploadable asset.
func IsValidAssetKind(kind string) bool {
	switch kind {
	case AssetLogo, AssetBanner, AssetCertificateTemplate, AssetSignature:
		return true
	}
	return false
}

// AssetKey returns the storage key currently set for kind.
func (s *Settings) AssetKey(kind string) string {
	switch kind {
	case AssetLogo:
		return s.LogoKey
	case AssetBanner:
		return s.BannerKey
	case AssetCertificateTemplate:
		return s.CertificateTemplateKey
	case AssetSignature:
		return s.SignatureKey
	}
	return ""
}

// SetAssetKey replaces the key for kind and returns the previous key.
// PRE: IsValidAssetKind(kind)
func (s *Settings) SetAssetKey(kind, key string) (previous string) {
	previous = s.AssetKey(kind)
	switch kind {
	case AssetLogo:
		s.LogoKey = key
	case AssetBanner:
		s.BannerKey = key
	case AssetCertificateTemplate:
		s.CertificateTemplateKey = key
	case AssetSignature:
		s.SignatureKey = key
	}
	return previous
}
