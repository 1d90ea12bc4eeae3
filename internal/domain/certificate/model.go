package certificate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"meetdesk/internal/domain/domainerr"
)

// Kind constants
const (
	KindParticipation = "participation"
	KindWinner        = "winner"
)

// Orientation constants, matching PDF page orientations.
const (
	OrientationLandscape = "L"
	OrientationPortrait  = "P"
)

// Domain errors
var (
	ErrInvalidKind    = domainerr.Invalid("kind must be one of: participation, winner")
	ErrWinnerPosition = domainerr.Invalid("winner certificates require a position between 1 and 3")
	ErrMissingName    = domainerr.Invalid("participant name is required")
	ErrInvalidLayout  = domainerr.Invalid("certificate layout is invalid")
	ErrInvalidColor   = domainerr.Invalid("color must be #RRGGBB")
	ErrNotOnRoster    = domainerr.Conflict("participant is not on the event roster")
	ErrNothingToIssue = domainerr.Conflict("event roster is empty")
	ErrInvalidToken   = domainerr.Invalid("verification token is invalid or expired")
	ErrNotFound       = domainerr.NotFound("certificate not found")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Certificate is an issued, numbered certificate.
type Certificate struct {
	ID            string
	Serial        string
	ProgramID     string
	EventID       string
	ParticipantID string
	Kind          string
	Position      int
	IssuedAt      time.Time
	IssuedBy      string
}

// Fields are the values printed on a certificate.
type Fields struct {
	ParticipantName string
	RegisterNo      string
	Department      string
	EventName       string
	ProgramName     string
	Kind            string
	Position        int
	Date            time.Time
	Serial          string
	VerifyURL       string
}

// Layout positions the printed fields on the page. Units are millimetres.
type Layout struct {
	Orientation   string  `json:"orientation"`
	TitleY        float64 `json:"title_y"`
	NameY         float64 `json:"name_y"`
	BodyY         float64 `json:"body_y"`
	FooterY       float64 `json:"footer_y"`
	TitleFontSize float64 `json:"title_font_size"`
	NameFontSize  float64 `json:"name_font_size"`
	BodyFontSize  float64 `json:"body_font_size"`
	TextColor     string  `json:"text_color"`
	AccentColor   string  `json:"accent_color"`
}

// DefaultLayout is used until an admin saves a custom layout.
func DefaultLayout() Layout {
	return Layout{
		Orientation:   OrientationLandscape,
		TitleY:        45,
		NameY:         85,
		BodyY:         105,
		FooterY:       170,
		TitleFontSize: 30,
		NameFontSize:  26,
		BodyFontSize:  14,
		TextColor:     "#1F2933",
		AccentColor:   "#1D4ED8",
	}
}

// Validate checks that every coordinate fits on an A4 page.
func (l Layout) Validate() error {
	if l.Orientation != OrientationLandscape && l.Orientation != OrientationPortrait {
		return ErrInvalidLayout
	}
	maxY := 210.0
	if l.Orientation == OrientationPortrait {
		maxY = 297.0
	}
	for _, y := range []float64{l.TitleY, l.NameY, l.BodyY, l.FooterY} {
		if y < 0 || y > maxY {
			return ErrInvalidLayout
		}
	}
	for _, s := range []float64{l.TitleFontSize, l.NameFontSize, l.BodyFontSize} {
		if s < 6 || s > 72 {
			return ErrInvalidLayout
		}
	}
	if !IsColor(l.TextColor) || !IsColor(l.AccentColor) {
		return ErrInvalidColor
	}
	return nil
}

// Validate checks kind/position consistency.
// PRE: Certificate struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Certificate) Validate() error {
	switch c.Kind {
	case KindParticipation:
	case KindWinner:
		if c.Position < 1 || c.Position > 3 {
			return ErrWinnerPosition
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

// Validate checks that a certificate can be rendered from f.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.ParticipantName) == "" {
		return ErrMissingName
	}
	switch f.Kind {
	case KindParticipation, "":
	case KindWinner:
		if f.Position < 1 || f.Position > 3 {
			return ErrWinnerPosition
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

// Title is the heading printed on the certificate.
func (f Fields) Title() string {
	if f.Kind == KindWinner {
		return "Certificate of Achievement"
	}
	return "Certificate of Participation"
}

// Body is the sentence printed under the participant's name.
func (f Fields) Body() string {
	if f.Kind == KindWinner {
		return fmt.Sprintf("for securing %s in %s at %s", PositionLabel(f.Position), f.EventName, f.ProgramName)
	}
	return fmt.Sprintf("for participating in %s at %s", f.EventName, f.ProgramName)
}

// PositionLabel renders 1-3 as podium places.
func PositionLabel(position int) string {
	switch position {
	case 1:
		return "First Place"
	case 2:
		return "Second Place"
	case 3:
		return "Third Place"
	}
	return ""
}

// FormatSerial builds "<PREFIX>-<YEAR>-<000001>".
func FormatSerial(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}

// SerialSequence extracts the trailing sequence number of a serial, or 0.
func SerialSequence(serial string) int {
	i := strings.LastIndex(serial, "-")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(serial[i+1:])
	if err != nil {
		return 0
	}
	return n
}

// IsColor reports whether s is a #RRGGBB hex color.
func IsColor(s string) bool {
	return colorPattern.MatchString(s)
}

// ParseColor splits a #RRGGBB color into components. Invalid input yields black.
func ParseColor(s string) (r, g, b int) {
	if !IsColor(s) {
		return 0, 0, 0
	}
	v, _ := strconv.ParseUint(s[1:], 16, 32)
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}
