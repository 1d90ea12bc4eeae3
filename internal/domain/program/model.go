package program

import (
	"strconv"
	"strings"
	"time"

	"meetdesk/internal/domain/domainerr"
	"meetdesk/internal/domain/slug"
)

// DateLayout is the wire and storage format for program dates.
const DateLayout = "2006-01-02"

// Max length constants for user-editable fields.
const (
	MaxNameLength        = 120
	MaxVenueLength       = 200
	MaxDescriptionLength = 20000
	MaxSlugLength        = 48
)

// Domain errors
var (
	ErrEmptyName       = domainerr.Invalid("program name cannot be empty")
	ErrNameTooLong     = domainerr.Invalid("program name cannot exceed 120 characters")
	ErrVenueTooLong    = domainerr.Invalid("venue cannot exceed 200 characters")
	ErrDescTooLong     = domainerr.Invalid("description is too long")
	ErrInvalidYear     = domainerr.Invalid("year must be between 2000 and 2200")
	ErrInvalidSlug     = domainerr.Invalid("slug must contain only a-z, 0-9 and hyphens")
	ErrMissingDates    = domainerr.Invalid("start and end dates are required")
	ErrDateOrder       = domainerr.Invalid("start date must not be after end date")
	ErrDuplicateSlug   = domainerr.Conflict("a program with this slug already exists")
	ErrNoActiveProgram = domainerr.Conflict("no program is currently active")
	ErrNotFound        = domainerr.NotFound("program not found")
)

// Program is one edition of the athletic meet. At most one program is active.
type Program struct {
	ID          string
	Name        string
	Slug        string
	Year        int
	Venue       string
	StartDate   time.Time
	EndDate     time.Time
	Description string // markdown
	Active      bool
	CreatedAt   time.Time
}

// Normalize trims fields, derives Year from StartDate and the slug from the
// name when they are empty.
func (p *Program) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Venue = strings.TrimSpace(p.Venue)
	p.Slug = strings.TrimSpace(p.Slug)
	if p.Year == 0 && !p.StartDate.IsZero() {
		p.Year = p.StartDate.Year()
	}
	if p.Slug == "" && p.Name != "" {
		p.Slug = slug.Make(p.Name, MaxSlugLength)
	}
}

// Validate checks if the Program has valid data.
// PRE: Normalize has been called
// POST: Returns nil if valid, error otherwise
// INVARIANT: StartDate <= EndDate
func (p *Program) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if len(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(p.Venue) > MaxVenueLength {
		return ErrVenueTooLong
	}
	if len(p.Description) > MaxDescriptionLength {
		return ErrDescTooLong
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return ErrMissingDates
	}
	if p.Year < 2000 || p.Year > 2200 {
		return ErrInvalidYear
	}
	if len(p.Slug) > MaxSlugLength || !slug.Valid(p.Slug) {
		return ErrInvalidSlug
	}
	if p.StartDate.After(p.EndDate) {
		return ErrDateOrder
	}
	return nil
}

// SerialPrefix is the certificate serial prefix for this program. Serials
// carry the year separately, so a trailing "-<Year>" on the slug is dropped:
// "sports-meet-2026" becomes "SPORTS-MEET".
func (p *Program) SerialPrefix() string {
	prefix := p.Slug
	if p.Year > 0 {
		if trimmed := strings.TrimSuffix(prefix, "-"+strconv.Itoa(p.Year)); trimmed != "" {
			prefix = trimmed
		}
	}
	return strings.ToUpper(prefix)
}

// ParseDate parses a YYYY-MM-DD date. Empty input yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, domainerr.Invalid("date must be YYYY-MM-DD")
	}
	return t, nil
}
