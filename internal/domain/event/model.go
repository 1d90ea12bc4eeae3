package event

import (
	"strings"
	"time"

	"meetdesk/internal/domain/domainerr"
	"meetdesk/internal/domain/participant"
)

// Category constants
const (
	CategoryTrack = "track"
	CategoryField = "field"
	CategoryRelay = "relay"
	CategoryTeam  = "team"
	CategoryOther = "other"
)

// Gender constants. Mixed events accept every participant.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderMixed  = "mixed"
)

// Kind constants
const (
	KindIndividual = "individual"
	KindTeam       = "team"
)

// Status constants
const (
	StatusScheduled = "scheduled"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength        = 120
	MaxVenueLength       = 200
	MaxResultLength      = 64
	MaxDescriptionLength = 5000
	MaxPosition          = 3
)

// Domain errors
var (
	ErrEmptyName         = domainerr.Invalid("event name cannot be empty")
	ErrNameTooLong       = domainerr.Invalid("event name cannot exceed 120 characters")
	ErrVenueTooLong      = domainerr.Invalid("venue cannot exceed 200 characters")
	ErrDescTooLong       = domainerr.Invalid("description is too long")
	ErrMissingProgram    = domainerr.Invalid("program is required")
	ErrInvalidCategory   = domainerr.Invalid("category must be one of: track, field, relay, team, other")
	ErrInvalidGender     = domainerr.Invalid("gender must be one of: male, female, mixed")
	ErrInvalidKind       = domainerr.Invalid("kind must be one of: individual, team")
	ErrInvalidStatus     = domainerr.Invalid("status must be one of: scheduled, ongoing, completed, cancelled")
	ErrNegativeLimit     = domainerr.Invalid("capacity and per-department limit cannot be negative")
	ErrInvalidPosition   = domainerr.Invalid("position must be between 0 and 3")
	ErrResultTooLong     = domainerr.Invalid("result cannot exceed 64 characters")
	ErrGenderMismatch    = domainerr.Invalid("participant gender does not match the event")
	ErrEventFull         = domainerr.Conflict("event has reached its capacity")
	ErrDepartmentFull    = domainerr.Conflict("department has reached its limit for this event")
	ErrAlreadyOnRoster   = domainerr.Conflict("participant is already on the roster")
	ErrPositionTaken     = domainerr.Conflict("another participant already holds this position")
	ErrEventClosed       = domainerr.Conflict("event is not accepting entries")
	ErrCapacityBelowSize = domainerr.Conflict("capacity is below the current roster size")
	ErrNotFound          = domainerr.NotFound("event not found")
	ErrNotOnRoster       = domainerr.NotFound("participant is not on the roster")
)

// Event is a single competition within a program.
type Event struct {
	ID               string
	ProgramID        string
	Name             string
	Category         string
	Gender           string
	Kind             string
	Capacity         int // 0 = unlimited
	MaxPerDepartment int // 0 = unlimited
	Venue            string
	ScheduledAt      time.Time
	Status           string
	RegistrationOpen bool
	Description      string
	CreatedAt        time.Time
}

// RosterEntry places a participant in an event.
type RosterEntry struct {
	EventID       string
	ParticipantID string
	TeamID        string
	Position      int // 0 = unplaced, 1-3 podium
	Result        string
	AddedAt       time.Time
	AddedBy       string
}

// RosterState summarises an event's current roster for admission checks.
type RosterState struct {
	Size            int
	DepartmentCount int // entries from the candidate's department
	AlreadyOnRoster bool
}

// Normalize trims free text and applies defaults for empty enum fields.
func (e *Event) Normalize() {
	e.Name = strings.TrimSpace(e.Name)
	e.Venue = strings.TrimSpace(e.Venue)
	if e.Category == "" {
		e.Category = CategoryOther
	}
	if e.Gender == "" {
		e.Gender = GenderMixed
	}
	if e.Kind == "" {
		e.Kind = KindIndividual
		if e.Category == CategoryTeam || e.Category == CategoryRelay {
			e.Kind = KindTeam
		}
	}
	if e.Status == "" {
		e.Status = StatusScheduled
	}
}

// Validate checks if the Event has valid data.
// PRE: Normalize has been called
// POST: Returns nil if valid, error otherwise
func (e *Event) Validate() error {
	if e.ProgramID == "" {
		return ErrMissingProgram
	}
	if e.Name == "" {
		return ErrEmptyName
	}
	if len(e.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(e.Venue) > MaxVenueLength {
		return ErrVenueTooLong
	}
	if len(e.Description) > MaxDescriptionLength {
		return ErrDescTooLong
	}
	if !oneOf(e.Category, CategoryTrack, CategoryField, CategoryRelay, CategoryTeam, CategoryOther) {
		return ErrInvalidCategory
	}
	if !oneOf(e.Gender, GenderMale, GenderFemale, GenderMixed) {
		return ErrInvalidGender
	}
	if !oneOf(e.Kind, KindIndividual, KindTeam) {
		return ErrInvalidKind
	}
	if !oneOf(e.Status, StatusScheduled, StatusOngoing, StatusCompleted, StatusCancelled) {
		return ErrInvalidStatus
	}
	if e.Capacity < 0 || e.MaxPerDepartment < 0 {
		return ErrNegativeLimit
	}
	return nil
}

// IsTeamEvent reports whether entries are grouped into teams.
func (e *Event) IsTeamEvent() bool {
	return e.Kind == KindTeam
}

// AcceptsRequests reports whether participants can ask to join.
func (e *Event) AcceptsRequests() bool {
	return e.RegistrationOpen && (e.Status == StatusScheduled || e.Status == StatusOngoing)
}

// AcceptsGender reports whether a participant of gender g may enter.
func (e *Event) AcceptsGender(g string) bool {
	if e.Gender == GenderMixed {
		return true
	}
	return e.Gender == g
}

// CheckAdmission decides whether p may be added given the current roster.
// PRE: state reflects the roster inside the same transaction as the insert
// POST: nil means the insert keeps every roster limit intact
func (e *Event) CheckAdmission(p participant.Participant, state RosterState) error {
	if e.Status == StatusCancelled || e.Status == StatusCompleted {
		return ErrEventClosed
	}
	if state.AlreadyOnRoster {
		return ErrAlreadyOnRoster
	}
	if !e.AcceptsGender(p.Gender) {
		return ErrGenderMismatch
	}
	if e.Capacity > 0 && state.Size >= e.Capacity {
		return ErrEventFull
	}
	if e.MaxPerDepartment > 0 && state.DepartmentCount >= e.MaxPerDepartment {
		return ErrDepartmentFull
	}
	return nil
}

// CheckCapacityChange rejects shrinking capacity below the current roster size.
func (e *Event) CheckCapacityChange(rosterSize int) error {
	if e.Capacity > 0 && e.Capacity < rosterSize {
		return ErrCapacityBelowSize
	}
	return nil
}

// ValidateResult checks a position/result pair for a roster entry.
func ValidateResult(position int, result string) error {
	if position < 0 || position > MaxPosition {
		return ErrInvalidPosition
	}
	if len(result) > MaxResultLength {
		return ErrResultTooLong
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
