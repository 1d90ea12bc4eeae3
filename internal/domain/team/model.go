package team

import (
	"strings"
	"time"

	"meetdesk/internal/domain/domainerr"
)

// MaxNameLength bounds team names.
const MaxNameLength = 80

// Domain errors
var (
	ErrEmptyName      = domainerr.Invalid("team name cannot be empty")
	ErrNameTooLong    = domainerr.Invalid("team name cannot exceed 80 characters")
	ErrMissingEvent   = domainerr.Invalid("event is required")
	ErrNotTeamEvent   = domainerr.Invalid("teams can only be created for team events")
	ErrDuplicateName  = domainerr.Conflict("a team with this name already exists for the event")
	ErrWrongEvent     = domainerr.Conflict("participant is on a different event")
	ErrAlreadyInTeam  = domainerr.Conflict("participant is already in a team for this event")
	ErrNotFound       = domainerr.NotFound("team not found")
	ErrMemberNotFound = domainerr.NotFound("participant is not a member of this team")
)

// Team groups roster entries of a team event.
type Team struct {
	ID           string
	ProgramID    string
	EventID      string
	Name         string
	DepartmentID string // optional
	CreatedAt    time.Time
}

// Member is a participant belonging to a team, as read from the roster.
type Member struct {
	TeamID        string
	ParticipantID string
	Name          string
	RegisterNo    string
}

// Validate checks if the Team has valid data.
// PRE: Team struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Team) Validate() error {
	t.Name = strings.TrimSpace(t.Name)
	if t.EventID == "" {
		return ErrMissingEvent
	}
	if t.Name == "" {
		return ErrEmptyName
	}
	if len(t.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}
