package event

import (
	"context"

	domain "meetdesk/internal/domain/event"
)

// Store persists events and their rosters.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, e domain.Event) error
	Delete(ctx context.Context, id string) error
	ListByProgram(ctx context.Context, programID string) ([]Summary, error)

	RosterSize(ctx context.Context, eventID string) (int, error)
	Roster(ctx context.Context, eventID string) ([]RosterRow, error)
	GetRosterEntry(ctx context.Context, eventID, participantID string) (domain.RosterEntry, error)
	AddToRoster(ctx context.Context, entry domain.RosterEntry) error
	RemoveFromRoster(ctx context.Context, eventID, participantID string) error
	SetResult(ctx context.Context, eventID, participantID string, position int, result string) error
}

// Summary is an event with roster and request counts.
type Summary struct {
	domain.Event
	RosterSize      int
	PendingRequests int
}

// RosterRow is a roster entry joined with participant, department and team names.
type RosterRow struct {
	domain.RosterEntry
	Name           string
	RegisterNo     string
	Email          string
	Gender         string
	DepartmentID   string
	DepartmentCode string
	BatchName      string
	TeamName       string
}
