package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	eventStore "meetdesk/internal/adapters/storage/event"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/event"
	"meetdesk/internal/domain/program"
)

// ProgramLookup resolves programs.
type ProgramLookup interface {
	GetByID(ctx context.Context, id string) (program.Program, error)
}

// EventDeps holds dependencies for event and roster management.
type EventDeps struct {
	Store      eventStore.Store
	Programs   ProgramLookup
	Audit      AuditSink
	GenerateID func() string
	Now        func() time.Time
}

// EventInput carries an event create (empty ID) or update.
type EventInput struct {
	Actor            audit.Actor
	ID               string
	ProgramID        string
	Name             string
	Category         string
	Gender           string
	Kind             string
	Capacity         int
	MaxPerDepartment int
	Venue            string
	ScheduledAt      time.Time
	Status           string
	RegistrationOpen bool
	Description      string
}

// ExecuteSaveEvent creates or updates an event.
// PRE: program exists
// INVARIANT: capacity is never lowered below the current roster size; an event never changes program
func ExecuteSaveEvent(ctx context.Context, input EventInput, deps EventDeps) (event.Event, error) {
	e := event.Event{ID: deps.GenerateID(), ProgramID: input.ProgramID, CreatedAt: deps.Now()}
	action := audit.ActionCreate
	if input.ID != "" {
		existing, err := deps.Store.GetByID(ctx, input.ID)
		if err != nil {
			return event.Event{}, err
		}
		e = existing
		action = audit.ActionUpdate
	}
	e.Name = input.Name
	e.Category = input.Category
	e.Gender = input.Gender
	e.Kind = input.Kind
	e.Capacity = input.Capacity
	e.MaxPerDepartment = input.MaxPerDepartment
	e.Venue = input.Venue
	e.ScheduledAt = input.ScheduledAt
	e.Status = input.Status
	e.RegistrationOpen = input.RegistrationOpen
	e.Description = input.Description
	e.Normalize()
	if err := e.Validate(); err != nil {
		return event.Event{}, err
	}
	if _, err := deps.Programs.GetByID(ctx, e.ProgramID); err != nil {
		return event.Event{}, err
	}
	if action == audit.ActionUpdate {
		size, err := deps.Store.RosterSize(ctx, e.ID)
		if err != nil {
			return event.Event{}, err
		}
		if err := e.CheckCapacityChange(size); err != nil {
			return event.Event{}, err
		}
	}
	if err := deps.Store.Save(ctx, e); err != nil {
		return event.Event{}, err
	}
	slog.Info("event_event", "event", "event_saved", "event_id", e.ID, "program_id", e.ProgramID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(input.Actor, audit.CategoryEvent, action, deps.Now()).
		WithResource("event", e.ID).
		WithDescription(string(action)+" event "+e.Name))
	return e, nil
}

// ExecuteDeleteEvent deletes an event with its roster, teams, requests and certificates.
func ExecuteDeleteEvent(ctx context.Context, actor audit.Actor, id string, deps EventDeps) error {
	e, err := deps.Store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := deps.Store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("event_event", "event", "event_deleted", "event_id", id)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryEvent, audit.ActionDelete, deps.Now()).
		WithSeverity(audit.SeverityWarning).
		WithResource("event", id).
		WithDescription("deleted event "+e.Name))
	return nil
}

// ExecuteAddToRoster places a participant directly on an event roster.
// POST: capacity, department limit, gender and duplicate checks hold after the insert
func ExecuteAddToRoster(ctx context.Context, actor audit.Actor, eventID, participantID string, deps EventDeps) error {
	entry := event.RosterEntry{
		EventID:       eventID,
		ParticipantID: participantID,
		AddedAt:       deps.Now(),
		AddedBy:       actor.ID,
	}
	if err := deps.Store.AddToRoster(ctx, entry); err != nil {
		return err
	}
	slog.Info("event_event", "event", "roster_added", "event_id", eventID, "participant_id", participantID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryEvent, audit.ActionCreate, deps.Now()).
		WithResource("roster_entry", eventID+"/"+participantID).
		WithDescription("added participant to roster"))
	return nil
}

// ExecuteRemoveFromRoster takes a participant off a roster; their approved request becomes withdrawn.
func ExecuteRemoveFromRoster(ctx context.Context, actor audit.Actor, eventID, participantID string, deps EventDeps) error {
	if err := deps.Store.RemoveFromRoster(ctx, eventID, participantID); err != nil {
		return err
	}
	slog.Info("event_event", "event", "roster_removed", "event_id", eventID, "participant_id", participantID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryEvent, audit.ActionDelete, deps.Now()).
		WithResource("roster_entry", eventID+"/"+participantID).
		WithDescription("removed participant from roster"))
	return nil
}

// ResultInput records a placing for one roster entry.
type ResultInput struct {
	Actor         audit.Actor
	EventID       string
	ParticipantID string
	Position      int // 0 clears the placing
	Result        string
}

// ExecuteRecordResult sets the position and result of a roster entry.
// INVARIANT: in individual events each podium position is held by at most one participant
func ExecuteRecordResult(ctx context.Context, input ResultInput, deps EventDeps) error {
	if err := deps.Store.SetResult(ctx, input.EventID, input.ParticipantID, input.Position, input.Result); err != nil {
		return err
	}
	slog.Info("event_event", "event", "result_recorded", "event_id", input.EventID,
		"participant_id", input.ParticipantID, "position", input.Position)
	recordAudit(ctx, deps.Audit, audit.NewEvent(input.Actor, audit.CategoryEvent, audit.ActionUpdate, deps.Now()).
		WithResource("roster_entry", input.EventID+"/"+input.ParticipantID).
		WithDescription(fmt.Sprintf("recorded position %d result %q", input.Position, input.Result)))
	return nil
}
