package orchestrators

import (
	"context"
	"log/slog"
	"time"

	teamStore "meetdesk/internal/adapters/storage/team"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/event"
	"meetdesk/internal/domain/team"
)

// EventLookup resolves events.
type EventLookup interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

// TeamDeps holds dependencies for team management.
type TeamDeps struct {
	Store      teamStore.Store
	Events     EventLookup
	Audit      AuditSink
	GenerateID func() string
	Now        func() time.Time
}

// TeamInput carries a team create (empty ID) or rename.
type TeamInput struct {
	Actor        audit.Actor
	ID           string
	EventID      string
	Name         string
	DepartmentID string
}

// ExecuteSaveTeam creates a team for a team event, or renames an existing one.
// PRE: the event is a team event
func ExecuteSaveTeam(ctx context.Context, input TeamInput, deps TeamDeps) (team.Team, error) {
	t := team.Team{ID: deps.GenerateID(), EventID: input.EventID, CreatedAt: deps.Now()}
	action := audit.ActionCreate
	if input.ID != "" {
		existing, err := deps.Store.GetByID(ctx, input.ID)
		if err != nil {
			return team.Team{}, err
		}
		t = existing
		action = audit.ActionUpdate
	}
	t.Name = input.Name
	t.DepartmentID = input.DepartmentID
	if err := t.Validate(); err != nil {
		return team.Team{}, err
	}
	e, err := deps.Events.GetByID(ctx, t.EventID)
	if err != nil {
		return team.Team{}, err
	}
	if !e.IsTeamEvent() {
		return team.Team{}, team.ErrNotTeamEvent
	}
	t.ProgramID = e.ProgramID
	if err := deps.Store.Save(ctx, t); err != nil {
		return team.Team{}, err
	}
	slog.Info("team_event", "event", "team_saved", "team_id", t.ID, "event_id", t.EventID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(input.Actor, audit.CategoryEvent, action, deps.Now()).
		WithResource("team", t.ID).
		WithDescription(string(action)+" team "+t.Name))
	return t, nil
}

// ExecuteDeleteTeam deletes a team; its members stay on the event roster.
func ExecuteDeleteTeam(ctx context.Context, actor audit.Actor, id string, deps TeamDeps) error {
	t, err := deps.Store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := deps.Store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("team_event", "event", "team_deleted", "team_id", id)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryEvent, audit.ActionDelete, deps.Now()).
		WithResource("team", id).
		WithDescription("deleted team "+t.Name))
	return nil
}

// ExecuteSetTeamMember adds (member=true) or removes a rostered participant from a team.
// PRE: the participant is on the team's event roster
// INVARIANT: a participant is in at most one team per event
func ExecuteSetTeamMember(ctx context.Context, actor audit.Actor, teamID, participantID string, member bool, deps TeamDeps) error {
	var err error
	action := audit.ActionCreate
	if member {
		err = deps.Store.AddMember(ctx, teamID, participantID)
	} else {
		err = deps.Store.RemoveMember(ctx, teamID, participantID)
		action = audit.ActionDelete
	}
	if err != nil {
		return err
	}
	slog.Info("team_event", "event", "team_member_changed", "team_id", teamID, "participant_id", participantID, "member", member)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryEvent, action, deps.Now()).
		WithResource("team_member", teamID+"/"+participantID))
	return nil
}
