package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	programStore "meetdesk/internal/adapters/storage/program"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/program"
)

// ProgramDeps holds dependencies for program management.
type ProgramDeps struct {
	Store      programStore.Store
	Audit      AuditSink
	GenerateID func() string
	Now        func() time.Time
}

// ProgramInput carries a program create (empty ID) or update. Dates are YYYY-MM-DD.
type ProgramInput struct {
	Actor       audit.Actor
	ID          string
	Name        string
	Slug        string // derived from Name when empty
	Year        int    // derived from StartDate when zero
	Venue       string
	StartDate   string
	EndDate     string
	Description string
}

// ExecuteSaveProgram creates or updates a program. New programs start inactive.
// INVARIANT: StartDate <= EndDate; slug unique
func ExecuteSaveProgram(ctx context.Context, input ProgramInput, deps ProgramDeps) (program.Program, error) {
	p := program.Program{ID: deps.GenerateID(), CreatedAt: deps.Now()}
	action := audit.ActionCreate
	if input.ID != "" {
		existing, err := deps.Store.GetByID(ctx, input.ID)
		if err != nil {
			return program.Program{}, err
		}
		p = existing
		action = audit.ActionUpdate
	}
	start, err := program.ParseDate(input.StartDate)
	if err != nil {
		return program.Program{}, err
	}
	end, err := program.ParseDate(input.EndDate)
	if err != nil {
		return program.Program{}, err
	}
	p.Name = input.Name
	p.Slug = input.Slug
	p.Year = input.Year
	p.Venue = input.Venue
	p.StartDate = start
	p.EndDate = end
	p.Description = input.Description
	p.Normalize()
	if err := p.Validate(); err != nil {
		return program.Program{}, err
	}
	if err := deps.Store.Save(ctx, p); err != nil {
		return program.Program{}, err
	}
	slog.Info("program_event", "event", "program_saved", "program_id", p.ID, "slug", p.Slug)
	recordAudit(ctx, deps.Audit, audit.NewEvent(input.Actor, audit.CategoryProgram, action, deps.Now()).
		WithResource("program", p.ID).
		WithDescription(string(action)+" program "+p.Name))
	return p, nil
}

// ExecuteActivateProgram makes id the only active program.
// POST: every other program is inactive, committed atomically
func ExecuteActivateProgram(ctx context.Context, actor audit.Actor, id string, deps ProgramDeps) (program.Program, error) {
	if err := deps.Store.Activate(ctx, id); err != nil {
		return program.Program{}, err
	}
	p, err := deps.Store.GetByID(ctx, id)
	if err != nil {
		return program.Program{}, err
	}
	slog.Info("program_event", "event", "program_activated", "program_id", id)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryProgram, audit.ActionUpdate, deps.Now()).
		WithResource("program", id).
		WithDescription("activated program "+p.Name))
	return p, nil
}

// ExecuteDeactivateProgram clears the active flag of id.
func ExecuteDeactivateProgram(ctx context.Context, actor audit.Actor, id string, deps ProgramDeps) error {
	if err := deps.Store.Deactivate(ctx, id); err != nil {
		return err
	}
	slog.Info("program_event", "event", "program_deactivated", "program_id", id)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryProgram, audit.ActionUpdate, deps.Now()).
		WithResource("program", id).
		WithDescription("deactivated program"))
	return nil
}

// ExecuteDeleteProgram deletes a program with its events, rosters, teams,
// requests and certificates in one transaction.
func ExecuteDeleteProgram(ctx context.Context, actor audit.Actor, id string, deps ProgramDeps) (programStore.CascadeResult, error) {
	p, err := deps.Store.GetByID(ctx, id)
	if err != nil {
		return programStore.CascadeResult{}, err
	}
	res, err := deps.Store.DeleteCascade(ctx, id)
	if err != nil {
		return programStore.CascadeResult{}, err
	}
	slog.Info("program_event", "event", "program_deleted", "program_id", id,
		"events", res.Events, "roster_entries", res.RosterRows, "teams", res.Teams,
		"requests", res.Requests, "certificates", res.Certificates)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryProgram, audit.ActionDelete, deps.Now()).
		WithSeverity(audit.SeverityCritical).
		WithResource("program", id).
		WithDescription(fmt.Sprintf("deleted program %s with %d events, %d requests and %d certificates",
			p.Name, res.Events, res.Requests, res.Certificates)))
	return res, nil
}
