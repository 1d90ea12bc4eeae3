package projections

import (
	"context"

	auditStore "meetdesk/internal/adapters/storage/audit"
	certStore "meetdesk/internal/adapters/storage/certificate"
	eventStore "meetdesk/internal/adapters/storage/event"
	participantStore "meetdesk/internal/adapters/storage/participant"
	programStore "meetdesk/internal/adapters/storage/program"
	requestStore "meetdesk/internal/adapters/storage/request"
	resourceStore "meetdesk/internal/adapters/storage/resource"
	teamStore "meetdesk/internal/adapters/storage/team"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/event"
	"meetdesk/internal/domain/program"
	"meetdesk/internal/domain/team"
)

// ParticipantLister lists participants with their department and batch labels.
type ParticipantLister interface {
	List(ctx context.Context, filter participantStore.ListFilter) ([]participantStore.Row, error)
	Count(ctx context.Context, filter participantStore.ListFilter) (int, error)
}

// RequestLister lists participation requests with joined names.
type RequestLister interface {
	List(ctx context.Context, f requestStore.ListFilter) ([]requestStore.Row, error)
	Count(ctx context.Context, f requestStore.ListFilter) (int, error)
}

// ProgramReader reads programs.
type ProgramReader interface {
	GetByID(ctx context.Context, id string) (program.Program, error)
	GetActive(ctx context.Context) (program.Program, error)
	List(ctx context.Context) ([]programStore.Summary, error)
}

// EventReader reads events and rosters.
type EventReader interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	ListByProgram(ctx context.Context, programID string) ([]eventStore.Summary, error)
	Roster(ctx context.Context, eventID string) ([]eventStore.RosterRow, error)
}

// TeamReader reads the teams of an event.
type TeamReader interface {
	ListByEvent(ctx context.Context, eventID string) ([]teamStore.Summary, error)
	Members(ctx context.Context, teamID string) ([]team.Member, error)
}

// ResourceLister lists departments and batches.
type ResourceLister interface {
	ListDepartments(ctx context.Context) ([]resourceStore.DepartmentRow, error)
	ListBatches(ctx context.Context) ([]resourceStore.BatchRow, error)
}

// CertificateLister lists issued certificates.
type CertificateLister interface {
	List(ctx context.Context, f certStore.ListFilter) ([]certStore.Row, error)
	Count(ctx context.Context, f certStore.ListFilter) (int, error)
}

// AuditLister reads the audit log.
type AuditLister interface {
	List(ctx context.Context, filter auditStore.Filter, limit, offset int) ([]audit.Event, error)
	Count(ctx context.Context, filter auditStore.Filter) (int, error)
}

// OutboxCounter reports outbox entries per status.
type OutboxCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}
