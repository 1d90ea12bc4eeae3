package projections

import (
	"context"
	"errors"

	certStore "meetdesk/internal/adapters/storage/certificate"
	participantStore "meetdesk/internal/adapters/storage/participant"
	requestStore "meetdesk/internal/adapters/storage/request"
	"meetdesk/internal/domain/outbox"
	"meetdesk/internal/domain/program"
	"meetdesk/internal/domain/request"
)

// dashboardQueueSize is how many pending requests the dashboard lists.
const dashboardQueueSize = 5

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	Participants ParticipantLister
	Resources    ResourceLister
	Programs     ProgramReader
	Events       EventReader
	Requests     RequestLister
	Certificates CertificateLister
	Outbox       OutboxCounter // optional: nil leaves OutboxFailed at zero
}

// DashboardResult carries the admin landing page counters.
type DashboardResult struct {
	Participants       int           `json:"participants"`
	Departments        int           `json:"departments"`
	Batches            int           `json:"batches"`
	Programs           int           `json:"programs"`
	ActiveProgram      *ProgramView  `json:"active_program"`
	ActiveEvents       int           `json:"active_events"`
	PendingRequests    int           `json:"pending_requests"`
	CertificatesIssued int           `json:"certificates_issued"`
	OutboxFailed       int           `json:"outbox_failed"`
	RecentRequests     []RequestView `json:"recent_requests"` // oldest pending first
}

// QueryGetDashboard gathers the dashboard counters.
// POST: ActiveProgram is nil and ActiveEvents zero when no program is active
// INVARIANT: PendingRequests counts every program, RecentRequests only the active one
func QueryGetDashboard(ctx context.Context, deps GetDashboardDeps) (DashboardResult, error) {
	var res DashboardResult
	var err error

	if res.Participants, err = deps.Participants.Count(ctx, participantStore.ListFilter{}); err != nil {
		return DashboardResult{}, err
	}
	depts, err := deps.Resources.ListDepartments(ctx)
	if err != nil {
		return DashboardResult{}, err
	}
	batches, err := deps.Resources.ListBatches(ctx)
	if err != nil {
		return DashboardResult{}, err
	}
	res.Departments, res.Batches = len(depts), len(batches)

	programs, err := deps.Programs.List(ctx)
	if err != nil {
		return DashboardResult{}, err
	}
	res.Programs = len(programs)

	if res.PendingRequests, err = deps.Requests.Count(ctx, requestStore.ListFilter{Status: request.StatusPending}); err != nil {
		return DashboardResult{}, err
	}
	if res.CertificatesIssued, err = deps.Certificates.Count(ctx, certStore.ListFilter{}); err != nil {
		return DashboardResult{}, err
	}
	if deps.Outbox != nil {
		counts, err := deps.Outbox.CountByStatus(ctx)
		if err != nil {
			return DashboardResult{}, err
		}
		res.OutboxFailed = counts[outbox.StatusFailed]
	}

	res.RecentRequests = []RequestView{}
	active, err := deps.Programs.GetActive(ctx)
	if errors.Is(err, program.ErrNoActiveProgram) {
		return res, nil
	}
	if err != nil {
		return DashboardResult{}, err
	}
	for _, s := range programs {
		if s.ID == active.ID {
			v := programSummaryView(s)
			res.ActiveProgram = &v
		}
	}
	if res.ActiveProgram == nil {
		v := programView(active)
		res.ActiveProgram = &v
	}
	events, err := deps.Events.ListByProgram(ctx, active.ID)
	if err != nil {
		return DashboardResult{}, err
	}
	res.ActiveEvents = len(events)

	rows, err := deps.Requests.List(ctx, requestStore.ListFilter{
		Status: request.StatusPending, ProgramID: active.ID, Limit: dashboardQueueSize,
	})
	if err != nil {
		return DashboardResult{}, err
	}
	for _, r := range rows {
		res.RecentRequests = append(res.RecentRequests, requestView(r))
	}
	return res, nil
}
