package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	requestStore "meetdesk/internal/adapters/storage/request"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/event"
	"meetdesk/internal/domain/participant"
	"meetdesk/internal/domain/program"
	"meetdesk/internal/domain/request"
)

// ParticipantLookup resolves participants by ID or register number.
type ParticipantLookup interface {
	GetByID(ctx context.Context, id string) (participant.Participant, error)
	GetByRegisterNo(ctx context.Context, registerNo string) (participant.Participant, error)
}

// ActiveProgramLookup resolves programs, including the single active one.
type ActiveProgramLookup interface {
	GetByID(ctx context.Context, id string) (program.Program, error)
	GetActive(ctx context.Context) (program.Program, error)
}

// RequestDeps holds dependencies for participation requests.
type RequestDeps struct {
	Store        requestStore.Store
	Participants ParticipantLookup
	Events       EventLookup
	Programs     ActiveProgramLookup
	Settings     SettingsReader
	Audit        AuditSink
	Mailer       *Mailer
	GenerateID   func() string
	Now          func() time.Time
}

// Identity is how a participant proves who they are on the public form.
type Identity struct {
	RegisterNo string
	Email      string
}

// SubmitRequestInput is a public request to join an event.
type SubmitRequestInput struct {
	Identity
	EventID string
	Note    string
}

// ExecuteSubmitRequest records a pending request and alerts staff.
// PRE: identity matches a participant; event belongs to the active program
// POST: request pending; a Telegram alert is queued
// INVARIANT: at most MaxEventsPerParticipant pending or approved requests per program
func ExecuteSubmitRequest(ctx context.Context, input SubmitRequestInput, deps RequestDeps) (request.Request, error) {
	p, err := identify(ctx, input.Identity, deps.Participants)
	if err != nil {
		return request.Request{}, err
	}
	st, err := deps.Settings.Get(ctx)
	if err != nil {
		return request.Request{}, err
	}
	if !st.RegistrationOpen {
		return request.Request{}, request.ErrRegistrationClosed
	}
	active, err := deps.Programs.GetActive(ctx)
	if err != nil {
		return request.Request{}, err
	}
	e, err := deps.Events.GetByID(ctx, input.EventID)
	if err != nil {
		return request.Request{}, err
	}
	if e.ProgramID != active.ID || !e.AcceptsRequests() {
		return request.Request{}, request.ErrRegistrationClosed
	}
	if !e.AcceptsGender(p.Gender) {
		return request.Request{}, event.ErrGenderMismatch
	}

	r := request.Request{
		ID:            deps.GenerateID(),
		ProgramID:     active.ID,
		EventID:       e.ID,
		ParticipantID: p.ID,
		Status:        request.StatusPending,
		Note:          strings.TrimSpace(input.Note),
		SubmittedAt:   deps.Now(),
	}
	if err := r.Validate(); err != nil {
		return request.Request{}, err
	}
	if err := deps.Store.Submit(ctx, r, st.MaxEventsPerParticipant); err != nil {
		return request.Request{}, err
	}
	slog.Info("request_event", "event", "request_submitted", "request_id", r.ID,
		"participant_id", p.ID, "event_id", e.ID)

	pending, err := deps.Store.Count(ctx, requestStore.ListFilter{Status: request.StatusPending})
	if err != nil {
		slog.Warn("request_event", "event", "pending_count_failed", "error", err)
	}
	deps.Mailer.StaffAlert(ctx, newRequestAlert(p.Name, p.RegisterNo, e.Name, pending))
	return r, nil
}

// WithdrawRequestInput is a participant cancelling their own request.
type WithdrawRequestInput struct {
	Identity
	RequestID string
}

// ExecuteWithdrawRequest withdraws a pending or approved request owned by the identified participant.
// POST: an approved request's roster entry is removed in the same transaction
func ExecuteWithdrawRequest(ctx context.Context, input WithdrawRequestInput, deps RequestDeps) (request.Request, error) {
	p, err := identify(ctx, input.Identity, deps.Participants)
	if err != nil {
		return request.Request{}, err
	}
	r, err := deps.Store.GetByID(ctx, input.RequestID)
	if err != nil {
		return request.Request{}, err
	}
	if r.ParticipantID != p.ID {
		// indistinguishable from a missing request
		return request.Request{}, request.ErrNotFound
	}
	r, err = deps.Store.Withdraw(ctx, r.ID, deps.Now())
	if err != nil {
		return request.Request{}, err
	}
	slog.Info("request_event", "event", "request_withdrawn", "request_id", r.ID, "participant_id", p.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(audit.Actor{ID: p.ID, Email: p.Email, Role: "participant"},
		audit.CategoryRequest, audit.ActionUpdate, deps.Now()).
		WithResource("request", r.ID).
		WithDescription("withdrew request"))
	return r, nil
}

// ExecuteApproveRequest approves a pending request and rosters the participant.
// POST: status approved and roster row inserted together, or neither
func ExecuteApproveRequest(ctx context.Context, actor audit.Actor, id string, deps RequestDeps) (request.Request, error) {
	r, err := deps.Store.Approve(ctx, id, actor.ID, deps.Now())
	if err != nil {
		return request.Request{}, err
	}
	slog.Info("request_event", "event", "request_approved", "request_id", id, "by", actor.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryRequest, audit.ActionApprove, deps.Now()).
		WithResource("request", id))
	notifyDecision(ctx, r, "", deps)
	return r, nil
}

// ExecuteRejectRequest rejects a pending request with a reason shown to the participant.
func ExecuteRejectRequest(ctx context.Context, actor audit.Actor, id, reason string, deps RequestDeps) (request.Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return request.Request{}, request.ErrReasonRequired
	}
	if len(reason) > request.MaxReasonLength {
		return request.Request{}, request.ErrReasonTooLong
	}
	r, err := deps.Store.Reject(ctx, id, actor.ID, reason, deps.Now())
	if err != nil {
		return request.Request{}, err
	}
	slog.Info("request_event", "event", "request_rejected", "request_id", id, "by", actor.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryRequest, audit.ActionReject, deps.Now()).
		WithResource("request", id).
		WithDescription(reason))
	notifyDecision(ctx, r, reason, deps)
	return r, nil
}

// BulkResult is the outcome for one request of a bulk decision.
type BulkResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ExecuteBulkDecide approves (reason empty, approve true) or rejects each ID independently.
// POST: one result per ID in input order; a failure does not stop the rest
func ExecuteBulkDecide(ctx context.Context, actor audit.Actor, ids []string, approve bool, reason string, deps RequestDeps) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		var err error
		if approve {
			_, err = ExecuteApproveRequest(ctx, actor, id, deps)
		} else {
			_, err = ExecuteRejectRequest(ctx, actor, id, reason, deps)
		}
		res := BulkResult{ID: id, OK: err == nil}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// notifyDecision emails the participant about an approval or rejection.
// Lookup failures are logged; the decision already stands.
func notifyDecision(ctx context.Context, r request.Request, reason string, deps RequestDeps) {
	if deps.Mailer == nil {
		return
	}
	p, err := deps.Participants.GetByID(ctx, r.ParticipantID)
	if err != nil {
		slog.Warn("request_event", "event", "notify_lookup_failed", "request_id", r.ID, "error", err)
		return
	}
	e, err := deps.Events.GetByID(ctx, r.EventID)
	if err != nil {
		slog.Warn("request_event", "event", "notify_lookup_failed", "request_id", r.ID, "error", err)
		return
	}
	meet := deps.Mailer.MeetName(ctx)
	var subject, body string
	if r.Status == request.StatusApproved {
		programName := ""
		if prog, err := deps.Programs.GetByID(ctx, r.ProgramID); err == nil {
			programName = prog.Name
		}
		subject, body = requestApprovedMessage(meet, p.Name, e.Name, programName)
	} else {
		subject, body = requestRejectedMessage(meet, p.Name, e.Name, reason)
	}
	deps.Mailer.Email(ctx, p.Email, subject, body)
}

// identify resolves a participant from register number and email.
// POST: request.ErrIdentityMismatch for an unknown register number or a wrong email
func identify(ctx context.Context, id Identity, participants ParticipantLookup) (participant.Participant, error) {
	regNo := strings.ToUpper(strings.TrimSpace(id.RegisterNo))
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if regNo == "" || email == "" {
		return participant.Participant{}, request.ErrIdentityMismatch
	}
	p, err := participants.GetByRegisterNo(ctx, regNo)
	if errors.Is(err, participant.ErrNotFound) {
		return participant.Participant{}, request.ErrIdentityMismatch
	}
	if err != nil {
		return participant.Participant{}, err
	}
	if p.Email != email {
		return participant.Participant{}, request.ErrIdentityMismatch
	}
	return p, nil
}
