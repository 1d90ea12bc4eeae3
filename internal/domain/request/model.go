package request

import (
	"strings"
	"time"

	"meetdesk/internal/domain/domainerr"
)

// Status constants
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusWithdrawn = "withdrawn"
)

// Max length constants for user-editable fields.
const (
	MaxNoteLength   = 500
	MaxReasonLength = 500
)

// Domain errors
var (
	ErrMissingEvent       = domainerr.Invalid("event is required")
	ErrMissingParticipant = domainerr.Invalid("participant is required")
	ErrNoteTooLong        = domainerr.Invalid("note cannot exceed 500 characters")
	ErrReasonTooLong      = domainerr.Invalid("reason cannot exceed 500 characters")
	ErrReasonRequired     = domainerr.Invalid("a reason is required to reject a request")
	ErrInvalidStatus      = domainerr.Invalid("status must be one of: pending, approved, rejected, withdrawn")
	ErrNotPending         = domainerr.Conflict("request has already been decided")
	ErrCannotWithdraw     = domainerr.Conflict("request can no longer be withdrawn")
	ErrDuplicate          = domainerr.Conflict("a request for this event is already pending or approved")
	ErrLimitReached       = domainerr.Conflict("participant has reached the maximum number of events")
	ErrRegistrationClosed = domainerr.Conflict("registration is closed")
	ErrIdentityMismatch   = domainerr.Forbidden("register number and email do not match")
	ErrNotFound           = domainerr.NotFound("request not found")
)

// Request is a participant's request to join an event.
type Request struct {
	ID            string
	ProgramID     string
	EventID       string
	ParticipantID string
	Status        string
	Note          string // from the participant
	Reason        string // from staff on rejection
	SubmittedAt   time.Time
	DecidedAt     time.Time
	DecidedBy     string
}

// Validate checks if the Request has valid data.
// PRE: Request struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Request) Validate() error {
	if r.EventID == "" {
		return ErrMissingEvent
	}
	if r.ParticipantID == "" {
		return ErrMissingParticipant
	}
	if len(r.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	if len(r.Reason) > MaxReasonLength {
		return ErrReasonTooLong
	}
	switch r.Status {
	case StatusPending, StatusApproved, StatusRejected, StatusWithdrawn:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// IsPending reports whether staff has yet to decide.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// IsLive reports whether the request counts toward limits and duplicates.
func (r *Request) IsLive() bool {
	return r.Status == StatusPending || r.Status == StatusApproved
}

// Approve transitions a pending request to approved.
// PRE: Status is pending
// POST: Status approved, DecidedAt/DecidedBy set
func (r *Request) Approve(by string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	r.Status = StatusApproved
	r.DecidedAt = now
	r.DecidedBy = by
	return nil
}

// Reject transitions a pending request to rejected with a reason.
// PRE: Status is pending; reason non-empty
// POST: Status rejected, Reason/DecidedAt/DecidedBy set
func (r *Request) Reject(by, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	if len(reason) > MaxReasonLength {
		return ErrReasonTooLong
	}
	if r.Status != StatusPending {
		return ErrNotPending
	}
	r.Status = StatusRejected
	r.Reason = reason
	r.DecidedAt = now
	r.DecidedBy = by
	return nil
}

// Withdraw cancels a pending or approved request.
// POST: Status withdrawn; caller removes the roster entry when it was approved
func (r *Request) Withdraw(now time.Time) error {
	if !r.IsLive() {
		return ErrCannotWithdraw
	}
	r.Status = StatusWithdrawn
	r.DecidedAt = now
	return nil
}
