package request

import (
	"context"
	"time"

	domain "meetdesk/internal/domain/request"
)

// Store persists participation requests.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Request, error)
	Submit(ctx context.Context, r domain.Request, maxPerProgram int) error
	List(ctx context.Context, f ListFilter) ([]Row, error)
	Count(ctx context.Context, f ListFilter) (int, error)
	Approve(ctx context.Context, id, by string, now time.Time) (domain.Request, error)
	Reject(ctx context.Context, id, by, reason string, now time.Time) (domain.Request, error)
	Withdraw(ctx context.Context, id string, now time.Time) (domain.Request, error)
}

// ListFilter narrows List and Count. Empty fields match everything.
type ListFilter struct {
	Status        string
	ProgramID     string
	EventID       string
	ParticipantID string
	Limit         int
	Offset        int
}

// Row is a request joined with participant, event and program names.
type Row struct {
	domain.Request
	ParticipantName string
	RegisterNo      string
	Email           string
	DepartmentCode  string
	EventName       string
	ProgramName     string
}
