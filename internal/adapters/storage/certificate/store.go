package certificate

import (
	"context"

	domain "meetdesk/internal/domain/certificate"
)

// Store persists issued certificates.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Certificate, error)
	GetBySerial(ctx context.Context, serial string) (domain.Certificate, error)
	Issue(ctx context.Context, c domain.Certificate, serialPrefix string, year int) (domain.Certificate, bool, error)
	List(ctx context.Context, f ListFilter) ([]Row, error)
	Count(ctx context.Context, f ListFilter) (int, error)
	Delete(ctx context.Context, id string) error
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	ProgramID     string
	EventID       string
	ParticipantID string
	Limit         int
	Offset        int
}

// Row is a certificate joined with the names printed on it.
type Row struct {
	domain.Certificate
	ParticipantName string
	RegisterNo      string
	Email           string
	DepartmentName  string
	EventName       string
	ProgramName     string
}
