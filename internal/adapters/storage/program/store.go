package program

import (
	"context"

	domain "meetdesk/internal/domain/program"
)

// Store persists programs.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Program, error)
	GetActive(ctx context.Context) (domain.Program, error)
	Save(ctx context.Context, p domain.Program) error
	List(ctx context.Context) ([]Summary, error)
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	DeleteCascade(ctx context.Context, id string) (CascadeResult, error)
}

// Summary is a program with aggregate counts for list views.
type Summary struct {
	domain.Program
	Events          int
	PendingRequests int
}

// CascadeResult reports how many dependent rows a program delete removed.
type CascadeResult struct {
	Events       int64 `json:"events"`
	RosterRows   int64 `json:"roster_entries"`
	Teams        int64 `json:"teams"`
	Requests     int64 `json:"requests"`
	Certificates int64 `json:"certificates"`
}
