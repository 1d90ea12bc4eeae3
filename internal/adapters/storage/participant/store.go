package participant

import (
	"context"

	domain "meetdesk/internal/domain/participant"
)

// Store persists participants.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Participant, error)
	GetByRegisterNo(ctx context.Context, registerNo string) (domain.Participant, error)
	Save(ctx context.Context, p domain.Participant) error
	SaveMany(ctx context.Context, ps []domain.Participant) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]Row, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// Sortable columns for List.
var SortColumns = []string{"name", "register_no", "created_at", "department"}

// ListFilter carries filtering, sorting and paging for List and Count.
type ListFilter struct {
	Search       string // matches name, register number or email
	DepartmentID string
	BatchID      string
	Gender       string
	Sort         string // one of SortColumns; default name
	Desc         bool
	Limit        int
	Offset       int
}

// Row is a participant joined with its department and batch labels.
type Row struct {
	domain.Participant
	DepartmentCode string
	DepartmentName string
	BatchName      string
}
