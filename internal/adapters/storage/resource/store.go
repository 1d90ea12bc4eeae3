package resource

import (
	"context"

	domain "meetdesk/internal/domain/resource"
)

// Store persists departments and batches.
type Store interface {
	GetDepartment(ctx context.Context, id string) (domain.Department, error)
	GetDepartmentByCode(ctx context.Context, code string) (domain.Department, error)
	SaveDepartment(ctx context.Context, d domain.Department) error
	DeleteDepartment(ctx context.Context, id string) error
	ListDepartments(ctx context.Context) ([]DepartmentRow, error)

	GetBatch(ctx context.Context, id string) (domain.Batch, error)
	GetBatchByName(ctx context.Context, name string) (domain.Batch, error)
	SaveBatch(ctx context.Context, b domain.Batch) error
	DeleteBatch(ctx context.Context, id string) error
	ListBatches(ctx context.Context) ([]BatchRow, error)
}

// DepartmentRow is a department with its participant count.
type DepartmentRow struct {
	domain.Department
	Participants int
}

// BatchRow is a batch with its participant count.
type BatchRow struct {
	domain.Batch
	Participants int
}
