package orchestrators

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	resourceStore "meetdesk/internal/adapters/storage/resource"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/resource"
)

// ResourceDeps holds dependencies for department and batch management.
type ResourceDeps struct {
	Store      resourceStore.Store
	Audit      AuditSink
	GenerateID func() string
	Now        func() time.Time
}

// DepartmentInput carries a department create (empty ID) or update.
type DepartmentInput struct {
	Actor audit.Actor
	ID    string
	Name  string
	Code  string
}

// ExecuteSaveDepartment creates or updates a department.
// POST: code is upper-case and unique
func ExecuteSaveDepartment(ctx context.Context, input DepartmentInput, deps ResourceDeps) (resource.Department, error) {
	d := resource.Department{ID: deps.GenerateID(), CreatedAt: deps.Now()}
	action := audit.ActionCreate
	if input.ID != "" {
		existing, err := deps.Store.GetDepartment(ctx, input.ID)
		if err != nil {
			return resource.Department{}, err
		}
		d = existing
		action = audit.ActionUpdate
	}
	d.Name = input.Name
	d.Code = input.Code
	d.Normalize()
	if err := d.Validate(); err != nil {
		return resource.Department{}, err
	}
	if err := deps.Store.SaveDepartment(ctx, d); err != nil {
		return resource.Department{}, err
	}
	slog.Info("resource_event", "event", "department_saved", "department_id", d.ID, "code", d.Code)
	recordAudit(ctx, deps.Audit, audit.NewEvent(input.Actor, audit.CategoryResource, action, deps.Now()).
		WithResource("department", d.ID).
		WithDescription(string(action)+" department "+d.Code))
	return d, nil
}

// ExecuteDeleteDepartment deletes a department no participant references.
// POST: resource.ErrInUse while participants reference it
func ExecuteDeleteDepartment(ctx context.Context, actor audit.Actor, id string, deps ResourceDeps) error {
	d, err := deps.Store.GetDepartment(ctx, id)
	if err != nil {
		return err
	}
	if err := deps.Store.DeleteDepartment(ctx, id); err != nil {
		return err
	}
	slog.Info("resource_event", "event", "department_deleted", "department_id", id, "code", d.Code)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryResource, audit.ActionDelete, deps.Now()).
		WithResource("department", id).
		WithDescription("deleted department "+d.Code))
	return nil
}

// BatchInput carries a batch create (empty ID) or update. An empty name
// defaults to "StartYear-EndYear".
type BatchInput struct {
	Actor     audit.Actor
	ID        string
	Name      string
	StartYear int
	EndYear   int
}

// ExecuteSaveBatch creates or updates a batch.
// INVARIANT: EndYear > StartYear
func ExecuteSaveBatch(ctx context.Context, input BatchInput, deps ResourceDeps) (resource.Batch, error) {
	b := resource.Batch{ID: deps.GenerateID(), CreatedAt: deps.Now()}
	action := audit.ActionCreate
	if input.ID != "" {
		existing, err := deps.Store.GetBatch(ctx, input.ID)
		if err != nil {
			return resource.Batch{}, err
		}
		b = existing
		action = audit.ActionUpdate
	}
	b.Name = input.Name
	b.StartYear = input.StartYear
	b.EndYear = input.EndYear
	b.Normalize()
	if err := b.Validate(); err != nil {
		return resource.Batch{}, err
	}
	if err := deps.Store.SaveBatch(ctx, b); err != nil {
		return resource.Batch{}, err
	}
	slog.Info("resource_event", "event", "batch_saved", "batch_id", b.ID, "name", b.Name)
	recordAudit(ctx, deps.Audit, audit.NewEvent(input.Actor, audit.CategoryResource, action, deps.Now()).
		WithResource("batch", b.ID).
		WithDescription(string(action)+" batch "+b.Name+" ("+strconv.Itoa(b.StartYear)+"-"+strconv.Itoa(b.EndYear)+")"))
	return b, nil
}

// ExecuteDeleteBatch deletes a batch no participant references.
func ExecuteDeleteBatch(ctx context.Context, actor audit.Actor, id string, deps ResourceDeps) error {
	b, err := deps.Store.GetBatch(ctx, id)
	if err != nil {
		return err
	}
	if err := deps.Store.DeleteBatch(ctx, id); err != nil {
		return err
	}
	slog.Info("resource_event", "event", "batch_deleted", "batch_id", id, "name", b.Name)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryResource, audit.ActionDelete, deps.Now()).
		WithResource("batch", id).
		WithDescription("deleted batch "+b.Name))
	return nil
}
