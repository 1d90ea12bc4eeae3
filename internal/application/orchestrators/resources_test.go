package orchestrators

import (
	"context"
	"errors"
	"testing"

	resourceStore "meetdesk/internal/adapters/storage/resource"
	"meetdesk/internal/adapters/storage/storagetest"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/resource"
)

func resourceFixture(t *testing.T) (ResourceDeps, *memAudit) {
	t.Helper()
	db := storagetest.OpenMigrated(t)
	storagetest.Department(t, db, "d-cs", "CS")
	storagetest.Batch(t, db, "b-23", "2023-2027")
	storagetest.Participant(t, db, "s1", "23CS001", "male", "d-cs", "b-23")
	a := &memAudit{}
	return ResourceDeps{
		Store:      resourceStore.NewSQLiteStore(db),
		Audit:      a,
		GenerateID: sequentialIDs("res"),
		Now:        fixedNow,
	}, a
}

func TestSaveDepartment(t *testing.T) {
	ctx := context.Background()
	deps, sink := resourceFixture(t)

	d, err := ExecuteSaveDepartment(ctx, DepartmentInput{Actor: admin, Name: " Mechanical ", Code: "me"}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.Code != "ME" || d.Name != "Mechanical" {
		t.Errorf("not normalized: %+v", d)
	}

	renamed, err := ExecuteSaveDepartment(ctx, DepartmentInput{Actor: admin, ID: d.ID, Name: "Mechanical Engg", Code: "MECH"}, deps)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if renamed.ID != d.ID || !renamed.CreatedAt.Equal(d.CreatedAt) {
		t.Errorf("update replaced identity: %+v", renamed)
	}

	tests := []struct {
		name    string
		input   DepartmentInput
		wantErr error
	}{
		{"duplicate code", DepartmentInput{Name: "Computing", Code: "cs"}, resource.ErrDuplicateCode},
		{"bad code", DepartmentInput{Name: "Civil", Code: "c"}, resource.ErrInvalidCode},
		{"empty name", DepartmentInput{Code: "CE"}, resource.ErrEmptyName},
		{"update missing", DepartmentInput{ID: "ghost", Name: "Civil", Code: "CE"}, resource.ErrDepartmentAbsent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExecuteSaveDepartment(ctx, tt.input, deps); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(sink.events) != 2 {
		t.Fatalf("audit events = %d, want 2", len(sink.events))
	}
	if sink.events[1].Action != audit.ActionUpdate || sink.events[1].Category != audit.CategoryResource {
		t.Errorf("second audit = %+v", sink.events[1])
	}
}

func TestDeleteDepartment(t *testing.T) {
	ctx := context.Background()
	deps, sink := resourceFixture(t)

	if err := ExecuteDeleteDepartment(ctx, admin, "d-cs", deps); !errors.Is(err, resource.ErrInUse) {
		t.Errorf("delete referenced = %v, want ErrInUse", err)
	}
	d, err := ExecuteSaveDepartment(ctx, DepartmentInput{Actor: admin, Name: "Physics", Code: "PHY"}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ExecuteDeleteDepartment(ctx, admin, d.ID, deps); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := ExecuteDeleteDepartment(ctx, admin, d.ID, deps); !errors.Is(err, resource.ErrDepartmentAbsent) {
		t.Errorf("second delete = %v, want ErrDepartmentAbsent", err)
	}
	last := sink.events[len(sink.events)-1]
	if last.Action != audit.ActionDelete || last.ResourceID != d.ID {
		t.Errorf("last audit = %+v", last)
	}
}

func TestSaveBatch(t *testing.T) {
	ctx := context.Background()
	deps, _ := resourceFixture(t)

	b, err := ExecuteSaveBatch(ctx, BatchInput{Actor: admin, StartYear: 2024, EndYear: 2028}, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Name != "2024-2028" {
		t.Errorf("default name = %q", b.Name)
	}

	tests := []struct {
		name    string
		input   BatchInput
		wantErr error
	}{
		{"end before start", BatchInput{Name: "odd", StartYear: 2025, EndYear: 2025}, resource.ErrInvalidYears},
		{"out of range", BatchInput{Name: "old", StartYear: 1800, EndYear: 1804}, resource.ErrYearOutOfRange},
		{"duplicate name", BatchInput{StartYear: 2023, EndYear: 2027}, resource.ErrDuplicateBatch},
		{"no years", BatchInput{}, resource.ErrEmptyName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExecuteSaveBatch(ctx, tt.input, deps); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := ExecuteDeleteBatch(ctx, admin, "b-23", deps); !errors.Is(err, resource.ErrInUse) {
		t.Errorf("delete referenced batch = %v, want ErrInUse", err)
	}
	if err := ExecuteDeleteBatch(ctx, admin, b.ID, deps); err != nil {
		t.Errorf("delete unused batch: %v", err)
	}
}
