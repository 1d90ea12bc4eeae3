package orchestrators

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/domainerr"
	"meetdesk/internal/domain/participant"
	"meetdesk/internal/domain/resource"
)

// ParticipantStore defines the store interface needed by participant management.
type ParticipantStore interface {
	GetByID(ctx context.Context, id string) (participant.Participant, error)
	GetByRegisterNo(ctx context.Context, registerNo string) (participant.Participant, error)
	Save(ctx context.Context, p participant.Participant) error
	SaveMany(ctx context.Context, ps []participant.Participant) error
	Delete(ctx context.Context, id string) error
}

// ResourceLookup resolves departments and batches.
type ResourceLookup interface {
	GetDepartment(ctx context.Context, id string) (resource.Department, error)
	GetDepartmentByCode(ctx context.Context, code string) (resource.Department, error)
	GetBatch(ctx context.Context, id string) (resource.Batch, error)
	GetBatchByName(ctx context.Context, name string) (resource.Batch, error)
}

// ParticipantDeps holds dependencies for participant management.
type ParticipantDeps struct {
	Store      ParticipantStore
	Resources  ResourceLookup
	Audit      AuditSink
	GenerateID func() string
	Now        func() time.Time
}

// ParticipantInput carries a participant create (empty ID) or update.
type ParticipantInput struct {
	Actor        audit.Actor
	ID           string
	RegisterNo   string
	Name         string
	Email        string
	Phone        string
	Gender       string
	DepartmentID string
	BatchID      string
}

// ExecuteSaveParticipant creates or updates a participant.
// PRE: department and batch exist
// INVARIANT: register number is unique
func ExecuteSaveParticipant(ctx context.Context, input ParticipantInput, deps ParticipantDeps) (participant.Participant, error) {
	now := deps.Now()
	p := participant.Participant{ID: deps.GenerateID(), CreatedAt: now}
	action := audit.ActionCreate
	if input.ID != "" {
		existing, err := deps.Store.GetByID(ctx, input.ID)
		if err != nil {
			return participant.Participant{}, err
		}
		p = existing
		action = audit.ActionUpdate
	}
	p.RegisterNo = input.RegisterNo
	p.Name = input.Name
	p.Email = input.Email
	p.Phone = input.Phone
	p.Gender = input.Gender
	p.DepartmentID = input.DepartmentID
	p.BatchID = input.BatchID
	p.UpdatedAt = now
	p.Normalize()
	if err := p.Validate(); err != nil {
		return participant.Participant{}, err
	}
	if _, err := deps.Resources.GetDepartment(ctx, p.DepartmentID); err != nil {
		return participant.Participant{}, err
	}
	if _, err := deps.Resources.GetBatch(ctx, p.BatchID); err != nil {
		return participant.Participant{}, err
	}
	if err := deps.Store.Save(ctx, p); err != nil {
		return participant.Participant{}, err
	}
	slog.Info("participant_event", "event", "participant_saved", "participant_id", p.ID, "register_no", p.RegisterNo)
	recordAudit(ctx, deps.Audit, audit.NewEvent(input.Actor, audit.CategoryParticipant, action, now).
		WithResource("participant", p.ID).
		WithDescription(string(action)+" participant "+p.RegisterNo))
	return p, nil
}

// ExecuteDeleteParticipant removes a participant with their roster entries,
// requests and certificates.
func ExecuteDeleteParticipant(ctx context.Context, actor audit.Actor, id string, deps ParticipantDeps) error {
	p, err := deps.Store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := deps.Store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("participant_event", "event", "participant_deleted", "participant_id", id, "register_no", p.RegisterNo)
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryParticipant, audit.ActionDelete, deps.Now()).
		WithSeverity(audit.SeverityWarning).
		WithResource("participant", id).
		WithDescription("deleted participant "+p.RegisterNo+" "+p.Name))
	return nil
}

// ImportParticipantsInput carries the CSV stream and import options.
type ImportParticipantsInput struct {
	Actor      audit.Actor
	Reader     io.Reader
	DryRun     bool
	UpdateMode bool // update rows whose register number exists instead of skipping them
}

// ImportParticipantsResult holds aggregate counts and per-row errors from an import run.
type ImportParticipantsResult struct {
	Total   int              `json:"total"`
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors"`
	DryRun  bool             `json:"dry_run"`
	Unknown []string         `json:"unknown_columns,omitempty"`
}

// ImportRowError describes a validation error for a single CSV row.
// Row numbers count the header as row 1.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

var importColumns = []string{"REGISTER_NO", "NAME", "EMAIL", "PHONE", "GENDER", "DEPARTMENT", "BATCH"}

// ErrImportHeader is returned when the CSV lacks a required column.
var ErrImportHeader = domainerr.Invalid("CSV must have REGISTER_NO, NAME, GENDER, DEPARTMENT and BATCH columns")

// ExecuteImportParticipants parses a CSV of participants and creates or updates them.
// PRE: header row names the columns; DEPARTMENT holds a department code and BATCH a batch name
// POST: valid rows are written in one transaction unless DryRun; invalid rows are reported
// INVARIANT: existing participants keep their IDs; nothing is deleted
func ExecuteImportParticipants(ctx context.Context, input ImportParticipantsInput, deps ParticipantDeps) (ImportParticipantsResult, error) {
	cr := csv.NewReader(input.Reader)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return ImportParticipantsResult{}, ErrImportHeader
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"REGISTER_NO", "NAME", "GENDER", "DEPARTMENT", "BATCH"} {
		if _, ok := colIdx[required]; !ok {
			return ImportParticipantsResult{}, ErrImportHeader
		}
	}

	result := ImportParticipantsResult{DryRun: input.DryRun}
	for name := range colIdx {
		if !contains(importColumns, name) {
			result.Unknown = append(result.Unknown, name)
		}
	}
	sort.Strings(result.Unknown)

	getCol := func(row []string, col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	now := deps.Now()
	departments := map[string]string{} // code -> id
	batches := map[string]string{}     // name -> id
	seen := map[string]int{}           // register number -> row
	var writes []participant.Participant
	rowNum := 1

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "malformed CSV row"})
			continue
		}
		result.Total++

		p := participant.Participant{
			RegisterNo: getCol(row, "REGISTER_NO"),
			Name:       getCol(row, "NAME"),
			Email:      getCol(row, "EMAIL"),
			Phone:      getCol(row, "PHONE"),
			Gender:     getCol(row, "GENDER"),
		}
		p.Normalize()

		deptID, err := lookupCached(departments, strings.ToUpper(getCol(row, "DEPARTMENT")), func(code string) (string, error) {
			d, err := deps.Resources.GetDepartmentByCode(ctx, code)
			return d.ID, err
		})
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "unknown department: " + getCol(row, "DEPARTMENT")})
			continue
		}
		batchID, err := lookupCached(batches, getCol(row, "BATCH"), func(name string) (string, error) {
			b, err := deps.Resources.GetBatchByName(ctx, name)
			return b.ID, err
		})
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "unknown batch: " + getCol(row, "BATCH")})
			continue
		}
		p.DepartmentID = deptID
		p.BatchID = batchID

		if err := p.Validate(); err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if first, dup := seen[p.RegisterNo]; dup {
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: fmt.Sprintf("register number %s repeats row %d", p.RegisterNo, first)})
			continue
		}
		seen[p.RegisterNo] = rowNum

		existing, err := deps.Store.GetByRegisterNo(ctx, p.RegisterNo)
		switch {
		case err == nil && !input.UpdateMode:
			result.Skipped++
			continue
		case err == nil:
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			result.Updated++
		case errors.Is(err, participant.ErrNotFound):
			p.ID = deps.GenerateID()
			p.CreatedAt = now
			result.Created++
		default:
			return ImportParticipantsResult{}, err
		}
		p.UpdatedAt = now
		writes = append(writes, p)
	}

	if !input.DryRun && len(writes) > 0 {
		if err := deps.Store.SaveMany(ctx, writes); err != nil {
			return ImportParticipantsResult{}, err
		}
		recordAudit(ctx, deps.Audit, audit.NewEvent(input.Actor, audit.CategoryParticipant, audit.ActionImport, now).
			WithResource("participant", "").
			WithDescription(fmt.Sprintf("imported %d new and %d updated participants", result.Created, result.Updated)))
	}

	slog.Info("participants_import",
		"actor", input.Actor.ID,
		"dry_run", input.DryRun,
		"update_mode", input.UpdateMode,
		"total", result.Total,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

func lookupCached(cache map[string]string, key string, fetch func(string) (string, error)) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	if id, ok := cache[key]; ok {
		return id, nil
	}
	id, err := fetch(key)
	if err != nil {
		return "", err
	}
	cache[key] = id
	return id, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
