package orchestrators

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"meetdesk/internal/adapters/sheets"
	eventStore "meetdesk/internal/adapters/storage/event"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/export"
)

// RosterExporter lists a program's events and reads their rosters.
type RosterExporter interface {
	RosterReader
	ListByProgram(ctx context.Context, programID string) ([]eventStore.Summary, error)
}

// ExportDeps holds dependencies for roster exports.
type ExportDeps struct {
	Events   RosterExporter
	Programs ProgramLookup
	Sheets   sheets.Writer // nil when Sheets is not configured
	Audit    AuditSink
	Now      func() time.Time
}

var rosterHeader = []string{"Register No", "Name", "Gender", "Department", "Batch", "Email", "Team", "Position", "Result"}

// ExecuteExportEventRoster builds the roster of one event.
func ExecuteExportEventRoster(ctx context.Context, eventID string, deps ExportDeps) (export.Table, error) {
	e, err := deps.Events.GetByID(ctx, eventID)
	if err != nil {
		return export.Table{}, err
	}
	rows, err := deps.Events.Roster(ctx, eventID)
	if err != nil {
		return export.Table{}, err
	}
	t := export.Table{Name: "roster-" + e.ID, Header: rosterHeader}
	for _, r := range rows {
		t.Append(rosterCells(r)...)
	}
	return t, nil
}

// ExecuteExportProgramRoster builds one table with every event roster of a program.
func ExecuteExportProgramRoster(ctx context.Context, programID string, deps ExportDeps) (export.Table, error) {
	p, err := deps.Programs.GetByID(ctx, programID)
	if err != nil {
		return export.Table{}, err
	}
	events, err := deps.Events.ListByProgram(ctx, programID)
	if err != nil {
		return export.Table{}, err
	}
	t := export.Table{Name: p.Slug, Header: append([]string{"Event", "Category", "Gender"}, rosterHeader...)}
	for _, e := range events {
		rows, err := deps.Events.Roster(ctx, e.ID)
		if err != nil {
			return export.Table{}, err
		}
		for _, r := range rows {
			t.Append(append([]string{e.Name, e.Category, e.Gender}, rosterCells(r)...)...)
		}
	}
	return t, nil
}

// ExecuteExportToSheets rewrites the program's tab in the configured spreadsheet.
// POST: the tab holds exactly the current roster
func ExecuteExportToSheets(ctx context.Context, actor audit.Actor, programID string, deps ExportDeps) (int, error) {
	if deps.Sheets == nil {
		return 0, export.ErrSheetsDisabled
	}
	t, err := ExecuteExportProgramRoster(ctx, programID, deps)
	if err != nil {
		return 0, err
	}
	if err := deps.Sheets.ReplaceTab(ctx, t.TabName(), t.SheetRows()); err != nil {
		return 0, err
	}
	slog.Info("export_event", "event", "sheets_exported", "program_id", programID, "tab", t.TabName(), "rows", len(t.Rows))
	recordAudit(ctx, deps.Audit, audit.NewEvent(actor, audit.CategoryProgram, audit.ActionExport, deps.Now()).
		WithResource("program", programID).
		WithDescription("exported roster to Google Sheets tab "+t.TabName()))
	return len(t.Rows), nil
}

func rosterCells(r eventStore.RosterRow) []string {
	position := ""
	if r.Position > 0 {
		position = strconv.Itoa(r.Position)
	}
	return []string{r.RegisterNo, r.Name, r.Gender, r.DepartmentCode, r.BatchName, r.Email, r.TeamName, position, r.Result}
}
