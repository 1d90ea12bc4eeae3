package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/application/projections"
	"meetdesk/internal/domain/export"
)

// handleListPrograms handles GET /api/programs
func handleListPrograms(w http.ResponseWriter, r *http.Request) {
	list, err := projections.QueryListPrograms(r.Context(), stores.Programs)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetProgram handles GET /api/programs/{id}
func handleGetProgram(w http.ResponseWriter, r *http.Request) {
	detail, err := projections.QueryGetProgramDetail(r.Context(), r.PathValue("id"), programDetailDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handlePublicProgram handles GET /api/public/program, the registration page's event list.
func handlePublicProgram(w http.ResponseWriter, r *http.Request) {
	detail, err := projections.QueryGetActiveProgram(r.Context(), programDetailDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type programRequest struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug"`
	Year        int    `json:"year"`
	Venue       string `json:"venue"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Description string `json:"description"`
}

// handleSaveProgram handles POST /api/programs and PUT /api/programs/{id}
func handleSaveProgram(w http.ResponseWriter, r *http.Request) {
	var req programRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	p, err := orchestrators.ExecuteSaveProgram(r.Context(), orchestrators.ProgramInput{
		Actor:       actorFrom(r),
		ID:          id,
		Name:        req.Name,
		Slug:        req.Slug,
		Year:        req.Year,
		Venue:       req.Venue,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Description: req.Description,
	}, programDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := projections.QueryGetProgramDetail(r.Context(), p.ID, programDetailDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, createdOrOK(id), detail)
}

// handleActivateProgram handles POST /api/programs/{id}/activate. Any other
// active program is deactivated in the same transaction.
func handleActivateProgram(w http.ResponseWriter, r *http.Request) {
	p, err := orchestrators.ExecuteActivateProgram(r.Context(), actorFrom(r), r.PathValue("id"), programDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := projections.QueryGetProgramDetail(r.Context(), p.ID, programDetailDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleDeactivateProgram handles POST /api/programs/{id}/deactivate
func handleDeactivateProgram(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeactivateProgram(r.Context(), actorFrom(r), r.PathValue("id"), programDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteProgram handles DELETE /api/programs/{id}. The response reports
// how many dependent rows the cascade removed.
func handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	res, err := orchestrators.ExecuteDeleteProgram(r.Context(), actorFrom(r), r.PathValue("id"), programDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleExportProgramRoster handles GET /api/programs/{id}/roster.csv
func handleExportProgramRoster(w http.ResponseWriter, r *http.Request) {
	t, err := orchestrators.ExecuteExportProgramRoster(r.Context(), r.PathValue("id"), exportDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeCSV(w, t)
}

// handleExportToSheets handles POST /api/programs/{id}/sheets
func handleExportToSheets(w http.ResponseWriter, r *http.Request) {
	rows, err := orchestrators.ExecuteExportToSheets(r.Context(), actorFrom(r), r.PathValue("id"), exportDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rows": rows})
}

func writeCSV(w http.ResponseWriter, t export.Table) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", t.Filename(timeNow())))
	if err := t.WriteCSV(w); err != nil {
		// headers are gone; all we can do is log
		slog.Error("export_event", "event", "csv_write_failed", "error", err)
	}
}
