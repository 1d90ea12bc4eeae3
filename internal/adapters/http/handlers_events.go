package web

import (
	"net/http"
	"time"

	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/application/projections"
	"meetdesk/internal/domain/team"
)

func eventDetailDeps() projections.GetEventDetailDeps {
	return projections.GetEventDetailDeps{Events: stores.Events, Teams: stores.Teams}
}

// handleGetEvent handles GET /api/events/{id}
func handleGetEvent(w http.ResponseWriter, r *http.Request) {
	detail, err := projections.QueryGetEventDetail(r.Context(), r.PathValue("id"), eventDetailDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type eventRequest struct {
	ProgramID        string     `json:"program_id" validate:"required"`
	Name             string     `json:"name" validate:"required"`
	Category         string     `json:"category" validate:"required"`
	Gender           string     `json:"gender" validate:"required"`
	Kind             string     `json:"kind" validate:"required"`
	Capacity         int        `json:"capacity" validate:"min=0"`
	MaxPerDepartment int        `json:"max_per_department" validate:"min=0"`
	Venue            string     `json:"venue"`
	ScheduledAt      *time.Time `json:"scheduled_at"`
	Status           string     `json:"status"`
	RegistrationOpen bool       `json:"registration_open"`
	Description      string     `json:"description"`
}

// handleSaveEvent handles POST /api/events and PUT /api/events/{id}
func handleSaveEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	input := orchestrators.EventInput{
		Actor:            actorFrom(r),
		ID:               id,
		ProgramID:        req.ProgramID,
		Name:             req.Name,
		Category:         req.Category,
		Gender:           req.Gender,
		Kind:             req.Kind,
		Capacity:         req.Capacity,
		MaxPerDepartment: req.MaxPerDepartment,
		Venue:            req.Venue,
		Status:           req.Status,
		RegistrationOpen: req.RegistrationOpen,
		Description:      req.Description,
	}
	if req.ScheduledAt != nil {
		input.ScheduledAt = *req.ScheduledAt
	}
	e, err := orchestrators.ExecuteSaveEvent(r.Context(), input, eventDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := projections.QueryGetEventDetail(r.Context(), e.ID, eventDetailDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, createdOrOK(id), detail)
}

// handleDeleteEvent handles DELETE /api/events/{id}
func handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteEvent(r.Context(), actorFrom(r), r.PathValue("id"), eventDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rosterRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}

// handleAddToRoster handles POST /api/events/{id}/roster
func handleAddToRoster(w http.ResponseWriter, r *http.Request) {
	var req rosterRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := orchestrators.ExecuteAddToRoster(r.Context(), actorFrom(r), r.PathValue("id"), req.ParticipantID, eventDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveFromRoster handles DELETE /api/events/{id}/roster/{participant}
func handleRemoveFromRoster(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteRemoveFromRoster(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("participant"), eventDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resultRequest struct {
	Position int    `json:"position" validate:"min=0,max=3"`
	Result   string `json:"result" validate:"max=64"`
}

// handleRecordResult handles PUT /api/events/{id}/results/{participant}. Position 0 clears the placing.
func handleRecordResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := orchestrators.ExecuteRecordResult(r.Context(), orchestrators.ResultInput{
		Actor:         actorFrom(r),
		EventID:       r.PathValue("id"),
		ParticipantID: r.PathValue("participant"),
		Position:      req.Position,
		Result:        req.Result,
	}, eventDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportEventRoster handles GET /api/events/{id}/roster.csv
func handleExportEventRoster(w http.ResponseWriter, r *http.Request) {
	t, err := orchestrators.ExecuteExportEventRoster(r.Context(), r.PathValue("id"), exportDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeCSV(w, t)
}

type teamRequest struct {
	EventID      string `json:"event_id"`
	Name         string `json:"name" validate:"required"`
	DepartmentID string `json:"department_id"`
}

type teamView struct {
	ID           string    `json:"id"`
	ProgramID    string    `json:"program_id"`
	EventID      string    `json:"event_id"`
	Name         string    `json:"name"`
	DepartmentID string    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTeamView(t team.Team) teamView {
	return teamView{ID: t.ID, ProgramID: t.ProgramID, EventID: t.EventID, Name: t.Name, DepartmentID: t.DepartmentID, CreatedAt: t.CreatedAt}
}

// handleSaveTeam handles POST /api/teams and PUT /api/teams/{id} (rename)
func handleSaveTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	t, err := orchestrators.ExecuteSaveTeam(r.Context(), orchestrators.TeamInput{
		Actor:        actorFrom(r),
		ID:           id,
		EventID:      req.EventID,
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
	}, teamDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, createdOrOK(id), toTeamView(t))
}

// handleDeleteTeam handles DELETE /api/teams/{id}. Members stay on the roster.
func handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteTeam(r.Context(), actorFrom(r), r.PathValue("id"), teamDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetTeamMember handles PUT (add) and DELETE (remove) on /api/teams/{id}/members/{participant}
func handleSetTeamMember(w http.ResponseWriter, r *http.Request) {
	member := r.Method == http.MethodPut
	if err := orchestrators.ExecuteSetTeamMember(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("participant"), member, teamDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
