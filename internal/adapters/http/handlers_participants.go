package web

import (
	"net/http"
	"strconv"
	"time"

	participantStore "meetdesk/internal/adapters/storage/participant"
	"meetdesk/internal/application/listutil"
	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/application/projections"
	"meetdesk/internal/domain/domainerr"
	"meetdesk/internal/domain/participant"
)

// maxImportSize caps participant CSV uploads.
const maxImportSize = 5 << 20

// handleListParticipants handles GET /api/participants?page=&per_page=&sort=&dir=&q=&department=&batch=&gender=
func handleListParticipants(w http.ResponseWriter, r *http.Request) {
	params := listutil.Parse(r.URL.Query(), participantStore.SortColumns, projections.ParticipantFilterKeys)
	result, err := projections.QueryGetParticipantList(r.Context(), params, stores.Participants)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type participantView struct {
	ID           string    `json:"id"`
	RegisterNo   string    `json:"register_no"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Gender       string    `json:"gender"`
	DepartmentID string    `json:"department_id"`
	BatchID      string    `json:"batch_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toParticipantView(p participant.Participant) participantView {
	return participantView{
		ID:           p.ID,
		RegisterNo:   p.RegisterNo,
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		Gender:       p.Gender,
		DepartmentID: p.DepartmentID,
		BatchID:      p.BatchID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// handleGetParticipant handles GET /api/participants/{id}
func handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	p, err := stores.Participants.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantView(p))
}

type participantRequest struct {
	RegisterNo   string `json:"register_no" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone"`
	Gender       string `json:"gender" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
	BatchID      string `json:"batch_id" validate:"required"`
}

// handleSaveParticipant handles POST /api/participants and PUT /api/participants/{id}
func handleSaveParticipant(w http.ResponseWriter, r *http.Request) {
	var req participantRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	p, err := orchestrators.ExecuteSaveParticipant(r.Context(), orchestrators.ParticipantInput{
		Actor:        actorFrom(r),
		ID:           id,
		RegisterNo:   req.RegisterNo,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Gender:       req.Gender,
		DepartmentID: req.DepartmentID,
		BatchID:      req.BatchID,
	}, participantDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, createdOrOK(id), toParticipantView(p))
}

// handleDeleteParticipant handles DELETE /api/participants/{id}
func handleDeleteParticipant(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteParticipant(r.Context(), actorFrom(r), r.PathValue("id"), participantDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportParticipants handles POST /api/participants/import (multipart, field "file").
// Form fields dry_run and update select the import mode.
func handleImportParticipants(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, domainerr.Invalid("expected a multipart upload under 5 MB"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, domainerr.Invalid("file is required"))
		return
	}
	defer file.Close()

	dryRun, _ := strconv.ParseBool(r.FormValue("dry_run"))
	update, _ := strconv.ParseBool(r.FormValue("update"))
	result, err := orchestrators.ExecuteImportParticipants(r.Context(), orchestrators.ImportParticipantsInput{
		Actor:      actorFrom(r),
		Reader:     file,
		DryRun:     dryRun,
		UpdateMode: update,
	}, participantDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
