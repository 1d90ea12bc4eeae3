package web

import (
	"net/http"
	"time"

	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/domain/resource"
)

type departmentView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	Participants int       `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

type batchView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	StartYear    int       `json:"start_year"`
	EndYear      int       `json:"end_year"`
	Participants int       `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

func toDepartmentView(d resource.Department, participants int) departmentView {
	return departmentView{ID: d.ID, Name: d.Name, Code: d.Code, Participants: participants, CreatedAt: d.CreatedAt}
}

func toBatchView(b resource.Batch, participants int) batchView {
	return batchView{ID: b.ID, Name: b.Name, StartYear: b.StartYear, EndYear: b.EndYear, Participants: participants, CreatedAt: b.CreatedAt}
}

// handleListDepartments handles GET /api/departments
func handleListDepartments(w http.ResponseWriter, r *http.Request) {
	rows, err := stores.Resources.ListDepartments(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]departmentView, 0, len(rows))
	for _, d := range rows {
		out = append(out, toDepartmentView(d.Department, d.Participants))
	}
	writeJSON(w, http.StatusOK, out)
}

type departmentRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required"`
}

// handleSaveDepartment handles POST /api/departments and PUT /api/departments/{id}
func handleSaveDepartment(w http.ResponseWriter, r *http.Request) {
	var req departmentRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	d, err := orchestrators.ExecuteSaveDepartment(r.Context(), orchestrators.DepartmentInput{
		Actor: actorFrom(r),
		ID:    id,
		Name:  req.Name,
		Code:  req.Code,
	}, resourceDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, createdOrOK(id), toDepartmentView(d, 0))
}

// handleDeleteDepartment handles DELETE /api/departments/{id}
func handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteDepartment(r.Context(), actorFrom(r), r.PathValue("id"), resourceDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListBatches handles GET /api/batches
func handleListBatches(w http.ResponseWriter, r *http.Request) {
	rows, err := stores.Resources.ListBatches(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]batchView, 0, len(rows))
	for _, b := range rows {
		out = append(out, toBatchView(b.Batch, b.Participants))
	}
	writeJSON(w, http.StatusOK, out)
}

type batchRequest struct {
	Name      string `json:"name"` // defaults to "StartYear-EndYear"
	StartYear int    `json:"start_year" validate:"required"`
	EndYear   int    `json:"end_year" validate:"required"`
}

// handleSaveBatch handles POST /api/batches and PUT /api/batches/{id}
func handleSaveBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	b, err := orchestrators.ExecuteSaveBatch(r.Context(), orchestrators.BatchInput{
		Actor:     actorFrom(r),
		ID:        id,
		Name:      req.Name,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
	}, resourceDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, createdOrOK(id), toBatchView(b, 0))
}

// handleDeleteBatch handles DELETE /api/batches/{id}
func handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteBatch(r.Context(), actorFrom(r), r.PathValue("id"), resourceDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createdOrOK is 201 for a POST to a collection and 200 for a PUT to an item.
func createdOrOK(pathID string) int {
	if pathID == "" {
		return http.StatusCreated
	}
	return http.StatusOK
}
