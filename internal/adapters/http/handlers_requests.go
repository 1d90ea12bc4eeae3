package web

import (
	"net/http"
	"time"

	"meetdesk/internal/application/listutil"
	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/application/projections"
	"meetdesk/internal/domain/domainerr"
	"meetdesk/internal/domain/request"
)

// maxBulkDecide caps how many requests one bulk call may decide.
const maxBulkDecide = 200

type requestView struct {
	ID            string     `json:"id"`
	ProgramID     string     `json:"program_id"`
	EventID       string     `json:"event_id"`
	ParticipantID string     `json:"participant_id"`
	Status        string     `json:"status"`
	Note          string     `json:"note,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
}

func toRequestView(q request.Request) requestView {
	v := requestView{
		ID:            q.ID,
		ProgramID:     q.ProgramID,
		EventID:       q.EventID,
		ParticipantID: q.ParticipantID,
		Status:        q.Status,
		Note:          q.Note,
		Reason:        q.Reason,
		SubmittedAt:   q.SubmittedAt,
	}
	if !q.DecidedAt.IsZero() {
		at := q.DecidedAt
		v.DecidedAt = &at
	}
	return v
}

// handleListRequests handles GET /api/requests?status=&program=&event=&participant=&page=&per_page=
func handleListRequests(w http.ResponseWriter, r *http.Request) {
	params := listutil.Parse(r.URL.Query(), nil, projections.RequestFilterKeys)
	result, err := projections.QueryGetRequestList(r.Context(), params, stores.Requests)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleApproveRequest handles POST /api/requests/{id}/approve
func handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	q, err := orchestrators.ExecuteApproveRequest(r.Context(), actorFrom(r), r.PathValue("id"), requestDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(q))
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// handleRejectRequest handles POST /api/requests/{id}/reject
func handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	q, err := orchestrators.ExecuteRejectRequest(r.Context(), actorFrom(r), r.PathValue("id"), req.Reason, requestDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(q))
}

type bulkDecideRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,dive,required"`
	Action string   `json:"action" validate:"required,oneof=approve reject"`
	Reason string   `json:"reason" validate:"required_if=Action reject,max=500"`
}

// handleBulkDecide handles POST /api/requests/bulk. Each ID is decided on its
// own; one failure does not stop the rest.
func handleBulkDecide(w http.ResponseWriter, r *http.Request) {
	var req bulkDecideRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.IDs) > maxBulkDecide {
		writeError(w, domainerr.Invalid("too many requests in one call"))
		return
	}
	results := orchestrators.ExecuteBulkDecide(r.Context(), actorFrom(r), req.IDs, req.Action == "approve", req.Reason, requestDeps())
	writeJSON(w, http.StatusOK, results)
}

type submitRequest struct {
	RegisterNo string `json:"register_no" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	EventID    string `json:"event_id" validate:"required"`
	Note       string `json:"note" validate:"max=500"`
}

// handleSubmitRequest handles POST /api/public/requests. The participant proves
// who they are with their register number and email.
func handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	q, err := orchestrators.ExecuteSubmitRequest(r.Context(), orchestrators.SubmitRequestInput{
		Identity: orchestrators.Identity{RegisterNo: req.RegisterNo, Email: req.Email},
		EventID:  req.EventID,
		Note:     req.Note,
	}, requestDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestView(q))
}

type withdrawRequest struct {
	RegisterNo string `json:"register_no" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	RequestID  string `json:"request_id" validate:"required"`
}

// handleWithdrawRequest handles POST /api/public/requests/withdraw
func handleWithdrawRequest(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	q, err := orchestrators.ExecuteWithdrawRequest(r.Context(), orchestrators.WithdrawRequestInput{
		Identity:  orchestrators.Identity{RegisterNo: req.RegisterNo, Email: req.Email},
		RequestID: req.RequestID,
	}, requestDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(q))
}
