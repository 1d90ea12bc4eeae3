package web

import (
	"log/slog"
	"net/http"
	"strings"

	accountStore "meetdesk/internal/adapters/storage/account"
	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/domain/account"
)

// handleListStaff handles GET /api/staff?role=&status=
func handleListStaff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accounts, err := stores.Accounts.List(r.Context(), accountStore.ListFilter{
		Limit:  1000,
		Role:   q.Get("role"),
		Status: q.Get("status"),
	})
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountView(a))
	}
	writeJSON(w, http.StatusOK, out)
}

type createStaffRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Role     string `json:"role" validate:"required,oneof=admin staff"`
	Password string `json:"password"`
}

// handleCreateStaff handles POST /api/staff. Staff accounts get an invitation
// email; admin accounts need a password and are active immediately.
func handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	acct, err := orchestrators.ExecuteCreateStaff(r.Context(), orchestrators.CreateStaffInput{
		Actor:    actorFrom(r),
		Email:    req.Email,
		Name:     req.Name,
		Role:     req.Role,
		Password: req.Password,
	}, staffDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountView(acct))
}

// handleResendInvitation handles POST /api/staff/{id}/invitation
func handleResendInvitation(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteResendInvitation(r.Context(), actorFrom(r), r.PathValue("id"), staffDeps()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin staff"`
}

// handleChangeRole handles PUT /api/staff/{id}/role
func handleChangeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	acct, err := orchestrators.ExecuteChangeRole(r.Context(), actorFrom(r), r.PathValue("id"), req.Role, staffDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	endSessions(acct.ID, "role_changed")
	writeJSON(w, http.StatusOK, toAccountView(acct))
}

// handleSetStaffEnabled handles POST /api/staff/{id}/enable and /disable
func handleSetStaffEnabled(w http.ResponseWriter, r *http.Request) {
	enabled := strings.HasSuffix(r.URL.Path, "/enable")
	acct, err := orchestrators.ExecuteSetStaffEnabled(r.Context(), actorFrom(r), r.PathValue("id"), enabled, staffDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	if acct.Status == account.StatusDisabled {
		endSessions(acct.ID, "disabled")
	}
	writeJSON(w, http.StatusOK, toAccountView(acct))
}

// handleDeleteStaff handles DELETE /api/staff/{id}
func handleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := orchestrators.ExecuteDeleteStaff(r.Context(), actorFrom(r), id, staffDeps()); err != nil {
		writeError(w, err)
		return
	}
	endSessions(id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// endSessions signs an account out everywhere so a role or status change takes effect at once.
func endSessions(accountID, reason string) {
	if n := sessions.DeleteForAccount(accountID); n > 0 {
		slog.Info("staff_auth", "event", "sessions_revoked", "account_id", accountID, "reason", reason, "count", n)
	}
}
