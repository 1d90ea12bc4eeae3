package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"

	"meetdesk/internal/adapters/http/middleware"
	"meetdesk/internal/application/orchestrators"
	"meetdesk/internal/domain/account"
)

// handleHealthz handles GET /healthz
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if services.Ping != nil {
		if err := services.Ping(r.Context()); err != nil {
			slog.Error("healthz_failed", "error", err)
			writeMessage(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCSRFToken handles GET /api/csrf. Multipart uploads echo the token in X-CSRF-Token.
func handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"token": csrf.Token(r)})
}

type sessionView struct {
	AccountID              string `json:"account_id"`
	Email                  string `json:"email"`
	Name                   string `json:"name"`
	Role                   string `json:"role"`
	PasswordChangeRequired bool   `json:"password_change_required"`
}

func toSessionView(s middleware.Session) sessionView {
	return sessionView{
		AccountID:              s.AccountID,
		Email:                  s.Email,
		Name:                   s.Name,
		Role:                   s.Role,
		PasswordChangeRequired: s.PasswordChangeRequired,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// handleLogin handles POST /api/login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	deps := orchestrators.LoginDeps{AccountStore: stores.Accounts, Now: timeNow}
	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, deps)
	if errors.Is(err, orchestrators.ErrInvalidCredentials) {
		writeMessage(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := sessions.Create(middleware.Session{
		AccountID:              result.AccountID,
		Email:                  result.Email,
		Name:                   result.Name,
		Role:                   result.Role,
		PasswordChangeRequired: result.PasswordChangeRequired,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, toSessionView(sess))
}

// handleLogout handles POST /api/logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		sessions.Delete(sess.Token)
		slog.Info("staff_auth", "event", "logout", "account_id", sess.AccountID)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe handles GET /api/me
func handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, toSessionView(sess))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// handleChangePassword handles POST /api/me/password
func handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	var req changePasswordRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	deps := orchestrators.ChangePasswordDeps{AccountStore: stores.Accounts}
	if err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       sess.AccountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}, deps); err != nil {
		writeError(w, err)
		return
	}

	sess.PasswordChangeRequired = false
	sessions.Update(sess)
	w.WriteHeader(http.StatusNoContent)
}

type activateRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// handleActivate handles POST /api/activate, the target of the invitation email.
func handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	acct, err := orchestrators.ExecuteActivateAccount(r.Context(), orchestrators.ActivateInput{
		Token:    req.Token,
		Password: req.Password,
	}, staffDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountView(acct))
}

type accountView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// toAccountView strips the password hash.
func toAccountView(a account.Account) accountView {
	v := accountView{ID: a.ID, Email: a.Email, Name: a.Name, Role: a.Role, Status: a.Status, CreatedAt: a.CreatedAt}
	if a.IsLocked(timeNow()) {
		until := a.LockedUntil
		v.LockedUntil = &until
	}
	return v
}
