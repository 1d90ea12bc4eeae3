package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"meetdesk/internal/domain/account"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "meetdesk_session"

// SessionTTL is how long a session lives after login.
const SessionTTL = 24 * time.Hour

// SecureCookies sets the Secure flag on session cookies; on in production.
var SecureCookies bool

// Session represents an authenticated staff session.
type Session struct {
	Token                  string
	AccountID              string
	Email                  string
	Name                   string
	Role                   string
	PasswordChangeRequired bool
	CreatedAt              time.Time
}

// IsAdmin reports whether the session belongs to an admin.
func (s Session) IsAdmin() bool {
	return s.Role == account.RoleAdmin
}

// SessionStore is an in-memory session store. Sessions do not survive a restart.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session), now: time.Now}
}

// Create stores a new session and returns it with its token.
// PRE: s.AccountID and s.Role are non-empty
func (ss *SessionStore) Create(s Session) (Session, error) {
	token, err := generateToken()
	if err != nil {
		return Session{}, err
	}
	s.Token = token
	s.CreatedAt = ss.now()
	ss.mu.Lock()
	ss.sessions[token] = s
	ss.mu.Unlock()
	return s, nil
}

// Get returns the session for token.
// POST: expired sessions are removed and reported missing
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[token]
	if !ok {
		return Session{}, false
	}
	if ss.now().Sub(s.CreatedAt) > SessionTTL {
		delete(ss.sessions, token)
		return Session{}, false
	}
	return s, true
}

// Delete removes a session by token.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	delete(ss.sessions, token)
	ss.mu.Unlock()
}

// Update replaces an existing session. It reports false when the token is unknown.
func (ss *SessionStore) Update(s Session) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.sessions[s.Token]; !ok {
		return false
	}
	ss.sessions[s.Token] = s
	return true
}

// DeleteForAccount ends every session of an account, e.g. after it is disabled.
// POST: returns the number of sessions removed
func (ss *SessionStore) DeleteForAccount(accountID string) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for token, s := range ss.sessions {
		if s.AccountID == accountID {
			delete(ss.sessions, token)
			n++
		}
	}
	return n
}

// Auth returns middleware that loads the session named by the cookie into the context.
// It does not block anonymous requests; RequireAuth and RequireAdmin do.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				if s, ok := sessions.Get(cookie.Value); ok {
					r = r.WithContext(ContextWithSession(r.Context(), s))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects anonymous requests with 401. Sessions that must change
// their password are limited to the password and logout endpoints.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessionFromContext(r.Context())
		if !ok {
			deny(w, r, http.StatusUnauthorized, "not authenticated", "")
			return
		}
		if s.PasswordChangeRequired && r.URL.Path != "/api/me/password" && r.URL.Path != "/api/logout" && r.URL.Path != "/api/me" {
			deny(w, r, http.StatusForbidden, "password change required", s.AccountID)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from non-admin sessions with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := SessionFromContext(r.Context())
		if !s.IsAdmin() {
			deny(w, r, http.StatusForbidden, "admin required", s.AccountID)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func deny(w http.ResponseWriter, r *http.Request, status int, msg, accountID string) {
	slog.Warn("auth_denied", "path", r.URL.Path, "account_id", accountID, "reason", msg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// SessionFromContext extracts the session from the request context.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(Session)
	return s, ok
}

// ContextWithSession returns a context carrying sess.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
