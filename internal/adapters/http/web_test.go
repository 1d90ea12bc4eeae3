package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meetdesk/internal/adapters/http/perf"
	accountStore "meetdesk/internal/adapters/storage/account"
	auditStore "meetdesk/internal/adapters/storage/audit"
	certStore "meetdesk/internal/adapters/storage/certificate"
	eventStore "meetdesk/internal/adapters/storage/event"
	outboxStore "meetdesk/internal/adapters/storage/outbox"
	participantStore "meetdesk/internal/adapters/storage/participant"
	programStore "meetdesk/internal/adapters/storage/program"
	requestStore "meetdesk/internal/adapters/storage/request"
	resourceStore "meetdesk/internal/adapters/storage/resource"
	settingsStore "meetdesk/internal/adapters/storage/settings"
	"meetdesk/internal/adapters/storage/storagetest"
	teamStore "meetdesk/internal/adapters/storage/team"
	"meetdesk/internal/domain/account"
)

const testPassword = "correct-horse-battery"

// testNow is inside the fixture program's registration window.
var testNow = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	db      *sql.DB
	stores  *Stores
	handler http.Handler
}

// newTestServer wires the full middleware chain over a migrated in-memory database.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := storagetest.OpenMigrated(t)

	origNow := timeNow
	timeNow = func() time.Time { return testNow }
	t.Cleanup(func() { timeNow = origNow })

	s := &Stores{
		Accounts:     accountStore.NewSQLiteStore(db),
		Resources:    resourceStore.NewSQLiteStore(db),
		Participants: participantStore.NewSQLiteStore(db),
		Programs:     programStore.NewSQLiteStore(db),
		Events:       eventStore.NewSQLiteStore(db),
		Teams:        teamStore.NewSQLiteStore(db),
		Requests:     requestStore.NewSQLiteStore(db),
		Settings:     settingsStore.NewSQLiteStore(db),
		Certificates: certStore.NewSQLiteStore(db),
		Outbox:       outboxStore.NewSQLiteStore(db),
		Audit:        auditStore.NewSQLiteStore(db),
	}
	h := NewMux(s, Services{Ping: db.PingContext}, Options{
		CSRFKey: bytes.Repeat([]byte("k"), 32),
	}, perf.NewCollector(100))
	return &testServer{t: t, db: db, stores: s, handler: h}
}

// addAccount stores an active account with testPassword.
func (ts *testServer) addAccount(email, role string, mustChange bool) account.Account {
	ts.t.Helper()
	a := account.Account{
		ID:                     "acct-" + role + "-" + email,
		Email:                  email,
		Name:                   "Test " + role,
		Role:                   role,
		Status:                 account.StatusActive,
		CreatedAt:              testNow,
		PasswordChangeRequired: mustChange,
	}
	if err := a.SetPassword(testPassword); err != nil {
		ts.t.Fatalf("SetPassword: %v", err)
	}
	if err := ts.stores.Accounts.Save(context.Background(), a); err != nil {
		ts.t.Fatalf("save account: %v", err)
	}
	return a
}

// login signs in and returns the session cookie.
func (ts *testServer) login(email string) *http.Cookie {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/login", map[string]string{"email": email, "password": testPassword})
	if rec.Code != http.StatusOK {
		ts.t.Fatalf("login %s: status %d, body %s", email, rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "meetdesk_session" {
			return c
		}
	}
	ts.t.Fatal("login did not set a session cookie")
	return nil
}

// do sends a JSON request. Non-GET requests always carry the JSON content type.
func (ts *testServer) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}
