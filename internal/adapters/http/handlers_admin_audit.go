package web

import (
	"net/http"
	"strconv"
	"time"

	"meetdesk/internal/application/listutil"
	"meetdesk/internal/application/projections"
)

// handleAuditLog handles GET /api/audit?category=&action=&severity=&actor=&resource=&from=&to=&page=
// PRE: admin session
// POST: newest events first; from and to are YYYY-MM-DD, to is inclusive
func handleAuditLog(w http.ResponseWriter, r *http.Request) {
	params := listutil.Parse(r.URL.Query(), nil, projections.AuditFilterKeys)
	result, err := projections.QueryGetAuditLog(r.Context(), params, stores.Audit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDashboard handles GET /api/dashboard
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardDeps{
		Participants: stores.Participants,
		Resources:    stores.Resources,
		Programs:     stores.Programs,
		Events:       stores.Events,
		Requests:     stores.Requests,
		Certificates: stores.Certificates,
		Outbox:       stores.Outbox,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handlePerfSnapshot handles GET /api/perf?minutes=60&top=10
func handlePerfSnapshot(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		writeMessage(w, http.StatusNotFound, "performance collection is off")
		return
	}
	minutes := 60
	if n, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && n > 0 && n <= 24*60 {
		minutes = n
	}
	top := 10
	if n, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && n > 0 && n <= 100 {
		top = n
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(timeNow().Add(-time.Duration(minutes)*time.Minute), top))
}
