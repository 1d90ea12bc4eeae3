package web

import (
	"net/http"
	"strconv"
	"time"

	"meetdesk/internal/domain/domainerr"
	"meetdesk/internal/domain/outbox"
)

type outboxView struct {
	ID              string     `json:"id"`
	Channel         string     `json:"channel"`
	Status          string     `json:"status"`
	Attempts        int        `json:"attempts"`
	MaxAttempts     int        `json:"max_attempts"`
	NextAttemptAt   *time.Time `json:"next_attempt_at,omitempty"`
	LastAttemptedAt *time.Time `json:"last_attempted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ExternalID      string     `json:"external_id,omitempty"`
	Error           string     `json:"error,omitempty"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// toOutboxView leaves out the payload; it carries participant addresses.
func toOutboxView(e outbox.Entry) outboxView {
	return outboxView{
		ID:              e.ID,
		Channel:         e.Channel,
		Status:          e.Status,
		Attempts:        e.Attempts,
		MaxAttempts:     e.MaxAttempts,
		NextAttemptAt:   optionalTime(e.NextAttemptAt),
		LastAttemptedAt: optionalTime(e.LastAttemptedAt),
		CreatedAt:       e.CreatedAt,
		ExternalID:      e.ExternalID,
		Error:           e.ErrorMessage,
	}
}

// handleListOutbox handles GET /api/outbox?status=failed&limit=50. The response
// also carries the per-status counts.
func handleListOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := r.URL.Query().Get("status")
	if status == "" {
		status = outbox.StatusFailed
	}
	limit := 50
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 200 {
		limit = n
	}

	entries, err := stores.Outbox.ListByStatus(ctx, status, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	counts, err := stores.Outbox.CountByStatus(ctx)
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]outboxView, 0, len(entries))
	for _, e := range entries {
		out = append(out, toOutboxView(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out, "counts": counts})
}

// handleRetryOutbox handles POST /api/outbox/{id}/retry. The entry is
// dispatched right away rather than on the next scheduler tick.
func handleRetryOutbox(w http.ResponseWriter, r *http.Request) {
	if services.Processor == nil {
		writeError(w, domainerr.Conflict("outbox dispatcher is not running"))
		return
	}
	e, err := services.Processor.RetryNow(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOutboxView(e))
}

// handleAbandonOutbox handles POST /api/outbox/{id}/abandon
func handleAbandonOutbox(w http.ResponseWriter, r *http.Request) {
	if services.Processor == nil {
		writeError(w, domainerr.Conflict("outbox dispatcher is not running"))
		return
	}
	if err := services.Processor.Abandon(r.Context(), actorFrom(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
