package projections

import (
	"context"
	"time"

	auditStore "meetdesk/internal/adapters/storage/audit"
	"meetdesk/internal/application/listutil"
	"meetdesk/internal/domain/audit"
)

// AuditFilterKeys are the query parameters the audit log filters on.
// from and to are YYYY-MM-DD; to is inclusive.
var AuditFilterKeys = []string{"category", "action", "severity", "actor", "resource", "from", "to"}

// GetAuditLogResult is one page of audit events, newest first.
type GetAuditLogResult struct {
	Events []audit.Event `json:"events"`
	Page   listutil.Page `json:"page"`
}

// QueryGetAuditLog returns a page of the audit log. Unparseable dates are ignored.
func QueryGetAuditLog(ctx context.Context, params listutil.Params, store AuditLister) (GetAuditLogResult, error) {
	f := auditStore.Filter{
		Category:   audit.Category(params.Filters["category"]),
		Action:     audit.Action(params.Filters["action"]),
		Severity:   audit.Severity(params.Filters["severity"]),
		ActorID:    params.Filters["actor"],
		ResourceID: params.Filters["resource"],
	}
	if t, err := time.Parse("2006-01-02", params.Filters["from"]); err == nil {
		f.From = t
	}
	if t, err := time.Parse("2006-01-02", params.Filters["to"]); err == nil {
		f.To = t.Add(24*time.Hour - time.Nanosecond)
	}

	total, err := store.Count(ctx, f)
	if err != nil {
		return GetAuditLogResult{}, err
	}
	page := listutil.NewPage(params, total)
	events, err := store.List(ctx, f, page.PerPage, (page.Page-1)*page.PerPage)
	if err != nil {
		return GetAuditLogResult{}, err
	}
	if events == nil {
		events = []audit.Event{}
	}
	return GetAuditLogResult{Events: events, Page: page}, nil
}
