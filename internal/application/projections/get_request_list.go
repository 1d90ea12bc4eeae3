package projections

import (
	"context"

	requestStore "meetdesk/internal/adapters/storage/request"
	"meetdesk/internal/application/listutil"
)

// RequestFilterKeys are the query parameters the request list filters on.
var RequestFilterKeys = []string{"status", "program", "event", "participant"}

// GetRequestListResult is one page of requests, oldest submission first.
type GetRequestListResult struct {
	Requests []RequestView `json:"requests"`
	Page     listutil.Page `json:"page"`
}

// QueryGetRequestList returns a page of requests with participant, event and program names.
func QueryGetRequestList(ctx context.Context, params listutil.Params, store RequestLister) (GetRequestListResult, error) {
	filter := requestStore.ListFilter{
		Status:        params.Filters["status"],
		ProgramID:     params.Filters["program"],
		EventID:       params.Filters["event"],
		ParticipantID: params.Filters["participant"],
	}
	total, err := store.Count(ctx, filter)
	if err != nil {
		return GetRequestListResult{}, err
	}
	page := listutil.NewPage(params, total)
	filter.Limit = page.PerPage
	filter.Offset = (page.Page - 1) * page.PerPage

	rows, err := store.List(ctx, filter)
	if err != nil {
		return GetRequestListResult{}, err
	}
	res := GetRequestListResult{Requests: make([]RequestView, 0, len(rows)), Page: page}
	for _, r := range rows {
		res.Requests = append(res.Requests, requestView(r))
	}
	return res, nil
}
