package projections

import (
	"context"

	participantStore "meetdesk/internal/adapters/storage/participant"
	"meetdesk/internal/application/listutil"
)

// ParticipantFilterKeys are the query parameters the participant list filters on.
var ParticipantFilterKeys = []string{"department", "batch", "gender"}

// GetParticipantListResult is one page of participants.
type GetParticipantListResult struct {
	Participants []ParticipantView `json:"participants"`
	Page         listutil.Page     `json:"page"`
}

// QueryGetParticipantList returns a page of participants.
// PRE: params came from listutil.Parse with participantStore.SortColumns and ParticipantFilterKeys
// POST: Page.Total counts every match, not only this page
func QueryGetParticipantList(ctx context.Context, params listutil.Params, store ParticipantLister) (GetParticipantListResult, error) {
	filter := participantStore.ListFilter{
		Search:       params.Search,
		DepartmentID: params.Filters["department"],
		BatchID:      params.Filters["batch"],
		Gender:       params.Filters["gender"],
		Sort:         params.Sort,
		Desc:         params.Desc,
	}
	total, err := store.Count(ctx, filter)
	if err != nil {
		return GetParticipantListResult{}, err
	}
	page := listutil.NewPage(params, total)
	filter.Limit = page.PerPage
	filter.Offset = (page.Page - 1) * page.PerPage

	rows, err := store.List(ctx, filter)
	if err != nil {
		return GetParticipantListResult{}, err
	}
	res := GetParticipantListResult{Participants: make([]ParticipantView, 0, len(rows)), Page: page}
	for _, r := range rows {
		res.Participants = append(res.Participants, participantView(r))
	}
	return res, nil
}
