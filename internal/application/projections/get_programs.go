package projections

import (
	"context"

	"meetdesk/internal/adapters/markdown"
)

// QueryListPrograms returns every program with its event and pending request counts.
func QueryListPrograms(ctx context.Context, store ProgramReader) ([]ProgramView, error) {
	list, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProgramView, 0, len(list))
	for _, s := range list {
		out = append(out, programSummaryView(s))
	}
	return out, nil
}

// GetProgramDetailDeps holds dependencies for QueryGetProgramDetail.
type GetProgramDetailDeps struct {
	Programs ProgramReader
	Events   EventReader
}

// ProgramDetail is a program with rendered description and its events.
type ProgramDetail struct {
	ProgramView
	EventList []EventView `json:"event_list"`
}

// QueryGetProgramDetail loads one program with its events in schedule order.
// POST: DescriptionHTML is the goldmark rendering of the markdown description
func QueryGetProgramDetail(ctx context.Context, id string, deps GetProgramDetailDeps) (ProgramDetail, error) {
	p, err := deps.Programs.GetByID(ctx, id)
	if err != nil {
		return ProgramDetail{}, err
	}
	events, err := deps.Events.ListByProgram(ctx, p.ID)
	if err != nil {
		return ProgramDetail{}, err
	}
	d := ProgramDetail{ProgramView: programView(p), EventList: make([]EventView, 0, len(events))}
	d.DescriptionHTML = markdown.ToHTML(p.Description)
	d.Events = len(events)
	for _, e := range events {
		d.EventList = append(d.EventList, eventView(e))
		d.PendingRequests += e.PendingRequests
	}
	return d, nil
}

// QueryGetActiveProgram is the public view of the active program, used by the
// registration page. Only events accepting requests are listed.
// POST: program.ErrNoActiveProgram when none is active
func QueryGetActiveProgram(ctx context.Context, deps GetProgramDetailDeps) (ProgramDetail, error) {
	p, err := deps.Programs.GetActive(ctx)
	if err != nil {
		return ProgramDetail{}, err
	}
	events, err := deps.Events.ListByProgram(ctx, p.ID)
	if err != nil {
		return ProgramDetail{}, err
	}
	d := ProgramDetail{ProgramView: programView(p), EventList: []EventView{}}
	d.DescriptionHTML = markdown.ToHTML(p.Description)
	for _, e := range events {
		if !e.AcceptsRequests() {
			continue
		}
		v := eventView(e)
		v.PendingRequests = 0
		d.EventList = append(d.EventList, v)
	}
	d.Events = len(d.EventList)
	return d, nil
}
