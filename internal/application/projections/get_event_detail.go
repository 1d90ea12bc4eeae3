package projections

import (
	"context"

	eventStore "meetdesk/internal/adapters/storage/event"
)

// GetEventDetailDeps holds dependencies for QueryGetEventDetail.
type GetEventDetailDeps struct {
	Events EventReader
	Teams  TeamReader
}

// TeamView is a team with its members.
type TeamView struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	DepartmentID   string       `json:"department_id,omitempty"`
	DepartmentCode string       `json:"department,omitempty"`
	Members        []TeamMember `json:"members"`
}

// TeamMember is one participant of a team.
type TeamMember struct {
	ParticipantID string `json:"participant_id"`
	RegisterNo    string `json:"register_no"`
	Name          string `json:"name"`
}

// EventDetail is an event with its roster and, for team events, its teams.
type EventDetail struct {
	EventView
	Roster []RosterView `json:"roster"`
	Teams  []TeamView   `json:"teams"`
}

// QueryGetEventDetail loads an event, its roster and its teams.
// POST: Teams is empty for individual events
func QueryGetEventDetail(ctx context.Context, id string, deps GetEventDetailDeps) (EventDetail, error) {
	e, err := deps.Events.GetByID(ctx, id)
	if err != nil {
		return EventDetail{}, err
	}
	roster, err := deps.Events.Roster(ctx, e.ID)
	if err != nil {
		return EventDetail{}, err
	}

	d := EventDetail{Roster: make([]RosterView, 0, len(roster)), Teams: []TeamView{}}
	for _, r := range roster {
		d.Roster = append(d.Roster, rosterView(r))
	}
	d.EventView = eventView(eventStore.Summary{Event: e, RosterSize: len(roster)})

	if !e.IsTeamEvent() || deps.Teams == nil {
		return d, nil
	}
	teams, err := deps.Teams.ListByEvent(ctx, e.ID)
	if err != nil {
		return EventDetail{}, err
	}
	for _, t := range teams {
		members, err := deps.Teams.Members(ctx, t.ID)
		if err != nil {
			return EventDetail{}, err
		}
		tv := TeamView{ID: t.ID, Name: t.Name, DepartmentID: t.DepartmentID, DepartmentCode: t.DepartmentCode,
			Members: make([]TeamMember, 0, len(members))}
		for _, m := range members {
			tv.Members = append(tv.Members, TeamMember{ParticipantID: m.ParticipantID, RegisterNo: m.RegisterNo, Name: m.Name})
		}
		d.Teams = append(d.Teams, tv)
	}
	return d, nil
}
