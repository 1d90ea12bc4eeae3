package projections

import (
	"time"

	"meetdesk/internal/adapters/markdown"
	eventStore "meetdesk/internal/adapters/storage/event"
	participantStore "meetdesk/internal/adapters/storage/participant"
	programStore "meetdesk/internal/adapters/storage/program"
	requestStore "meetdesk/internal/adapters/storage/request"
	"meetdesk/internal/domain/program"
)

// ProgramView is the JSON shape of a program.
type ProgramView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	Year            int    `json:"year"`
	Venue           string `json:"venue"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"description_html,omitempty"`
	Active          bool   `json:"active"`
	Events          int    `json:"events"`
	PendingRequests int    `json:"pending_requests"`
}

func programView(p program.Program) ProgramView {
	return ProgramView{
		ID: p.ID, Name: p.Name, Slug: p.Slug, Year: p.Year, Venue: p.Venue,
		StartDate: p.StartDate.Format(program.DateLayout), EndDate: p.EndDate.Format(program.DateLayout),
		Description: p.Description, Active: p.Active,
	}
}

func programSummaryView(s programStore.Summary) ProgramView {
	v := programView(s.Program)
	v.Events = s.Events
	v.PendingRequests = s.PendingRequests
	return v
}

// EventView is the JSON shape of an event with its roster counters.
type EventView struct {
	ID               string     `json:"id"`
	ProgramID        string     `json:"program_id"`
	Name             string     `json:"name"`
	Category         string     `json:"category"`
	Gender           string     `json:"gender"`
	Kind             string     `json:"kind"`
	Capacity         int        `json:"capacity"`
	MaxPerDepartment int        `json:"max_per_department"`
	Venue            string     `json:"venue"`
	ScheduledAt      *time.Time `json:"scheduled_at"`
	Status           string     `json:"status"`
	RegistrationOpen bool       `json:"registration_open"`
	Description      string     `json:"description"`
	DescriptionHTML  string     `json:"description_html,omitempty"`
	RosterSize       int        `json:"roster_size"`
	PendingRequests  int        `json:"pending_requests"`
	SeatsLeft        *int       `json:"seats_left"` // nil when unlimited
}

func eventView(s eventStore.Summary) EventView {
	e := s.Event
	v := EventView{
		ID: e.ID, ProgramID: e.ProgramID, Name: e.Name, Category: e.Category, Gender: e.Gender, Kind: e.Kind,
		Capacity: e.Capacity, MaxPerDepartment: e.MaxPerDepartment, Venue: e.Venue, Status: e.Status,
		RegistrationOpen: e.RegistrationOpen, Description: e.Description,
		RosterSize: s.RosterSize, PendingRequests: s.PendingRequests,
	}
	if !e.ScheduledAt.IsZero() {
		at := e.ScheduledAt
		v.ScheduledAt = &at
	}
	if e.Capacity > 0 {
		left := e.Capacity - s.RosterSize
		if left < 0 {
			left = 0
		}
		v.SeatsLeft = &left
	}
	if e.Description != "" {
		v.DescriptionHTML = markdown.ToHTML(e.Description)
	}
	return v
}

// RosterView is one roster line.
type RosterView struct {
	ParticipantID  string    `json:"participant_id"`
	RegisterNo     string    `json:"register_no"`
	Name           string    `json:"name"`
	Gender         string    `json:"gender"`
	DepartmentCode string    `json:"department"`
	BatchName      string    `json:"batch"`
	TeamID         string    `json:"team_id,omitempty"`
	TeamName       string    `json:"team,omitempty"`
	Position       int       `json:"position"`
	Result         string    `json:"result"`
	AddedAt        time.Time `json:"added_at"`
	AddedBy        string    `json:"added_by"`
}

func rosterView(r eventStore.RosterRow) RosterView {
	return RosterView{
		ParticipantID: r.ParticipantID, RegisterNo: r.RegisterNo, Name: r.Name, Gender: r.Gender,
		DepartmentCode: r.DepartmentCode, BatchName: r.BatchName, TeamID: r.TeamID, TeamName: r.TeamName,
		Position: r.Position, Result: r.Result, AddedAt: r.AddedAt, AddedBy: r.AddedBy,
	}
}

// RequestView is a participation request with the names staff need to decide it.
type RequestView struct {
	ID              string     `json:"id"`
	ProgramID       string     `json:"program_id"`
	ProgramName     string     `json:"program"`
	EventID         string     `json:"event_id"`
	EventName       string     `json:"event"`
	ParticipantID   string     `json:"participant_id"`
	ParticipantName string     `json:"participant"`
	RegisterNo      string     `json:"register_no"`
	Email           string     `json:"email"`
	DepartmentCode  string     `json:"department"`
	Status          string     `json:"status"`
	Note            string     `json:"note"`
	Reason          string     `json:"reason,omitempty"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	DecidedBy       string     `json:"decided_by,omitempty"`
}

func requestView(r requestStore.Row) RequestView {
	v := RequestView{
		ID: r.ID, ProgramID: r.ProgramID, ProgramName: r.ProgramName, EventID: r.EventID, EventName: r.EventName,
		ParticipantID: r.ParticipantID, ParticipantName: r.ParticipantName, RegisterNo: r.RegisterNo,
		Email: r.Email, DepartmentCode: r.DepartmentCode, Status: r.Status, Note: r.Note, Reason: r.Reason,
		SubmittedAt: r.SubmittedAt, DecidedBy: r.DecidedBy,
	}
	if !r.DecidedAt.IsZero() {
		at := r.DecidedAt
		v.DecidedAt = &at
	}
	return v
}

// ParticipantView is a participant with department and batch labels.
type ParticipantView struct {
	ID             string    `json:"id"`
	RegisterNo     string    `json:"register_no"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Gender         string    `json:"gender"`
	DepartmentID   string    `json:"department_id"`
	DepartmentCode string    `json:"department"`
	DepartmentName string    `json:"department_name"`
	BatchID        string    `json:"batch_id"`
	BatchName      string    `json:"batch"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func participantView(r participantStore.Row) ParticipantView {
	return ParticipantView{
		ID: r.ID, RegisterNo: r.RegisterNo, Name: r.Name, Email: r.Email, Phone: r.Phone, Gender: r.Gender,
		DepartmentID: r.DepartmentID, DepartmentCode: r.DepartmentCode, DepartmentName: r.DepartmentName,
		BatchID: r.BatchID, BatchName: r.BatchName, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}
