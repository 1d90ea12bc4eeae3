package team

import (
	"context"

	domain "meetdesk/internal/domain/team"
)

// Store persists teams. Membership is the team_id column of roster_entry.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Team, error)
	Save(ctx context.Context, t domain.Team) error
	Delete(ctx context.Context, id string) error
	ListByEvent(ctx context.Context, eventID string) ([]Summary, error)
	Members(ctx context.Context, teamID string) ([]domain.Member, error)
	AddMember(ctx context.Context, teamID, participantID string) error
	RemoveMember(ctx context.Context, teamID, participantID string) error
}

// Summary is a team with its member count.
type Summary struct {
	domain.Team
	DepartmentCode string
	Members        int
}
