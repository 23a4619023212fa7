package team

import (
	"context"
	"errors"
)

// ErrMemberExists is returned by implementations when a (team, user)
// membership row already exists.
var ErrMemberExists = errors.New("team member already exists")

// Repository describes team and membership persistence needs from use
// cases. CreateWithCaptain persists the team and its captain membership
// as one atomic unit: a team must never exist without its captain
// recorded as a member.
type Repository interface {
	CreateWithCaptain(ctx context.Context, item Team, captain Member) error
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	Update(ctx context.Context, item Team) error

	AddMember(ctx context.Context, item Member) error
	GetMember(ctx context.Context, teamID, userID string) (Member, bool, error)
	UpdateMember(ctx context.Context, item Member) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	RemoveAllMembers(ctx context.Context, teamID string) error
	ListMembers(ctx context.Context, teamID string) ([]Member, error)
	CountActiveMembers(ctx context.Context, teamID string) (int, error)
}
