package team

import (
	"fmt"
	"time"
)

type MemberRole string

const (
	RoleCaptain    MemberRole = "captain"
	RolePlayer     MemberRole = "player"
	RoleSubstitute MemberRole = "substitute"
)

type MemberStatus string

const (
	MemberPending  MemberStatus = "pending"
	MemberActive   MemberStatus = "active"
	MemberInactive MemberStatus = "inactive"
)

var allMemberRoles = map[MemberRole]struct{}{
	RoleCaptain:    {},
	RolePlayer:     {},
	RoleSubstitute: {},
}

// Team is a group of players led by exactly one captain. The captain is
// always also recorded as a member with role captain.
type Team struct {
	ID          string
	Name        string
	CaptainID   string
	MaxPlayers  int
	SkillLevel  string
	HomeFieldID string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.CaptainID == "" {
		return fmt.Errorf("team captain id is required")
	}
	if t.MaxPlayers < 1 {
		return fmt.Errorf("team max players must be at least 1")
	}

	return nil
}

// Member is one (team, user) membership row.
type Member struct {
	TeamID   string
	UserID   string
	Role     MemberRole
	Status   MemberStatus
	JoinedAt time.Time
}

func (m Member) Validate() error {
	if m.TeamID == "" {
		return fmt.Errorf("member team id is required")
	}
	if m.UserID == "" {
		return fmt.Errorf("member user id is required")
	}
	if _, ok := allMemberRoles[m.Role]; !ok {
		return fmt.Errorf("invalid member role: %s", m.Role)
	}
	switch m.Status {
	case MemberPending, MemberActive, MemberInactive:
		return nil
	default:
		return fmt.Errorf("invalid member status: %s", m.Status)
	}
}
