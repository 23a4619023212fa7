package postgres

import (
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/team"
)

type teamTableModel struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	CaptainID   string    `db:"captain_id"`
	MaxPlayers  int       `db:"max_players"`
	SkillLevel  string    `db:"skill_level"`
	HomeFieldID string    `db:"home_field_id"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:          m.ID,
		Name:        m.Name,
		CaptainID:   m.CaptainID,
		MaxPlayers:  m.MaxPlayers,
		SkillLevel:  m.SkillLevel,
		HomeFieldID: m.HomeFieldID,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type teamMemberTableModel struct {
	TeamID   string    `db:"team_id"`
	UserID   string    `db:"user_id"`
	Role     string    `db:"role"`
	Status   string    `db:"status"`
	JoinedAt time.Time `db:"joined_at"`
}

func (m teamMemberTableModel) toDomain() team.Member {
	return team.Member{
		TeamID:   m.TeamID,
		UserID:   m.UserID,
		Role:     team.MemberRole(m.Role),
		Status:   team.MemberStatus(m.Status),
		JoinedAt: m.JoinedAt,
	}
}
