package postgres

import (
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
	"github.com/fieldmatch/fieldmatch/internal/domain/matchmaking"
)

type matchRequestTableModel struct {
	ID               string    `db:"id"`
	CaptainID        string    `db:"captain_id"`
	TeamID           string    `db:"team_id"`
	TeamName         string    `db:"team_name"`
	SkillLevel       string    `db:"skill_level"`
	Location         string    `db:"location"`
	PlayersNeeded    int       `db:"players_needed"`
	PreferredFieldID string    `db:"preferred_field_id"`
	PreferredStartAt time.Time `db:"preferred_start_at"`
	PreferredEndAt   time.Time `db:"preferred_end_at"`
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (m matchRequestTableModel) toDomain() matchmaking.Request {
	return matchmaking.Request{
		ID:             m.ID,
		CaptainID:      m.CaptainID,
		TeamID:         m.TeamID,
		TeamName:       m.TeamName,
		SkillLevel:     m.SkillLevel,
		Location:       m.Location,
		PlayersNeeded:  m.PlayersNeeded,
		PreferredField: m.PreferredFieldID,
		PreferredSlot:  booking.TimeRange{Start: m.PreferredStartAt, End: m.PreferredEndAt},
		Status:         matchmaking.RequestStatus(m.Status),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type challengeTableModel struct {
	ID               string    `db:"id"`
	RequestID        string    `db:"request_id"`
	ChallengerID     string    `db:"challenger_id"`
	ChallengerTeamID string    `db:"challenger_team_id"`
	Message          string    `db:"message"`
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (m challengeTableModel) toDomain() matchmaking.Challenge {
	return matchmaking.Challenge{
		ID:               m.ID,
		RequestID:        m.RequestID,
		ChallengerID:     m.ChallengerID,
		ChallengerTeamID: m.ChallengerTeamID,
		Message:          m.Message,
		Status:           matchmaking.ChallengeStatus(m.Status),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
