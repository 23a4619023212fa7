package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/fieldmatch/fieldmatch/internal/domain/matchresult"
)

type matchResultTableModel struct {
	ID          string         `db:"id"`
	BookingID   string         `db:"booking_id"`
	HomeTeamID  string         `db:"home_team_id"`
	AwayTeamID  string         `db:"away_team_id"`
	HomeScore   int            `db:"home_score"`
	AwayScore   int            `db:"away_score"`
	Status      string         `db:"status"`
	MVPPlayerID sql.NullString `db:"mvp_player_id"`
	RecordedBy  string         `db:"recorded_by"`
	RecordedAt  time.Time      `db:"recorded_at"`
	Events      []byte         `db:"events"`
}

type matchEventJSON struct {
	Type     string    `json:"type"`
	PlayerID string    `json:"player_id,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

func marshalEvents(events []matchresult.Event) ([]byte, error) {
	out := make([]matchEventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, matchEventJSON{Type: e.Type, PlayerID: e.PlayerID, Detail: e.Detail, At: e.At})
	}
	data, err := sonic.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal match events: %w", err)
	}
	return data, nil
}

func unmarshalEvents(data []byte) ([]matchresult.Event, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw []matchEventJSON
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal match events: %w", err)
	}
	out := make([]matchresult.Event, 0, len(raw))
	for _, e := range raw {
		out = append(out, matchresult.Event{Type: e.Type, PlayerID: e.PlayerID, Detail: e.Detail, At: e.At})
	}
	return out, nil
}

func (m matchResultTableModel) toDomain() (matchresult.Result, error) {
	events, err := unmarshalEvents(m.Events)
	if err != nil {
		return matchresult.Result{}, err
	}

	return matchresult.Result{
		ID:          m.ID,
		BookingID:   m.BookingID,
		HomeTeamID:  m.HomeTeamID,
		AwayTeamID:  m.AwayTeamID,
		HomeScore:   m.HomeScore,
		AwayScore:   m.AwayScore,
		Status:      matchresult.Status(m.Status),
		MVPPlayerID: m.MVPPlayerID.String,
		RecordedBy:  m.RecordedBy,
		RecordedAt:  m.RecordedAt,
		Events:      events,
	}, nil
}

type ratingTableModel struct {
	ID          string    `db:"id"`
	RaterTeamID string    `db:"rater_team_id"`
	RatedTeamID string    `db:"rated_team_id"`
	BookingID   string    `db:"booking_id"`
	Score       int       `db:"score"`
	Category    string    `db:"category"`
	Recommended bool      `db:"recommended"`
	CreatedAt   time.Time `db:"created_at"`
}

func (m ratingTableModel) toDomain() matchresult.Rating {
	return matchresult.Rating{
		ID:          m.ID,
		RaterTeamID: m.RaterTeamID,
		RatedTeamID: m.RatedTeamID,
		BookingID:   m.BookingID,
		Score:       m.Score,
		Category:    matchresult.RatingCategory(m.Category),
		Recommended: m.Recommended,
		CreatedAt:   m.CreatedAt,
	}
}
