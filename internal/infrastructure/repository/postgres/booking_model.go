package postgres

import (
	"database/sql"
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
)

type bookingTableModel struct {
	ID              string         `db:"id"`
	FieldID         string         `db:"field_id"`
	TeamID          string         `db:"team_id"`
	OpponentTeamID  sql.NullString `db:"opponent_team_id"`
	StartAt         time.Time      `db:"start_at"`
	EndAt           time.Time      `db:"end_at"`
	Status          string         `db:"status"`
	TotalPrice      float64        `db:"total_price"`
	PaymentStatus   string         `db:"payment_status"`
	CreatedBy       string         `db:"created_by"`
	IsMatchmaking   bool           `db:"is_matchmaking"`
	SpecialRequests string         `db:"special_requests"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (m bookingTableModel) toDomain() booking.Booking {
	return booking.Booking{
		ID:              m.ID,
		FieldID:         m.FieldID,
		TeamID:          m.TeamID,
		OpponentTeamID:  m.OpponentTeamID.String,
		Slot:            booking.TimeRange{Start: m.StartAt, End: m.EndAt},
		Status:          booking.Status(m.Status),
		TotalPrice:      m.TotalPrice,
		PaymentStatus:   booking.PaymentStatus(m.PaymentStatus),
		CreatedBy:       m.CreatedBy,
		IsMatchmaking:   m.IsMatchmaking,
		SpecialRequests: m.SpecialRequests,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
