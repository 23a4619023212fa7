package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
	qb "github.com/fieldmatch/fieldmatch/internal/platform/querybuilder"
)

type BookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a booking. The bookings table carries an EXCLUDE
// constraint over (field_id, slot range) for blocking statuses, so even
// if two processes pass the application-level check the database admits
// only one; the loser sees booking.ErrOverlap.
func (r *BookingRepository) Create(ctx context.Context, item booking.Booking) error {
	query, args, err := qb.InsertInto("bookings").
		Columns(
			"id", "field_id", "team_id", "opponent_team_id",
			"start_at", "end_at", "status", "total_price", "payment_status",
			"created_by", "is_matchmaking", "special_requests", "created_at", "updated_at",
		).
		Values(
			item.ID, item.FieldID, item.TeamID, nullString(item.OpponentTeamID),
			item.Slot.Start, item.Slot.End, string(item.Status), item.TotalPrice, string(item.PaymentStatus),
			item.CreatedBy, item.IsMatchmaking, item.SpecialRequests, item.CreatedAt, item.UpdatedAt,
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert booking query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isExclusionViolation(err) {
			return booking.ErrOverlap
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID string) (booking.Booking, bool, error) {
	query, args, err := qb.Select("*").From("bookings").
		Where(qb.Eq("id", bookingID)).
		ToSQL()
	if err != nil {
		return booking.Booking{}, false, fmt.Errorf("build get booking query: %w", err)
	}

	var row bookingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return booking.Booking{}, false, nil
		}
		return booking.Booking{}, false, fmt.Errorf("get booking: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *BookingRepository) Update(ctx context.Context, item booking.Booking) error {
	query, args, err := qb.Update("bookings").
		Set("status", string(item.Status)).
		Set("payment_status", string(item.PaymentStatus)).
		Set("opponent_team_id", nullString(item.OpponentTeamID)).
		Set("special_requests", item.SpecialRequests).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update booking query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("booking %s does not exist", item.ID)
	}

	return nil
}

// ListActiveByFieldWithin returns blocking bookings on the field whose
// half-open interval intersects within: start_at < end AND end_at >
// start.
func (r *BookingRepository) ListActiveByFieldWithin(ctx context.Context, fieldID string, within booking.TimeRange) ([]booking.Booking, error) {
	query, args, err := qb.Select("*").From("bookings").
		Where(
			qb.Eq("field_id", fieldID),
			qb.In("status", []any{string(booking.StatusPending), string(booking.StatusConfirmed)}),
			qb.Lt("start_at", within.End),
			qb.Gt("end_at", within.Start),
		).
		OrderBy("start_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active bookings query: %w", err)
	}

	return r.selectBookings(ctx, query, args)
}

func (r *BookingRepository) ListByField(ctx context.Context, fieldID string) ([]booking.Booking, error) {
	query, args, err := qb.Select("*").From("bookings").
		Where(qb.Eq("field_id", fieldID)).
		OrderBy("start_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list bookings by field query: %w", err)
	}

	return r.selectBookings(ctx, query, args)
}

func (r *BookingRepository) ListByTeam(ctx context.Context, teamID string) ([]booking.Booking, error) {
	query, args, err := qb.Select("*").From("bookings").
		Where(qb.Expr("(team_id = ? OR opponent_team_id = ?)", teamID, teamID)).
		OrderBy("start_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list bookings by team query: %w", err)
	}

	return r.selectBookings(ctx, query, args)
}

func (r *BookingRepository) selectBookings(ctx context.Context, query string, args []any) ([]booking.Booking, error) {
	var rows []bookingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}

	out := make([]booking.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}
