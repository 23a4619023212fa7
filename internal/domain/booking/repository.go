package booking

import (
	"context"
	"errors"
)

// ErrOverlap is returned by implementations that enforce the disjoint
// active-interval invariant at the storage layer (for example a
// database exclusion constraint) when an insert loses to an existing
// active booking.
var ErrOverlap = errors.New("booking slot overlaps an active booking")

// Repository describes booking persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, item Booking) error
	GetByID(ctx context.Context, bookingID string) (Booking, bool, error)
	Update(ctx context.Context, item Booking) error

	// ListActiveByFieldWithin returns bookings for the field whose
	// status still blocks the slot (pending or confirmed) and whose
	// interval overlaps within.
	ListActiveByFieldWithin(ctx context.Context, fieldID string, within TimeRange) ([]Booking, error)
	ListByField(ctx context.Context, fieldID string) ([]Booking, error)
	ListByTeam(ctx context.Context, teamID string) ([]Booking, error)
}
