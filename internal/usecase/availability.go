package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
	"github.com/fieldmatch/fieldmatch/internal/domain/field"
)

// AvailabilityChecker answers whether a time range can be booked on a
// field: the range must satisfy duration bounds, fall inside the
// field's operating hours, and not overlap any blocking booking.
type AvailabilityChecker struct {
	bookings    booking.Repository
	maxDuration time.Duration
}

func NewAvailabilityChecker(bookings booking.Repository, maxDuration time.Duration) *AvailabilityChecker {
	return &AvailabilityChecker{bookings: bookings, maxDuration: maxDuration}
}

// Check returns nil when the slot is bookable. excludeBookingID, when
// non-empty, is skipped during the overlap scan so a booking can be
// rechecked against its own stored interval.
func (c *AvailabilityChecker) Check(ctx context.Context, f *field.Field, slot booking.TimeRange, excludeBookingID string) error {
	if err := slot.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if c.maxDuration > 0 && slot.Duration() > c.maxDuration {
		return fmt.Errorf("%w: duration %s exceeds maximum %s", ErrInvalidInput, slot.Duration(), c.maxDuration)
	}
	if !f.Hours.Covers(slot.Start, slot.End) {
		return fmt.Errorf("%w: slot outside operating hours", ErrInvalidInput)
	}
	existing, err := c.bookings.ListActiveByFieldWithin(ctx, f.ID, slot)
	if err != nil {
		return wrapStoreErr(err, "list active bookings")
	}
	for _, b := range existing {
		if b.ID == excludeBookingID {
			continue
		}
		if b.Status.Blocks() && b.Slot.Overlaps(slot) {
			return fmt.Errorf("%w: field booked %s-%s", ErrConflict,
				b.Slot.Start.Format(time.RFC3339), b.Slot.End.Format(time.RFC3339))
		}
	}
	return nil
}

func mapOverlapErr(err error) error {
	if errors.Is(err, booking.ErrOverlap) {
		return fmt.Errorf("%w: booking overlaps an existing reservation", ErrConflict)
	}
	return err
}
