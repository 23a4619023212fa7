package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
)

type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]booking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[string]booking.Booking)}
}

func (r *BookingRepository) Create(_ context.Context, item booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[item.ID]; exists {
		return fmt.Errorf("booking %s already exists", item.ID)
	}
	// Mirror of the database exclusion constraint: an insert that would
	// violate the disjoint active-interval invariant is refused even if
	// the caller skipped the availability check.
	if item.Status.Blocks() {
		for _, existing := range r.bookings {
			if existing.FieldID == item.FieldID && existing.Status.Blocks() && existing.Slot.Overlaps(item.Slot) {
				return booking.ErrOverlap
			}
		}
	}
	r.bookings[item.ID] = item

	return nil
}

func (r *BookingRepository) GetByID(_ context.Context, bookingID string) (booking.Booking, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.bookings[bookingID]
	return item, ok, nil
}

func (r *BookingRepository) Update(_ context.Context, item booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[item.ID]; !exists {
		return fmt.Errorf("booking %s does not exist", item.ID)
	}
	r.bookings[item.ID] = item

	return nil
}

func (r *BookingRepository) ListActiveByFieldWithin(_ context.Context, fieldID string, within booking.TimeRange) ([]booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]booking.Booking, 0)
	for _, item := range r.bookings {
		if item.FieldID == fieldID && item.Status.Blocks() && item.Slot.Overlaps(within) {
			out = append(out, item)
		}
	}
	sortBySlot(out)

	return out, nil
}

func (r *BookingRepository) ListByField(_ context.Context, fieldID string) ([]booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]booking.Booking, 0)
	for _, item := range r.bookings {
		if item.FieldID == fieldID {
			out = append(out, item)
		}
	}
	sortBySlot(out)

	return out, nil
}

func (r *BookingRepository) ListByTeam(_ context.Context, teamID string) ([]booking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]booking.Booking, 0)
	for _, item := range r.bookings {
		if item.TeamID == teamID || item.OpponentTeamID == teamID {
			out = append(out, item)
		}
	}
	sortBySlot(out)

	return out, nil
}

func sortBySlot(items []booking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Slot.Start.Equal(items[j].Slot.Start) {
			return items[i].ID < items[j].ID
		}
		return items[i].Slot.Start.Before(items[j].Slot.Start)
	})
}
