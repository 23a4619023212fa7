package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
	"github.com/fieldmatch/fieldmatch/internal/domain/field"
	"github.com/fieldmatch/fieldmatch/internal/domain/pricing"
	"github.com/fieldmatch/fieldmatch/internal/domain/team"
	"github.com/fieldmatch/fieldmatch/internal/domain/user"
	idgen "github.com/fieldmatch/fieldmatch/internal/platform/id"
	"github.com/fieldmatch/fieldmatch/internal/platform/lock"
	"github.com/fieldmatch/fieldmatch/internal/platform/logging"
)

// BookingPolicy tunes booking behavior per deployment.
type BookingPolicy struct {
	// RequirePaidConfirm forces payment before a creator can confirm.
	// Field owners and admins may confirm regardless.
	RequirePaidConfirm bool
	// MaxDuration caps a single reservation; zero disables the cap.
	MaxDuration time.Duration
	// CompletionGrace extends the completion window past the slot end.
	CompletionGrace time.Duration
}

func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		RequirePaidConfirm: true,
		MaxDuration:        12 * time.Hour,
		CompletionGrace:    6 * time.Hour,
	}
}

// CreateBookingInput is the incoming payload for reserving a field.
type CreateBookingInput struct {
	FieldID         string
	TeamID          string
	OpponentTeamID  string
	Slot            booking.TimeRange
	IsMatchmaking   bool
	SpecialRequests string
}

type BookingService struct {
	bookingRepo  booking.Repository
	fieldRepo    field.Repository
	teamRepo     team.Repository
	availability *AvailabilityChecker
	locks        *lock.Keyed
	idGen        idgen.Generator
	logger       *logging.Logger
	policy       BookingPolicy
	now          func() time.Time
}

func NewBookingService(
	bookingRepo booking.Repository,
	fieldRepo field.Repository,
	teamRepo team.Repository,
	locks *lock.Keyed,
	idGen idgen.Generator,
	logger *logging.Logger,
	policy BookingPolicy,
) *BookingService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = lock.NewKeyed()
	}

	return &BookingService{
		bookingRepo:  bookingRepo,
		fieldRepo:    fieldRepo,
		teamRepo:     teamRepo,
		availability: NewAvailabilityChecker(bookingRepo, policy.MaxDuration),
		locks:        locks,
		idGen:        idGen,
		logger:       logger,
		policy:       policy,
		now:          time.Now,
	}
}

func fieldLockKey(fieldID string) string {
	return "field:" + fieldID
}

func bookingLockKey(bookingID string) string {
	return "booking:" + bookingID
}

// CreateBooking reserves a slot. The availability check and the insert
// run under the field's mutex so two concurrent requests for
// overlapping slots cannot both pass the check.
func (s *BookingService) CreateBooking(ctx context.Context, actor user.Principal, input CreateBookingInput) (booking.Booking, error) {
	ctx, span := startUsecaseSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return booking.Booking{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	input.FieldID = strings.TrimSpace(input.FieldID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	input.OpponentTeamID = strings.TrimSpace(input.OpponentTeamID)
	if input.FieldID == "" {
		return booking.Booking{}, fmt.Errorf("%w: field id is required", ErrInvalidInput)
	}
	if input.TeamID == "" {
		return booking.Booking{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if err := input.Slot.Validate(); err != nil {
		return booking.Booking{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now().UTC()
	if !input.Slot.Start.After(now) {
		return booking.Booking{}, fmt.Errorf("%w: booking must start in the future", ErrInvalidInput)
	}

	if err := s.requireTeamMember(ctx, actor, input.TeamID); err != nil {
		return booking.Booking{}, err
	}

	bookingID, err := s.idGen.NewID()
	if err != nil {
		return booking.Booking{}, fmt.Errorf("generate booking id: %w", err)
	}

	var created booking.Booking
	err = s.locks.Do(ctx, fieldLockKey(input.FieldID), func() error {
		f, exists, err := s.fieldRepo.GetByID(ctx, input.FieldID)
		if err != nil {
			return wrapStoreErr(err, "get field")
		}
		if !exists {
			return fmt.Errorf("%w: field=%s", ErrNotFound, input.FieldID)
		}
		if f.Status != field.StatusAvailable {
			return fmt.Errorf("%w: field=%s is %s", ErrUnavailable, f.ID, f.Status)
		}

		if err := s.availability.Check(ctx, &f, input.Slot, ""); err != nil {
			return err
		}

		created = booking.Booking{
			ID:              bookingID,
			FieldID:         f.ID,
			TeamID:          input.TeamID,
			OpponentTeamID:  input.OpponentTeamID,
			Slot:            input.Slot,
			Status:          booking.StatusPending,
			TotalPrice:      pricing.Compute(f.HourlyRate, input.Slot.Duration()),
			PaymentStatus:   booking.PaymentUnpaid,
			CreatedBy:       actor.UserID,
			IsMatchmaking:   input.IsMatchmaking,
			SpecialRequests: strings.TrimSpace(input.SpecialRequests),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := created.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		if err := s.bookingRepo.Create(ctx, created); err != nil {
			return mapOverlapErr(wrapStoreErr(err, "create booking"))
		}

		return nil
	})
	if err != nil {
		return booking.Booking{}, err
	}

	s.logger.InfoContext(ctx, "booking created",
		"booking_id", created.ID,
		"field_id", created.FieldID,
		"team_id", created.TeamID,
		"total_price", created.TotalPrice,
	)

	return created, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (booking.Booking, error) {
	ctx, span := startUsecaseSpan(ctx, "BookingService.GetBooking")
	defer span.End()

	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return booking.Booking{}, fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}

	return s.loadBooking(ctx, bookingID)
}

func (s *BookingService) ListFieldBookings(ctx context.Context, fieldID string) ([]booking.Booking, error) {
	ctx, span := startUsecaseSpan(ctx, "BookingService.ListFieldBookings")
	defer span.End()

	fieldID = strings.TrimSpace(fieldID)
	if fieldID == "" {
		return nil, fmt.Errorf("%w: field id is required", ErrInvalidInput)
	}

	items, err := s.bookingRepo.ListByField(ctx, fieldID)
	if err != nil {
		return nil, wrapStoreErr(err, "list bookings by field")
	}

	return items, nil
}

func (s *BookingService) ListTeamBookings(ctx context.Context, teamID string) ([]booking.Booking, error) {
	ctx, span := startUsecaseSpan(ctx, "BookingService.ListTeamBookings")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	items, err := s.bookingRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, wrapStoreErr(err, "list bookings by team")
	}

	return items, nil
}

// UpdateStatus drives the booking status machine. Repeating a cancel on
// an already cancelled booking is an idempotent no-op; every other move
// outside the transition table fails.
func (s *BookingService) UpdateStatus(ctx context.Context, actor user.Principal, bookingID string, next booking.Status) (booking.Booking, error) {
	ctx, span := startUsecaseSpan(ctx, "BookingService.UpdateStatus")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return booking.Booking{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return booking.Booking{}, fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}
	if !next.Valid() {
		return booking.Booking{}, fmt.Errorf("%w: unknown booking status %q", ErrInvalidInput, next)
	}

	var updated booking.Booking
	err := s.locks.Do(ctx, bookingLockKey(bookingID), func() error {
		item, err := s.loadBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if item.Status == booking.StatusCancelled && next == booking.StatusCancelled {
			updated = item
			return nil
		}
		if !item.Status.CanTransition(next) {
			return fmt.Errorf("%w: booking %s cannot move %s -> %s", ErrInvalidTransition, bookingID, item.Status, next)
		}

		f, exists, err := s.fieldRepo.GetByID(ctx, item.FieldID)
		if err != nil {
			return wrapStoreErr(err, "get field")
		}
		if !exists {
			return fmt.Errorf("%w: field=%s", ErrNotFound, item.FieldID)
		}

		if err := s.authorizeTransition(actor, item, f, next); err != nil {
			return err
		}
		if next == booking.StatusCompleted {
			if err := s.checkCompletionWindow(item); err != nil {
				return err
			}
		}

		item.Status = next
		if next == booking.StatusCancelled && item.PaymentStatus == booking.PaymentPaid {
			item.PaymentStatus = booking.PaymentRefunded
		}
		item.UpdatedAt = s.now().UTC()

		if err := s.bookingRepo.Update(ctx, item); err != nil {
			return wrapStoreErr(err, "update booking")
		}

		updated = item
		return nil
	})
	if err != nil {
		return booking.Booking{}, err
	}

	s.logger.InfoContext(ctx, "booking status updated",
		"booking_id", bookingID,
		"status", string(updated.Status),
	)

	return updated, nil
}

// MarkPaid records a successful payment against a booking.
func (s *BookingService) MarkPaid(ctx context.Context, actor user.Principal, bookingID string) (booking.Booking, error) {
	ctx, span := startUsecaseSpan(ctx, "BookingService.MarkPaid")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return booking.Booking{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return booking.Booking{}, fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}

	var updated booking.Booking
	err := s.locks.Do(ctx, bookingLockKey(bookingID), func() error {
		item, err := s.loadBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if item.CreatedBy != actor.UserID && !actor.IsAdmin() {
			return fmt.Errorf("%w: only the booking creator may pay booking=%s", ErrUnauthorized, bookingID)
		}
		if item.Status.Terminal() {
			return fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, bookingID, item.Status)
		}
		if item.PaymentStatus == booking.PaymentPaid {
			updated = item
			return nil
		}

		item.PaymentStatus = booking.PaymentPaid
		item.UpdatedAt = s.now().UTC()
		if err := s.bookingRepo.Update(ctx, item); err != nil {
			return wrapStoreErr(err, "update booking")
		}

		updated = item
		return nil
	})
	if err != nil {
		return booking.Booking{}, err
	}

	s.logger.InfoContext(ctx, "booking paid", "booking_id", bookingID)

	return updated, nil
}

func (s *BookingService) loadBooking(ctx context.Context, bookingID string) (booking.Booking, error) {
	item, exists, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return booking.Booking{}, wrapStoreErr(err, "get booking")
	}
	if !exists {
		return booking.Booking{}, fmt.Errorf("%w: booking=%s", ErrNotFound, bookingID)
	}
	return item, nil
}

func (s *BookingService) requireTeamMember(ctx context.Context, actor user.Principal, teamID string) error {
	if actor.IsAdmin() {
		return nil
	}

	t, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return wrapStoreErr(err, "get team")
	}
	if !exists {
		return fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	if !t.Active {
		return fmt.Errorf("%w: team=%s is disbanded", ErrUnavailable, teamID)
	}

	member, exists, err := s.teamRepo.GetMember(ctx, teamID, actor.UserID)
	if err != nil {
		return wrapStoreErr(err, "get team member")
	}
	if !exists || member.Status != team.MemberActive {
		return fmt.Errorf("%w: user=%s is not an active member of team=%s", ErrUnauthorized, actor.UserID, teamID)
	}

	return nil
}

func (s *BookingService) authorizeTransition(actor user.Principal, item booking.Booking, f field.Field, next booking.Status) error {
	isOwner := f.OwnerID == actor.UserID
	isCreator := item.CreatedBy == actor.UserID

	switch next {
	case booking.StatusConfirmed:
		if actor.IsAdmin() || isOwner {
			return nil
		}
		if !isCreator {
			return fmt.Errorf("%w: user=%s may not confirm booking=%s", ErrUnauthorized, actor.UserID, item.ID)
		}
		if s.policy.RequirePaidConfirm && item.PaymentStatus != booking.PaymentPaid {
			return fmt.Errorf("%w: booking %s must be paid before confirmation", ErrInvalidTransition, item.ID)
		}
		return nil
	case booking.StatusCancelled:
		if actor.IsAdmin() || isOwner || isCreator {
			return nil
		}
		return fmt.Errorf("%w: user=%s may not cancel booking=%s", ErrUnauthorized, actor.UserID, item.ID)
	case booking.StatusCompleted:
		if actor.IsAdmin() || isOwner || isCreator {
			return nil
		}
		return fmt.Errorf("%w: user=%s may not complete booking=%s", ErrUnauthorized, actor.UserID, item.ID)
	default:
		return fmt.Errorf("%w: booking %s cannot move to %s", ErrInvalidTransition, item.ID, next)
	}
}

// checkCompletionWindow confines completion to the slot itself plus the
// configured grace period; a booking cannot be completed before it
// starts or long after it ended.
func (s *BookingService) checkCompletionWindow(item booking.Booking) error {
	now := s.now().UTC()
	if now.Before(item.Slot.Start) {
		return fmt.Errorf("%w: booking %s has not started", ErrInvalidTransition, item.ID)
	}
	deadline := item.Slot.End.Add(s.policy.CompletionGrace)
	if now.After(deadline) {
		return fmt.Errorf("%w: completion window for booking %s closed at %s", ErrInvalidTransition, item.ID, deadline.Format(time.RFC3339))
	}
	return nil
}
