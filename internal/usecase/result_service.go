package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
	"github.com/fieldmatch/fieldmatch/internal/domain/matchresult"
	"github.com/fieldmatch/fieldmatch/internal/domain/team"
	"github.com/fieldmatch/fieldmatch/internal/domain/user"
	idgen "github.com/fieldmatch/fieldmatch/internal/platform/id"
	"github.com/fieldmatch/fieldmatch/internal/platform/lock"
	"github.com/fieldmatch/fieldmatch/internal/platform/logging"
)

// RecordResultInput is the incoming payload for recording a match
// outcome against a booking.
type RecordResultInput struct {
	BookingID   string
	HomeScore   int
	AwayScore   int
	Status      matchresult.Status
	MVPPlayerID string
	Events      []matchresult.Event
}

// RateOpponentInput is one team's post-match assessment of the other.
type RateOpponentInput struct {
	BookingID   string
	RaterTeamID string
	Score       int
	Category    matchresult.RatingCategory
	Recommended bool
}

type ResultService struct {
	resultRepo  matchresult.Repository
	bookingRepo booking.Repository
	teamRepo    team.Repository
	locks       *lock.Keyed
	idGen       idgen.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewResultService(
	resultRepo matchresult.Repository,
	bookingRepo booking.Repository,
	teamRepo team.Repository,
	locks *lock.Keyed,
	idGen idgen.Generator,
	logger *logging.Logger,
) *ResultService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = lock.NewKeyed()
	}

	return &ResultService{
		resultRepo:  resultRepo,
		bookingRepo: bookingRepo,
		teamRepo:    teamRepo,
		locks:       locks,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
	}
}

// RecordResult stores the outcome of a booked match. A non-terminal
// result (in progress, postponed) may be re-recorded; a terminal one is
// frozen and re-recording it fails. Recording a completed result also
// completes the underlying booking, so the whole sequence runs under
// the booking's own mutex: a concurrent cancel cannot slip between the
// read and the completing write.
func (s *ResultService) RecordResult(ctx context.Context, actor user.Principal, input RecordResultInput) (matchresult.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "ResultService.RecordResult")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return matchresult.Result{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	input.BookingID = strings.TrimSpace(input.BookingID)
	input.MVPPlayerID = strings.TrimSpace(input.MVPPlayerID)
	if input.BookingID == "" {
		return matchresult.Result{}, fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}
	if !input.Status.Valid() {
		return matchresult.Result{}, fmt.Errorf("%w: unknown match result status %q", ErrInvalidInput, input.Status)
	}
	if input.HomeScore < 0 || input.AwayScore < 0 {
		return matchresult.Result{}, fmt.Errorf("%w: scores cannot be negative", ErrInvalidInput)
	}

	var recorded matchresult.Result
	err := s.locks.Do(ctx, bookingLockKey(input.BookingID), func() error {
		b, exists, err := s.bookingRepo.GetByID(ctx, input.BookingID)
		if err != nil {
			return wrapStoreErr(err, "get booking")
		}
		if !exists {
			return fmt.Errorf("%w: booking=%s", ErrNotFound, input.BookingID)
		}
		if b.OpponentTeamID == "" {
			return fmt.Errorf("%w: booking %s has no opponent to score against", ErrInvalidInput, b.ID)
		}
		if b.Status != booking.StatusConfirmed && b.Status != booking.StatusCompleted {
			return fmt.Errorf("%w: booking %s is %s, results need a confirmed or completed booking", ErrInvalidTransition, b.ID, b.Status)
		}

		if err := s.requireParticipant(ctx, actor, b); err != nil {
			return err
		}
		if input.MVPPlayerID != "" {
			if err := s.requireMVPOnRoster(ctx, input.MVPPlayerID, b); err != nil {
				return err
			}
		}

		existing, hasResult, err := s.resultRepo.GetResultByBooking(ctx, b.ID)
		if err != nil {
			return wrapStoreErr(err, "get match result")
		}
		if hasResult && existing.Status.Terminal() {
			return fmt.Errorf("%w: booking %s already has a %s result", ErrConflict, b.ID, existing.Status)
		}

		now := s.now().UTC()
		item := matchresult.Result{
			BookingID:   b.ID,
			HomeTeamID:  b.TeamID,
			AwayTeamID:  b.OpponentTeamID,
			HomeScore:   input.HomeScore,
			AwayScore:   input.AwayScore,
			Status:      input.Status,
			MVPPlayerID: input.MVPPlayerID,
			RecordedBy:  actor.UserID,
			RecordedAt:  now,
			Events:      input.Events,
		}

		if hasResult {
			item.ID = existing.ID
			if err := item.Validate(); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			if err := s.resultRepo.UpdateResult(ctx, item); err != nil {
				return wrapStoreErr(err, "update match result")
			}
		} else {
			resultID, err := s.idGen.NewID()
			if err != nil {
				return fmt.Errorf("generate match result id: %w", err)
			}
			item.ID = resultID
			if err := item.Validate(); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			if err := s.resultRepo.CreateResult(ctx, item); err != nil {
				if errors.Is(err, matchresult.ErrDuplicateResult) {
					return fmt.Errorf("%w: booking %s already has a result", ErrConflict, b.ID)
				}
				return wrapStoreErr(err, "create match result")
			}
		}

		if item.Status == matchresult.StatusCompleted && b.Status == booking.StatusConfirmed {
			b.Status = booking.StatusCompleted
			b.UpdatedAt = now
			if err := s.bookingRepo.Update(ctx, b); err != nil {
				return wrapStoreErr(err, "complete booking")
			}
		}

		recorded = item
		return nil
	})
	if err != nil {
		return matchresult.Result{}, err
	}

	s.logger.InfoContext(ctx, "match result recorded",
		"result_id", recorded.ID,
		"booking_id", recorded.BookingID,
		"status", string(recorded.Status),
	)

	return recorded, nil
}

func (s *ResultService) GetResult(ctx context.Context, bookingID string) (matchresult.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "ResultService.GetResult")
	defer span.End()

	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return matchresult.Result{}, fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}

	item, exists, err := s.resultRepo.GetResultByBooking(ctx, bookingID)
	if err != nil {
		return matchresult.Result{}, wrapStoreErr(err, "get match result")
	}
	if !exists {
		return matchresult.Result{}, fmt.Errorf("%w: no result for booking=%s", ErrNotFound, bookingID)
	}

	return item, nil
}

// RateOpponent records one team's rating of the other once the booking
// itself is completed; a recorded scoreline is not required. A team
// rates each category once per booking.
func (s *ResultService) RateOpponent(ctx context.Context, actor user.Principal, input RateOpponentInput) (matchresult.Rating, error) {
	ctx, span := startUsecaseSpan(ctx, "ResultService.RateOpponent")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return matchresult.Rating{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	input.BookingID = strings.TrimSpace(input.BookingID)
	input.RaterTeamID = strings.TrimSpace(input.RaterTeamID)
	if input.BookingID == "" {
		return matchresult.Rating{}, fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}
	if input.RaterTeamID == "" {
		return matchresult.Rating{}, fmt.Errorf("%w: rater team id is required", ErrInvalidInput)
	}

	b, exists, err := s.bookingRepo.GetByID(ctx, input.BookingID)
	if err != nil {
		return matchresult.Rating{}, wrapStoreErr(err, "get booking")
	}
	if !exists {
		return matchresult.Rating{}, fmt.Errorf("%w: booking=%s", ErrNotFound, input.BookingID)
	}
	if b.OpponentTeamID == "" {
		return matchresult.Rating{}, fmt.Errorf("%w: booking %s has no opponent to rate", ErrInvalidInput, b.ID)
	}
	if b.Status != booking.StatusCompleted {
		return matchresult.Rating{}, fmt.Errorf("%w: ratings need a completed booking, booking %s is %s", ErrInvalidTransition, input.BookingID, b.Status)
	}

	var ratedTeamID string
	switch input.RaterTeamID {
	case b.TeamID:
		ratedTeamID = b.OpponentTeamID
	case b.OpponentTeamID:
		ratedTeamID = b.TeamID
	default:
		return matchresult.Rating{}, fmt.Errorf("%w: team=%s did not play booking=%s", ErrUnauthorized, input.RaterTeamID, input.BookingID)
	}

	if !actor.IsAdmin() {
		member, exists, err := s.teamRepo.GetMember(ctx, input.RaterTeamID, actor.UserID)
		if err != nil {
			return matchresult.Rating{}, wrapStoreErr(err, "get team member")
		}
		if !exists || member.Status != team.MemberActive {
			return matchresult.Rating{}, fmt.Errorf("%w: user=%s is not an active member of team=%s", ErrUnauthorized, actor.UserID, input.RaterTeamID)
		}
	}

	ratingID, err := s.idGen.NewID()
	if err != nil {
		return matchresult.Rating{}, fmt.Errorf("generate rating id: %w", err)
	}

	item := matchresult.Rating{
		ID:          ratingID,
		RaterTeamID: input.RaterTeamID,
		RatedTeamID: ratedTeamID,
		BookingID:   input.BookingID,
		Score:       input.Score,
		Category:    input.Category,
		Recommended: input.Recommended,
		CreatedAt:   s.now().UTC(),
	}
	if err := item.Validate(); err != nil {
		return matchresult.Rating{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.resultRepo.CreateRating(ctx, item); err != nil {
		if errors.Is(err, matchresult.ErrDuplicateRating) {
			return matchresult.Rating{}, fmt.Errorf("%w: team=%s already rated %s for booking=%s", ErrConflict, input.RaterTeamID, input.Category, input.BookingID)
		}
		return matchresult.Rating{}, wrapStoreErr(err, "create rating")
	}

	s.logger.InfoContext(ctx, "opponent rated",
		"rating_id", item.ID,
		"booking_id", item.BookingID,
		"category", string(item.Category),
	)

	return item, nil
}

// TeamRatingSummary aggregates a team's received ratings per category.
func (s *ResultService) TeamRatingSummary(ctx context.Context, teamID string) ([]matchresult.CategoryAverage, error) {
	ctx, span := startUsecaseSpan(ctx, "ResultService.TeamRatingSummary")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	averages, err := s.resultRepo.AverageRatingsByTeam(ctx, teamID)
	if err != nil {
		return nil, wrapStoreErr(err, "average ratings")
	}

	return averages, nil
}

func (s *ResultService) requireParticipant(ctx context.Context, actor user.Principal, b booking.Booking) error {
	if actor.IsAdmin() {
		return nil
	}

	for _, teamID := range []string{b.TeamID, b.OpponentTeamID} {
		member, exists, err := s.teamRepo.GetMember(ctx, teamID, actor.UserID)
		if err != nil {
			return wrapStoreErr(err, "get team member")
		}
		if exists && member.Status == team.MemberActive {
			return nil
		}
	}

	return fmt.Errorf("%w: user=%s played no part in booking=%s", ErrUnauthorized, actor.UserID, b.ID)
}

func (s *ResultService) requireMVPOnRoster(ctx context.Context, playerID string, b booking.Booking) error {
	for _, teamID := range []string{b.TeamID, b.OpponentTeamID} {
		member, exists, err := s.teamRepo.GetMember(ctx, teamID, playerID)
		if err != nil {
			return wrapStoreErr(err, "get team member")
		}
		if exists && member.Status == team.MemberActive {
			return nil
		}
	}

	return fmt.Errorf("%w: mvp player=%s is on neither roster", ErrInvalidInput, playerID)
}
