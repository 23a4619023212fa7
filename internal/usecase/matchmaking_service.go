package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
	"github.com/fieldmatch/fieldmatch/internal/domain/matchmaking"
	"github.com/fieldmatch/fieldmatch/internal/domain/team"
	"github.com/fieldmatch/fieldmatch/internal/domain/user"
	idgen "github.com/fieldmatch/fieldmatch/internal/platform/id"
	"github.com/fieldmatch/fieldmatch/internal/platform/lock"
	"github.com/fieldmatch/fieldmatch/internal/platform/logging"
)

// DefaultRequestTTL is how long an open match request stays acceptable.
const DefaultRequestTTL = 24 * time.Hour

// CreateRequestInput is the incoming payload for posting an opponent
// search.
type CreateRequestInput struct {
	TeamID         string
	SkillLevel     string
	Location       string
	PlayersNeeded  int
	PreferredField string
	PreferredSlot  booking.TimeRange
}

// CreateChallengeInput is the incoming payload for answering a request.
type CreateChallengeInput struct {
	RequestID string
	TeamID    string
	Message   string
}

// AcceptResult bundles what an accepted challenge produced.
type AcceptResult struct {
	Request   matchmaking.Request
	Challenge matchmaking.Challenge
	Booking   booking.Booking
}

type MatchmakingService struct {
	matchRepo matchmaking.Repository
	teamRepo  team.Repository
	bookings  *BookingService
	locks     *lock.Keyed
	idGen     idgen.Generator
	logger    *logging.Logger
	ttl       time.Duration
	now       func() time.Time
}

func NewMatchmakingService(
	matchRepo matchmaking.Repository,
	teamRepo team.Repository,
	bookings *BookingService,
	locks *lock.Keyed,
	idGen idgen.Generator,
	logger *logging.Logger,
	ttl time.Duration,
) *MatchmakingService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = lock.NewKeyed()
	}
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}

	return &MatchmakingService{
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		bookings:  bookings,
		locks:     locks,
		idGen:     idGen,
		logger:    logger,
		ttl:       ttl,
		now:       time.Now,
	}
}

func requestLockKey(requestID string) string {
	return "matchrequest:" + requestID
}

// CreateRequest posts an open opponent search for the actor's team.
// Only the captain may post for a team.
func (s *MatchmakingService) CreateRequest(ctx context.Context, actor user.Principal, input CreateRequestInput) (matchmaking.Request, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchmakingService.CreateRequest")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return matchmaking.Request{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	input.TeamID = strings.TrimSpace(input.TeamID)
	input.PreferredField = strings.TrimSpace(input.PreferredField)
	if input.TeamID == "" {
		return matchmaking.Request{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if input.PreferredField == "" {
		return matchmaking.Request{}, fmt.Errorf("%w: preferred field is required", ErrInvalidInput)
	}
	if err := input.PreferredSlot.Validate(); err != nil {
		return matchmaking.Request{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now().UTC()
	if !input.PreferredSlot.Start.After(now) {
		return matchmaking.Request{}, fmt.Errorf("%w: preferred slot must start in the future", ErrInvalidInput)
	}

	t, err := s.requireCaptain(ctx, actor, input.TeamID)
	if err != nil {
		return matchmaking.Request{}, err
	}

	requestID, err := s.idGen.NewID()
	if err != nil {
		return matchmaking.Request{}, fmt.Errorf("generate match request id: %w", err)
	}

	item := matchmaking.Request{
		ID:             requestID,
		CaptainID:      actor.UserID,
		TeamID:         t.ID,
		TeamName:       t.Name,
		SkillLevel:     strings.TrimSpace(input.SkillLevel),
		Location:       strings.TrimSpace(input.Location),
		PlayersNeeded:  input.PlayersNeeded,
		PreferredField: input.PreferredField,
		PreferredSlot:  input.PreferredSlot,
		Status:         matchmaking.RequestOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := item.Validate(); err != nil {
		return matchmaking.Request{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.matchRepo.CreateRequest(ctx, item); err != nil {
		return matchmaking.Request{}, wrapStoreErr(err, "create match request")
	}

	s.logger.InfoContext(ctx, "match request created", "request_id", item.ID, "team_id", item.TeamID)

	return item, nil
}

// GetRequest returns the request with its lazily computed status: an
// open request past its TTL reads as expired without a write.
func (s *MatchmakingService) GetRequest(ctx context.Context, requestID string) (matchmaking.Request, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchmakingService.GetRequest")
	defer span.End()

	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return matchmaking.Request{}, fmt.Errorf("%w: request id is required", ErrInvalidInput)
	}

	item, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return matchmaking.Request{}, err
	}
	item.Status = item.EffectiveStatus(s.now().UTC(), s.ttl)

	return item, nil
}

// ListOpenRequests returns requests that are still effectively open.
func (s *MatchmakingService) ListOpenRequests(ctx context.Context) ([]matchmaking.Request, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchmakingService.ListOpenRequests")
	defer span.End()

	items, err := s.matchRepo.ListRequestsByStatus(ctx, matchmaking.RequestOpen)
	if err != nil {
		return nil, wrapStoreErr(err, "list open match requests")
	}

	now := s.now().UTC()
	open := items[:0]
	for _, item := range items {
		if item.EffectiveStatus(now, s.ttl) == matchmaking.RequestOpen {
			open = append(open, item)
		}
	}

	return open, nil
}

// CancelRequest withdraws an open search. Expired requests cannot be
// cancelled; they are already dead.
func (s *MatchmakingService) CancelRequest(ctx context.Context, actor user.Principal, requestID string) (matchmaking.Request, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchmakingService.CancelRequest")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return matchmaking.Request{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return matchmaking.Request{}, fmt.Errorf("%w: request id is required", ErrInvalidInput)
	}

	var updated matchmaking.Request
	err := s.locks.Do(ctx, requestLockKey(requestID), func() error {
		item, err := s.loadRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if item.CaptainID != actor.UserID && !actor.IsAdmin() {
			return fmt.Errorf("%w: only the posting captain may cancel request=%s", ErrUnauthorized, requestID)
		}

		effective := item.EffectiveStatus(s.now().UTC(), s.ttl)
		if effective != matchmaking.RequestOpen {
			return fmt.Errorf("%w: request %s is %s", ErrInvalidTransition, requestID, effective)
		}

		item.Status = matchmaking.RequestCancelled
		item.UpdatedAt = s.now().UTC()
		if err := s.matchRepo.UpdateRequest(ctx, item); err != nil {
			return wrapStoreErr(err, "update match request")
		}

		updated = item
		return nil
	})
	if err != nil {
		return matchmaking.Request{}, err
	}

	s.logger.InfoContext(ctx, "match request cancelled", "request_id", requestID)

	return updated, nil
}

// CreateChallenge answers an open request on behalf of the actor's
// team.
func (s *MatchmakingService) CreateChallenge(ctx context.Context, actor user.Principal, input CreateChallengeInput) (matchmaking.Challenge, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchmakingService.CreateChallenge")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return matchmaking.Challenge{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	input.RequestID = strings.TrimSpace(input.RequestID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	if input.RequestID == "" {
		return matchmaking.Challenge{}, fmt.Errorf("%w: request id is required", ErrInvalidInput)
	}
	if input.TeamID == "" {
		return matchmaking.Challenge{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	if _, err := s.requireCaptain(ctx, actor, input.TeamID); err != nil {
		return matchmaking.Challenge{}, err
	}

	request, err := s.loadRequest(ctx, input.RequestID)
	if err != nil {
		return matchmaking.Challenge{}, err
	}
	if request.TeamID == input.TeamID {
		return matchmaking.Challenge{}, fmt.Errorf("%w: team=%s cannot challenge its own request", ErrInvalidInput, input.TeamID)
	}
	effective := request.EffectiveStatus(s.now().UTC(), s.ttl)
	if effective != matchmaking.RequestOpen {
		return matchmaking.Challenge{}, fmt.Errorf("%w: request %s is %s", ErrUnavailable, request.ID, effective)
	}

	challengeID, err := s.idGen.NewID()
	if err != nil {
		return matchmaking.Challenge{}, fmt.Errorf("generate challenge id: %w", err)
	}

	now := s.now().UTC()
	item := matchmaking.Challenge{
		ID:               challengeID,
		RequestID:        request.ID,
		ChallengerID:     actor.UserID,
		ChallengerTeamID: input.TeamID,
		Message:          strings.TrimSpace(input.Message),
		Status:           matchmaking.ChallengePending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := item.Validate(); err != nil {
		return matchmaking.Challenge{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.matchRepo.CreateChallenge(ctx, item); err != nil {
		return matchmaking.Challenge{}, wrapStoreErr(err, "create challenge")
	}

	s.logger.InfoContext(ctx, "challenge created",
		"challenge_id", item.ID,
		"request_id", item.RequestID,
		"challenger_team_id", item.ChallengerTeamID,
	)

	return item, nil
}

func (s *MatchmakingService) ListChallenges(ctx context.Context, requestID string) ([]matchmaking.Challenge, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchmakingService.ListChallenges")
	defer span.End()

	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, fmt.Errorf("%w: request id is required", ErrInvalidInput)
	}

	items, err := s.matchRepo.ListChallengesByRequest(ctx, requestID)
	if err != nil {
		return nil, wrapStoreErr(err, "list challenges")
	}

	return items, nil
}

// AcceptChallenge pairs the two teams and books the request's preferred
// slot. The whole sequence runs under the request's mutex, so of N
// concurrent accepts exactly one wins; the rest observe a non-open
// request and fail with ErrStaleState. The booking is created before
// the status flips and cancelled again if the flips cannot be
// persisted.
func (s *MatchmakingService) AcceptChallenge(ctx context.Context, actor user.Principal, challengeID string) (AcceptResult, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchmakingService.AcceptChallenge")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return AcceptResult{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return AcceptResult{}, fmt.Errorf("%w: challenge id is required", ErrInvalidInput)
	}

	challenge, err := s.loadChallenge(ctx, challengeID)
	if err != nil {
		return AcceptResult{}, err
	}

	var result AcceptResult
	err = s.locks.Do(ctx, requestLockKey(challenge.RequestID), func() error {
		challenge, err := s.loadChallenge(ctx, challengeID)
		if err != nil {
			return err
		}
		if challenge.Status != matchmaking.ChallengePending {
			return fmt.Errorf("%w: challenge %s is %s", ErrInvalidTransition, challenge.ID, challenge.Status)
		}

		request, err := s.loadRequest(ctx, challenge.RequestID)
		if err != nil {
			return err
		}
		if request.CaptainID != actor.UserID && !actor.IsAdmin() {
			return fmt.Errorf("%w: only the posting captain may accept challenges for request=%s", ErrUnauthorized, request.ID)
		}
		effective := request.EffectiveStatus(s.now().UTC(), s.ttl)
		if effective != matchmaking.RequestOpen {
			return fmt.Errorf("%w: request %s is %s", ErrStaleState, request.ID, effective)
		}

		b, err := s.bookings.CreateBooking(ctx, actor, CreateBookingInput{
			FieldID:        request.PreferredField,
			TeamID:         request.TeamID,
			OpponentTeamID: challenge.ChallengerTeamID,
			Slot:           request.PreferredSlot,
			IsMatchmaking:  true,
		})
		if err != nil {
			return err
		}

		if err := s.finalizeAccept(ctx, request, challenge); err != nil {
			s.compensateBooking(ctx, actor, b.ID)
			return err
		}

		request.Status = matchmaking.RequestMatched
		challenge.Status = matchmaking.ChallengeAccepted
		result = AcceptResult{Request: request, Challenge: challenge, Booking: b}
		return nil
	})
	if err != nil {
		return AcceptResult{}, err
	}

	s.logger.InfoContext(ctx, "challenge accepted",
		"challenge_id", result.Challenge.ID,
		"request_id", result.Request.ID,
		"booking_id", result.Booking.ID,
	)

	return result, nil
}

// DeclineChallenge lets the posting captain turn a challenge down.
func (s *MatchmakingService) DeclineChallenge(ctx context.Context, actor user.Principal, challengeID string) (matchmaking.Challenge, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchmakingService.DeclineChallenge")
	defer span.End()

	return s.closeChallenge(ctx, actor, challengeID, matchmaking.ChallengeDeclined)
}

// WithdrawChallenge lets the challenger retract a pending challenge.
func (s *MatchmakingService) WithdrawChallenge(ctx context.Context, actor user.Principal, challengeID string) (matchmaking.Challenge, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchmakingService.WithdrawChallenge")
	defer span.End()

	return s.closeChallenge(ctx, actor, challengeID, matchmaking.ChallengeWithdrawn)
}

func (s *MatchmakingService) closeChallenge(ctx context.Context, actor user.Principal, challengeID string, next matchmaking.ChallengeStatus) (matchmaking.Challenge, error) {
	if err := actor.Validate(); err != nil {
		return matchmaking.Challenge{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return matchmaking.Challenge{}, fmt.Errorf("%w: challenge id is required", ErrInvalidInput)
	}

	challenge, err := s.loadChallenge(ctx, challengeID)
	if err != nil {
		return matchmaking.Challenge{}, err
	}

	var updated matchmaking.Challenge
	err = s.locks.Do(ctx, requestLockKey(challenge.RequestID), func() error {
		challenge, err := s.loadChallenge(ctx, challengeID)
		if err != nil {
			return err
		}
		if !challenge.Status.CanTransition(next) {
			return fmt.Errorf("%w: challenge %s cannot move %s -> %s", ErrInvalidTransition, challenge.ID, challenge.Status, next)
		}

		switch next {
		case matchmaking.ChallengeDeclined:
			request, err := s.loadRequest(ctx, challenge.RequestID)
			if err != nil {
				return err
			}
			if request.CaptainID != actor.UserID && !actor.IsAdmin() {
				return fmt.Errorf("%w: only the posting captain may decline challenge=%s", ErrUnauthorized, challenge.ID)
			}
		case matchmaking.ChallengeWithdrawn:
			if challenge.ChallengerID != actor.UserID && !actor.IsAdmin() {
				return fmt.Errorf("%w: only the challenger may withdraw challenge=%s", ErrUnauthorized, challenge.ID)
			}
		}

		challenge.Status = next
		challenge.UpdatedAt = s.now().UTC()
		if err := s.matchRepo.UpdateChallenge(ctx, challenge); err != nil {
			return wrapStoreErr(err, "update challenge")
		}

		updated = challenge
		return nil
	})
	if err != nil {
		return matchmaking.Challenge{}, err
	}

	return updated, nil
}

// finalizeAccept flips the challenge, the request and the remaining
// pending challenges. Runs with the booking already persisted.
func (s *MatchmakingService) finalizeAccept(ctx context.Context, request matchmaking.Request, challenge matchmaking.Challenge) error {
	now := s.now().UTC()

	challenge.Status = matchmaking.ChallengeAccepted
	challenge.UpdatedAt = now
	if err := s.matchRepo.UpdateChallenge(ctx, challenge); err != nil {
		return wrapStoreErr(err, "update challenge")
	}

	request.Status = matchmaking.RequestMatched
	request.UpdatedAt = now
	if err := s.matchRepo.UpdateRequest(ctx, request); err != nil {
		return wrapStoreErr(err, "update match request")
	}

	others, err := s.matchRepo.ListChallengesByRequest(ctx, request.ID)
	if err != nil {
		return wrapStoreErr(err, "list challenges")
	}
	for _, other := range others {
		if other.ID == challenge.ID || other.Status != matchmaking.ChallengePending {
			continue
		}
		other.Status = matchmaking.ChallengeDeclined
		other.UpdatedAt = now
		if err := s.matchRepo.UpdateChallenge(ctx, other); err != nil {
			return wrapStoreErr(err, "decline losing challenge")
		}
	}

	return nil
}

func (s *MatchmakingService) compensateBooking(ctx context.Context, actor user.Principal, bookingID string) {
	if _, err := s.bookings.UpdateStatus(ctx, actor, bookingID, booking.StatusCancelled); err != nil {
		s.logger.ErrorContext(ctx, "compensating booking cancel failed",
			"booking_id", bookingID,
			"error", err,
		)
	}
}

func (s *MatchmakingService) requireCaptain(ctx context.Context, actor user.Principal, teamID string) (team.Team, error) {
	t, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, wrapStoreErr(err, "get team")
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	if !t.Active {
		return team.Team{}, fmt.Errorf("%w: team=%s is disbanded", ErrUnavailable, teamID)
	}
	if t.CaptainID != actor.UserID && !actor.IsAdmin() {
		return team.Team{}, fmt.Errorf("%w: user=%s is not the captain of team=%s", ErrUnauthorized, actor.UserID, teamID)
	}
	return t, nil
}

func (s *MatchmakingService) loadRequest(ctx context.Context, requestID string) (matchmaking.Request, error) {
	item, exists, err := s.matchRepo.GetRequest(ctx, requestID)
	if err != nil {
		return matchmaking.Request{}, wrapStoreErr(err, "get match request")
	}
	if !exists {
		return matchmaking.Request{}, fmt.Errorf("%w: request=%s", ErrNotFound, requestID)
	}
	return item, nil
}

func (s *MatchmakingService) loadChallenge(ctx context.Context, challengeID string) (matchmaking.Challenge, error) {
	item, exists, err := s.matchRepo.GetChallenge(ctx, challengeID)
	if err != nil {
		return matchmaking.Challenge{}, wrapStoreErr(err, "get challenge")
	}
	if !exists {
		return matchmaking.Challenge{}, fmt.Errorf("%w: challenge=%s", ErrNotFound, challengeID)
	}
	return item, nil
}
