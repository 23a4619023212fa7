package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
	"github.com/fieldmatch/fieldmatch/internal/domain/matchmaking"
	"github.com/fieldmatch/fieldmatch/internal/infrastructure/repository/memory"
)

func openRequest(t *testing.T, env *testEnv) matchmaking.Request {
	t.Helper()

	request, err := env.matchSvc.CreateRequest(t.Context(), captainA(), CreateRequestInput{
		TeamID:         memory.TeamIDNomads,
		SkillLevel:     "intermediate",
		PreferredField: memory.FieldIDNorth,
		PreferredSlot: booking.TimeRange{
			Start: time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 3, 20, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	return request
}

func TestMatchmakingService_CreateRequest_OnlyCaptainPosts(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)

	_, err := env.matchSvc.CreateRequest(t.Context(), captainB(), CreateRequestInput{
		TeamID:         memory.TeamIDNomads,
		PreferredField: memory.FieldIDNorth,
		PreferredSlot: booking.TimeRange{
			Start: time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 3, 20, 0, 0, 0, time.UTC),
		},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMatchmakingService_CreateChallenge_OwnRequestRejected(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	request := openRequest(t, env)

	_, err := env.matchSvc.CreateChallenge(t.Context(), captainA(), CreateChallengeInput{
		RequestID: request.ID,
		TeamID:    memory.TeamIDNomads,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMatchmakingService_AcceptChallenge_BooksThePreferredSlot(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	request := openRequest(t, env)

	challenge, err := env.matchSvc.CreateChallenge(t.Context(), captainB(), CreateChallengeInput{
		RequestID: request.ID,
		TeamID:    memory.TeamIDHarbour,
		Message:   "Saturday works for us",
	})
	if err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}

	result, err := env.matchSvc.AcceptChallenge(t.Context(), captainA(), challenge.ID)
	if err != nil {
		t.Fatalf("accept challenge failed: %v", err)
	}

	if result.Request.Status != matchmaking.RequestMatched {
		t.Fatalf("expected matched request, got %s", result.Request.Status)
	}
	if result.Challenge.Status != matchmaking.ChallengeAccepted {
		t.Fatalf("expected accepted challenge, got %s", result.Challenge.Status)
	}
	if !result.Booking.IsMatchmaking {
		t.Fatalf("expected a matchmaking booking")
	}
	if result.Booking.TeamID != memory.TeamIDNomads || result.Booking.OpponentTeamID != memory.TeamIDHarbour {
		t.Fatalf("unexpected pairing: %s vs %s", result.Booking.TeamID, result.Booking.OpponentTeamID)
	}
	if !result.Booking.Slot.Equal(request.PreferredSlot) {
		t.Fatalf("expected the preferred slot to be booked")
	}

	stored, exists, err := env.bookings.GetByID(t.Context(), result.Booking.ID)
	if err != nil || !exists {
		t.Fatalf("booking not persisted: exists=%v err=%v", exists, err)
	}
	if stored.Status != booking.StatusPending {
		t.Fatalf("expected pending booking, got %s", stored.Status)
	}
}

func TestMatchmakingService_AcceptChallenge_DeclinesTheRest(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	request := openRequest(t, env)

	winner, err := env.matchSvc.CreateChallenge(t.Context(), captainB(), CreateChallengeInput{
		RequestID: request.ID,
		TeamID:    memory.TeamIDHarbour,
	})
	if err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}

	// A third team also challenges.
	third, err := env.rosterSvc.CreateTeam(t.Context(), fieldOwner(), CreateTeamInput{
		Name:       "Owners United",
		MaxPlayers: 11,
	})
	if err != nil {
		t.Fatalf("create third team failed: %v", err)
	}
	loser, err := env.matchSvc.CreateChallenge(t.Context(), fieldOwner(), CreateChallengeInput{
		RequestID: request.ID,
		TeamID:    third.ID,
	})
	if err != nil {
		t.Fatalf("create losing challenge failed: %v", err)
	}

	if _, err := env.matchSvc.AcceptChallenge(t.Context(), captainA(), winner.ID); err != nil {
		t.Fatalf("accept challenge failed: %v", err)
	}

	declined, exists, err := env.matches.GetChallenge(t.Context(), loser.ID)
	if err != nil || !exists {
		t.Fatalf("get losing challenge failed: exists=%v err=%v", exists, err)
	}
	if declined.Status != matchmaking.ChallengeDeclined {
		t.Fatalf("expected declined challenge, got %s", declined.Status)
	}
}

func TestMatchmakingService_AcceptChallenge_SecondAcceptIsStale(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	request := openRequest(t, env)

	first, err := env.matchSvc.CreateChallenge(t.Context(), captainB(), CreateChallengeInput{
		RequestID: request.ID,
		TeamID:    memory.TeamIDHarbour,
	})
	if err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}
	third, err := env.rosterSvc.CreateTeam(t.Context(), fieldOwner(), CreateTeamInput{
		Name:       "Owners United",
		MaxPlayers: 11,
	})
	if err != nil {
		t.Fatalf("create third team failed: %v", err)
	}
	second, err := env.matchSvc.CreateChallenge(t.Context(), fieldOwner(), CreateChallengeInput{
		RequestID: request.ID,
		TeamID:    third.ID,
	})
	if err != nil {
		t.Fatalf("create second challenge failed: %v", err)
	}

	if _, err := env.matchSvc.AcceptChallenge(t.Context(), captainA(), first.ID); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	// The second challenge was auto-declined by the first accept, so
	// the transition check fires before the staleness check.
	_, err = env.matchSvc.AcceptChallenge(t.Context(), captainA(), second.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestMatchmakingService_AcceptChallenge_ConcurrentAcceptsExactlyOneWins(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	request := openRequest(t, env)

	challenge, err := env.matchSvc.CreateChallenge(t.Context(), captainB(), CreateChallengeInput{
		RequestID: request.ID,
		TeamID:    memory.TeamIDHarbour,
	})
	if err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}

	const attempts = 8
	var won atomic.Int32
	var lost atomic.Int32

	var wg conc.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Go(func() {
			_, err := env.matchSvc.AcceptChallenge(context.Background(), captainA(), challenge.ID)
			switch {
			case err == nil:
				won.Add(1)
			case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrStaleState):
				lost.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	if won.Load() != 1 {
		t.Fatalf("expected exactly 1 accept to win, got %d", won.Load())
	}
	if lost.Load() != attempts-1 {
		t.Fatalf("expected %d losers, got %d", attempts-1, lost.Load())
	}

	bookings, err := env.bookings.ListByField(t.Context(), memory.FieldIDNorth)
	if err != nil {
		t.Fatalf("list bookings failed: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("expected exactly 1 booking, got %d", len(bookings))
	}
}

func TestMatchmakingService_AcceptChallenge_TakenSlotKeepsRequestOpen(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	request := openRequest(t, env)

	challenge, err := env.matchSvc.CreateChallenge(t.Context(), captainB(), CreateChallengeInput{
		RequestID: request.ID,
		TeamID:    memory.TeamIDHarbour,
	})
	if err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}

	// Someone books the preferred slot directly first.
	if _, err := env.bookingSvc.CreateBooking(t.Context(), captainB(), CreateBookingInput{
		FieldID: memory.FieldIDNorth,
		TeamID:  memory.TeamIDHarbour,
		Slot:    request.PreferredSlot,
	}); err != nil {
		t.Fatalf("direct booking failed: %v", err)
	}

	_, err = env.matchSvc.AcceptChallenge(t.Context(), captainA(), challenge.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	stored, exists, err := env.matches.GetRequest(t.Context(), request.ID)
	if err != nil || !exists {
		t.Fatalf("get request failed: exists=%v err=%v", exists, err)
	}
	if stored.Status != matchmaking.RequestOpen {
		t.Fatalf("expected request to stay open, got %s", stored.Status)
	}
}

func TestMatchmakingService_LazyExpiry(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, createdAt)
	request := openRequest(t, env)

	// 25 hours later the 24h TTL has passed; no sweeper ran.
	env.setNow(createdAt.Add(25 * time.Hour))

	got, err := env.matchSvc.GetRequest(t.Context(), request.ID)
	if err != nil {
		t.Fatalf("get request failed: %v", err)
	}
	if got.Status != matchmaking.RequestExpired {
		t.Fatalf("expected effectively expired request, got %s", got.Status)
	}

	open, err := env.matchSvc.ListOpenRequests(t.Context())
	if err != nil {
		t.Fatalf("list open failed: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("expected no open requests, got %d", len(open))
	}

	// The stored row is untouched.
	stored, exists, err := env.matches.GetRequest(t.Context(), request.ID)
	if err != nil || !exists {
		t.Fatalf("get stored request failed: exists=%v err=%v", exists, err)
	}
	if stored.Status != matchmaking.RequestOpen {
		t.Fatalf("lazy expiry must not write, stored status is %s", stored.Status)
	}
}

func TestMatchmakingService_ExpiredRequestRejectsChallenges(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, createdAt)
	request := openRequest(t, env)

	env.setNow(createdAt.Add(25 * time.Hour))

	_, err := env.matchSvc.CreateChallenge(t.Context(), captainB(), CreateChallengeInput{
		RequestID: request.ID,
		TeamID:    memory.TeamIDHarbour,
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestMatchmakingService_AcceptOnExpiredRequestIsStale(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, createdAt)
	request := openRequest(t, env)

	challenge, err := env.matchSvc.CreateChallenge(t.Context(), captainB(), CreateChallengeInput{
		RequestID: request.ID,
		TeamID:    memory.TeamIDHarbour,
	})
	if err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}

	env.setNow(createdAt.Add(25 * time.Hour))

	_, err = env.matchSvc.AcceptChallenge(t.Context(), captainA(), challenge.ID)
	if !errors.Is(err, ErrStaleState) {
		t.Fatalf("expected ErrStaleState, got %v", err)
	}
}

func TestMatchmakingService_CancelExpiredRequestRejected(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, createdAt)
	request := openRequest(t, env)

	env.setNow(createdAt.Add(25 * time.Hour))

	_, err := env.matchSvc.CancelRequest(t.Context(), captainA(), request.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestMatchmakingService_WithdrawChallenge(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	request := openRequest(t, env)

	challenge, err := env.matchSvc.CreateChallenge(t.Context(), captainB(), CreateChallengeInput{
		RequestID: request.ID,
		TeamID:    memory.TeamIDHarbour,
	})
	if err != nil {
		t.Fatalf("create challenge failed: %v", err)
	}

	// Only the challenger may withdraw.
	if _, err := env.matchSvc.WithdrawChallenge(t.Context(), captainA(), challenge.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	withdrawn, err := env.matchSvc.WithdrawChallenge(t.Context(), captainB(), challenge.ID)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if withdrawn.Status != matchmaking.ChallengeWithdrawn {
		t.Fatalf("expected withdrawn, got %s", withdrawn.Status)
	}

	// A withdrawn challenge cannot be accepted.
	if _, err := env.matchSvc.AcceptChallenge(t.Context(), captainA(), challenge.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
