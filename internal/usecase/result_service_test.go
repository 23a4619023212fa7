package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
	"github.com/fieldmatch/fieldmatch/internal/domain/matchresult"
	"github.com/fieldmatch/fieldmatch/internal/infrastructure/repository/memory"
	"github.com/fieldmatch/fieldmatch/internal/platform/logging"
)

// confirmedMatch books the north pitch for Nomads vs Harbour, confirms
// it and advances the clock into the match.
func confirmedMatch(t *testing.T, env *testEnv) booking.Booking {
	t.Helper()

	slot := booking.TimeRange{
		Start: time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 3, 20, 0, 0, 0, time.UTC),
	}
	created, err := env.bookingSvc.CreateBooking(t.Context(), captainA(), CreateBookingInput{
		FieldID:        memory.FieldIDNorth,
		TeamID:         memory.TeamIDNomads,
		OpponentTeamID: memory.TeamIDHarbour,
		Slot:           slot,
	})
	if err != nil {
		t.Fatalf("create booking failed: %v", err)
	}
	confirmed, err := env.bookingSvc.UpdateStatus(t.Context(), fieldOwner(), created.ID, booking.StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	env.setNow(slot.End.Add(10 * time.Minute))

	return confirmed
}

func TestResultService_RecordResult_CompletesTheBooking(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	match := confirmedMatch(t, env)

	recorded, err := env.resultSvc.RecordResult(t.Context(), captainA(), RecordResultInput{
		BookingID:   match.ID,
		HomeScore:   3,
		AwayScore:   1,
		Status:      matchresult.StatusCompleted,
		MVPPlayerID: memory.UserIDPlayerA1,
	})
	if err != nil {
		t.Fatalf("record result failed: %v", err)
	}

	if recorded.HomeTeamID != memory.TeamIDNomads || recorded.AwayTeamID != memory.TeamIDHarbour {
		t.Fatalf("unexpected pairing: %s vs %s", recorded.HomeTeamID, recorded.AwayTeamID)
	}

	stored, exists, err := env.bookings.GetByID(t.Context(), match.ID)
	if err != nil || !exists {
		t.Fatalf("get booking failed: exists=%v err=%v", exists, err)
	}
	if stored.Status != booking.StatusCompleted {
		t.Fatalf("expected completed booking, got %s", stored.Status)
	}
}

func TestResultService_RecordResult_NonTerminalLeavesBookingConfirmed(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	match := confirmedMatch(t, env)

	if _, err := env.resultSvc.RecordResult(t.Context(), captainA(), RecordResultInput{
		BookingID: match.ID,
		HomeScore: 1,
		AwayScore: 1,
		Status:    matchresult.StatusInProgress,
	}); err != nil {
		t.Fatalf("record in-progress result failed: %v", err)
	}

	stored, exists, err := env.bookings.GetByID(t.Context(), match.ID)
	if err != nil || !exists {
		t.Fatalf("get booking failed: exists=%v err=%v", exists, err)
	}
	if stored.Status != booking.StatusConfirmed {
		t.Fatalf("expected booking to stay confirmed, got %s", stored.Status)
	}
}

func TestResultService_RecordResult_ReRecordNonTerminal(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	match := confirmedMatch(t, env)

	first, err := env.resultSvc.RecordResult(t.Context(), captainA(), RecordResultInput{
		BookingID: match.ID,
		HomeScore: 1,
		AwayScore: 0,
		Status:    matchresult.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("first record failed: %v", err)
	}

	final, err := env.resultSvc.RecordResult(t.Context(), captainA(), RecordResultInput{
		BookingID: match.ID,
		HomeScore: 2,
		AwayScore: 2,
		Status:    matchresult.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("final record failed: %v", err)
	}
	if final.ID != first.ID {
		t.Fatalf("re-record must keep the result id, got %s then %s", first.ID, final.ID)
	}
	if final.HomeScore != 2 || final.AwayScore != 2 {
		t.Fatalf("expected 2-2, got %d-%d", final.HomeScore, final.AwayScore)
	}
}

func TestResultService_RecordResult_TerminalIsFrozen(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	match := confirmedMatch(t, env)

	if _, err := env.resultSvc.RecordResult(t.Context(), captainA(), RecordResultInput{
		BookingID: match.ID,
		HomeScore: 3,
		AwayScore: 1,
		Status:    matchresult.StatusCompleted,
	}); err != nil {
		t.Fatalf("record result failed: %v", err)
	}

	_, err := env.resultSvc.RecordResult(t.Context(), captainB(), RecordResultInput{
		BookingID: match.ID,
		HomeScore: 0,
		AwayScore: 5,
		Status:    matchresult.StatusCompleted,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestResultService_RecordResult_ConcurrentRecordsExactlyOneWins(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	match := confirmedMatch(t, env)

	const attempts = 8
	var won atomic.Int32
	var conflicted atomic.Int32

	var wg conc.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Go(func() {
			_, err := env.resultSvc.RecordResult(context.Background(), captainA(), RecordResultInput{
				BookingID: match.ID,
				HomeScore: 3,
				AwayScore: 1,
				Status:    matchresult.StatusCompleted,
			})
			switch {
			case err == nil:
				won.Add(1)
			case errors.Is(err, ErrConflict):
				conflicted.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	if won.Load() != 1 {
		t.Fatalf("expected exactly 1 record to win, got %d", won.Load())
	}
	if conflicted.Load() != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicted.Load())
	}
}

// cancelMidRecordRepo fires a booking cancel the first time the record
// path reads the existing result, then gives the cancel a moment to
// land before the read returns. If recording does not hold the
// booking's mutex, the cancel commits inside the record's
// read-check-write window.
type cancelMidRecordRepo struct {
	*memory.MatchResultRepository
	once    sync.Once
	launch  func() error
	outcome chan error
}

func (r *cancelMidRecordRepo) GetResultByBooking(ctx context.Context, bookingID string) (matchresult.Result, bool, error) {
	r.once.Do(func() {
		go func() { r.outcome <- r.launch() }()
		time.Sleep(50 * time.Millisecond)
	})
	return r.MatchResultRepository.GetResultByBooking(ctx, bookingID)
}

func TestResultService_RecordResult_CancelCannotInterleave(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	match := confirmedMatch(t, env)
	if _, err := env.bookingSvc.MarkPaid(t.Context(), captainA(), match.ID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	hooked := &cancelMidRecordRepo{
		MatchResultRepository: env.results,
		launch: func() error {
			_, err := env.bookingSvc.UpdateStatus(context.Background(), captainA(), match.ID, booking.StatusCancelled)
			return err
		},
		outcome: make(chan error, 1),
	}
	svc := NewResultService(hooked, env.bookings, env.teams, env.locks, &seqIDGenerator{prefix: "res"}, logging.NewNop())

	if _, err := svc.RecordResult(t.Context(), captainA(), RecordResultInput{
		BookingID: match.ID,
		HomeScore: 3,
		AwayScore: 1,
		Status:    matchresult.StatusCompleted,
	}); err != nil {
		t.Fatalf("record result failed: %v", err)
	}

	// The cancel must have queued behind the record and found the
	// booking already terminal.
	if err := <-hooked.outcome; !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected the late cancel to fail with ErrInvalidTransition, got %v", err)
	}

	stored, exists, err := env.bookings.GetByID(t.Context(), match.ID)
	if err != nil || !exists {
		t.Fatalf("get booking failed: exists=%v err=%v", exists, err)
	}
	if stored.Status != booking.StatusCompleted {
		t.Fatalf("expected completed booking, got %s", stored.Status)
	}
	if stored.PaymentStatus != booking.PaymentPaid {
		t.Fatalf("expected payment to stay paid, got %s", stored.PaymentStatus)
	}
}

func TestResultService_RecordResult_RequiresConfirmedBooking(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)

	pending, err := env.bookingSvc.CreateBooking(t.Context(), captainA(), CreateBookingInput{
		FieldID:        memory.FieldIDNorth,
		TeamID:         memory.TeamIDNomads,
		OpponentTeamID: memory.TeamIDHarbour,
		Slot: booking.TimeRange{
			Start: time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 3, 20, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("create booking failed: %v", err)
	}

	_, err = env.resultSvc.RecordResult(t.Context(), captainA(), RecordResultInput{
		BookingID: pending.ID,
		HomeScore: 1,
		AwayScore: 0,
		Status:    matchresult.StatusCompleted,
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestResultService_RecordResult_MVPMustBeOnARoster(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	match := confirmedMatch(t, env)

	_, err := env.resultSvc.RecordResult(t.Context(), captainA(), RecordResultInput{
		BookingID:   match.ID,
		HomeScore:   3,
		AwayScore:   1,
		Status:      matchresult.StatusCompleted,
		MVPPlayerID: memory.UserIDOwner,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestResultService_RateOpponent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	match := confirmedMatch(t, env)

	if _, err := env.resultSvc.RecordResult(t.Context(), captainA(), RecordResultInput{
		BookingID: match.ID,
		HomeScore: 3,
		AwayScore: 1,
		Status:    matchresult.StatusCompleted,
	}); err != nil {
		t.Fatalf("record result failed: %v", err)
	}

	rating, err := env.resultSvc.RateOpponent(t.Context(), captainA(), RateOpponentInput{
		BookingID:   match.ID,
		RaterTeamID: memory.TeamIDNomads,
		Score:       4,
		Category:    matchresult.CategorySportsmanship,
		Recommended: true,
	})
	if err != nil {
		t.Fatalf("rate opponent failed: %v", err)
	}
	if rating.RatedTeamID != memory.TeamIDHarbour {
		t.Fatalf("expected Harbour to be rated, got %s", rating.RatedTeamID)
	}

	// Same category twice conflicts.
	_, err = env.resultSvc.RateOpponent(t.Context(), captainA(), RateOpponentInput{
		BookingID:   match.ID,
		RaterTeamID: memory.TeamIDNomads,
		Score:       2,
		Category:    matchresult.CategorySportsmanship,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Another category is fine.
	if _, err := env.resultSvc.RateOpponent(t.Context(), captainA(), RateOpponentInput{
		BookingID:   match.ID,
		RaterTeamID: memory.TeamIDNomads,
		Score:       5,
		Category:    matchresult.CategoryPunctuality,
	}); err != nil {
		t.Fatalf("second category failed: %v", err)
	}

	summary, err := env.resultSvc.TeamRatingSummary(t.Context(), memory.TeamIDHarbour)
	if err != nil {
		t.Fatalf("rating summary failed: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(summary))
	}
}

func TestResultService_RateOpponent_NeedsCompletedBooking(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	match := confirmedMatch(t, env)

	// An in-progress result leaves the booking confirmed, which is not
	// ratable yet.
	if _, err := env.resultSvc.RecordResult(t.Context(), captainA(), RecordResultInput{
		BookingID: match.ID,
		HomeScore: 0,
		AwayScore: 0,
		Status:    matchresult.StatusInProgress,
	}); err != nil {
		t.Fatalf("record result failed: %v", err)
	}

	_, err := env.resultSvc.RateOpponent(t.Context(), captainA(), RateOpponentInput{
		BookingID:   match.ID,
		RaterTeamID: memory.TeamIDNomads,
		Score:       3,
		Category:    matchresult.CategoryOverall,
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestResultService_RateOpponent_CompletedBookingWithoutResult(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	match := confirmedMatch(t, env)

	// Complete through the status machine; no scoreline is recorded.
	if _, err := env.bookingSvc.UpdateStatus(t.Context(), captainA(), match.ID, booking.StatusCompleted); err != nil {
		t.Fatalf("complete booking failed: %v", err)
	}

	rating, err := env.resultSvc.RateOpponent(t.Context(), captainB(), RateOpponentInput{
		BookingID:   match.ID,
		RaterTeamID: memory.TeamIDHarbour,
		Score:       5,
		Category:    matchresult.CategoryPunctuality,
	})
	if err != nil {
		t.Fatalf("rate opponent failed: %v", err)
	}
	if rating.RatedTeamID != memory.TeamIDNomads {
		t.Fatalf("expected Nomads to be rated, got %s", rating.RatedTeamID)
	}
}

func TestResultService_RateOpponent_OutsiderUnauthorized(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)
	match := confirmedMatch(t, env)

	if _, err := env.resultSvc.RecordResult(t.Context(), captainA(), RecordResultInput{
		BookingID: match.ID,
		HomeScore: 3,
		AwayScore: 1,
		Status:    matchresult.StatusCompleted,
	}); err != nil {
		t.Fatalf("record result failed: %v", err)
	}

	_, err := env.resultSvc.RateOpponent(t.Context(), fieldOwner(), RateOpponentInput{
		BookingID:   match.ID,
		RaterTeamID: memory.TeamIDNomads,
		Score:       1,
		Category:    matchresult.CategoryOverall,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
