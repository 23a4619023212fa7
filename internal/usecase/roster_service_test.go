package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
	"github.com/fieldmatch/fieldmatch/internal/domain/matchmaking"
	"github.com/fieldmatch/fieldmatch/internal/domain/team"
	"github.com/fieldmatch/fieldmatch/internal/domain/user"
	"github.com/fieldmatch/fieldmatch/internal/infrastructure/repository/memory"
)

func TestRosterService_CreateTeam_RecordsCaptainMembership(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(staticIDGenerator{id: "team-001"}, now)

	created, err := env.rosterSvc.CreateTeam(t.Context(), captainA(), CreateTeamInput{
		Name:       "Midnight XI",
		MaxPlayers: 11,
		SkillLevel: "advanced",
	})
	if err != nil {
		t.Fatalf("create team failed: %v", err)
	}
	if created.CaptainID != memory.UserIDCaptainA {
		t.Fatalf("expected captain %s, got %s", memory.UserIDCaptainA, created.CaptainID)
	}

	member, exists, err := env.teams.GetMember(t.Context(), created.ID, memory.UserIDCaptainA)
	if err != nil {
		t.Fatalf("get member failed: %v", err)
	}
	if !exists {
		t.Fatalf("expected captain membership to exist")
	}
	if member.Role != team.RoleCaptain || member.Status != team.MemberActive {
		t.Fatalf("expected active captain membership, got role=%s status=%s", member.Role, member.Status)
	}
}

func TestRosterService_AddMember_RespectsCapacity(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(staticIDGenerator{id: "team-001"}, now)

	small, err := env.rosterSvc.CreateTeam(t.Context(), captainA(), CreateTeamInput{
		Name:       "Trio",
		MaxPlayers: 3,
	})
	if err != nil {
		t.Fatalf("create team failed: %v", err)
	}

	// Captain occupies the first slot, two more fit.
	for i, userID := range []string{memory.UserIDPlayerA1, memory.UserIDPlayerB1} {
		if _, err := env.rosterSvc.AddMember(t.Context(), captainA(), AddMemberInput{
			TeamID: small.ID,
			UserID: userID,
		}); err != nil {
			t.Fatalf("add member %d failed: %v", i, err)
		}
	}

	_, err = env.rosterSvc.AddMember(t.Context(), captainA(), AddMemberInput{
		TeamID: small.ID,
		UserID: memory.UserIDCaptainB,
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestRosterService_AddMember_ConcurrentJoinsNeverOvershoot(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "team"}, now)

	const maxPlayers = 4
	small, err := env.rosterSvc.CreateTeam(t.Context(), captainA(), CreateTeamInput{
		Name:       "Quartet",
		MaxPlayers: maxPlayers,
	})
	if err != nil {
		t.Fatalf("create team failed: %v", err)
	}

	// Register more candidates than the roster holds.
	const candidates = 10
	userIDs := make([]string, 0, candidates)
	for i := 0; i < candidates; i++ {
		userID := fmt.Sprintf("user-candidate-%02d", i)
		if err := env.users.Upsert(t.Context(), user.User{ID: userID, Name: userID, Role: user.RoleUser}); err != nil {
			t.Fatalf("seed user failed: %v", err)
		}
		userIDs = append(userIDs, userID)
	}

	var joined atomic.Int32
	var rejected atomic.Int32

	var wg conc.WaitGroup
	for _, userID := range userIDs {
		userID := userID
		wg.Go(func() {
			_, err := env.rosterSvc.AddMember(context.Background(), captainA(), AddMemberInput{
				TeamID: small.ID,
				UserID: userID,
			})
			switch {
			case err == nil:
				joined.Add(1)
			case errors.Is(err, ErrCapacityExceeded):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()

	if got := int(joined.Load()); got != maxPlayers-1 {
		t.Fatalf("expected %d joins, got %d", maxPlayers-1, got)
	}

	active, err := env.teams.CountActiveMembers(t.Context(), small.ID)
	if err != nil {
		t.Fatalf("count members failed: %v", err)
	}
	if active != maxPlayers {
		t.Fatalf("expected %d active members, got %d", maxPlayers, active)
	}
}

func TestRosterService_AddMember_DuplicateConflicts(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(staticIDGenerator{id: "team-001"}, now)

	_, err := env.rosterSvc.AddMember(t.Context(), captainA(), AddMemberInput{
		TeamID: memory.TeamIDNomads,
		UserID: memory.UserIDPlayerA1,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRosterService_AddMember_OnlyCaptainAdds(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(staticIDGenerator{id: "team-001"}, now)

	_, err := env.rosterSvc.AddMember(t.Context(), captainB(), AddMemberInput{
		TeamID: memory.TeamIDNomads,
		UserID: memory.UserIDPlayerB1,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRosterService_RemoveMember_CaptainCannotLeave(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(staticIDGenerator{id: "team-001"}, now)

	err := env.rosterSvc.RemoveMember(t.Context(), captainA(), memory.TeamIDNomads, memory.UserIDCaptainA)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRosterService_RemoveMember_SelfLeaveAllowed(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(staticIDGenerator{id: "team-001"}, now)

	leaver := user.Principal{UserID: memory.UserIDPlayerA1, Role: user.RoleUser}
	if err := env.rosterSvc.RemoveMember(t.Context(), leaver, memory.TeamIDNomads, memory.UserIDPlayerA1); err != nil {
		t.Fatalf("self leave failed: %v", err)
	}

	_, exists, err := env.teams.GetMember(t.Context(), memory.TeamIDNomads, memory.UserIDPlayerA1)
	if err != nil {
		t.Fatalf("get member failed: %v", err)
	}
	if exists {
		t.Fatalf("expected membership to be gone")
	}
}

func TestRosterService_DisbandTeam_CancelsOpenRequests(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env := newTestEnv(&seqIDGenerator{prefix: "id"}, now)

	request, err := env.matchSvc.CreateRequest(t.Context(), captainA(), CreateRequestInput{
		TeamID:         memory.TeamIDNomads,
		PreferredField: memory.FieldIDNorth,
		PreferredSlot: booking.TimeRange{
			Start: time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 3, 20, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	if err := env.rosterSvc.DisbandTeam(t.Context(), captainA(), memory.TeamIDNomads); err != nil {
		t.Fatalf("disband failed: %v", err)
	}

	disbanded, exists, err := env.teams.GetByID(t.Context(), memory.TeamIDNomads)
	if err != nil || !exists {
		t.Fatalf("get team failed: exists=%v err=%v", exists, err)
	}
	if disbanded.Active {
		t.Fatalf("expected team to be inactive")
	}

	stored, exists, err := env.matches.GetRequest(t.Context(), request.ID)
	if err != nil || !exists {
		t.Fatalf("get request failed: exists=%v err=%v", exists, err)
	}
	if stored.Status != matchmaking.RequestCancelled {
		t.Fatalf("expected cancelled request, got %s", stored.Status)
	}

	members, err := env.teams.ListMembers(t.Context(), memory.TeamIDNomads)
	if err != nil {
		t.Fatalf("list members failed: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected empty roster after disband, got %d members", len(members))
	}
}
