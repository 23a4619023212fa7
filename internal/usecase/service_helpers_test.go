package usecase

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/user"
	"github.com/fieldmatch/fieldmatch/internal/infrastructure/repository/memory"
	"github.com/fieldmatch/fieldmatch/internal/platform/lock"
	"github.com/fieldmatch/fieldmatch/internal/platform/logging"
)

type staticIDGenerator struct {
	id string
}

func (g staticIDGenerator) NewID() (string, error) {
	return g.id, nil
}

type seqIDGenerator struct {
	prefix  string
	counter atomic.Int64
}

func (g *seqIDGenerator) NewID() (string, error) {
	return fmt.Sprintf("%s-%03d", g.prefix, g.counter.Add(1)), nil
}

// testEnv wires every service against seeded memory repositories
// sharing one keyed lock, the way the application container does.
type testEnv struct {
	users       *memory.UserRepository
	fields      *memory.FieldRepository
	teams       *memory.TeamRepository
	bookings    *memory.BookingRepository
	matches     *memory.MatchmakingRepository
	results     *memory.MatchResultRepository
	locks       *lock.Keyed
	bookingSvc  *BookingService
	rosterSvc   *RosterService
	matchSvc    *MatchmakingService
	resultSvc   *ResultService
	maintenance *MaintenanceService
}

func newTestEnv(idGen interface{ NewID() (string, error) }, now time.Time) *testEnv {
	env := &testEnv{
		users:    memory.NewUserRepository(memory.SeedUsers()),
		fields:   memory.NewFieldRepository(memory.SeedFields()),
		teams:    memory.NewTeamRepository(memory.SeedTeams(), memory.SeedMembers()),
		bookings: memory.NewBookingRepository(),
		matches:  memory.NewMatchmakingRepository(),
		results:  memory.NewMatchResultRepository(),
		locks:    lock.NewKeyed(),
	}

	logger := logging.NewNop()

	env.bookingSvc = NewBookingService(env.bookings, env.fields, env.teams, env.locks, idGen, logger, DefaultBookingPolicy())
	env.rosterSvc = NewRosterService(env.teams, env.users, env.matches, env.locks, idGen, logger)
	env.matchSvc = NewMatchmakingService(env.matches, env.teams, env.bookingSvc, env.locks, idGen, logger, DefaultRequestTTL)
	env.resultSvc = NewResultService(env.results, env.bookings, env.teams, env.locks, idGen, logger)
	env.maintenance = NewMaintenanceService(env.matches, env.locks, logger, DefaultRequestTTL, 4)

	env.setNow(now)

	return env
}

func (e *testEnv) setNow(now time.Time) {
	clock := func() time.Time { return now }
	e.bookingSvc.now = clock
	e.rosterSvc.now = clock
	e.matchSvc.now = clock
	e.resultSvc.now = clock
	e.maintenance.now = clock
}

func captainA() user.Principal {
	return user.Principal{UserID: memory.UserIDCaptainA, Role: user.RoleUser}
}

func captainB() user.Principal {
	return user.Principal{UserID: memory.UserIDCaptainB, Role: user.RoleUser}
}

func fieldOwner() user.Principal {
	return user.Principal{UserID: memory.UserIDOwner, Role: user.RoleUser}
}

func adminActor() user.Principal {
	return user.Principal{UserID: "user-admin", Role: user.RoleAdmin}
}
