package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/fieldmatch/fieldmatch/internal/config"
	"github.com/fieldmatch/fieldmatch/internal/domain/booking"
	"github.com/fieldmatch/fieldmatch/internal/domain/field"
	"github.com/fieldmatch/fieldmatch/internal/domain/matchmaking"
	"github.com/fieldmatch/fieldmatch/internal/domain/matchresult"
	"github.com/fieldmatch/fieldmatch/internal/domain/team"
	"github.com/fieldmatch/fieldmatch/internal/domain/user"
	"github.com/fieldmatch/fieldmatch/internal/infrastructure/repository/memory"
	"github.com/fieldmatch/fieldmatch/internal/infrastructure/repository/postgres"
	"github.com/fieldmatch/fieldmatch/internal/interfaces/httpapi"
	"github.com/fieldmatch/fieldmatch/internal/platform/cache"
	idgen "github.com/fieldmatch/fieldmatch/internal/platform/id"
	"github.com/fieldmatch/fieldmatch/internal/platform/lock"
	"github.com/fieldmatch/fieldmatch/internal/platform/logging"
	"github.com/fieldmatch/fieldmatch/internal/usecase"
)

type repositories struct {
	users    user.Repository
	fields   field.Repository
	teams    team.Repository
	bookings booking.Repository
	matches  matchmaking.Repository
	results  matchresult.Repository
}

// App bundles the wired service graph and its owned resources.
type App struct {
	Server *http.Server
	db     *sqlx.DB
	logger *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, db, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	locks := lock.NewKeyed()
	gen := idgen.NewRandomGenerator()

	var fieldCache *cache.Store
	if cfg.CacheEnabled {
		fieldCache = cache.NewStore(cfg.CacheTTL)
	}

	policy := usecase.BookingPolicy{
		RequirePaidConfirm: cfg.BookingRequirePaidConfirm,
		MaxDuration:        cfg.BookingMaxDuration,
		CompletionGrace:    cfg.BookingCompletionGrace,
	}

	fieldService := usecase.NewFieldService(repos.fields, fieldCache, gen, logger)
	bookingService := usecase.NewBookingService(repos.bookings, repos.fields, repos.teams, locks, gen, logger, policy)
	rosterService := usecase.NewRosterService(repos.teams, repos.users, repos.matches, locks, gen, logger)
	matchmakingService := usecase.NewMatchmakingService(repos.matches, repos.teams, bookingService, locks, gen, logger, cfg.MatchRequestTTL)
	resultService := usecase.NewResultService(repos.results, repos.bookings, repos.teams, locks, gen, logger)
	maintenanceService := usecase.NewMaintenanceService(repos.matches, locks, logger, cfg.MatchRequestTTL, cfg.SweepWorkers)

	handler := httpapi.NewHandler(
		fieldService,
		bookingService,
		rosterService,
		matchmakingService,
		resultService,
		maintenanceService,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken, cfg.RequestTimeout)

	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{Server: server, db: db, logger: logger}, nil
}

// Close releases resources the app owns. Safe to call after server
// shutdown.
func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := openDB(cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		logger.Info("postgres store ready", "db", dbNameFromURL(cfg.DBURL))

		return repositories{
			users:    postgres.NewUserRepository(db),
			fields:   postgres.NewFieldRepository(db),
			teams:    postgres.NewTeamRepository(db),
			bookings: postgres.NewBookingRepository(db),
			matches:  postgres.NewMatchmakingRepository(db),
			results:  postgres.NewMatchResultRepository(db),
		}, db, nil

	case config.StoreMemory:
		logger.Info("memory store ready", "seeded", true)

		return repositories{
			users:    memory.NewUserRepository(memory.SeedUsers()),
			fields:   memory.NewFieldRepository(memory.SeedFields()),
			teams:    memory.NewTeamRepository(memory.SeedTeams(), memory.SeedMembers()),
			bookings: memory.NewBookingRepository(),
			matches:  memory.NewMatchmakingRepository(),
			results:  memory.NewMatchResultRepository(),
		}, nil, nil

	default:
		return repositories{}, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}
