package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fieldmatch/fieldmatch/internal/domain/matchmaking"
	"github.com/fieldmatch/fieldmatch/internal/platform/lock"
	"github.com/fieldmatch/fieldmatch/internal/platform/logging"
)

const defaultSweepWorkers = 8

// SweepResult summarizes one expiry sweep.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}

// MaintenanceService persists what the lazy expiry rule already
// implies: open match requests past their TTL get their stored status
// flipped to expired. Readers never need this to run for correctness;
// it keeps the stored rows and list queries honest.
type MaintenanceService struct {
	matchRepo matchmaking.Repository
	locks     *lock.Keyed
	logger    *logging.Logger
	ttl       time.Duration
	workers   int
	now       func() time.Time
}

func NewMaintenanceService(
	matchRepo matchmaking.Repository,
	locks *lock.Keyed,
	logger *logging.Logger,
	ttl time.Duration,
	workers int,
) *MaintenanceService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = lock.NewKeyed()
	}
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}
	if workers <= 0 {
		workers = defaultSweepWorkers
	}

	return &MaintenanceService{
		matchRepo: matchRepo,
		locks:     locks,
		logger:    logger,
		ttl:       ttl,
		workers:   workers,
		now:       time.Now,
	}
}

// ExpireOpenRequests sweeps stored-open requests and persists expiry
// for those past their TTL. Each flip re-checks the request under its
// mutex so a concurrent accept or cancel is never overwritten.
func (s *MaintenanceService) ExpireOpenRequests(ctx context.Context) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "MaintenanceService.ExpireOpenRequests")
	defer span.End()

	requests, err := s.matchRepo.ListRequestsByStatus(ctx, matchmaking.RequestOpen)
	if err != nil {
		return SweepResult{}, wrapStoreErr(err, "list open match requests")
	}

	now := s.now().UTC()
	stale := make([]matchmaking.Request, 0, len(requests))
	for _, r := range requests {
		if r.EffectiveStatus(now, s.ttl) == matchmaking.RequestExpired {
			stale = append(stale, r)
		}
	}

	result := SweepResult{Scanned: len(requests)}
	if len(stale) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return SweepResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var expiredCount atomic.Int32
	var failedCount atomic.Int32

	var workers sync.WaitGroup
	for _, r := range stale {
		r := r
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			if err := s.expireRequest(ctx, r.ID); err != nil {
				failedCount.Add(1)
				s.logger.ErrorContext(ctx, "expire match request failed",
					"request_id", r.ID,
					"error", err,
				)
				return
			}
			expiredCount.Add(1)
		}); err != nil {
			workers.Done()
			return SweepResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	result.Expired = int(expiredCount.Load())
	result.Failed = int(failedCount.Load())

	s.logger.InfoContext(ctx, "expiry sweep finished",
		"scanned", result.Scanned,
		"expired", result.Expired,
		"failed", result.Failed,
	)

	return result, nil
}

func (s *MaintenanceService) expireRequest(ctx context.Context, requestID string) error {
	return s.locks.Do(ctx, requestLockKey(requestID), func() error {
		item, exists, err := s.matchRepo.GetRequest(ctx, requestID)
		if err != nil {
			return wrapStoreErr(err, "get match request")
		}
		if !exists {
			return nil
		}
		// A concurrent accept or cancel may have closed it since the
		// scan; only stored-open requests flip.
		if item.Status != matchmaking.RequestOpen {
			return nil
		}
		if item.EffectiveStatus(s.now().UTC(), s.ttl) != matchmaking.RequestExpired {
			return nil
		}

		item.Status = matchmaking.RequestExpired
		item.UpdatedAt = s.now().UTC()
		if err := s.matchRepo.UpdateRequest(ctx, item); err != nil {
			return wrapStoreErr(err, "update match request")
		}

		return nil
	})
}
