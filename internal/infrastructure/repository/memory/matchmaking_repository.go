package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fieldmatch/fieldmatch/internal/domain/matchmaking"
)

type MatchmakingRepository struct {
	mu         sync.RWMutex
	requests   map[string]matchmaking.Request
	challenges map[string]matchmaking.Challenge
}

func NewMatchmakingRepository() *MatchmakingRepository {
	return &MatchmakingRepository{
		requests:   make(map[string]matchmaking.Request),
		challenges: make(map[string]matchmaking.Challenge),
	}
}

func (r *MatchmakingRepository) CreateRequest(_ context.Context, item matchmaking.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.requests[item.ID]; exists {
		return fmt.Errorf("match request %s already exists", item.ID)
	}
	r.requests[item.ID] = item

	return nil
}

func (r *MatchmakingRepository) GetRequest(_ context.Context, requestID string) (matchmaking.Request, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.requests[requestID]
	return item, ok, nil
}

func (r *MatchmakingRepository) UpdateRequest(_ context.Context, item matchmaking.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.requests[item.ID]; !exists {
		return fmt.Errorf("match request %s does not exist", item.ID)
	}
	r.requests[item.ID] = item

	return nil
}

func (r *MatchmakingRepository) ListRequestsByStatus(_ context.Context, status matchmaking.RequestStatus) ([]matchmaking.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]matchmaking.Request, 0)
	for _, item := range r.requests {
		if item.Status == status {
			out = append(out, item)
		}
	}
	sortRequests(out)

	return out, nil
}

func (r *MatchmakingRepository) ListRequestsByTeam(_ context.Context, teamID string) ([]matchmaking.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]matchmaking.Request, 0)
	for _, item := range r.requests {
		if item.TeamID == teamID {
			out = append(out, item)
		}
	}
	sortRequests(out)

	return out, nil
}

func (r *MatchmakingRepository) CreateChallenge(_ context.Context, item matchmaking.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.challenges[item.ID]; exists {
		return fmt.Errorf("challenge %s already exists", item.ID)
	}
	r.challenges[item.ID] = item

	return nil
}

func (r *MatchmakingRepository) GetChallenge(_ context.Context, challengeID string) (matchmaking.Challenge, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.challenges[challengeID]
	return item, ok, nil
}

func (r *MatchmakingRepository) UpdateChallenge(_ context.Context, item matchmaking.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.challenges[item.ID]; !exists {
		return fmt.Errorf("challenge %s does not exist", item.ID)
	}
	r.challenges[item.ID] = item

	return nil
}

func (r *MatchmakingRepository) ListChallengesByRequest(_ context.Context, requestID string) ([]matchmaking.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]matchmaking.Challenge, 0)
	for _, item := range r.challenges {
		if item.RequestID == requestID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func sortRequests(items []matchmaking.Request) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
