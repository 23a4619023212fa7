package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fieldmatch/fieldmatch/internal/domain/team"
)

type memberKey struct {
	teamID string
	userID string
}

type TeamRepository struct {
	mu      sync.RWMutex
	teams   map[string]team.Team
	members map[memberKey]team.Member
}

func NewTeamRepository(teams []team.Team, members []team.Member) *TeamRepository {
	byID := make(map[string]team.Team, len(teams))
	for _, item := range teams {
		byID[item.ID] = item
	}
	byKey := make(map[memberKey]team.Member, len(members))
	for _, item := range members {
		byKey[memberKey{teamID: item.TeamID, userID: item.UserID}] = item
	}

	return &TeamRepository{teams: byID, members: byKey}
}

func (r *TeamRepository) CreateWithCaptain(_ context.Context, item team.Team, captain team.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[item.ID]; exists {
		return fmt.Errorf("team %s already exists", item.ID)
	}
	key := memberKey{teamID: captain.TeamID, userID: captain.UserID}
	if _, exists := r.members[key]; exists {
		return team.ErrMemberExists
	}

	r.teams[item.ID] = item
	r.members[key] = captain

	return nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.teams[teamID]
	return item, ok, nil
}

func (r *TeamRepository) Update(_ context.Context, item team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[item.ID]; !exists {
		return fmt.Errorf("team %s does not exist", item.ID)
	}
	r.teams[item.ID] = item

	return nil
}

func (r *TeamRepository) AddMember(_ context.Context, item team.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memberKey{teamID: item.TeamID, userID: item.UserID}
	if _, exists := r.members[key]; exists {
		return team.ErrMemberExists
	}
	r.members[key] = item

	return nil
}

func (r *TeamRepository) GetMember(_ context.Context, teamID, userID string) (team.Member, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.members[memberKey{teamID: teamID, userID: userID}]
	return item, ok, nil
}

func (r *TeamRepository) UpdateMember(_ context.Context, item team.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memberKey{teamID: item.TeamID, userID: item.UserID}
	if _, exists := r.members[key]; !exists {
		return fmt.Errorf("member %s/%s does not exist", item.TeamID, item.UserID)
	}
	r.members[key] = item

	return nil
}

func (r *TeamRepository) RemoveMember(_ context.Context, teamID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members, memberKey{teamID: teamID, userID: userID})
	return nil
}

func (r *TeamRepository) RemoveAllMembers(_ context.Context, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.members {
		if key.teamID == teamID {
			delete(r.members, key)
		}
	}

	return nil
}

func (r *TeamRepository) ListMembers(_ context.Context, teamID string) ([]team.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Member, 0)
	for key, item := range r.members {
		if key.teamID == teamID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })

	return out, nil
}

func (r *TeamRepository) CountActiveMembers(_ context.Context, teamID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for key, item := range r.members {
		if key.teamID == teamID && item.Status == team.MemberActive {
			count++
		}
	}

	return count, nil
}
