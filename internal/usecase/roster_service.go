package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/matchmaking"
	"github.com/fieldmatch/fieldmatch/internal/domain/team"
	"github.com/fieldmatch/fieldmatch/internal/domain/user"
	idgen "github.com/fieldmatch/fieldmatch/internal/platform/id"
	"github.com/fieldmatch/fieldmatch/internal/platform/lock"
	"github.com/fieldmatch/fieldmatch/internal/platform/logging"
)

// CreateTeamInput is the incoming payload for forming a team. The actor
// becomes the captain.
type CreateTeamInput struct {
	Name        string
	MaxPlayers  int
	SkillLevel  string
	HomeFieldID string
}

// AddMemberInput adds one user to a roster.
type AddMemberInput struct {
	TeamID string
	UserID string
	Role   team.MemberRole
}

type RosterService struct {
	teamRepo  team.Repository
	userRepo  user.Repository
	matchRepo matchmaking.Repository
	locks     *lock.Keyed
	idGen     idgen.Generator
	logger    *logging.Logger
	now       func() time.Time
}

func NewRosterService(
	teamRepo team.Repository,
	userRepo user.Repository,
	matchRepo matchmaking.Repository,
	locks *lock.Keyed,
	idGen idgen.Generator,
	logger *logging.Logger,
) *RosterService {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = lock.NewKeyed()
	}

	return &RosterService{
		teamRepo:  teamRepo,
		userRepo:  userRepo,
		matchRepo: matchRepo,
		locks:     locks,
		idGen:     idGen,
		logger:    logger,
		now:       time.Now,
	}
}

func teamLockKey(teamID string) string {
	return "team:" + teamID
}

// CreateTeam forms a team with the actor as captain. The team and the
// captain membership are persisted as one unit.
func (s *RosterService) CreateTeam(ctx context.Context, actor user.Principal, input CreateTeamInput) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.CreateTeam")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return team.Team{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	if input.MaxPlayers < 1 {
		return team.Team{}, fmt.Errorf("%w: max players must be at least 1", ErrInvalidInput)
	}

	teamID, err := s.idGen.NewID()
	if err != nil {
		return team.Team{}, fmt.Errorf("generate team id: %w", err)
	}

	now := s.now().UTC()
	item := team.Team{
		ID:          teamID,
		Name:        input.Name,
		CaptainID:   actor.UserID,
		MaxPlayers:  input.MaxPlayers,
		SkillLevel:  strings.TrimSpace(input.SkillLevel),
		HomeFieldID: strings.TrimSpace(input.HomeFieldID),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	captain := team.Member{
		TeamID:   teamID,
		UserID:   actor.UserID,
		Role:     team.RoleCaptain,
		Status:   team.MemberActive,
		JoinedAt: now,
	}
	if err := item.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.teamRepo.CreateWithCaptain(ctx, item, captain); err != nil {
		return team.Team{}, wrapStoreErr(err, "create team")
	}

	s.logger.InfoContext(ctx, "team created", "team_id", item.ID, "captain_id", item.CaptainID)

	return item, nil
}

func (s *RosterService) GetTeam(ctx context.Context, teamID string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.GetTeam")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return team.Team{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	return s.loadTeam(ctx, teamID)
}

func (s *RosterService) ListMembers(ctx context.Context, teamID string) ([]team.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.ListMembers")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if _, err := s.loadTeam(ctx, teamID); err != nil {
		return nil, err
	}

	members, err := s.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, wrapStoreErr(err, "list team members")
	}

	return members, nil
}

// AddMember grows the roster. The active-member count against
// MaxPlayers is checked and the row inserted under the team's mutex so
// concurrent joins cannot overshoot the cap.
func (s *RosterService) AddMember(ctx context.Context, actor user.Principal, input AddMemberInput) (team.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "RosterService.AddMember")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return team.Member{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	input.TeamID = strings.TrimSpace(input.TeamID)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.TeamID == "" {
		return team.Member{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if input.UserID == "" {
		return team.Member{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.Role == "" {
		input.Role = team.RolePlayer
	}
	if input.Role == team.RoleCaptain {
		return team.Member{}, fmt.Errorf("%w: a team has exactly one captain", ErrInvalidInput)
	}

	if _, exists, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return team.Member{}, wrapStoreErr(err, "get user")
	} else if !exists {
		return team.Member{}, fmt.Errorf("%w: user=%s", ErrNotFound, input.UserID)
	}

	var member team.Member
	err := s.locks.Do(ctx, teamLockKey(input.TeamID), func() error {
		t, err := s.loadTeam(ctx, input.TeamID)
		if err != nil {
			return err
		}
		if !t.Active {
			return fmt.Errorf("%w: team=%s is disbanded", ErrUnavailable, t.ID)
		}
		if t.CaptainID != actor.UserID && !actor.IsAdmin() {
			return fmt.Errorf("%w: only the captain may add members to team=%s", ErrUnauthorized, t.ID)
		}

		if _, exists, err := s.teamRepo.GetMember(ctx, t.ID, input.UserID); err != nil {
			return wrapStoreErr(err, "get team member")
		} else if exists {
			return fmt.Errorf("%w: user=%s is already on team=%s", ErrConflict, input.UserID, t.ID)
		}

		active, err := s.teamRepo.CountActiveMembers(ctx, t.ID)
		if err != nil {
			return wrapStoreErr(err, "count active members")
		}
		if active >= t.MaxPlayers {
			return fmt.Errorf("%w: team=%s roster is full (%d/%d)", ErrCapacityExceeded, t.ID, active, t.MaxPlayers)
		}

		member = team.Member{
			TeamID:   t.ID,
			UserID:   input.UserID,
			Role:     input.Role,
			Status:   team.MemberActive,
			JoinedAt: s.now().UTC(),
		}
		if err := member.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		if err := s.teamRepo.AddMember(ctx, member); err != nil {
			if errors.Is(err, team.ErrMemberExists) {
				return fmt.Errorf("%w: user=%s is already on team=%s", ErrConflict, input.UserID, t.ID)
			}
			return wrapStoreErr(err, "add team member")
		}

		return nil
	})
	if err != nil {
		return team.Member{}, err
	}

	s.logger.InfoContext(ctx, "team member added",
		"team_id", member.TeamID,
		"user_id", member.UserID,
		"role", string(member.Role),
	)

	return member, nil
}

// RemoveMember drops a user from the roster. The captain cannot be
// removed; disband the team instead.
func (s *RosterService) RemoveMember(ctx context.Context, actor user.Principal, teamID, userID string) error {
	ctx, span := startUsecaseSpan(ctx, "RosterService.RemoveMember")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	teamID = strings.TrimSpace(teamID)
	userID = strings.TrimSpace(userID)
	if teamID == "" || userID == "" {
		return fmt.Errorf("%w: team id and user id are required", ErrInvalidInput)
	}

	err := s.locks.Do(ctx, teamLockKey(teamID), func() error {
		t, err := s.loadTeam(ctx, teamID)
		if err != nil {
			return err
		}

		selfLeave := actor.UserID == userID
		if !selfLeave && t.CaptainID != actor.UserID && !actor.IsAdmin() {
			return fmt.Errorf("%w: only the captain may remove members from team=%s", ErrUnauthorized, teamID)
		}
		if userID == t.CaptainID {
			return fmt.Errorf("%w: the captain cannot leave team=%s, disband it instead", ErrInvalidTransition, teamID)
		}

		if _, exists, err := s.teamRepo.GetMember(ctx, teamID, userID); err != nil {
			return wrapStoreErr(err, "get team member")
		} else if !exists {
			return fmt.Errorf("%w: user=%s is not on team=%s", ErrNotFound, userID, teamID)
		}

		if err := s.teamRepo.RemoveMember(ctx, teamID, userID); err != nil {
			return wrapStoreErr(err, "remove team member")
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "team member removed", "team_id", teamID, "user_id", userID)

	return nil
}

// DisbandTeam deactivates the team, clears its roster and cancels its
// open matchmaking requests so nobody challenges a dead team.
func (s *RosterService) DisbandTeam(ctx context.Context, actor user.Principal, teamID string) error {
	ctx, span := startUsecaseSpan(ctx, "RosterService.DisbandTeam")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	err := s.locks.Do(ctx, teamLockKey(teamID), func() error {
		t, err := s.loadTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if t.CaptainID != actor.UserID && !actor.IsAdmin() {
			return fmt.Errorf("%w: only the captain may disband team=%s", ErrUnauthorized, teamID)
		}
		if !t.Active {
			return nil
		}

		t.Active = false
		t.UpdatedAt = s.now().UTC()
		if err := s.teamRepo.Update(ctx, t); err != nil {
			return wrapStoreErr(err, "update team")
		}
		if err := s.teamRepo.RemoveAllMembers(ctx, teamID); err != nil {
			return wrapStoreErr(err, "remove team members")
		}

		return s.cancelOpenRequests(ctx, teamID)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "team disbanded", "team_id", teamID)

	return nil
}

func (s *RosterService) cancelOpenRequests(ctx context.Context, teamID string) error {
	if s.matchRepo == nil {
		return nil
	}

	requests, err := s.matchRepo.ListRequestsByTeam(ctx, teamID)
	if err != nil {
		return wrapStoreErr(err, "list match requests by team")
	}

	now := s.now().UTC()
	for _, r := range requests {
		if r.Status != matchmaking.RequestOpen {
			continue
		}
		r.Status = matchmaking.RequestCancelled
		r.UpdatedAt = now
		if err := s.matchRepo.UpdateRequest(ctx, r); err != nil {
			return wrapStoreErr(err, "cancel match request")
		}
	}

	return nil
}

func (s *RosterService) loadTeam(ctx context.Context, teamID string) (team.Team, error) {
	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, wrapStoreErr(err, "get team")
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	return item, nil
}
