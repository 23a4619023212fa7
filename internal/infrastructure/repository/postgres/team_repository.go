package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fieldmatch/fieldmatch/internal/domain/team"
	qb "github.com/fieldmatch/fieldmatch/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// CreateWithCaptain inserts the team and its captain membership in one
// transaction so a team never exists without its captain on the roster.
func (r *TeamRepository) CreateWithCaptain(ctx context.Context, item team.Team, captain team.Member) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for team create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	teamQuery, teamArgs, err := qb.InsertInto("teams").
		Columns("id", "name", "captain_id", "max_players", "skill_level", "home_field_id", "active", "created_at", "updated_at").
		Values(item.ID, item.Name, item.CaptainID, item.MaxPlayers, item.SkillLevel, item.HomeFieldID, item.Active, item.CreatedAt, item.UpdatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert team query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, teamQuery, teamArgs...); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}

	memberQuery, memberArgs, err := qb.InsertInto("team_members").
		Columns("team_id", "user_id", "role", "status", "joined_at").
		Values(captain.TeamID, captain.UserID, string(captain.Role), string(captain.Status), captain.JoinedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert captain query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, memberQuery, memberArgs...); err != nil {
		if isUniqueViolation(err, "") {
			return team.ErrMemberExists
		}
		return fmt.Errorf("insert captain membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit team create tx: %w", err)
	}

	return nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *TeamRepository) Update(ctx context.Context, item team.Team) error {
	query, args, err := qb.Update("teams").
		Set("name", item.Name).
		Set("captain_id", item.CaptainID).
		Set("max_players", item.MaxPlayers).
		Set("skill_level", item.SkillLevel).
		Set("home_field_id", item.HomeFieldID).
		Set("active", item.Active).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update team query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update team rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("team %s does not exist", item.ID)
	}

	return nil
}

func (r *TeamRepository) AddMember(ctx context.Context, item team.Member) error {
	query, args, err := qb.InsertInto("team_members").
		Columns("team_id", "user_id", "role", "status", "joined_at").
		Values(item.TeamID, item.UserID, string(item.Role), string(item.Status), item.JoinedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert member query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "") {
			return team.ErrMemberExists
		}
		return fmt.Errorf("insert team member: %w", err)
	}

	return nil
}

func (r *TeamRepository) GetMember(ctx context.Context, teamID, userID string) (team.Member, bool, error) {
	query, args, err := qb.Select("*").From("team_members").
		Where(
			qb.Eq("team_id", teamID),
			qb.Eq("user_id", userID),
		).
		ToSQL()
	if err != nil {
		return team.Member{}, false, fmt.Errorf("build get member query: %w", err)
	}

	var row teamMemberTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Member{}, false, nil
		}
		return team.Member{}, false, fmt.Errorf("get team member: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *TeamRepository) UpdateMember(ctx context.Context, item team.Member) error {
	query, args, err := qb.Update("team_members").
		Set("role", string(item.Role)).
		Set("status", string(item.Status)).
		Where(
			qb.Eq("team_id", item.TeamID),
			qb.Eq("user_id", item.UserID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update member query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update team member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update team member rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("member %s/%s does not exist", item.TeamID, item.UserID)
	}

	return nil
}

func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	const query = `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, teamID, userID); err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}

	return nil
}

func (r *TeamRepository) RemoveAllMembers(ctx context.Context, teamID string) error {
	const query = `DELETE FROM team_members WHERE team_id = $1`
	if _, err := r.db.ExecContext(ctx, query, teamID); err != nil {
		return fmt.Errorf("delete team members: %w", err)
	}

	return nil
}

func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]team.Member, error) {
	query, args, err := qb.Select("*").From("team_members").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list members query: %w", err)
	}

	var rows []teamMemberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}

	out := make([]team.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *TeamRepository) CountActiveMembers(ctx context.Context, teamID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("team_members").
		Where(
			qb.Eq("team_id", teamID),
			qb.Eq("status", string(team.MemberActive)),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count members query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count active members: %w", err)
	}

	return count, nil
}
