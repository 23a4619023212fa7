package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fieldmatch/fieldmatch/internal/domain/matchmaking"
	qb "github.com/fieldmatch/fieldmatch/internal/platform/querybuilder"
)

type MatchmakingRepository struct {
	db *sqlx.DB
}

func NewMatchmakingRepository(db *sqlx.DB) *MatchmakingRepository {
	return &MatchmakingRepository{db: db}
}

func (r *MatchmakingRepository) CreateRequest(ctx context.Context, item matchmaking.Request) error {
	query, args, err := qb.InsertInto("match_requests").
		Columns(
			"id", "captain_id", "team_id", "team_name", "skill_level", "location",
			"players_needed", "preferred_field_id", "preferred_start_at", "preferred_end_at",
			"status", "created_at", "updated_at",
		).
		Values(
			item.ID, item.CaptainID, item.TeamID, item.TeamName, item.SkillLevel, item.Location,
			item.PlayersNeeded, item.PreferredField, item.PreferredSlot.Start, item.PreferredSlot.End,
			string(item.Status), item.CreatedAt, item.UpdatedAt,
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert match request query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match request: %w", err)
	}

	return nil
}

func (r *MatchmakingRepository) GetRequest(ctx context.Context, requestID string) (matchmaking.Request, bool, error) {
	query, args, err := qb.Select("*").From("match_requests").
		Where(qb.Eq("id", requestID)).
		ToSQL()
	if err != nil {
		return matchmaking.Request{}, false, fmt.Errorf("build get match request query: %w", err)
	}

	var row matchRequestTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return matchmaking.Request{}, false, nil
		}
		return matchmaking.Request{}, false, fmt.Errorf("get match request: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *MatchmakingRepository) UpdateRequest(ctx context.Context, item matchmaking.Request) error {
	query, args, err := qb.Update("match_requests").
		Set("status", string(item.Status)).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match request query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update match request rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("match request %s does not exist", item.ID)
	}

	return nil
}

func (r *MatchmakingRepository) ListRequestsByStatus(ctx context.Context, status matchmaking.RequestStatus) ([]matchmaking.Request, error) {
	query, args, err := qb.Select("*").From("match_requests").
		Where(qb.Eq("status", string(status))).
		OrderBy("created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list requests by status query: %w", err)
	}

	return r.selectRequests(ctx, query, args)
}

func (r *MatchmakingRepository) ListRequestsByTeam(ctx context.Context, teamID string) ([]matchmaking.Request, error) {
	query, args, err := qb.Select("*").From("match_requests").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list requests by team query: %w", err)
	}

	return r.selectRequests(ctx, query, args)
}

func (r *MatchmakingRepository) CreateChallenge(ctx context.Context, item matchmaking.Challenge) error {
	query, args, err := qb.InsertInto("match_challenges").
		Columns("id", "request_id", "challenger_id", "challenger_team_id", "message", "status", "created_at", "updated_at").
		Values(item.ID, item.RequestID, item.ChallengerID, item.ChallengerTeamID, item.Message, string(item.Status), item.CreatedAt, item.UpdatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert challenge query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}

	return nil
}

func (r *MatchmakingRepository) GetChallenge(ctx context.Context, challengeID string) (matchmaking.Challenge, bool, error) {
	query, args, err := qb.Select("*").From("match_challenges").
		Where(qb.Eq("id", challengeID)).
		ToSQL()
	if err != nil {
		return matchmaking.Challenge{}, false, fmt.Errorf("build get challenge query: %w", err)
	}

	var row challengeTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return matchmaking.Challenge{}, false, nil
		}
		return matchmaking.Challenge{}, false, fmt.Errorf("get challenge: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *MatchmakingRepository) UpdateChallenge(ctx context.Context, item matchmaking.Challenge) error {
	query, args, err := qb.Update("match_challenges").
		Set("status", string(item.Status)).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update challenge query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update challenge: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update challenge rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("challenge %s does not exist", item.ID)
	}

	return nil
}

func (r *MatchmakingRepository) ListChallengesByRequest(ctx context.Context, requestID string) ([]matchmaking.Challenge, error) {
	query, args, err := qb.Select("*").From("match_challenges").
		Where(qb.Eq("request_id", requestID)).
		OrderBy("created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list challenges query: %w", err)
	}

	var rows []challengeTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}

	out := make([]matchmaking.Challenge, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *MatchmakingRepository) selectRequests(ctx context.Context, query string, args []any) ([]matchmaking.Request, error) {
	var rows []matchRequestTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match requests: %w", err)
	}

	out := make([]matchmaking.Request, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}
