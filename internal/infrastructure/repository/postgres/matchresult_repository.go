package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fieldmatch/fieldmatch/internal/domain/matchresult"
	qb "github.com/fieldmatch/fieldmatch/internal/platform/querybuilder"
)

type MatchResultRepository struct {
	db *sqlx.DB
}

func NewMatchResultRepository(db *sqlx.DB) *MatchResultRepository {
	return &MatchResultRepository{db: db}
}

func (r *MatchResultRepository) CreateResult(ctx context.Context, item matchresult.Result) error {
	events, err := marshalEvents(item.Events)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertInto("match_results").
		Columns("id", "booking_id", "home_team_id", "away_team_id", "home_score", "away_score", "status", "mvp_player_id", "recorded_by", "recorded_at", "events").
		Values(item.ID, item.BookingID, item.HomeTeamID, item.AwayTeamID, item.HomeScore, item.AwayScore, string(item.Status), nullString(item.MVPPlayerID), item.RecordedBy, item.RecordedAt, events).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert match result query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "match_results_booking_id_key") {
			return matchresult.ErrDuplicateResult
		}
		return fmt.Errorf("insert match result: %w", err)
	}

	return nil
}

func (r *MatchResultRepository) GetResultByBooking(ctx context.Context, bookingID string) (matchresult.Result, bool, error) {
	query, args, err := qb.Select("*").From("match_results").
		Where(qb.Eq("booking_id", bookingID)).
		ToSQL()
	if err != nil {
		return matchresult.Result{}, false, fmt.Errorf("build get match result query: %w", err)
	}

	var row matchResultTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return matchresult.Result{}, false, nil
		}
		return matchresult.Result{}, false, fmt.Errorf("get match result: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return matchresult.Result{}, false, err
	}

	return item, true, nil
}

func (r *MatchResultRepository) UpdateResult(ctx context.Context, item matchresult.Result) error {
	events, err := marshalEvents(item.Events)
	if err != nil {
		return err
	}

	query, args, err := qb.Update("match_results").
		Set("home_score", item.HomeScore).
		Set("away_score", item.AwayScore).
		Set("status", string(item.Status)).
		Set("mvp_player_id", nullString(item.MVPPlayerID)).
		Set("recorded_by", item.RecordedBy).
		Set("recorded_at", item.RecordedAt).
		Set("events", events).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match result query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match result: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update match result rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("match result %s does not exist", item.ID)
	}

	return nil
}

func (r *MatchResultRepository) CreateRating(ctx context.Context, item matchresult.Rating) error {
	query, args, err := qb.InsertInto("team_ratings").
		Columns("id", "rater_team_id", "rated_team_id", "booking_id", "score", "category", "recommended", "created_at").
		Values(item.ID, item.RaterTeamID, item.RatedTeamID, item.BookingID, item.Score, string(item.Category), item.Recommended, item.CreatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert rating query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "team_ratings_tuple_key") {
			return matchresult.ErrDuplicateRating
		}
		return fmt.Errorf("insert rating: %w", err)
	}

	return nil
}

func (r *MatchResultRepository) ListRatingsByRatedTeam(ctx context.Context, teamID string) ([]matchresult.Rating, error) {
	query, args, err := qb.Select("*").From("team_ratings").
		Where(qb.Eq("rated_team_id", teamID)).
		OrderBy("created_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list ratings query: %w", err)
	}

	var rows []ratingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}

	out := make([]matchresult.Rating, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *MatchResultRepository) AverageRatingsByTeam(ctx context.Context, teamID string) ([]matchresult.CategoryAverage, error) {
	query, args, err := qb.Select("category", "AVG(score) AS average", "COUNT(*) AS count").
		From("team_ratings").
		Where(qb.Eq("rated_team_id", teamID)).
		GroupBy("category").
		OrderBy("category").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build average ratings query: %w", err)
	}

	var rows []struct {
		Category string  `db:"category"`
		Average  float64 `db:"average"`
		Count    int     `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("average ratings: %w", err)
	}

	out := make([]matchresult.CategoryAverage, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchresult.CategoryAverage{
			Category: matchresult.RatingCategory(row.Category),
			Average:  row.Average,
			Count:    row.Count,
		})
	}

	return out, nil
}
