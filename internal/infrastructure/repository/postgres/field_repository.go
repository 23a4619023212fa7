package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fieldmatch/fieldmatch/internal/domain/field"
	qb "github.com/fieldmatch/fieldmatch/internal/platform/querybuilder"
)

type FieldRepository struct {
	db *sqlx.DB
}

func NewFieldRepository(db *sqlx.DB) *FieldRepository {
	return &FieldRepository{db: db}
}

func (r *FieldRepository) Create(ctx context.Context, item field.Field) error {
	hours, err := marshalHours(item.Hours)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertInto("fields").
		Columns("id", "owner_id", "name", "location", "hourly_rate", "capacity", "status", "operating_hours", "created_at", "updated_at").
		Values(item.ID, item.OwnerID, item.Name, item.Location, item.HourlyRate, item.Capacity, string(item.Status), hours, item.CreatedAt, item.UpdatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert field query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert field: %w", err)
	}

	return nil
}

func (r *FieldRepository) GetByID(ctx context.Context, fieldID string) (field.Field, bool, error) {
	query, args, err := qb.Select("*").From("fields").
		Where(qb.Eq("id", fieldID)).
		ToSQL()
	if err != nil {
		return field.Field{}, false, fmt.Errorf("build get field query: %w", err)
	}

	var row fieldTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return field.Field{}, false, nil
		}
		return field.Field{}, false, fmt.Errorf("get field: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return field.Field{}, false, err
	}

	return item, true, nil
}

func (r *FieldRepository) Update(ctx context.Context, item field.Field) error {
	hours, err := marshalHours(item.Hours)
	if err != nil {
		return err
	}

	query, args, err := qb.Update("fields").
		Set("owner_id", item.OwnerID).
		Set("name", item.Name).
		Set("location", item.Location).
		Set("hourly_rate", item.HourlyRate).
		Set("capacity", item.Capacity).
		Set("status", string(item.Status)).
		Set("operating_hours", hours).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update field query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update field: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update field rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("field %s does not exist", item.ID)
	}

	return nil
}

func (r *FieldRepository) List(ctx context.Context) ([]field.Field, error) {
	query, args, err := qb.Select("*").From("fields").
		OrderBy("name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fields query: %w", err)
	}

	var rows []fieldTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}

	out := make([]field.Field, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}

	return out, nil
}
