package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldmatch/fieldmatch/internal/domain/field"
	"github.com/fieldmatch/fieldmatch/internal/domain/user"
	"github.com/fieldmatch/fieldmatch/internal/platform/cache"
	idgen "github.com/fieldmatch/fieldmatch/internal/platform/id"
	"github.com/fieldmatch/fieldmatch/internal/platform/logging"
)

// CreateFieldInput is the incoming payload for registering a field.
type CreateFieldInput struct {
	Name       string
	Location   string
	HourlyRate float64
	Capacity   int
	Hours      field.OperatingHours
}

// UpdateFieldInput carries the mutable attributes of a field. Nil
// pointers leave the stored value untouched.
type UpdateFieldInput struct {
	Name       *string
	Location   *string
	HourlyRate *float64
	Capacity   *int
	Status     *field.Status
	Hours      field.OperatingHours
}

type FieldService struct {
	fieldRepo field.Repository
	cache     *cache.Store
	idGen     idgen.Generator
	logger    *logging.Logger
	now       func() time.Time
}

func NewFieldService(
	fieldRepo field.Repository,
	store *cache.Store,
	idGen idgen.Generator,
	logger *logging.Logger,
) *FieldService {
	if logger == nil {
		logger = logging.Default()
	}

	return &FieldService{
		fieldRepo: fieldRepo,
		cache:     store,
		idGen:     idGen,
		logger:    logger,
		now:       time.Now,
	}
}

func fieldCacheKey(fieldID string) string {
	return "field:" + fieldID
}

func (s *FieldService) CreateField(ctx context.Context, actor user.Principal, input CreateFieldInput) (field.Field, error) {
	ctx, span := startUsecaseSpan(ctx, "FieldService.CreateField")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return field.Field{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Location = strings.TrimSpace(input.Location)
	if input.Hours == nil {
		input.Hours = field.FullWeek()
	}

	fieldID, err := s.idGen.NewID()
	if err != nil {
		return field.Field{}, fmt.Errorf("generate field id: %w", err)
	}

	now := s.now().UTC()
	item := field.Field{
		ID:         fieldID,
		OwnerID:    actor.UserID,
		Name:       input.Name,
		Location:   input.Location,
		HourlyRate: input.HourlyRate,
		Capacity:   input.Capacity,
		Status:     field.StatusAvailable,
		Hours:      input.Hours,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := item.Validate(); err != nil {
		return field.Field{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.fieldRepo.Create(ctx, item); err != nil {
		return field.Field{}, wrapStoreErr(err, "create field")
	}

	s.logger.InfoContext(ctx, "field created", "field_id", item.ID, "owner_id", item.OwnerID)

	return item, nil
}

// GetField reads through the process-local cache; concurrent misses on
// the same field collapse into one repository lookup.
func (s *FieldService) GetField(ctx context.Context, fieldID string) (field.Field, error) {
	ctx, span := startUsecaseSpan(ctx, "FieldService.GetField")
	defer span.End()

	fieldID = strings.TrimSpace(fieldID)
	if fieldID == "" {
		return field.Field{}, fmt.Errorf("%w: field id is required", ErrInvalidInput)
	}

	if s.cache == nil {
		return s.loadField(ctx, fieldID)
	}

	value, err := s.cache.GetOrLoad(ctx, fieldCacheKey(fieldID), func(ctx context.Context) (any, error) {
		return s.loadField(ctx, fieldID)
	})
	if err != nil {
		return field.Field{}, err
	}

	item, ok := value.(field.Field)
	if !ok {
		return field.Field{}, fmt.Errorf("unexpected cache entry for field=%s", fieldID)
	}

	return item, nil
}

func (s *FieldService) loadField(ctx context.Context, fieldID string) (field.Field, error) {
	item, exists, err := s.fieldRepo.GetByID(ctx, fieldID)
	if err != nil {
		return field.Field{}, wrapStoreErr(err, "get field")
	}
	if !exists {
		return field.Field{}, fmt.Errorf("%w: field=%s", ErrNotFound, fieldID)
	}
	return item, nil
}

func (s *FieldService) ListFields(ctx context.Context) ([]field.Field, error) {
	ctx, span := startUsecaseSpan(ctx, "FieldService.ListFields")
	defer span.End()

	fields, err := s.fieldRepo.List(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "list fields")
	}

	return fields, nil
}

// UpdateField applies partial changes. Only the field owner or an admin
// may mutate a field.
func (s *FieldService) UpdateField(ctx context.Context, actor user.Principal, fieldID string, input UpdateFieldInput) (field.Field, error) {
	ctx, span := startUsecaseSpan(ctx, "FieldService.UpdateField")
	defer span.End()

	if err := actor.Validate(); err != nil {
		return field.Field{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	fieldID = strings.TrimSpace(fieldID)
	if fieldID == "" {
		return field.Field{}, fmt.Errorf("%w: field id is required", ErrInvalidInput)
	}

	item, err := s.loadField(ctx, fieldID)
	if err != nil {
		return field.Field{}, err
	}
	if item.OwnerID != actor.UserID && !actor.IsAdmin() {
		return field.Field{}, fmt.Errorf("%w: only the field owner may update field=%s", ErrUnauthorized, fieldID)
	}

	if input.Name != nil {
		item.Name = strings.TrimSpace(*input.Name)
	}
	if input.Location != nil {
		item.Location = strings.TrimSpace(*input.Location)
	}
	if input.HourlyRate != nil {
		item.HourlyRate = *input.HourlyRate
	}
	if input.Capacity != nil {
		item.Capacity = *input.Capacity
	}
	if input.Status != nil {
		item.Status = *input.Status
	}
	if input.Hours != nil {
		item.Hours = input.Hours
	}
	item.UpdatedAt = s.now().UTC()

	if err := item.Validate(); err != nil {
		return field.Field{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.fieldRepo.Update(ctx, item); err != nil {
		return field.Field{}, wrapStoreErr(err, "update field")
	}

	if s.cache != nil {
		s.cache.Delete(ctx, fieldCacheKey(fieldID))
	}

	s.logger.InfoContext(ctx, "field updated", "field_id", fieldID)

	return item, nil
}
