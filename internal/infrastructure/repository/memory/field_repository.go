package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fieldmatch/fieldmatch/internal/domain/field"
)

type FieldRepository struct {
	mu     sync.RWMutex
	fields map[string]field.Field
}

func NewFieldRepository(fields []field.Field) *FieldRepository {
	byID := make(map[string]field.Field, len(fields))
	for _, item := range fields {
		byID[item.ID] = item
	}

	return &FieldRepository{fields: byID}
}

func (r *FieldRepository) Create(_ context.Context, item field.Field) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fields[item.ID]; exists {
		return fmt.Errorf("field %s already exists", item.ID)
	}
	r.fields[item.ID] = item

	return nil
}

func (r *FieldRepository) GetByID(_ context.Context, fieldID string) (field.Field, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.fields[fieldID]
	return item, ok, nil
}

func (r *FieldRepository) Update(_ context.Context, item field.Field) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fields[item.ID]; !exists {
		return fmt.Errorf("field %s does not exist", item.ID)
	}
	r.fields[item.ID] = item

	return nil
}

func (r *FieldRepository) List(_ context.Context) ([]field.Field, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]field.Field, 0, len(r.fields))
	for _, item := range r.fields {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}
