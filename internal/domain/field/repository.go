package field

import "context"

// Repository describes field persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, item Field) error
	GetByID(ctx context.Context, fieldID string) (Field, bool, error)
	Update(ctx context.Context, item Field) error
	List(ctx context.Context) ([]Field, error)
}
