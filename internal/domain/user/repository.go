package user

import "context"

// Repository describes user lookups needed by use cases. Account
// creation and credentials live upstream.
type Repository interface {
	GetByID(ctx context.Context, userID string) (User, bool, error)
}
