package matchresult

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateResult is returned when a result already exists for
	// the booking.
	ErrDuplicateResult = errors.New("match result already exists for booking")
	// ErrDuplicateRating is returned when a rating already exists for
	// the (rater, rated, booking, category) tuple.
	ErrDuplicateRating = errors.New("rating already exists")
)

// Repository describes match result and rating persistence needs from
// use cases.
type Repository interface {
	CreateResult(ctx context.Context, item Result) error
	GetResultByBooking(ctx context.Context, bookingID string) (Result, bool, error)
	UpdateResult(ctx context.Context, item Result) error

	CreateRating(ctx context.Context, item Rating) error
	ListRatingsByRatedTeam(ctx context.Context, teamID string) ([]Rating, error)
	AverageRatingsByTeam(ctx context.Context, teamID string) ([]CategoryAverage, error)
}
