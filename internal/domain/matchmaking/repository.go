package matchmaking

import "context"

// Repository describes matchmaking persistence needs from use cases.
type Repository interface {
	CreateRequest(ctx context.Context, item Request) error
	GetRequest(ctx context.Context, requestID string) (Request, bool, error)
	UpdateRequest(ctx context.Context, item Request) error
	ListRequestsByStatus(ctx context.Context, status RequestStatus) ([]Request, error)
	ListRequestsByTeam(ctx context.Context, teamID string) ([]Request, error)

	CreateChallenge(ctx context.Context, item Challenge) error
	GetChallenge(ctx context.Context, challengeID string) (Challenge, bool, error)
	UpdateChallenge(ctx context.Context, item Challenge) error
	ListChallengesByRequest(ctx context.Context, requestID string) ([]Challenge, error)
}
