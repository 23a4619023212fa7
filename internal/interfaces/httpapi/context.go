package httpapi

import (
	"context"

	"github.com/fieldmatch/fieldmatch/internal/domain/user"
)

type contextKey string

// principalContextKey carries the actor resolved by RequireActor.
const principalContextKey contextKey = "httpapi.principal"

func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(user.Principal)
	return p, ok
}
