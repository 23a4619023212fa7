package usecase

import (
	"context"
	"errors"
	"fmt"
)

// wrapStoreErr normalizes repository failures: a missed deadline
// surfaces as ErrTimeout so callers can branch on it, anything else is
// wrapped with the failing operation.
func wrapStoreErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
