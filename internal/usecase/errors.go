package usecase

import "errors"

// Every operation returns one of these sentinels wrapped with detail;
// callers branch with errors.Is and translate to their own surface.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("conflict")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStaleState        = errors.New("lost race to concurrent operation")
	ErrUnavailable       = errors.New("resource unavailable")
	ErrTimeout           = errors.New("store timed out")
)
