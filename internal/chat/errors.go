// Package chat implements room lifecycle, message storage and bench invites
// on top of the durable store.
package chat

import "errors"

// Rejection categories surfaced to callers. Services wrap these with detail
// (fmt.Errorf("%w: room is full", ErrStateConflict)); transports match with
// errors.Is to pick a status code and machine-readable reason.
var (
	// ErrValidation covers malformed or empty input. No state change.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized covers acting on a resource the caller is not a
	// participant of. No state change.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStateConflict covers full, inactive or expired rooms, exhausted
	// invites and similar rejections the caller may retry after.
	ErrStateConflict = errors.New("state conflict")
	// ErrNotFound covers missing rooms, invites and items, surfaced
	// distinctly from state conflicts.
	ErrNotFound = errors.New("not found")
)

// Reason returns the machine-readable reason string for a rejection.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
