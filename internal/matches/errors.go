// internal/matches/errors.go

package matches

import "errors"

var (
	// Not found
	ErrMatchNotFound       = errors.New("match not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrSportNotFound       = errors.New("sport not found")

	// Permission
	ErrForbidden = errors.New("only the match creator can perform this action")

	// State preconditions (safe to retry after re-reading state)
	ErrMatchNotOpen       = errors.New("match is not open")
	ErrMatchFinished      = errors.New("match is already completed or cancelled")
	ErrMatchFull          = errors.New("match is full")
	ErrAlreadyParticipant = errors.New("user is already a participant of this match")

	// Validation (client must fix the input)
	ErrValidation = errors.New("validation failed")

	// Concurrency: lock could not be acquired in time. The caller is
	// expected to retry once with fresh state; the service never retries
	// internally.
	ErrLockTimeout = errors.New("could not lock match for update")
)
