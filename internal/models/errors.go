package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConfigMissing       = errors.New("game configuration missing")
	ErrConcurrencyConflict = errors.New("concurrent modification")
	ErrNotFound            = errors.New("not found")
)

// Session state errors. All of them match ErrSessionState.
var (
	ErrSessionState     = errors.New("invalid session state")
	ErrAlreadyRevealed  = fmt.Errorf("%w: tile already revealed", ErrSessionState)
	ErrSessionNotActive = fmt.Errorf("%w: session is not active", ErrSessionState)
	ErrNoTilesRevealed  = fmt.Errorf("%w: no tiles revealed", ErrSessionState)
)

var (
	ErrSessionNotFound = fmt.Errorf("game session %w", ErrNotFound)
	ErrBetNotFound     = fmt.Errorf("bet %w", ErrNotFound)

	// ErrDuplicateBet is returned when a reservation already exists for a bet id.
	ErrDuplicateBet = errors.New("bet id already used")
	// ErrAlreadySettled is returned when settling a reservation that is closed.
	ErrAlreadySettled = errors.New("bet already settled")
	// ErrBetInProgress means a bet with this id is reserved but not yet settled.
	ErrBetInProgress = fmt.Errorf("%w: bet is still being settled", ErrConcurrencyConflict)
)

// ValidationError describes a rejected input. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsSessionState(err error) bool {
	return errors.Is(err, ErrSessionState)
}

// IsRetryable reports whether the caller may retry the same request, with the
// same bet or session id, after re-reading state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
