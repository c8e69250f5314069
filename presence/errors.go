/*
errors.go - Error taxonomy for the presence engine

PURPOSE:
  All error types in one place. Handlers map these onto HTTP statuses:

    ValidationError          -> 400
    ErrNotFound (and wraps)  -> 404
    ErrScheduleChanged       -> 409 (matcher staleness gate)
    ErrDuplicateEntry        -> 409 (retryable race past validation)
    everything else          -> 500

  Per-date failures inside the matcher's apply loop are NOT errors; they are
  data, reported in the result set and never propagated.

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, presence.ErrNotFound) { ... }
    var verr *presence.ValidationError
    if errors.As(err, &verr) { ... }
*/
package presence

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced user, entry or holiday
	// does not exist or is inactive.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEntry is returned when a (user, date) uniqueness violation
	// races past validation. Retryable by the caller.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrDuplicateHoliday is returned when a holiday already exists for a date.
	ErrDuplicateHoliday = errors.New("holiday already exists for date")

	// ErrEmailTaken is returned when registering or updating to an email
	// that is already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrScheduleChanged is returned by the matcher's apply staleness gate:
	// the favorite's schedule no longer matches what was previewed, so the
	// whole batch is rejected before anything is written.
	ErrScheduleChanged = errors.New("schedule has changed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports malformed input, rejected before any read or write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError identifies which kind of record was missing.
type NotFoundError struct {
	Kind string // "user", "holiday", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err is a client input problem.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err should surface as a 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrScheduleChanged) ||
		errors.Is(err, ErrDuplicateEntry) ||
		errors.Is(err, ErrDuplicateHoliday) ||
		errors.Is(err, ErrEmailTaken)
}
