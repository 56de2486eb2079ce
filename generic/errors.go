/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Argument errors - Malformed loan parameters, bad period indexes
  2. Frequency errors - Recurrence rules with no conversion rule
  3. Precondition errors - Required account references missing
  4. Store errors - Ledger persistence failures

USAGE:
  Callers match with errors.Is / errors.As:

    if errors.Is(err, generic.ErrInvalidArgument) {
        var argErr *generic.InvalidArgumentError
        errors.As(err, &argErr)
        fmt.Println("bad field:", argErr.Field)
    }

SEE ALSO:
  - ledger.go: Uses store errors
  - loan/amortization.go: Returns InvalidArgumentError
  - loan/conversion.go: Returns UnsupportedFrequencyError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidArgument is returned for malformed loan parameters: negative
	// principal, zero-length term, non-positive period index. Values are
	// never silently clamped.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedFrequency is returned when a recurrence rule reaches
	// logic that has no rule for it. Defaulting would misalign every
	// future occurrence, so nothing is produced.
	ErrUnsupportedFrequency = errors.New("unsupported frequency")

	// ErrAccountRequired is returned when a required account reference is
	// empty. Account selection is validated upstream; reaching the engine
	// without one is a caller bug.
	ErrAccountRequired = errors.New("account required")

	// ErrDuplicateIdempotencyKey is returned when a template with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrTemplateNotFound is returned when a scheduled transaction doesn't exist.
	ErrTemplateNotFound = errors.New("scheduled transaction not found")

	// ErrTransactionFailed is returned when templates cannot be persisted.
	ErrTransactionFailed = errors.New("transaction failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidArgumentError names the offending field so a caller can point the
// user at it.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// Invalid is shorthand for &InvalidArgumentError{...}.
func Invalid(field, format string, args ...any) error {
	return &InvalidArgumentError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedFrequencyError reports the recurrence kind that had no rule.
type UnsupportedFrequencyError struct {
	Kind FrequencyKind
	Op   string
}

func (e *UnsupportedFrequencyError) Error() string {
	return fmt.Sprintf("%s: unsupported frequency %q", e.Op, e.Kind)
}

func (e *UnsupportedFrequencyError) Unwrap() error {
	return ErrUnsupportedFrequency
}

// AccountRequiredError names the missing account role.
type AccountRequiredError struct {
	Role string
}

func (e *AccountRequiredError) Error() string {
	return fmt.Sprintf("account required: %s", e.Role)
}

func (e *AccountRequiredError) Unwrap() error {
	return ErrAccountRequired
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrUnsupportedFrequency) ||
		errors.Is(err, ErrAccountRequired)
}

// IsConflict returns true if the write collided with an earlier one.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}
