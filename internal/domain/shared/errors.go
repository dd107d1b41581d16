// Package shared contains common domain types, errors and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState = errors.New("invalid state")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "kit", "leaderboard"
	Op      string // Operation that failed, e.g., "Aggregate", "Toggle"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Errorf builds a domain error with a formatted message.
func Errorf(domain, op string, kind error, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, kind, fmt.Sprintf(format, args...))
}

// Progress domain errors
var (
	ErrModuleNotFound      = NewDomainError("progress", "Find", ErrNotFound, "module not found")
	ErrInvalidLessonTotal  = NewDomainError("progress", "Validate", ErrInvalidInput, "total lessons must be positive")
	ErrLessonsOutOfRange   = NewDomainError("progress", "Validate", ErrValueOutOfRange, "completed lessons exceed total lessons")
	ErrModuleAlreadyPassed = NewDomainError("progress", "CompleteLesson", ErrValueOutOfRange, "all lessons of the module are already completed")
)

// Level domain errors
var (
	ErrNegativeXP        = NewDomainError("level", "Compute", ErrNegativeValue, "xp cannot be negative")
	ErrInvalidLevelTable = NewDomainError("level", "NewTable", ErrInvalidInput, "invalid level threshold table")
)

// Badge domain errors
var (
	ErrUnknownRule     = NewDomainError("badge", "Build", ErrNotFound, "unknown badge rule")
	ErrInvalidRuleArgs = NewDomainError("badge", "Build", ErrInvalidInput, "invalid badge rule parameters")
	ErrDuplicateBadge  = NewDomainError("badge", "NewCatalog", ErrAlreadyExists, "duplicate badge id")
)

// Kit domain errors
var (
	ErrItemNotFound  = NewDomainError("kit", "Find", ErrNotFound, "kit item not found")
	ErrEmptyCatalog  = NewDomainError("kit", "Validate", ErrInvalidInput, "kit catalog is empty")
	ErrDuplicateItem = NewDomainError("kit", "NewCatalog", ErrAlreadyExists, "duplicate kit item id")
)

// Leaderboard domain errors
var (
	ErrNegativePoints = NewDomainError("leaderboard", "Rank", ErrNegativeValue, "points and badge count cannot be negative")
)

// Session errors
var (
	ErrSessionNotFound = NewDomainError("session", "Find", ErrNotFound, "session not found")
	ErrUnknownEvent    = NewDomainError("session", "Decode", ErrInvalidFormat, "unknown event kind")
	ErrSessionExists   = NewDomainError("session", "Create", ErrAlreadyExists, "session already exists")
	ErrSequenceGap     = NewDomainError("session", "Append", ErrInvalidState, "event sequence does not follow the journal")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
