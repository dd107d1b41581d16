// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// SessionID represents a unique session identifier (UUID format).
type SessionID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the session ID is a valid UUID.
func (s SessionID) IsValid() bool {
	return uuidRegex.MatchString(string(s))
}

// String returns the string representation.
func (s SessionID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s SessionID) IsEmpty() bool {
	return s == ""
}

// NewSessionID creates a new SessionID with validation.
func NewSessionID(id string) (SessionID, error) {
	sid := SessionID(strings.ToLower(strings.TrimSpace(id)))
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewSessionID", ErrInvalidID, "invalid session ID format")
	}
	return sid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Percent Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Percent represents a percentage in the range 0-100.
type Percent float64

// PercentOf returns part/whole as a percentage. Zero whole gives 0.
func PercentOf(part, whole int) Percent {
	if whole <= 0 {
		return 0
	}
	return Percent(100 * float64(part) / float64(whole))
}

// FromFraction converts a 0..1 fraction to a percentage.
func FromFraction(f float64) Percent {
	return Percent(100 * f)
}

// Rounded returns the percentage rounded to the nearest integer.
func (p Percent) Rounded() int {
	return int(math.Round(float64(p)))
}

// String returns the percentage formatted for display, e.g. "43%".
func (p Percent) String() string {
	return fmt.Sprintf("%d%%", p.Rounded())
}
