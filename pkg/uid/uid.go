package uid

import (
	"strings"

	"github.com/google/uuid"
)

// New generates a new unique identifier.
func New() string {
	return uuid.New().String()
}

// IsValid checks if a string is a valid UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Canonical returns the form used when comparing identifiers coming from
// different sources (token claims, stored references, URL params).
// Both ObjectID hex strings and UUIDs compare case-insensitively.
func Canonical(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Equal reports whether two identifiers refer to the same record.
func Equal(a, b string) bool {
	ca := Canonical(a)
	return ca != "" && ca == Canonical(b)
}
