// Package identity issues the identifiers that distinguish live instances.
//
// Descriptors are identified by name. Instances, including clones, get a
// fresh identifier from a Generator so that two instances built from one
// descriptor are never confused in logs, persistence or the render scheduler.
package identity

import (
	"github.com/google/uuid"
)

// Generator produces unique instance identifiers.
// Implemented by UUIDv7Generator (production) and testutil.SequentialIDs (tests).
type Generator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, so identifiers of
// instances created later sort later. Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Default is the generator used when none is configured.
var Default Generator = UUIDv7Generator{}

// Valid reports whether id parses as a UUID.
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
