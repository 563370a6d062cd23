// Package uuid provides ID generation helpers.
package uuid

import (
	"github.com/google/uuid"
)

// Generator creates time-ordered UUIDs for request, visitor and event IDs.
type Generator struct{}

// New creates a new Generator.
func New() Generator {
	return Generator{}
}

// NewRawID returns a UUIDv7, falling back to a random UUIDv4 if the clock
// source fails.
func (Generator) NewRawID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// NewID returns NewRawID in canonical string form.
func (g Generator) NewID() string {
	return g.NewRawID().String()
}

// Valid reports whether s parses as a UUID. Used to reject forged visitor cookies.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
