package analytics

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event is one analytics event.
type Event struct {
	// ID is a UUIDv7 assigned at emission.
	ID uuid.UUID
	// TS is the UTC emission time.
	TS time.Time
	// Name is the event name, e.g. waitlist_signup.
	Name string
	// FormID identifies the form that produced the event, when any.
	FormID string
	// Data carries the event payload. Sinks decide what to redact.
	Data map[string]string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.ID == uuid.Nil {
		return errors.New("event id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	if e.Name == "" {
		return errors.New("event name is required")
	}
	return nil
}
