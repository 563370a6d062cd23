// Package system provides the wall-clock implementation of the clock interfaces.
package system

import "time"

// Timer is the subset of *time.Timer used by schedulers.
type Timer interface {
	Stop() bool
}

// Clock reads the wall clock and schedules callbacks with time.AfterFunc.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// AfterFunc runs f in its own goroutine once d has elapsed.
func (Clock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
