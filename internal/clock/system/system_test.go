// Package system exercises the real-time clock adapter.
package system

import (
	"testing"
	"time"
)

// TestClockNowUTC ensures the clock returns UTC timestamps.
func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

// TestClockAfterFuncFires checks scheduled callbacks run.
func TestClockAfterFuncFires(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{})
	New().AfterFunc(time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expected callback to fire")
	}
}

// TestClockAfterFuncStop checks a stopped timer never fires.
func TestClockAfterFuncStop(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{}, 1)
	timer := New().AfterFunc(time.Hour, func() { fired <- struct{}{} })
	if !timer.Stop() {
		t.Fatal("expected Stop to report an active timer")
	}
	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	default:
	}
}
