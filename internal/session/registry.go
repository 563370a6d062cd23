// Package session keeps one waitlist.FormSession per visitor and form.
package session

import (
	"sync"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/JakeFAU/mcatedge-landing/internal/waitlist"
)

// LatchFactory builds the latch for a session key.
type LatchFactory func(key string) waitlist.Latch

// LocalLatches returns process-local latches.
func LocalLatches() LatchFactory {
	return func(string) waitlist.Latch { return &waitlist.LocalLatch{} }
}

// RedisLatches returns latches stored in Redis under prefix+key.
func RedisLatches(client backend.UniversalClient, prefix string, ttl time.Duration) LatchFactory {
	return func(key string) waitlist.Latch {
		return NewRedisLatch(client, prefix+"latch:"+key, ttl)
	}
}

type entry struct {
	session *waitlist.FormSession
	refs    int
}

// Registry hands out shared FormSessions. Sessions are reference counted and
// dropped once no request holds them.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	latches  LatchFactory
}

// NewRegistry constructs a Registry. A nil factory uses local latches.
func NewRegistry(latches LatchFactory) *Registry {
	if latches == nil {
		latches = LocalLatches()
	}
	return &Registry{
		sessions: make(map[string]*entry),
		latches:  latches,
	}
}

// Key returns the registry key for a visitor and form.
func Key(visitorID, formID string) string {
	return visitorID + ":" + formID
}

// Acquire returns the session for visitorID and formID and a release func that
// must be called once the caller is done with it.
func (r *Registry) Acquire(visitorID, formID string) (*waitlist.FormSession, func()) {
	key := Key(visitorID, formID)

	r.mu.Lock()
	e, ok := r.sessions[key]
	if !ok {
		e = &entry{session: waitlist.NewFormSession(formID, r.latches(key))}
		r.sessions[key] = e
	}
	e.refs++
	r.mu.Unlock()

	var once sync.Once
	return e.session, func() {
		once.Do(func() { r.release(key, e) })
	}
}

func (r *Registry) release(key string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	if e.refs <= 0 && r.sessions[key] == e {
		delete(r.sessions, key)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
