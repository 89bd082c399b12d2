package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxIdle bounds how long an untouched browser session is kept.
const DefaultMaxIdle = 24 * time.Hour

// Registry maps browser session ids to their in-memory Session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxIdle  time.Duration
}

func NewRegistry(maxIdle time.Duration) *Registry {
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	return &Registry{
		sessions: make(map[string]*Session),
		maxIdle:  maxIdle,
	}
}

// Get returns the session for id, creating a new one under a fresh id when
// id is empty or unknown. The returned bool reports whether it was created.
// Idle sessions are pruned on creation; there is no background sweeper.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.touch()
		return s, false
	}

	r.pruneLocked()

	s := NewSession(uuid.New().String())
	r.sessions[s.ID] = s
	return s, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) pruneLocked() {
	cutoff := time.Now().Add(-r.maxIdle)
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
