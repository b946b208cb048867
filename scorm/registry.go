package scorm

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds the live runtime sessions keyed by frame identity. The real
// RTE contract wants one well-known global API object per hosting page; a
// keyed registry with explicit install/uninstall gives content the same
// contract without one frame's session ever answering another frame.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry builds an empty session registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Install creates a session for a new content frame and returns its id
func (r *Registry) Install(cfg SessionConfig) (string, *Session) {
	id := uuid.New().String()
	session := NewSession(cfg)
	r.mu.Lock()
	r.sessions[id] = session
	r.mu.Unlock()
	return id, session
}

// Lookup returns the session for a frame id, or nil
func (r *Registry) Lookup(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Uninstall removes a session when the hosting view unmounts. Any pending
// debounce timer is cancelled so the dead session cannot commit late.
func (r *Registry) Uninstall(id string) {
	r.mu.Lock()
	session := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if session != nil {
		session.Close()
	}
}

// ReapIdle terminates and removes sessions whose last content call is older
// than the cutoff. Running sessions get a final flush through Terminate so
// their element tables are not lost with the abandoned frame. Returns how
// many sessions were reaped.
func (r *Registry) ReapIdle(cutoff time.Duration) int {
	now := time.Now()

	r.mu.Lock()
	var stale []*Session
	for id, session := range r.sessions {
		if now.Sub(session.LastCallAt()) >= cutoff {
			stale = append(stale, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range stale {
		if session.State() == StateRunning {
			session.Terminate("")
		}
		session.Close()
	}
	return len(stale)
}

// Len reports how many sessions are currently installed
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
