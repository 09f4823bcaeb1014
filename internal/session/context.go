package session

import (
	"sync"
	"time"

	"github.com/yousuf/tracebox/internal/stacktrace"
)

// SessionContext represents one client session's isolate context. It owns
// the trace registry, so the hidden-slot key used to chain traces is stable
// for the session's lifetime and never shared with another session.
type SessionContext struct {
	SessionID string
	Traces    *stacktrace.Registry

	mu           sync.Mutex
	lastAccessed time.Time
}

// NewSessionContext creates a new session context with its own trace
// registry.
func NewSessionContext(sessionID string) *SessionContext {
	return &SessionContext{
		SessionID:    sessionID,
		Traces:       stacktrace.NewRegistry(),
		lastAccessed: time.Now(),
	}
}

// UpdateLastAccessed records session activity.
func (c *SessionContext) UpdateLastAccessed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAccessed = time.Now()
}

// LastAccessed returns the time of the most recent activity.
func (c *SessionContext) LastAccessed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAccessed
}
