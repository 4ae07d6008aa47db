package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kvollmer/workdesk/internal/google"
	"github.com/kvollmer/workdesk/internal/instrumentation"
	"github.com/kvollmer/workdesk/internal/logging"
)

// DefaultSessionTimeout is how long a session stays in the registry before
// the sweep drops it. MCP clients that vanish without closing their session
// never fire the unregister hook, so stale entries expire here instead.
const DefaultSessionTimeout = 24 * time.Hour

// sessionInfo tracks per-session metadata
type sessionInfo struct {
	account   string
	startedAt time.Time
}

// SessionTracker keeps a registry of active MCP sessions and which Google
// account each one authenticated as. It feeds the active-session gauge and
// lets operators enumerate live sessions. Attach wires it into the MCP
// server's session lifecycle hooks.
type SessionTracker struct {
	sessions       map[string]*sessionInfo // Maps session ID to session info
	mu             sync.RWMutex
	cleanupTicker  *time.Ticker
	cleanupDone    chan struct{}
	sessionTimeout time.Duration
	metrics        *instrumentation.Metrics
	logger         *slog.Logger
}

// NewSessionTracker creates a session tracker with the default timeout.
func NewSessionTracker(logger *slog.Logger) *SessionTracker {
	return NewSessionTrackerWithTimeout(DefaultSessionTimeout, logger)
}

// NewSessionTrackerWithTimeout creates a session tracker with a custom timeout.
func NewSessionTrackerWithTimeout(timeout time.Duration, logger *slog.Logger) *SessionTracker {
	if logger == nil {
		logger = slog.Default()
	}

	t := &SessionTracker{
		sessions:       make(map[string]*sessionInfo),
		cleanupTicker:  time.NewTicker(10 * time.Minute),
		cleanupDone:    make(chan struct{}),
		sessionTimeout: timeout,
		logger:         logger,
	}

	// Start cleanup goroutine
	go t.sweepLoop()

	return t
}

// SetMetrics enables the active-session gauge. Call before Attach.
func (t *SessionTracker) SetMetrics(m *instrumentation.Metrics) {
	t.metrics = m
}

// Attach registers the tracker on the MCP server's session hooks. The
// register hook runs with the request context, so the account injected by
// the OAuth middleware is available for attribution.
func (t *SessionTracker) Attach(hooks *mcpserver.Hooks) {
	hooks.AddOnRegisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		account, _ := google.AccountFromContext(ctx)
		t.Add(ctx, session.SessionID(), account)
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		t.Remove(ctx, session.SessionID())
	})
}

// Add records a new session. An empty account means the session carries no
// user identity (stdio transport, or validation without user info).
func (t *SessionTracker) Add(ctx context.Context, sessionID, account string) {
	t.mu.Lock()
	t.sessions[sessionID] = &sessionInfo{
		account:   account,
		startedAt: time.Now(),
	}
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.IncrementActiveSessions(ctx)
	}
	t.logger.Debug("MCP session registered",
		"session_id", sessionID,
		logging.Account(logging.AnonymizeEmail(account)),
	)
}

// Remove drops a session from the registry. Removing an unknown session is
// a no-op so the sweep and the unregister hook never double-count.
func (t *SessionTracker) Remove(ctx context.Context, sessionID string) {
	t.mu.Lock()
	_, present := t.sessions[sessionID]
	if present {
		delete(t.sessions, sessionID)
	}
	t.mu.Unlock()

	if !present {
		return
	}

	if t.metrics != nil {
		t.metrics.DecrementActiveSessions(ctx)
	}
	t.logger.Debug("MCP session unregistered", "session_id", sessionID)
}

// AccountForSession returns the account a session authenticated as.
func (t *SessionTracker) AccountForSession(sessionID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, ok := t.sessions[sessionID]
	if !ok || info.account == "" {
		return "", false
	}
	return info.account, true
}

// Count returns the number of tracked sessions.
func (t *SessionTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// ListSessions returns all active session IDs
func (t *SessionTracker) ListSessions() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sessions := make([]string, 0, len(t.sessions))
	for sessionID := range t.sessions {
		sessions = append(sessions, sessionID)
	}
	return sessions
}

// evictExpired removes sessions older than the timeout and returns how many
// were dropped.
func (t *SessionTracker) evictExpired(now time.Time) int {
	t.mu.Lock()
	expired := 0
	for sessionID, info := range t.sessions {
		if now.Sub(info.startedAt) > t.sessionTimeout {
			delete(t.sessions, sessionID)
			expired++
		}
	}
	t.mu.Unlock()

	if t.metrics != nil {
		for i := 0; i < expired; i++ {
			t.metrics.DecrementActiveSessions(context.Background())
		}
	}
	return expired
}

// sweepLoop periodically evicts expired sessions
func (t *SessionTracker) sweepLoop() {
	for {
		select {
		case <-t.cleanupTicker.C:
			if expired := t.evictExpired(time.Now()); expired > 0 {
				t.logger.Info("Cleaned up expired sessions", "count", expired)
			}
		case <-t.cleanupDone:
			return
		}
	}
}

// Stop stops the session cleanup goroutine
func (t *SessionTracker) Stop() {
	if t.cleanupTicker != nil {
		t.cleanupTicker.Stop()
	}
	if t.cleanupDone != nil {
		close(t.cleanupDone)
	}
}
