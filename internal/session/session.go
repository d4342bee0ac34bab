// Package session manages admin session lifecycle. Each session owns one
// workspace and, while a browser tab is connected, a sink for pushes.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/observability"
	"github.com/Lagunov2003/practice-registry/internal/suggest"
	"github.com/Lagunov2003/practice-registry/internal/workspace"
)

// Sink receives pushes for a connected client.
type Sink interface {
	State(snap workspace.Snapshot)
	Suggestions(field string, st suggest.State)
}

// Session holds per-tab state.
type Session struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Workspace *workspace.Workspace `json:"-"`

	mu           sync.Mutex
	lastActiveAt time.Time
	sink         Sink
}

func newSession() *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		lastActiveAt: now,
	}
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActiveAt = time.Now()
	s.mu.Unlock()
}

// LastActiveAt returns the last activity timestamp.
func (s *Session) LastActiveAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActiveAt
}

// Attach routes pushes to sink; nil detaches.
func (s *Session) Attach(sink Sink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Detach removes sink if it is still the attached one and reports whether
// it was. A newer connection that already replaced sink keeps its place.
func (s *Session) Detach(sink Sink) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink != sink {
		return false
	}
	s.sink = nil
	return true
}

func (s *Session) currentSink() Sink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink
}

// PushState sends the workspace snapshot to the attached client, if any.
func (s *Session) PushState() {
	if sink := s.currentSink(); sink != nil {
		sink.State(s.Workspace.Snapshot())
	}
}

func (s *Session) pushSuggestions(field string, st suggest.State) {
	if sink := s.currentSink(); sink != nil {
		sink.Suggestions(field, st)
	}
}

// IsExpired returns true if the session has exceeded the given max age.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return time.Since(s.CreatedAt) > maxAge
}

// IsIdle returns true if the session has been idle longer than the timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	return time.Since(s.LastActiveAt()) > timeout
}

// WorkspaceFactory builds the workspace of a new session. onSuggest must
// be passed to the workspace so suggestion results reach the client.
type WorkspaceFactory func(id string, onSuggest workspace.SuggestionFunc) *workspace.Workspace

// Manager handles session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxAge      time.Duration
	idleTimeout time.Duration
	factory     WorkspaceFactory
	log         *zap.Logger
	metrics     *observability.Metrics
}

// NewManager creates a session manager with the given timeouts.
func NewManager(maxAge, idleTimeout time.Duration, factory WorkspaceFactory, log *zap.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
		factory:     factory,
		log:         logging.OrNop(log),
		metrics:     metrics,
	}
}

// Create creates a new session and returns it.
func (m *Manager) Create() *Session {
	s := newSession()
	s.Workspace = m.factory(s.ID, s.pushSuggestions)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.metrics.SessionOpened()
	m.log.Debug("session created", zap.String("session", s.ID))
	return s
}

// Get retrieves a session by ID. Returns nil if not found or expired.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
		m.Remove(id)
		return nil
	}
	return s
}

// Remove deletes a session and releases its open modal.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		m.release(s)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Each calls fn for every session. fn runs without the manager lock.
func (m *Manager) Each(fn func(*Session)) {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()
	for _, s := range list {
		fn(s)
	}
}

// Cleanup removes all expired and idle sessions and reports how many went.
// Called periodically.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	var dropped []*Session
	for id, s := range m.sessions {
		if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
			delete(m.sessions, id)
			dropped = append(dropped, s)
		}
	}
	m.mu.Unlock()
	for _, s := range dropped {
		m.release(s)
	}
	return len(dropped)
}

// RefreshExcept reloads every session other than origin and pushes the
// new state to connected clients.
func (m *Manager) RefreshExcept(ctx context.Context, origin string) {
	m.Each(func(s *Session) {
		if s.ID == origin || s.currentSink() == nil {
			return
		}
		if err := s.Workspace.Load(ctx); err != nil {
			m.log.Warn("refresh failed", zap.String("session", s.ID), zap.Error(err))
		}
		s.PushState()
	})
}

func (m *Manager) release(s *Session) {
	s.Workspace.CloseModal()
	s.Attach(nil)
	m.metrics.SessionClosed()
	m.log.Debug("session removed", zap.String("session", s.ID))
}
