package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/angel-problem/game/engine"
	"github.com/wricardo/angel-problem/game/scheduler"
	"github.com/wricardo/angel-problem/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager handles game session lifecycle. Sessions live in memory only.
type Manager struct {
	sessions map[string]*service.Session
	notifier service.StateNotifier
	logger   *zap.Logger
	mu       sync.RWMutex
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger handed to each table
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithNotifier sets the receiver of every table's state changes. A notifier
// that also implements service.EventNotifier is sent game over and reset
// events as well.
func WithNotifier(n service.StateNotifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create creates a new table with the given ID and rules
func (m *Manager) Create(id string, rules *engine.Rules) (*service.Session, error) {
	if id == "" {
		id = m.generateSessionID()
	} else if strings.TrimSpace(id) != id || strings.ContainsAny(id, "/?#") {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Check if session already exists (case-insensitive)
	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	logger := m.logger.With(zap.String("session_id", id))
	opts := []scheduler.Option{scheduler.WithLogger(logger)}
	if m.notifier != nil {
		notifier := m.notifier
		var tracker *eventTracker
		if events, ok := notifier.(service.EventNotifier); ok {
			tracker = &eventTracker{sessionID: id, events: events}
		}
		opts = append(opts, scheduler.WithObserver(func(snap *engine.Snapshot) {
			notifier.NotifyState(id, snap)
			if tracker != nil {
				tracker.observe(snap)
			}
		}))
	}

	table, err := scheduler.NewFromRules(rules, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	session := service.NewSession(id, table, rules, time.Now())

	m.sessions[strings.ToLower(id)] = session
	logger.Info("session created",
		zap.String("preset", rules.Name),
		zap.String("mode", string(rules.StartMode())))

	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session and cancels its pending timers
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	session, exists := m.sessions[lowerID]
	if !exists {
		return ErrSessionNotFound
	}

	session.Table.Close()
	delete(m.sessions, lowerID)
	m.logger.Info("session deleted", zap.String("session_id", session.ID))

	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}

	session.Touch(time.Now())
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessed().Before(cutoff) {
			session.Table.Close()
			delete(m.sessions, id)
			removed++
		}
	}

	return removed
}

// CloseAll stops every table's timers. Sessions stay readable.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, session := range m.sessions {
		session.Table.Close()
	}
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random 4-character session ID
func (m *Manager) generateSessionID() string {
	for {
		// Generate 2 random bytes (4 hex characters)
		bytes := make([]byte, 2)
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)

		m.mu.RLock()
		taken := m.sessionExists(id)
		m.mu.RUnlock()
		if !taken {
			return id
		}
	}
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}
