package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/wricardo/angel-problem/game/engine"
	"github.com/wricardo/angel-problem/game/scheduler"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPresetNotFound  = errors.New("preset not found")
	ErrInvalidPreset   = errors.New("invalid preset")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context, opts ListOptions) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	PlaceRoadblock(ctx context.Context, sessionID string, x, y int) (*ActionResponse, error)
	MoveAngel(ctx context.Context, sessionID string, x, y int) (*ActionResponse, error)
	Click(ctx context.Context, sessionID string, x, y int) (*ActionResponse, error)
	Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	SetMode(ctx context.Context, sessionID string, mode engine.Mode) (*engine.Snapshot, error)
	SetPower(ctx context.Context, sessionID string, power int) (*engine.Snapshot, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	GetLegalMoves(ctx context.Context, sessionID string) ([]engine.Position, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Presets
	ListPresets(ctx context.Context) ([]*PresetInfo, error)
	LoadPreset(ctx context.Context, name string) (*engine.Rules, error)
	SavePreset(ctx context.Context, name string, rules *engine.Rules) error
	RefreshPresets(ctx context.Context) ([]*PresetInfo, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, rules *engine.Rules) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles game preset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.Rules, error)
	ListConfigs() ([]*PresetInfo, error)
	GetDefault() *engine.Rules
	SaveConfig(name string, rules *engine.Rules) error
	RefreshCache()
}

// StateNotifier is told about every state change of every table
type StateNotifier interface {
	NotifyState(sessionID string, snap *engine.Snapshot)
}

// EventNotifier is implemented by notifiers that also want named game
// events (EventGameOver, EventGameReset) next to the raw snapshots
type EventNotifier interface {
	BroadcastEvent(sessionID, event string, data interface{})
}

// Session represents an active game table
type Session struct {
	ID        string
	Table     *scheduler.Scheduler
	Rules     *engine.Rules
	CreatedAt time.Time

	// unix nanos; written by every request that touches the table
	lastAccessed atomic.Int64
}

// NewSession builds a session last accessed at its creation time
func NewSession(id string, table *scheduler.Scheduler, rules *engine.Rules, created time.Time) *Session {
	s := &Session{
		ID:        id,
		Table:     table,
		Rules:     rules,
		CreatedAt: created,
	}
	s.Touch(created)
	return s
}

// LastAccessed returns when the session was last used
func (s *Session) LastAccessed() time.Time {
	return time.Unix(0, s.lastAccessed.Load())
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.lastAccessed.Store(t.UnixNano())
}
