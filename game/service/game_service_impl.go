package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/wricardo/angel-problem/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// presetID returns the preset_id for a given display name, used for consistent API responses
func (s *gameServiceImpl) presetID(name string) string {
	presets, err := s.configs.ListConfigs()
	if err == nil {
		for _, p := range presets {
			if p.Name == name {
				return p.PresetID
			}
		}
	}
	if name == "" {
		return "default"
	}
	return name
}

// CreateSession creates a new table from a preset, applying mode and power overrides
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var base *engine.Rules
	if opts.Preset != "" {
		loaded, err := s.configs.LoadConfig(opts.Preset)
		if err != nil {
			return nil, s.presetError(opts.Preset, err)
		}
		base = loaded
	} else {
		base = s.configs.GetDefault()
	}

	// Cached presets are shared; overrides go on a copy.
	rules := *base
	if opts.Mode != "" {
		if err := engine.ValidateMode(opts.Mode); err != nil {
			return nil, err
		}
		rules.Mode = opts.Mode
	}
	if opts.Power != 0 {
		if err := engine.ValidatePower(opts.Power); err != nil {
			return nil, err
		}
		rules.Power = opts.Power
	}

	sess, err := s.sessions.Create("", &rules)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	preset := opts.Preset
	if preset == "" {
		preset = s.presetID(rules.Name)
	}

	info := s.sessionInfo(sess)
	info.Preset = preset
	return info, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context, opts ListOptions) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()

	less := func(a, b *Session) bool { return a.CreatedAt.Before(b.CreatedAt) }
	if opts.Sort == "accessed" {
		less = func(a, b *Session) bool { return a.LastAccessed().Before(b.LastAccessed()) }
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if opts.Order == "desc" {
			return less(sessions[j], sessions[i])
		}
		return less(sessions[i], sessions[j])
	})

	if opts.Limit > 0 && len(sessions) > opts.Limit {
		sessions = sessions[:opts.Limit]
	}

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session and stops its timers
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// PlaceRoadblock applies a human Demon action
func (s *gameServiceImpl) PlaceRoadblock(ctx context.Context, sessionID string, x, y int) (*ActionResponse, error) {
	return s.act(sessionID, func(sess *Session) engine.ActionResult {
		return sess.Table.PlaceRoadblock(x, y)
	})
}

// MoveAngel applies a human Angel action
func (s *gameServiceImpl) MoveAngel(ctx context.Context, sessionID string, x, y int) (*ActionResponse, error) {
	return s.act(sessionID, func(sess *Session) engine.ActionResult {
		return sess.Table.MoveAngel(x, y)
	})
}

// Click routes a cell click to whichever side the human controls
func (s *gameServiceImpl) Click(ctx context.Context, sessionID string, x, y int) (*ActionResponse, error) {
	return s.act(sessionID, func(sess *Session) engine.ActionResult {
		return sess.Table.Click(x, y)
	})
}

// Reset starts a fresh game on the table
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Table.Reset(), nil
}

// SetMode changes which sides are AI-controlled
func (s *gameServiceImpl) SetMode(ctx context.Context, sessionID string, mode engine.Mode) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Table.SetMode(mode); err != nil {
		return nil, err
	}
	return sess.Table.Snapshot(), nil
}

// SetPower changes the Angel's jump power for the current game
func (s *gameServiceImpl) SetPower(ctx context.Context, sessionID string, power int) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Table.SetPower(power); err != nil {
		return nil, err
	}
	return sess.Table.Snapshot(), nil
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Table.Snapshot(), nil
}

// GetLegalMoves returns the Angel's current landing cells
func (s *gameServiceImpl) GetLegalMoves(ctx context.Context, sessionID string) ([]engine.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Table.LegalMoves(), nil
}

// GetHistory returns paginated action history of the current game
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Table.History()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = engine.DefaultHistoryPageSize
	}
	if opts.Limit > engine.MaxHistoryPageSize {
		opts.Limit = engine.MaxHistoryPageSize
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	actions := []engine.HistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			for i := total - 1 - start; i >= total-end; i-- {
				actions = append(actions, history[i])
			}
		} else {
			actions = append(actions, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Actions:      actions,
		TotalActions: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// ListPresets returns available game presets
func (s *gameServiceImpl) ListPresets(ctx context.Context) ([]*PresetInfo, error) {
	return s.configs.ListConfigs()
}

// LoadPreset loads a specific game preset
func (s *gameServiceImpl) LoadPreset(ctx context.Context, name string) (*engine.Rules, error) {
	rules, err := s.configs.LoadConfig(name)
	if err != nil {
		return nil, s.presetError(name, err)
	}
	return rules, nil
}

// SavePreset saves a game preset to disk
func (s *gameServiceImpl) SavePreset(ctx context.Context, name string, rules *engine.Rules) error {
	return s.configs.SaveConfig(name, rules)
}

// RefreshPresets drops cached presets so edits on disk are picked up, and
// returns the fresh listing
func (s *gameServiceImpl) RefreshPresets(ctx context.Context) ([]*PresetInfo, error) {
	s.configs.RefreshCache()
	return s.configs.ListConfigs()
}

func (s *gameServiceImpl) act(sessionID string, fn func(*Session) engine.ActionResult) (*ActionResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	res := fn(sess)
	return &ActionResponse{
		Result: res,
		State:  sess.Table.Snapshot(),
	}, nil
}

// get fetches a session and marks it as accessed
func (s *gameServiceImpl) get(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, err)
		}
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		Preset:         s.presetID(sess.Rules.Name),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		State:          sess.Table.Snapshot(),
		Rules:          sess.Rules,
	}
}

// presetError adds the available preset IDs to a not-found error
func (s *gameServiceImpl) presetError(name string, err error) error {
	if !errors.Is(err, ErrPresetNotFound) {
		return fmt.Errorf("failed to load preset %s: %w", name, err)
	}

	presets, listErr := s.configs.ListConfigs()
	if listErr == nil && len(presets) > 0 {
		ids := make([]string, 0, len(presets))
		for _, p := range presets {
			ids = append(ids, p.PresetID)
		}
		return fmt.Errorf("preset '%s': %w. Available presets: %v", name, err, ids)
	}
	return fmt.Errorf("preset '%s': %w. Use /api/presets to list available presets", name, err)
}
