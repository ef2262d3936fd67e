package service

import (
	"time"

	"github.com/wricardo/angel-problem/game/engine"
)

// CreateSessionOptions selects the preset and optional overrides for a new table
type CreateSessionOptions struct {
	Preset string      `json:"preset"`
	Mode   engine.Mode `json:"mode,omitempty"`
	Power  int         `json:"power,omitempty"`
}

// ListOptions controls session listing
type ListOptions struct {
	Sort  string `json:"sort"`  // "created" or "accessed"
	Order string `json:"order"` // "asc" or "desc"
	Limit int    `json:"limit"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string           `json:"id"`
	Preset         string           `json:"preset"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	State          *engine.Snapshot `json:"state"`
	Rules          *engine.Rules    `json:"rules"`
}

// ActionResponse pairs the engine's verdict on an action with the state
// right after it
type ActionResponse struct {
	Result engine.ActionResult `json:"result"`
	State  *engine.Snapshot    `json:"state"`
}

// HistoryOptions configures action history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated action history
type HistoryResponse struct {
	Actions      []engine.HistoryEntry `json:"actions"`
	TotalActions int                   `json:"total_actions"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
	HasNext      bool                  `json:"has_next"`
	HasPrevious  bool                  `json:"has_previous"`
}

// PresetInfo provides information about a game preset
type PresetInfo struct {
	Filename       string      `json:"filename"`
	PresetID       string      `json:"preset_id"` // The identifier to use for session creation
	Name           string      `json:"name"`      // Display name
	Description    string      `json:"description"`
	Power          int         `json:"power"`
	EscapeDistance int         `json:"escape_distance"`
	Mode           engine.Mode `json:"mode"`
}

// Game events sent alongside state updates
const (
	EventGameOver  = "game_over"
	EventGameReset = "game_reset"
)

// GameOverEvent is the payload of EventGameOver
type GameOverEvent struct {
	GameID       string      `json:"game_id"`
	Winner       engine.Side `json:"winner"`
	Message      string      `json:"message"`
	AngelMoves   int         `json:"angel_moves"`
	BlocksPlaced int         `json:"blocks_placed"`
}

// GameResetEvent is the payload of EventGameReset
type GameResetEvent struct {
	GameID     string `json:"game_id"`
	Generation uint64 `json:"generation"`
	// true when the previous game was lost and waiting for its auto-reset
	AfterTrap bool `json:"after_trap"`
}
