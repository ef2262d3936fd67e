package engine

import "errors"

// Turn is the state machine phase
type Turn string

const (
	TurnDemon    Turn = "demon"
	TurnAngel    Turn = "angel"
	TurnGameOver Turn = "game_over"
)

// Mode selects which sides are AI-controlled. The first word names the
// Demon's controller, the second the Angel's.
type Mode string

const (
	HumanVsHuman Mode = "human_vs_human"
	HumanVsAI    Mode = "human_vs_ai"
	AIVsHuman    Mode = "ai_vs_human"
	AIVsAI       Mode = "ai_vs_ai"
)

// Modes lists every valid mode in display order
var Modes = []Mode{HumanVsHuman, HumanVsAI, AIVsHuman, AIVsAI}

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	switch m {
	case HumanVsHuman, HumanVsAI, AIVsHuman, AIVsAI:
		return true
	}
	return false
}

// DemonIsAI reports whether the Demon side is AI-controlled
func (m Mode) DemonIsAI() bool {
	return m == AIVsHuman || m == AIVsAI
}

// AngelIsAI reports whether the Angel side is AI-controlled
func (m Mode) AngelIsAI() bool {
	return m == HumanVsAI || m == AIVsAI
}

// Side identifies a player
type Side string

const (
	SideNone  Side = ""
	SideDemon Side = "demon"
	SideAngel Side = "angel"
)

// RejectReason classifies why an action was refused
type RejectReason string

const (
	ReasonNone        RejectReason = ""
	ReasonInactive    RejectReason = "inactive"
	ReasonNotYourSide RejectReason = "ai_controlled"
	ReasonWrongTurn   RejectReason = "wrong_turn"
	ReasonAngelCell   RejectReason = "angel_cell"
	ReasonOccupied    RejectReason = "occupied"
	ReasonUnreachable RejectReason = "unreachable"
	ReasonOutOfBounds RejectReason = "out_of_bounds"
	ReasonNoAIMove    RejectReason = "ai_no_move"
)

// Outcome records a terminal transition caused by an action
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeEscaped Outcome = "escaped"
	OutcomeTrapped Outcome = "trapped"
)

var (
	ErrInvalidMode  = errors.New("invalid mode")
	ErrInvalidPower = errors.New("invalid power")
	ErrGameOver     = errors.New("game is over")
)

// Validation and default constants
const (
	MinPower               = 1
	MaxPower               = 10
	DefaultPower           = 2
	DefaultEscapeDistance  = 25
	MinEscapeDistance      = 2
	MaxEscapeDistance      = 1000
	DefaultAIDelayMS       = 800
	DefaultTrappedResetMS  = 3000
	MaxDelayMS             = 60000
	MaxCoordinate          = 1_000_000
	InitialMessage         = "Select a mode. Demon places a block first."
	WebSocketBufferSize    = 256
	MaxHistoryPageSize     = 200
	DefaultHistoryPageSize = 20
)

// ActionResult describes what a game action did. Rule violations are
// reported here rather than as errors; the game simply does not advance.
type ActionResult struct {
	Accepted  bool         `json:"accepted"`
	Actor     Side         `json:"actor"`
	AI        bool         `json:"ai"`
	Target    Position     `json:"target"`
	Reason    RejectReason `json:"reason,omitempty"`
	Outcome   Outcome      `json:"outcome,omitempty"`
	AutoReset bool         `json:"auto_reset,omitempty"`
	Message   string       `json:"message"`
	Turn      Turn         `json:"turn"`
	Version   uint64       `json:"version"`
}

// HistoryEntry is one accepted action in the current game. The log lives in
// memory and is dropped on reset.
type HistoryEntry struct {
	Number    int      `json:"number"`
	Actor     Side     `json:"actor"`
	AI        bool     `json:"ai"`
	Position  Position `json:"position"`
	Outcome   Outcome  `json:"outcome,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// Snapshot is a read-only copy of the game handed to external collaborators
type Snapshot struct {
	GameID         string     `json:"game_id"`
	Generation     uint64     `json:"generation"`
	Version        uint64     `json:"version"`
	Angel          Position   `json:"angel"`
	Obstacles      []Position `json:"obstacles"`
	LegalMoves     []Position `json:"legal_moves"`
	Power          int        `json:"power"`
	EscapeDistance int        `json:"escape_distance"`
	Turn           Turn       `json:"turn"`
	Active         bool       `json:"active"`
	Mode           Mode       `json:"mode"`
	Winner         Side       `json:"winner,omitempty"`
	Message        string     `json:"message"`
	BlocksPlaced   int        `json:"blocks_placed"`
	AngelMoves     int        `json:"angel_moves"`
	Distance       int        `json:"distance"`
	AIThinking     bool       `json:"ai_thinking,omitempty"`
	ResetPending   bool       `json:"reset_pending,omitempty"`
}
