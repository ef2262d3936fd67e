package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// GameState is the mutable state of one game instance
type GameState struct {
	GameID       string
	Generation   uint64
	Angel        Position
	Obstacles    *ObstacleSet
	Power        int
	Turn         Turn
	Active       bool
	Message      string
	Winner       Side
	BlocksPlaced int
	AngelMoves   int
	History      []HistoryEntry
}

// newGameState builds the initial configuration: Angel at the origin, no
// obstacles, Demon to move.
func newGameState(power int, generation uint64) *GameState {
	return &GameState{
		GameID:     uuid.NewString(),
		Generation: generation,
		Obstacles:  NewObstacleSet(),
		Power:      power,
		Turn:       TurnDemon,
		Active:     true,
		Message:    InitialMessage,
		History:    []HistoryEntry{},
	}
}

// GameEngine is the turn-based state machine. It is not safe for concurrent
// use; callers serialise access (see package scheduler).
type GameEngine struct {
	state   *GameState
	rules   *Rules
	mode    Mode
	version uint64
}

// NewEngine creates a new game engine with the provided rules
func NewEngine(rules *Rules) (*GameEngine, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	return &GameEngine{
		rules: rules,
		mode:  rules.StartMode(),
		state: newGameState(rules.Power, 1),
	}, nil
}

// NewEngineWithDefaults creates a new game engine with the classic rules
func NewEngineWithDefaults() *GameEngine {
	rules := DefaultRules()
	return &GameEngine{
		rules: rules,
		mode:  rules.StartMode(),
		state: newGameState(rules.Power, 1),
	}
}

// Rules returns the preset the engine was built from
func (e *GameEngine) Rules() *Rules {
	return e.rules
}

// Mode returns which sides are AI-controlled
func (e *GameEngine) Mode() Mode {
	return e.mode
}

// GameID identifies the current game instance
func (e *GameEngine) GameID() string {
	return e.state.GameID
}

// Generation increases by one on every reset
func (e *GameEngine) Generation() uint64 {
	return e.state.Generation
}

// Version increases on every accepted mutation, resets included
func (e *GameEngine) Version() uint64 {
	return e.version
}

// Angel returns the Angel's position
func (e *GameEngine) Angel() Position {
	return e.state.Angel
}

// Power returns the Angel's jump power K
func (e *GameEngine) Power() int {
	return e.state.Power
}

// Turn returns the current phase
func (e *GameEngine) Turn() Turn {
	return e.state.Turn
}

// IsActive reports whether the game still accepts moves
func (e *GameEngine) IsActive() bool {
	return e.state.Active
}

// Message returns the human-readable status line
func (e *GameEngine) Message() string {
	return e.state.Message
}

// Winner returns the side that won, if the game is over
func (e *GameEngine) Winner() Side {
	return e.state.Winner
}

// Obstacles returns the blocked cells sorted by x then y
func (e *GameEngine) Obstacles() []Position {
	return e.state.Obstacles.Positions()
}

// IsBlocked reports whether a cell has been claimed by the Demon
func (e *GameEngine) IsBlocked(x, y int) bool {
	return e.state.Obstacles.Has(Position{X: x, Y: y})
}

// LegalMoves returns the Angel's landing cells; empty once the game is over
func (e *GameEngine) LegalMoves() []Position {
	if !e.state.Active {
		return []Position{}
	}
	return LegalMoves(e.state.Angel, e.state.Power, e.state.Obstacles)
}

// History returns the accepted actions of the current game
func (e *GameEngine) History() []HistoryEntry {
	out := make([]HistoryEntry, len(e.state.History))
	copy(out, e.state.History)
	return out
}

// IsAITurn reports whether the side to move is AI-controlled
func (e *GameEngine) IsAITurn() bool {
	if !e.state.Active {
		return false
	}
	switch e.state.Turn {
	case TurnDemon:
		return e.mode.DemonIsAI()
	case TurnAngel:
		return e.mode.AngelIsAI()
	}
	return false
}

// SetMode changes which sides are AI-controlled
func (e *GameEngine) SetMode(mode Mode) error {
	if err := ValidateMode(mode); err != nil {
		return err
	}
	if !e.state.Active {
		return ErrGameOver
	}
	if mode != e.mode {
		e.mode = mode
		e.version++
	}
	return nil
}

// SetPower changes the Angel's jump power for the rest of the game
func (e *GameEngine) SetPower(k int) error {
	if err := ValidatePower(k); err != nil {
		return err
	}
	if !e.state.Active {
		return ErrGameOver
	}
	if k != e.state.Power {
		e.state.Power = k
		e.version++
	}
	return nil
}

// Reset discards the current game and starts a fresh one with the preset's
// power. The mode is table configuration and survives the reset.
func (e *GameEngine) Reset() *Snapshot {
	e.state = newGameState(e.rules.Power, e.state.Generation+1)
	e.version++
	return e.Snapshot()
}

// PlaceRoadblock claims (x, y) for the Demon
func (e *GameEngine) PlaceRoadblock(x, y int, isAI bool) ActionResult {
	target := Position{X: x, Y: y}
	res := ActionResult{Actor: SideDemon, AI: isAI, Target: target}

	if !e.state.Active {
		return e.reject(res, ReasonInactive, "The game is over. Reset to play again.")
	}
	if !isAI && e.mode.DemonIsAI() {
		return e.rejectSilently(res, ReasonNotYourSide)
	}
	if e.state.Turn != TurnDemon {
		return e.reject(res, ReasonWrongTurn, "It's not the Demon's turn.")
	}
	if !InBounds(target) {
		return e.reject(res, ReasonOutOfBounds,
			fmt.Sprintf("Blocks must be within %d cells of the origin.", MaxCoordinate))
	}
	if target == e.state.Angel {
		return e.reject(res, ReasonAngelCell, "Demon cannot place a block on the Angel!")
	}
	if e.IsBlocked(target.X, target.Y) {
		return e.reject(res, ReasonOccupied, "There is already a block here.")
	}

	e.state.Obstacles.Add(target)
	e.state.BlocksPlaced++
	e.state.Turn = TurnAngel
	e.state.Message = fmt.Sprintf("%s Demon placed a block at %s. Angel's turn.", actorLabel("😈", isAI), target)
	e.record(SideDemon, isAI, target, OutcomeNone)

	return e.accept(res)
}

// MoveAngel jumps the Angel to (x, y). An Angel with no legal move is
// trapped and the game ends before the target is even looked at.
func (e *GameEngine) MoveAngel(x, y int, isAI bool) ActionResult {
	target := Position{X: x, Y: y}
	res := ActionResult{Actor: SideAngel, AI: isAI, Target: target}

	if !e.state.Active {
		return e.reject(res, ReasonInactive, "The game is over. Reset to play again.")
	}
	if !isAI && e.mode.AngelIsAI() {
		return e.rejectSilently(res, ReasonNotYourSide)
	}
	if e.state.Turn != TurnAngel {
		return e.reject(res, ReasonWrongTurn, "It's not the Angel's turn.")
	}

	moves := LegalMoves(e.state.Angel, e.state.Power, e.state.Obstacles)
	if len(moves) == 0 {
		return e.trap(res)
	}
	if !containsPosition(moves, target) {
		return e.reject(res, ReasonUnreachable,
			fmt.Sprintf("Angel cannot move to %s. Too far (K=%d) or blocked.", target, e.state.Power))
	}

	e.state.Angel = target
	e.state.AngelMoves++

	if DistanceFromOrigin(target) >= e.rules.EscapeDistance {
		e.record(SideAngel, isAI, target, OutcomeEscaped)
		e.end(SideAngel, "The Angel has escaped the Demon's trap! Angel Wins!")
		res.Outcome = OutcomeEscaped
		return e.accept(res)
	}

	e.state.Turn = TurnDemon
	e.state.Message = fmt.Sprintf("%s Angel moved to %s. Demon's turn.", actorLabel("😇", isAI), target)
	e.record(SideAngel, isAI, target, OutcomeNone)

	return e.accept(res)
}

// ResolveEntrapment ends the game if it is the Angel's turn and it has no
// legal move. It reports whether the game ended.
func (e *GameEngine) ResolveEntrapment(isAI bool) (ActionResult, bool) {
	res := ActionResult{Actor: SideAngel, AI: isAI, Target: e.state.Angel}
	if !e.state.Active || e.state.Turn != TurnAngel {
		return res, false
	}
	if !IsTrapped(e.state.Angel, e.state.Power, e.state.Obstacles) {
		return res, false
	}
	return e.trap(res), true
}

// Click routes a raw cell click from a human to whichever action the
// current turn calls for.
func (e *GameEngine) Click(x, y int) ActionResult {
	switch {
	case !e.state.Active:
		return e.rejectSilently(ActionResult{Target: Position{X: x, Y: y}}, ReasonInactive)
	case e.state.Turn == TurnDemon && !e.mode.DemonIsAI():
		return e.PlaceRoadblock(x, y, false)
	case e.state.Turn == TurnAngel && !e.mode.AngelIsAI():
		return e.MoveAngel(x, y, false)
	}
	return e.rejectSilently(ActionResult{Actor: sideFor(e.state.Turn), Target: Position{X: x, Y: y}}, ReasonNotYourSide)
}

// PlayAITurn asks the policy of the side to move for an action and applies
// it through the same validated path a human uses. A policy with nothing to
// offer leaves the turn where it is.
func (e *GameEngine) PlayAITurn(rng *rand.Rand) ActionResult {
	if !e.state.Active {
		return e.rejectSilently(ActionResult{AI: true}, ReasonInactive)
	}

	switch e.state.Turn {
	case TurnDemon:
		if !e.mode.DemonIsAI() {
			break
		}
		target, ok := ChooseBlock(e.state.Angel, e.state.Power, e.state.Obstacles, rng)
		if !ok {
			return e.reject(ActionResult{Actor: SideDemon, AI: true}, ReasonNoAIMove, "Demon AI cannot find a move.")
		}
		return e.PlaceRoadblock(target.X, target.Y, true)

	case TurnAngel:
		if !e.mode.AngelIsAI() {
			break
		}
		if res, ended := e.ResolveEntrapment(true); ended {
			return res
		}
		target, ok := ChooseMove(LegalMoves(e.state.Angel, e.state.Power, e.state.Obstacles), e.state.Obstacles)
		if !ok {
			return e.reject(ActionResult{Actor: SideAngel, AI: true}, ReasonNoAIMove, "Angel AI cannot find a move.")
		}
		return e.MoveAngel(target.X, target.Y, true)
	}

	return e.rejectSilently(ActionResult{Actor: sideFor(e.state.Turn), AI: true}, ReasonNotYourSide)
}

// Snapshot returns a detached copy of the state
func (e *GameEngine) Snapshot() *Snapshot {
	return &Snapshot{
		GameID:         e.state.GameID,
		Generation:     e.state.Generation,
		Version:        e.version,
		Angel:          e.state.Angel,
		Obstacles:      e.state.Obstacles.Positions(),
		LegalMoves:     e.LegalMoves(),
		Power:          e.state.Power,
		EscapeDistance: e.rules.EscapeDistance,
		Turn:           e.state.Turn,
		Active:         e.state.Active,
		Mode:           e.mode,
		Winner:         e.state.Winner,
		Message:        e.state.Message,
		BlocksPlaced:   e.state.BlocksPlaced,
		AngelMoves:     e.state.AngelMoves,
		Distance:       DistanceFromOrigin(e.state.Angel),
	}
}

func (e *GameEngine) trap(res ActionResult) ActionResult {
	e.record(SideAngel, res.AI, e.state.Angel, OutcomeTrapped)
	e.end(SideDemon, "The Angel failed to escape! Demon Wins!")
	res.Outcome = OutcomeTrapped
	res.AutoReset = true
	return e.accept(res)
}

func (e *GameEngine) end(winner Side, message string) {
	e.state.Active = false
	e.state.Turn = TurnGameOver
	e.state.Winner = winner
	e.state.Message = message
}

func (e *GameEngine) record(actor Side, isAI bool, pos Position, outcome Outcome) {
	e.state.History = append(e.state.History, HistoryEntry{
		Number:    len(e.state.History) + 1,
		Actor:     actor,
		AI:        isAI,
		Position:  pos,
		Outcome:   outcome,
		Timestamp: time.Now().Unix(),
	})
}

func (e *GameEngine) accept(res ActionResult) ActionResult {
	e.version++
	res.Accepted = true
	res.Message = e.state.Message
	res.Turn = e.state.Turn
	res.Version = e.version
	return res
}

func (e *GameEngine) reject(res ActionResult, reason RejectReason, message string) ActionResult {
	e.state.Message = message
	return e.rejectSilently(res, reason)
}

func (e *GameEngine) rejectSilently(res ActionResult, reason RejectReason) ActionResult {
	res.Reason = reason
	res.Message = e.state.Message
	res.Turn = e.state.Turn
	res.Version = e.version
	return res
}

func actorLabel(icon string, isAI bool) string {
	if isAI {
		return icon + " AI"
	}
	return icon + " Human"
}

func sideFor(turn Turn) Side {
	switch turn {
	case TurnDemon:
		return SideDemon
	case TurnAngel:
		return SideAngel
	}
	return SideNone
}
