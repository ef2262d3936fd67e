package engine

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
)

func createTestRules() *Rules {
	return &Rules{
		Name:           "Engine Test Rules",
		Description:    "Rules for engine tests",
		Power:          2,
		EscapeDistance: 25,
		Mode:           HumanVsHuman,
		AIDelayMS:      0,
		TrappedResetMS: 0,
	}
}

func newTestEngine(t *testing.T) *GameEngine {
	t.Helper()
	e, err := NewEngine(createTestRules())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

// farBlock places a Demon block well away from the action so the Angel can move.
func farBlock(t *testing.T, e *GameEngine) {
	t.Helper()
	n := e.Snapshot().BlocksPlaced
	res := e.PlaceRoadblock(-500, -500-n, false)
	if !res.Accepted {
		t.Fatalf("far block rejected: %s (%s)", res.Reason, res.Message)
	}
}

func assertInitial(t *testing.T, e *GameEngine) {
	t.Helper()
	s := e.Snapshot()
	if s.Angel != (Position{0, 0}) {
		t.Errorf("Expected Angel at origin, got %v", s.Angel)
	}
	if len(s.Obstacles) != 0 {
		t.Errorf("Expected no obstacles, got %d", len(s.Obstacles))
	}
	if s.Turn != TurnDemon {
		t.Errorf("Expected turn demon, got %s", s.Turn)
	}
	if !s.Active {
		t.Error("Expected game to be active")
	}
	if s.Winner != SideNone {
		t.Errorf("Expected no winner, got %s", s.Winner)
	}
}

func TestNewEngine(t *testing.T) {
	e := newTestEngine(t)
	assertInitial(t, e)

	if e.Power() != 2 {
		t.Errorf("Expected power 2, got %d", e.Power())
	}
	if e.Message() != InitialMessage {
		t.Errorf("Expected initial message, got %q", e.Message())
	}
	if e.GameID() == "" {
		t.Error("Expected a game ID")
	}
	if len(e.LegalMoves()) != 24 {
		t.Errorf("Expected 24 legal moves, got %d", len(e.LegalMoves()))
	}
}

func TestNewEngine_InvalidRules(t *testing.T) {
	rules := createTestRules()
	rules.Power = 11
	if _, err := NewEngine(rules); err == nil {
		t.Error("Expected error for power 11")
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	e := NewEngineWithDefaults()
	assertInitial(t, e)
	if e.Power() != DefaultPower {
		t.Errorf("Expected default power %d, got %d", DefaultPower, e.Power())
	}
	if e.Mode() != HumanVsHuman {
		t.Errorf("Expected human_vs_human, got %s", e.Mode())
	}
}

func TestPlaceRoadblock_Success(t *testing.T) {
	e := newTestEngine(t)
	v := e.Version()

	res := e.PlaceRoadblock(1, 0, false)
	if !res.Accepted {
		t.Fatalf("Expected block to be accepted, got %s", res.Reason)
	}
	if e.Turn() != TurnAngel {
		t.Errorf("Expected turn angel, got %s", e.Turn())
	}
	if !e.IsBlocked(1, 0) {
		t.Error("Expected (1,0) to be blocked")
	}
	if e.Version() != v+1 {
		t.Errorf("Expected version %d, got %d", v+1, e.Version())
	}
	want := "😈 Human Demon placed a block at (1, 0). Angel's turn."
	if e.Message() != want {
		t.Errorf("Expected message %q, got %q", want, e.Message())
	}
}

func TestPlaceRoadblock_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(e *GameEngine)
		x, y   int
		reason RejectReason
		msg    string
	}{
		{
			name:   "angel cell",
			setup:  func(e *GameEngine) {},
			x:      0,
			y:      0,
			reason: ReasonAngelCell,
			msg:    "Demon cannot place a block on the Angel!",
		},
		{
			name: "already blocked",
			setup: func(e *GameEngine) {
				e.PlaceRoadblock(1, 0, false)
				e.MoveAngel(0, 2, false)
			},
			x:      1,
			y:      0,
			reason: ReasonOccupied,
			msg:    "There is already a block here.",
		},
		{
			name:   "far outside the board",
			setup:  func(e *GameEngine) {},
			x:      math.MinInt,
			y:      0,
			reason: ReasonOutOfBounds,
			msg:    "Blocks must be within 1000000 cells of the origin.",
		},
		{
			name:   "just past the bound",
			setup:  func(e *GameEngine) {},
			x:      3,
			y:      MaxCoordinate + 1,
			reason: ReasonOutOfBounds,
			msg:    "Blocks must be within 1000000 cells of the origin.",
		},
		{
			name: "wrong turn",
			setup: func(e *GameEngine) {
				e.PlaceRoadblock(1, 0, false)
			},
			x:      2,
			y:      2,
			reason: ReasonWrongTurn,
			msg:    "It's not the Demon's turn.",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e := newTestEngine(t)
			test.setup(e)
			before := e.Snapshot()

			res := e.PlaceRoadblock(test.x, test.y, false)
			if res.Accepted {
				t.Fatal("Expected rejection")
			}
			if res.Reason != test.reason {
				t.Errorf("Expected reason %s, got %s", test.reason, res.Reason)
			}
			if e.Message() != test.msg {
				t.Errorf("Expected message %q, got %q", test.msg, e.Message())
			}

			after := e.Snapshot()
			if after.Version != before.Version || len(after.Obstacles) != len(before.Obstacles) || after.Turn != before.Turn {
				t.Error("Rejected action changed the game state")
			}
		})
	}
}

func TestPlaceRoadblock_HumanCannotActForAI(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetMode(AIVsHuman); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}

	res := e.PlaceRoadblock(1, 0, false)
	if res.Accepted || res.Reason != ReasonNotYourSide {
		t.Fatalf("Expected ai_controlled rejection, got accepted=%v reason=%s", res.Accepted, res.Reason)
	}
	if e.Message() != InitialMessage {
		t.Errorf("Silent rejection changed the message to %q", e.Message())
	}

	res = e.PlaceRoadblock(1, 0, true)
	if !res.Accepted {
		t.Fatalf("Expected AI request to be accepted, got %s", res.Reason)
	}
	if !strings.HasPrefix(e.Message(), "😈 AI Demon") {
		t.Errorf("Expected AI actor in message, got %q", e.Message())
	}
}

func TestMoveAngel_Success(t *testing.T) {
	e := newTestEngine(t)
	e.PlaceRoadblock(0, 1, false)

	res := e.MoveAngel(0, 2, false)
	if !res.Accepted {
		t.Fatalf("Expected jump over (0,1) to succeed, got %s: %s", res.Reason, res.Message)
	}
	if e.Angel() != (Position{0, 2}) {
		t.Errorf("Expected Angel at (0,2), got %v", e.Angel())
	}
	if e.Turn() != TurnDemon {
		t.Errorf("Expected turn demon, got %s", e.Turn())
	}
	want := "😇 Human Angel moved to (0, 2). Demon's turn."
	if e.Message() != want {
		t.Errorf("Expected message %q, got %q", want, e.Message())
	}
}

func TestMoveAngel_Rejections(t *testing.T) {
	t.Run("wrong turn", func(t *testing.T) {
		e := newTestEngine(t)
		res := e.MoveAngel(1, 1, false)
		if res.Reason != ReasonWrongTurn {
			t.Errorf("Expected wrong_turn, got %s", res.Reason)
		}
		if e.Message() != "It's not the Angel's turn." {
			t.Errorf("Unexpected message %q", e.Message())
		}
	})

	t.Run("too far", func(t *testing.T) {
		e := newTestEngine(t)
		farBlock(t, e)
		res := e.MoveAngel(3, 0, false)
		if res.Reason != ReasonUnreachable {
			t.Errorf("Expected unreachable, got %s", res.Reason)
		}
		if !strings.Contains(e.Message(), "Too far (K=2) or blocked") {
			t.Errorf("Unexpected message %q", e.Message())
		}
		if e.Angel() != (Position{0, 0}) || e.Turn() != TurnAngel {
			t.Error("Rejected move changed the state")
		}
	})

	t.Run("blocked", func(t *testing.T) {
		e := newTestEngine(t)
		e.PlaceRoadblock(1, 1, false)
		res := e.MoveAngel(1, 1, false)
		if res.Reason != ReasonUnreachable {
			t.Errorf("Expected unreachable, got %s", res.Reason)
		}
	})

	t.Run("stay put", func(t *testing.T) {
		e := newTestEngine(t)
		farBlock(t, e)
		res := e.MoveAngel(0, 0, false)
		if res.Reason != ReasonUnreachable {
			t.Errorf("Expected unreachable for a pass move, got %s", res.Reason)
		}
	})

	t.Run("angel is AI", func(t *testing.T) {
		e := newTestEngine(t)
		e.SetMode(HumanVsAI)
		farBlock(t, e)
		msg := e.Message()
		res := e.MoveAngel(1, 1, false)
		if res.Reason != ReasonNotYourSide {
			t.Errorf("Expected ai_controlled, got %s", res.Reason)
		}
		if e.Message() != msg {
			t.Error("Silent rejection changed the message")
		}
	})
}

func TestMoveAngel_Escape(t *testing.T) {
	e := newTestEngine(t)
	if err := e.SetPower(10); err != nil {
		t.Fatalf("SetPower failed: %v", err)
	}

	for _, x := range []int{10, 20, 24} {
		farBlock(t, e)
		res := e.MoveAngel(x, 0, false)
		if !res.Accepted {
			t.Fatalf("Move to (%d,0) rejected: %s", x, res.Message)
		}
		if res.Outcome != OutcomeNone {
			t.Fatalf("Move to (%d,0) ended the game", x)
		}
	}
	if e.Turn() != TurnDemon {
		t.Fatalf("Distance 24 must not end the game, turn is %s", e.Turn())
	}

	farBlock(t, e)
	res := e.MoveAngel(25, 0, false)
	if !res.Accepted || res.Outcome != OutcomeEscaped {
		t.Fatalf("Expected escape, got accepted=%v outcome=%s", res.Accepted, res.Outcome)
	}
	if res.AutoReset {
		t.Error("Escape must not schedule an automatic reset")
	}
	if e.Turn() != TurnGameOver || e.IsActive() {
		t.Error("Expected game over after escape")
	}
	if e.Winner() != SideAngel {
		t.Errorf("Expected angel to win, got %s", e.Winner())
	}
	if !strings.Contains(e.Message(), "escaped") {
		t.Errorf("Expected escape message, got %q", e.Message())
	}
	if len(e.LegalMoves()) != 0 {
		t.Error("Expected no legal moves once the game is over")
	}
}

func TestMoveAngel_Entrapment(t *testing.T) {
	e := newTestEngine(t)
	e.SetPower(1)
	e.state.Obstacles = NewObstacleSet(neighbours(Position{}, 1)...)
	e.state.Turn = TurnAngel

	if len(e.LegalMoves()) != 0 {
		t.Fatal("Expected Angel to have no legal moves")
	}

	// Target is irrelevant: entrapment is checked first.
	res := e.MoveAngel(5, 5, false)
	if !res.Accepted || res.Outcome != OutcomeTrapped {
		t.Fatalf("Expected trapped outcome, got accepted=%v outcome=%s", res.Accepted, res.Outcome)
	}
	if !res.AutoReset {
		t.Error("Entrapment must schedule an automatic reset")
	}
	if e.Turn() != TurnGameOver || e.IsActive() {
		t.Error("Expected game over")
	}
	if e.Winner() != SideDemon {
		t.Errorf("Expected demon to win, got %s", e.Winner())
	}
	if !strings.Contains(e.Message(), "failed to escape") {
		t.Errorf("Expected failure message, got %q", e.Message())
	}
	if e.Angel() != (Position{0, 0}) {
		t.Errorf("Angel moved during entrapment: %v", e.Angel())
	}
}

func TestResolveEntrapment(t *testing.T) {
	e := newTestEngine(t)
	if _, ended := e.ResolveEntrapment(false); ended {
		t.Fatal("Demon's turn must not resolve entrapment")
	}

	farBlock(t, e)
	if _, ended := e.ResolveEntrapment(false); ended {
		t.Fatal("Free Angel must not be trapped")
	}

	e.state.Obstacles = NewObstacleSet(neighbours(Position{}, 2)...)
	res, ended := e.ResolveEntrapment(false)
	if !ended || res.Outcome != OutcomeTrapped {
		t.Fatal("Expected entrapment to end the game")
	}
}

func TestGameOver_IsTerminal(t *testing.T) {
	e := newTestEngine(t)
	e.SetPower(1)
	e.state.Obstacles = NewObstacleSet(neighbours(Position{}, 1)...)
	e.state.Turn = TurnAngel
	e.MoveAngel(0, 0, false)

	before := e.Snapshot()

	if res := e.PlaceRoadblock(9, 9, false); res.Reason != ReasonInactive {
		t.Errorf("Expected inactive, got %s", res.Reason)
	}
	if res := e.MoveAngel(1, 1, false); res.Reason != ReasonInactive {
		t.Errorf("Expected inactive, got %s", res.Reason)
	}
	if err := e.SetPower(3); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver from SetPower, got %v", err)
	}
	if err := e.SetMode(AIVsAI); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver from SetMode, got %v", err)
	}

	after := e.Snapshot()
	if after.Turn != TurnGameOver || after.Angel != before.Angel || len(after.Obstacles) != len(before.Obstacles) {
		t.Error("State changed after game over")
	}
}

func TestTurnAlternation(t *testing.T) {
	e := newTestEngine(t)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 20 && e.IsActive(); i++ {
		p, ok := ChooseBlock(e.Angel(), e.Power(), e.state.Obstacles, rng)
		if !ok {
			t.Fatal("Demon could not find a block")
		}
		if res := e.PlaceRoadblock(p.X, p.Y, false); !res.Accepted {
			t.Fatalf("Block rejected: %s", res.Message)
		}
		if e.Turn() != TurnAngel {
			t.Fatalf("Expected angel after block, got %s", e.Turn())
		}

		moves := e.LegalMoves()
		if len(moves) == 0 {
			break
		}
		m, _ := ChooseMove(moves, e.state.Obstacles)
		res := e.MoveAngel(m.X, m.Y, false)
		if !res.Accepted {
			t.Fatalf("Move rejected: %s", res.Message)
		}
		if res.Outcome == OutcomeNone && e.Turn() != TurnDemon {
			t.Fatalf("Expected demon after move, got %s", e.Turn())
		}
	}
}

func TestReset(t *testing.T) {
	e := newTestEngine(t)
	e.SetMode(HumanVsAI)
	e.SetPower(5)
	e.PlaceRoadblock(1, 0, false)
	gameID := e.GameID()
	gen := e.Generation()

	snap := e.Reset()
	assertInitial(t, e)

	if snap.Generation != gen+1 {
		t.Errorf("Expected generation %d, got %d", gen+1, snap.Generation)
	}
	if snap.GameID == gameID {
		t.Error("Expected a new game ID after reset")
	}
	if e.Power() != 2 {
		t.Errorf("Expected power to return to the preset value 2, got %d", e.Power())
	}
	if e.Mode() != HumanVsAI {
		t.Errorf("Expected mode to survive reset, got %s", e.Mode())
	}
	if len(e.History()) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(e.History()))
	}
	if e.Message() != InitialMessage {
		t.Errorf("Expected initial message, got %q", e.Message())
	}
}

func TestReset_AfterGameOver(t *testing.T) {
	e := newTestEngine(t)
	e.state.Obstacles = NewObstacleSet(neighbours(Position{}, 2)...)
	e.state.Turn = TurnAngel
	e.MoveAngel(0, 0, false)
	if e.IsActive() {
		t.Fatal("Expected game over")
	}

	e.Reset()
	assertInitial(t, e)
}

func TestSetPower(t *testing.T) {
	e := newTestEngine(t)

	for _, k := range []int{0, -1, 11} {
		if err := e.SetPower(k); !errors.Is(err, ErrInvalidPower) {
			t.Errorf("SetPower(%d): expected ErrInvalidPower, got %v", k, err)
		}
	}

	if err := e.SetPower(3); err != nil {
		t.Fatalf("SetPower(3) failed: %v", err)
	}
	if got := len(e.LegalMoves()); got != 48 {
		t.Errorf("Expected 48 legal moves with K=3, got %d", got)
	}
}

func TestSetMode(t *testing.T) {
	e := newTestEngine(t)

	if err := e.SetMode("robots"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("Expected ErrInvalidMode, got %v", err)
	}
	for _, m := range Modes {
		if err := e.SetMode(m); err != nil {
			t.Errorf("SetMode(%s) failed: %v", m, err)
		}
	}
	if e.Mode() != AIVsAI {
		t.Errorf("Expected ai_vs_ai, got %s", e.Mode())
	}
}

func TestClick_Routing(t *testing.T) {
	e := newTestEngine(t)

	res := e.Click(1, 0)
	if !res.Accepted || res.Actor != SideDemon {
		t.Fatalf("Expected click to place a block, got %+v", res)
	}
	res = e.Click(0, 2)
	if !res.Accepted || res.Actor != SideAngel {
		t.Fatalf("Expected click to move the Angel, got %+v", res)
	}

	e.SetMode(AIVsHuman)
	res = e.Click(3, 3)
	if res.Accepted || res.Reason != ReasonNotYourSide {
		t.Errorf("Expected click on AI turn to be ignored, got %+v", res)
	}
}

func TestPlayAITurn_HumanSide(t *testing.T) {
	e := newTestEngine(t)
	rng := rand.New(rand.NewSource(1))

	res := e.PlayAITurn(rng)
	if res.Accepted || res.Reason != ReasonNotYourSide {
		t.Errorf("Expected AI turn on a human side to be refused, got %+v", res)
	}
}

func TestPlayAITurn_DemonStalls(t *testing.T) {
	e := newTestEngine(t)
	e.SetMode(AIVsHuman)
	e.state.Obstacles = NewObstacleSet(neighbours(Position{}, 3)...)
	v := e.Version()

	res := e.PlayAITurn(rand.New(rand.NewSource(1)))
	if res.Accepted || res.Reason != ReasonNoAIMove {
		t.Fatalf("Expected ai_no_move, got %+v", res)
	}
	if e.Message() != "Demon AI cannot find a move." {
		t.Errorf("Unexpected message %q", e.Message())
	}
	if e.Turn() != TurnDemon || !e.IsActive() || e.Version() != v {
		t.Error("A stalled Demon must leave the game where it was")
	}
}

func TestPlayAITurn_AngelTrapped(t *testing.T) {
	e := newTestEngine(t)
	e.SetMode(HumanVsAI)
	e.state.Obstacles = NewObstacleSet(neighbours(Position{}, 2)...)
	e.state.Turn = TurnAngel

	res := e.PlayAITurn(rand.New(rand.NewSource(1)))
	if res.Outcome != OutcomeTrapped || !res.AutoReset {
		t.Fatalf("Expected trapped outcome with auto reset, got %+v", res)
	}
}

func TestPlayAITurn_AIVsAIInvariants(t *testing.T) {
	e := newTestEngine(t)
	e.SetMode(AIVsAI)
	rng := rand.New(rand.NewSource(2024))

	prevBlocks := 0
	prevTurn := e.Turn()
	for step := 0; step < 2000 && e.IsActive(); step++ {
		res := e.PlayAITurn(rng)
		if res.Reason == ReasonNoAIMove {
			break
		}
		if !res.Accepted {
			t.Fatalf("step %d: AI action rejected: %s (%s)", step, res.Reason, res.Message)
		}

		s := e.Snapshot()
		for _, o := range s.Obstacles {
			if o == s.Angel {
				t.Fatalf("step %d: Angel stands on an obstacle", step)
			}
		}
		if len(s.Obstacles) < prevBlocks {
			t.Fatalf("step %d: obstacle set shrank", step)
		}
		if s.Active && s.Turn == prevTurn {
			t.Fatalf("step %d: turn did not alternate", step)
		}
		prevBlocks = len(s.Obstacles)
		prevTurn = s.Turn
	}

	if !e.IsActive() && e.Winner() == SideNone {
		t.Error("Finished game has no winner")
	}
	if len(e.History()) == 0 {
		t.Error("Expected AI actions in history")
	}
}

func TestHistory(t *testing.T) {
	e := newTestEngine(t)
	e.PlaceRoadblock(1, 0, false)
	e.MoveAngel(0, 2, false)
	e.MoveAngel(0, 1, false) // rejected, not recorded

	h := e.History()
	if len(h) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(h))
	}
	if h[0].Actor != SideDemon || h[0].Position != (Position{1, 0}) || h[0].Number != 1 {
		t.Errorf("Unexpected first entry %+v", h[0])
	}
	if h[1].Actor != SideAngel || h[1].Position != (Position{0, 2}) || h[1].Number != 2 {
		t.Errorf("Unexpected second entry %+v", h[1])
	}
}
