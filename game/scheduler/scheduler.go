package scheduler

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/angel-problem/game/engine"
)

// Observer receives a snapshot after every change a table makes
type Observer func(*engine.Snapshot)

type timerKind int

const (
	timerNone timerKind = iota
	timerAI
	timerReset
)

// token identifies the state a timer was armed for. A timer whose token no
// longer matches fires as a no-op.
type token struct {
	seq        uint64
	generation uint64
	version    uint64
}

// Scheduler drives one game table. It serialises human actions, schedules AI
// turns after a delay and resets the table after an entrapment.
type Scheduler struct {
	mu       sync.Mutex
	engine   *engine.GameEngine
	rng      *rand.Rand
	logger   *zap.Logger
	onChange Observer

	timer   *time.Timer
	pending timerKind
	token   token
	seq     uint64

	// A stalled AI is not re-armed until something changes the state.
	stalled        bool
	stalledVersion uint64

	closed bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLogger sets the logger used for timer and AI events
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers a callback invoked after every change. The
// callback runs with the table locked, so calls for one table arrive in
// version order; it must not block or call back into the Scheduler.
func WithObserver(fn Observer) Option {
	return func(s *Scheduler) {
		s.onChange = fn
	}
}

// WithRand overrides the random source used by the Demon AI
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// New wraps an engine. If the starting mode gives the first turn to an AI,
// its timer is armed immediately.
func New(eng *engine.GameEngine, opts ...Option) *Scheduler {
	seed := eng.Rules().Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Scheduler{
		engine: eng,
		rng:    rand.New(rand.NewSource(seed)),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	s.scheduleLocked(false)
	s.mu.Unlock()

	return s
}

// NewFromRules builds an engine from rules and wraps it
func NewFromRules(rules *engine.Rules, opts ...Option) (*Scheduler, error) {
	eng, err := engine.NewEngine(rules)
	if err != nil {
		return nil, err
	}
	return New(eng, opts...), nil
}

// PlaceRoadblock applies a human Demon action
func (s *Scheduler) PlaceRoadblock(x, y int) engine.ActionResult {
	return s.act(func() engine.ActionResult {
		return s.engine.PlaceRoadblock(x, y, false)
	})
}

// MoveAngel applies a human Angel action
func (s *Scheduler) MoveAngel(x, y int) engine.ActionResult {
	return s.act(func() engine.ActionResult {
		return s.engine.MoveAngel(x, y, false)
	})
}

// Click routes a human cell click to the action the turn calls for
func (s *Scheduler) Click(x, y int) engine.ActionResult {
	return s.act(func() engine.ActionResult {
		return s.engine.Click(x, y)
	})
}

// Reset starts a fresh game, cancelling any pending timer
func (s *Scheduler) Reset() *engine.Snapshot {
	s.mu.Lock()
	s.cancelLocked()
	s.clearStallLocked()
	s.engine.Reset()
	s.logger.Info("game reset",
		zap.String("game_id", s.engine.GameID()),
		zap.Uint64("generation", s.engine.Generation()))
	s.scheduleLocked(false)
	snap := s.snapshotLocked()
	s.notifyLocked(snap)
	s.mu.Unlock()
	return snap
}

// SetMode changes which sides are AI-controlled. The pending timer is
// cancelled and re-armed for the new mode.
func (s *Scheduler) SetMode(mode engine.Mode) error {
	s.mu.Lock()
	if err := s.engine.SetMode(mode); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cancelLocked()
	s.clearStallLocked()
	s.scheduleLocked(false)
	snap := s.snapshotLocked()
	s.notifyLocked(snap)
	s.mu.Unlock()

	s.logger.Info("mode changed", zap.String("mode", string(mode)))
	return nil
}

// SetPower changes the Angel's jump power for the current game
func (s *Scheduler) SetPower(k int) error {
	s.mu.Lock()
	before := s.engine.Version()
	if err := s.engine.SetPower(k); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.engine.Version() != before {
		s.cancelLocked()
		s.scheduleLocked(false)
	}
	snap := s.snapshotLocked()
	s.notifyLocked(snap)
	s.mu.Unlock()
	return nil
}

// Snapshot returns the current state including the scheduler's timer flags
func (s *Scheduler) Snapshot() *engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// LegalMoves returns the Angel's current landing cells
func (s *Scheduler) LegalMoves() []engine.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.LegalMoves()
}

// History returns the accepted actions of the current game
func (s *Scheduler) History() []engine.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.History()
}

// Rules returns the preset the table was built from
func (s *Scheduler) Rules() *engine.Rules {
	return s.engine.Rules()
}

// Close cancels any pending timer. Actions still work afterwards but no AI
// turn or auto-reset will fire again.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.closed = true
}

func (s *Scheduler) act(fn func() engine.ActionResult) engine.ActionResult {
	s.mu.Lock()
	res := fn()
	if res.Accepted {
		s.logAction(res)
		s.cancelLocked()
		s.scheduleLocked(res.AutoReset)
	}
	snap := s.snapshotLocked()
	s.notifyLocked(snap)
	s.mu.Unlock()
	return res
}

// scheduleLocked arms the timer the current state calls for, if any
func (s *Scheduler) scheduleLocked(trapped bool) {
	if s.closed {
		return
	}
	rules := s.engine.Rules()

	if trapped {
		s.armLocked(timerReset, rules.TrappedResetDelay())
		return
	}
	if !s.engine.IsAITurn() {
		return
	}
	if s.stalled && s.stalledVersion == s.engine.Version() {
		return
	}
	s.armLocked(timerAI, rules.AIDelay())
}

func (s *Scheduler) armLocked(kind timerKind, delay time.Duration) {
	s.cancelLocked()
	s.seq++
	tok := token{
		seq:        s.seq,
		generation: s.engine.Generation(),
		version:    s.engine.Version(),
	}
	s.token = tok
	s.pending = kind
	s.timer = time.AfterFunc(delay, func() {
		s.fire(kind, tok)
	})
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = timerNone
	s.token = token{}
}

func (s *Scheduler) clearStallLocked() {
	s.stalled = false
	s.stalledVersion = 0
}

func (s *Scheduler) fire(kind timerKind, tok token) {
	s.mu.Lock()
	if s.closed || tok != s.token {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.pending = timerNone
	s.token = token{}

	switch kind {
	case timerAI:
		if tok.generation != s.engine.Generation() || tok.version != s.engine.Version() || !s.engine.IsAITurn() {
			s.mu.Unlock()
			return
		}
		res := s.engine.PlayAITurn(s.rng)
		if res.Accepted {
			s.logAction(res)
			s.scheduleLocked(res.AutoReset)
		} else if res.Reason == engine.ReasonNoAIMove {
			s.stalled = true
			s.stalledVersion = s.engine.Version()
			s.logger.Warn("AI stalled",
				zap.String("game_id", s.engine.GameID()),
				zap.String("turn", string(s.engine.Turn())))
		}

	case timerReset:
		if tok.generation != s.engine.Generation() {
			s.mu.Unlock()
			return
		}
		s.clearStallLocked()
		s.engine.Reset()
		s.logger.Info("auto reset after entrapment",
			zap.String("game_id", s.engine.GameID()),
			zap.Uint64("generation", s.engine.Generation()))
		s.scheduleLocked(false)
	}

	snap := s.snapshotLocked()
	s.notifyLocked(snap)
	s.mu.Unlock()
}

func (s *Scheduler) snapshotLocked() *engine.Snapshot {
	snap := s.engine.Snapshot()
	snap.AIThinking = s.pending == timerAI
	snap.ResetPending = s.pending == timerReset
	return snap
}

func (s *Scheduler) notifyLocked(snap *engine.Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func (s *Scheduler) logAction(res engine.ActionResult) {
	s.logger.Debug("action applied",
		zap.String("actor", string(res.Actor)),
		zap.Bool("ai", res.AI),
		zap.Int("x", res.Target.X),
		zap.Int("y", res.Target.Y),
		zap.String("outcome", string(res.Outcome)),
		zap.Uint64("version", res.Version))
}
