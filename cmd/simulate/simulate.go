package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"go.uber.org/zap"

	"github.com/wricardo/angel-problem/game/engine"
)

// GameResult is how one game finished
type GameResult struct {
	Winner       engine.Side
	AngelMoves   int
	BlocksPlaced int
	Distance     int
	// Stalled is set when an AI had no move and the game could not continue
	Stalled bool
}

// Batch plays Games in-process ai_vs_ai games with deterministic seeds
type Batch struct {
	Rules    *engine.Rules
	Games    int
	Seed     int64
	MaxTurns int
	Logger   *zap.Logger
}

// Run plays the batch, stopping early if ctx is cancelled
func (b *Batch) Run(ctx context.Context) (*Summary, error) {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	summary := &Summary{}
	for i := 0; i < b.Games; i++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		seed := b.Seed + int64(i)
		result, err := PlayGame(b.Rules, rand.New(rand.NewSource(seed)), b.MaxTurns)
		if err != nil {
			return summary, err
		}
		summary.Add(result)

		logger.Debug("game finished",
			zap.Int("game", i+1),
			zap.Int64("seed", seed),
			zap.String("winner", string(result.Winner)),
			zap.Int("angel_moves", result.AngelMoves),
			zap.Int("blocks", result.BlocksPlaced),
			zap.Int("distance", result.Distance),
			zap.Bool("stalled", result.Stalled))
	}
	return summary, nil
}

// PlayGame runs one game with both sides on AI until it ends, an AI stalls,
// or maxTurns actions have been taken.
func PlayGame(rules *engine.Rules, rng *rand.Rand, maxTurns int) (GameResult, error) {
	r := *rules
	r.Mode = engine.AIVsAI
	eng, err := engine.NewEngine(&r)
	if err != nil {
		return GameResult{}, err
	}

	var stalled bool
	for turn := 0; turn < maxTurns && eng.IsActive(); turn++ {
		if res := eng.PlayAITurn(rng); !res.Accepted && res.Reason == engine.ReasonNoAIMove {
			stalled = true
			break
		}
	}

	snap := eng.Snapshot()
	return GameResult{
		Winner:       snap.Winner,
		AngelMoves:   snap.AngelMoves,
		BlocksPlaced: snap.BlocksPlaced,
		Distance:     snap.Distance,
		Stalled:      stalled,
	}, nil
}

// Summary aggregates game results
type Summary struct {
	Games        int
	AngelWins    int
	DemonWins    int
	Unfinished   int
	Stalls       int
	AngelMoves   int
	BlocksPlaced int
}

// Add folds one result into the summary
func (s *Summary) Add(r GameResult) {
	s.Games++
	s.AngelMoves += r.AngelMoves
	s.BlocksPlaced += r.BlocksPlaced

	switch r.Winner {
	case engine.SideAngel:
		s.AngelWins++
	case engine.SideDemon:
		s.DemonWins++
	default:
		s.Unfinished++
		if r.Stalled {
			s.Stalls++
		}
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func average(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// Print writes a human-readable report
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Games: %d\n", s.Games)
	fmt.Fprintf(w, "😇 Angel escaped: %d (%.1f%%)\n", s.AngelWins, percent(s.AngelWins, s.Games))
	fmt.Fprintf(w, "😈 Demon trapped: %d (%.1f%%)\n", s.DemonWins, percent(s.DemonWins, s.Games))
	if s.Unfinished > 0 {
		fmt.Fprintf(w, "⏸ Unfinished: %d (%d stalled)\n", s.Unfinished, s.Stalls)
	}
	fmt.Fprintf(w, "Avg Angel moves: %.1f | Avg blocks: %.1f\n",
		average(s.AngelMoves, s.Games), average(s.BlocksPlaced, s.Games))
}
