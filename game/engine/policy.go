package engine

import (
	"math"
	"math/rand"
)

// ChooseBlock is the Demon AI: a uniformly random free cell within
// Chebyshev radius power+1 of the Angel. Returns false when every such cell
// is already blocked.
func ChooseBlock(angel Position, power int, obstacles *ObstacleSet, rng *rand.Rand) (Position, bool) {
	radius := power + 1
	var candidates []Position

	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			target := Position{X: angel.X + dx, Y: angel.Y + dy}
			if target == angel {
				continue
			}
			if obstacles != nil && obstacles.Has(target) {
				continue
			}
			candidates = append(candidates, target)
		}
	}

	if len(candidates) == 0 {
		return Position{}, false
	}

	return candidates[rng.Intn(len(candidates))], true
}

// ChooseMove is the Angel AI: the legal move whose nearest obstacle (by
// Manhattan distance) is furthest away. Ties go to the earliest move.
func ChooseMove(moves []Position, obstacles *ObstacleSet) (Position, bool) {
	if len(moves) == 0 {
		return Position{}, false
	}
	if obstacles == nil || obstacles.Len() == 0 {
		return moves[0], true
	}

	blocked := obstacles.Positions()
	best := moves[0]
	bestScore := math.MinInt

	for _, move := range moves {
		nearest := math.MaxInt
		for _, rb := range blocked {
			if d := ManhattanDistance(move, rb); d < nearest {
				nearest = d
			}
		}
		if nearest > bestScore {
			bestScore = nearest
			best = move
		}
	}

	return best, true
}
