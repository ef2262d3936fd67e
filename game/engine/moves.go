package engine

// LegalMoves returns every cell the Angel can land on: Chebyshev distance at
// most power from angel, not the current cell, not blocked. Blocked cells in
// between are jumped over. Order is row-major over dx then dy.
func LegalMoves(angel Position, power int, obstacles *ObstacleSet) []Position {
	if power < 1 {
		return nil
	}

	side := 2*power + 1
	moves := make([]Position, 0, side*side-1)

	for dx := -power; dx <= power; dx++ {
		for dy := -power; dy <= power; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			target := Position{X: angel.X + dx, Y: angel.Y + dy}
			if obstacles != nil && obstacles.Has(target) {
				continue
			}
			moves = append(moves, target)
		}
	}

	return moves
}

// IsTrapped reports whether the Angel has no legal landing cell
func IsTrapped(angel Position, power int, obstacles *ObstacleSet) bool {
	return len(LegalMoves(angel, power, obstacles)) == 0
}

func containsPosition(moves []Position, p Position) bool {
	for _, m := range moves {
		if m == p {
			return true
		}
	}
	return false
}
