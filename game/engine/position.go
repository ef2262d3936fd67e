package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Position represents x,y coordinates on the unbounded grid
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String renders the position the way status messages print it
func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Key is the canonical lookup key of a Position ("x,y").
type Key string

// ToKey returns the canonical key for a position
func ToKey(p Position) Key {
	return Key(strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y))
}

// ParseKey decodes a key produced by ToKey
func ParseKey(k Key) (Position, error) {
	xs, ys, ok := strings.Cut(string(k), ",")
	if !ok {
		return Position{}, fmt.Errorf("malformed position key %q: missing separator", k)
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return Position{}, fmt.Errorf("malformed position key %q: %w", k, err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return Position{}, fmt.Errorf("malformed position key %q: %w", k, err)
	}
	return Position{X: x, Y: y}, nil
}

// FromKey is the inverse of ToKey. Keys only ever come from ToKey inside the
// engine, so a malformed key is a programming error and panics.
func FromKey(k Key) Position {
	p, err := ParseKey(k)
	if err != nil {
		panic(err)
	}
	return p
}

// ChebyshevDistance is max(|dx|, |dy|), the Angel's reach metric
func ChebyshevDistance(from, to Position) int {
	return max(absDiff(from.X, to.X), absDiff(from.Y, to.Y))
}

// ManhattanDistance calculates the Manhattan distance between two positions.
// It saturates at math.MaxInt instead of wrapping.
func ManhattanDistance(from, to Position) int {
	dx, dy := absDiff(from.X, to.X), absDiff(from.Y, to.Y)
	if dx > math.MaxInt-dy {
		return math.MaxInt
	}
	return dx + dy
}

// DistanceFromOrigin is the Chebyshev distance used for the escape check
func DistanceFromOrigin(p Position) int {
	return ChebyshevDistance(Position{}, p)
}

// InBounds reports whether both coordinates are within MaxCoordinate
func InBounds(p Position) bool {
	return absDiff(p.X, 0) <= MaxCoordinate && absDiff(p.Y, 0) <= MaxCoordinate
}

// absDiff is |a-b|, clamped to math.MaxInt
func absDiff(a, b int) int {
	var d uint
	if a > b {
		d = uint(a) - uint(b)
	} else {
		d = uint(b) - uint(a)
	}
	if d > math.MaxInt {
		return math.MaxInt
	}
	return int(d)
}
