package engine

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// ObstacleSet holds every cell the Demon has claimed. Cells are only ever
// added; the set is replaced wholesale when a game resets.
type ObstacleSet struct {
	keys mapset.Set[Key]
}

// NewObstacleSet creates a set pre-populated with the given positions
func NewObstacleSet(positions ...Position) *ObstacleSet {
	s := &ObstacleSet{keys: mapset.New[Key]()}
	for _, p := range positions {
		s.Add(p)
	}
	return s
}

// Add claims a cell
func (s *ObstacleSet) Add(p Position) {
	s.keys.Put(ToKey(p))
}

// Has reports whether the cell is blocked
func (s *ObstacleSet) Has(p Position) bool {
	return s.HasKey(ToKey(p))
}

// HasKey reports whether the key is blocked
func (s *ObstacleSet) HasKey(k Key) bool {
	return s.keys.Has(k)
}

// Len returns the number of blocked cells
func (s *ObstacleSet) Len() int {
	return s.keys.Size()
}

// Each calls fn for every blocked cell in unspecified order
func (s *ObstacleSet) Each(fn func(p Position)) {
	s.keys.Each(func(k Key) {
		fn(FromKey(k))
	})
}

// Positions returns the blocked cells sorted by x then y
func (s *ObstacleSet) Positions() []Position {
	out := make([]Position, 0, s.keys.Size())
	s.Each(func(p Position) {
		out = append(out, p)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}
