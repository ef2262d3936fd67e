package engine

import (
	"math"
	"testing"
)

func TestToKey_RoundTrip(t *testing.T) {
	tests := []Position{
		{0, 0},
		{1, -1},
		{-25, 25},
		{123456, -987654},
	}

	for _, p := range tests {
		t.Run(string(ToKey(p)), func(t *testing.T) {
			got := FromKey(ToKey(p))
			if got != p {
				t.Errorf("FromKey(ToKey(%v)) = %v", p, got)
			}
		})
	}
}

func TestToKey_StructuralEquality(t *testing.T) {
	a := Position{X: 3, Y: -4}
	b := Position{X: 3, Y: -4}
	c := Position{X: -4, Y: 3}

	if ToKey(a) != ToKey(b) {
		t.Errorf("Expected equal keys for %v and %v", a, b)
	}
	if ToKey(a) == ToKey(c) {
		t.Errorf("Expected different keys for %v and %v", a, c)
	}
	if ToKey(a) != "3,-4" {
		t.Errorf("Expected key '3,-4', got %q", ToKey(a))
	}
}

func TestParseKey_Malformed(t *testing.T) {
	tests := []struct {
		name string
		key  Key
	}{
		{"empty", ""},
		{"no separator", "12"},
		{"bad x", "a,1"},
		{"bad y", "1,b"},
		{"extra field", "1,2,3"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := ParseKey(test.key); err == nil {
				t.Errorf("ParseKey(%q): expected error", test.key)
			}
		})
	}
}

func TestFromKey_PanicsOnMalformed(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected FromKey to panic on malformed key")
		}
	}()
	FromKey("not-a-key")
}

func TestDistances(t *testing.T) {
	tests := []struct {
		name      string
		from, to  Position
		chebyshev int
		manhattan int
	}{
		{"same cell", Position{0, 0}, Position{0, 0}, 0, 0},
		{"diagonal", Position{0, 0}, Position{2, 2}, 2, 4},
		{"negative", Position{-1, 3}, Position{2, -1}, 4, 7},
		{"min int x", Position{-1, -1}, Position{math.MinInt, 0}, math.MaxInt, math.MaxInt},
		{"opposite extremes", Position{math.MaxInt, 0}, Position{math.MinInt, 0}, math.MaxInt, math.MaxInt},
		{"both axes extreme", Position{0, 0}, Position{math.MaxInt, math.MinInt}, math.MaxInt, math.MaxInt},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ChebyshevDistance(test.from, test.to); got != test.chebyshev {
				t.Errorf("ChebyshevDistance: expected %d, got %d", test.chebyshev, got)
			}
			if got := ManhattanDistance(test.from, test.to); got != test.manhattan {
				t.Errorf("ManhattanDistance: expected %d, got %d", test.manhattan, got)
			}
		})
	}

	if got := DistanceFromOrigin(Position{X: -25, Y: 3}); got != 25 {
		t.Errorf("DistanceFromOrigin: expected 25, got %d", got)
	}
}

func TestInBounds(t *testing.T) {
	tests := []struct {
		pos  Position
		want bool
	}{
		{Position{0, 0}, true},
		{Position{MaxCoordinate, -MaxCoordinate}, true},
		{Position{MaxCoordinate + 1, 0}, false},
		{Position{0, -MaxCoordinate - 1}, false},
		{Position{math.MinInt, 0}, false},
		{Position{0, math.MaxInt}, false},
	}

	for _, test := range tests {
		if got := InBounds(test.pos); got != test.want {
			t.Errorf("InBounds(%v): expected %v, got %v", test.pos, test.want, got)
		}
	}
}

func TestObstacleSet(t *testing.T) {
	set := NewObstacleSet(Position{1, 0}, Position{-1, 2})

	if set.Len() != 2 {
		t.Fatalf("Expected 2 obstacles, got %d", set.Len())
	}
	if !set.Has(Position{1, 0}) || !set.HasKey("-1,2") {
		t.Error("Expected both seeded cells to be present")
	}
	if set.Has(Position{0, 1}) {
		t.Error("Unexpected obstacle at (0,1)")
	}

	set.Add(Position{1, 0})
	if set.Len() != 2 {
		t.Errorf("Adding a duplicate should not grow the set, got %d", set.Len())
	}

	set.Add(Position{-1, -5})
	got := set.Positions()
	want := []Position{{-1, -5}, {-1, 2}, {1, 0}}
	if len(got) != len(want) {
		t.Fatalf("Expected %d positions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Positions()[%d]: expected %v, got %v", i, want[i], got[i])
		}
	}
}
