// Package engine provides the core rules of the Angel Problem game.
//
// The engine package implements:
//   - The position key codec used to index the Demon's obstacle set
//   - Legal Angel moves (Chebyshev reach K, jumping over blocks)
//   - The Demon and Angel AI policies
//   - The turn-based state machine with escape and entrapment detection
//   - Rule presets and their validation
//
// Core Types:
//
// GameEngine owns one table's state and exposes the two validated actions,
// PlaceRoadblock and MoveAngel, plus Reset, SetMode and SetPower. Snapshot is
// the read-only view handed to renderers and transports. Rules is a preset
// loaded from JSON or YAML.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.DefaultRules())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res := eng.PlaceRoadblock(1, 0, false)
//	res = eng.MoveAngel(0, 2, false)
//	state := eng.Snapshot()
//
// Game Rules:
//
// The Demon moves first and blocks one free cell per turn. The Angel then
// jumps to any free cell within Chebyshev distance K. The Angel wins by
// reaching distance EscapeDistance (25 by default) from the origin; it loses
// when every cell in reach is blocked on its turn.
//
// GameEngine is not safe for concurrent use. Package scheduler wraps it with
// locking and timed AI turns.
package engine
