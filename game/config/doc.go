// Package config loads game presets from a directory.
//
// A preset is an engine.Rules value stored as JSON (*.json) or YAML
// (*.yaml, *.yml):
//
//	name: blitz
//	description: Fast AI-vs-AI table
//	power: 3
//	escape_distance: 15
//	mode: ai_vs_ai
//	ai_delay_ms: 150
//	trapped_reset_ms: 1000
//
// Presets are validated with engine.ValidateRules when read and cached by
// preset ID (the file name without extension). The default preset is
// "classic" if present, otherwise the first valid preset, otherwise the
// built-in engine.DefaultRules.
//
// Usage:
//
//	manager, err := config.NewManager("presets")
//	if err != nil {
//		return err
//	}
//
//	rules, err := manager.LoadConfig("blitz")
//	presets, err := manager.ListConfigs()
//
// SaveConfig always writes JSON.
package config
