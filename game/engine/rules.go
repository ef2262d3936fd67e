package engine

import (
	"fmt"
	"time"
)

// Rules is a named preset for a table
type Rules struct {
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	Power          int    `json:"power" yaml:"power"`
	EscapeDistance int    `json:"escape_distance" yaml:"escape_distance"`
	Mode           Mode   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AIDelayMS      int    `json:"ai_delay_ms" yaml:"ai_delay_ms"`
	TrappedResetMS int    `json:"trapped_reset_ms" yaml:"trapped_reset_ms"`
	Seed           int64  `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// DefaultRules returns the classic rule set
func DefaultRules() *Rules {
	return &Rules{
		Name:           "classic",
		Description:    "Power 2 Angel, escape at distance 25",
		Power:          DefaultPower,
		EscapeDistance: DefaultEscapeDistance,
		Mode:           HumanVsHuman,
		AIDelayMS:      DefaultAIDelayMS,
		TrappedResetMS: DefaultTrappedResetMS,
	}
}

// AIDelay is the pause before an AI side acts
func (r *Rules) AIDelay() time.Duration {
	return time.Duration(r.AIDelayMS) * time.Millisecond
}

// TrappedResetDelay is the pause between entrapment and the automatic reset
func (r *Rules) TrappedResetDelay() time.Duration {
	return time.Duration(r.TrappedResetMS) * time.Millisecond
}

// StartMode returns the configured mode, defaulting to human_vs_human
func (r *Rules) StartMode() Mode {
	if r.Mode == "" {
		return HumanVsHuman
	}
	return r.Mode
}

// ValidatePower checks that k is within [MinPower, MaxPower]
func ValidatePower(k int) error {
	if k < MinPower || k > MaxPower {
		return fmt.Errorf("%w: must be between %d and %d, got %d", ErrInvalidPower, MinPower, MaxPower, k)
	}
	return nil
}

// ValidateMode checks that m is one of Modes
func ValidateMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q (want one of %v)", ErrInvalidMode, m, Modes)
	}
	return nil
}

// ValidateRules validates a preset for correctness and playability
func ValidateRules(rules *Rules) error {
	if rules == nil {
		return fmt.Errorf("rules validation: rules cannot be nil")
	}
	if rules.Name == "" {
		return fmt.Errorf("rules validation: name is required")
	}
	if err := ValidatePower(rules.Power); err != nil {
		return fmt.Errorf("rules validation: power: %w", err)
	}
	if rules.EscapeDistance < MinEscapeDistance || rules.EscapeDistance > MaxEscapeDistance {
		return fmt.Errorf("rules validation: escape_distance must be between %d and %d, got %d",
			MinEscapeDistance, MaxEscapeDistance, rules.EscapeDistance)
	}
	if rules.Mode != "" {
		if err := ValidateMode(rules.Mode); err != nil {
			return fmt.Errorf("rules validation: mode: %w", err)
		}
	}
	if rules.AIDelayMS < 0 || rules.AIDelayMS > MaxDelayMS {
		return fmt.Errorf("rules validation: ai_delay_ms must be between 0 and %d, got %d", MaxDelayMS, rules.AIDelayMS)
	}
	if rules.TrappedResetMS < 0 || rules.TrappedResetMS > MaxDelayMS {
		return fmt.Errorf("rules validation: trapped_reset_ms must be between 0 and %d, got %d", MaxDelayMS, rules.TrappedResetMS)
	}
	return nil
}
