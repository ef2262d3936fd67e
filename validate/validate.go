// Command validate checks the game presets in a directory (../presets by
// default, or the first argument). For each *.json, *.yaml and *.yml file it
// checks:
//   - the file parses with the decoder matching its extension
//   - name, power, escape distance, mode and timer ranges
//   - the preset ID is not shadowed by another file with the same base name
//
// Valid presets also get a short playability summary.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/angel-problem/game/config"
	"github.com/wricardo/angel-problem/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validatePreset loads and validates a single preset file
func validatePreset(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	rules, err := config.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Errors = append(result.Errors, describe(rules)...)
	return result
}

// describe summarises how a valid preset plays
func describe(rules *engine.Rules) []string {
	info := []string{
		fmt.Sprintf("✓ %q: power %d, escape distance %d, mode %s",
			rules.Name, rules.Power, rules.EscapeDistance, rules.StartMode()),
	}

	// Fewest Angel moves that can reach the escape ring
	jumps := (rules.EscapeDistance + rules.Power - 1) / rules.Power
	info = append(info, fmt.Sprintf("✓ Angel needs at least %d moves to escape", jumps))

	if jumps == 1 {
		info = append(info, "⚠ Angel escapes on its first move")
	}
	if rules.StartMode().AngelIsAI() && rules.StartMode().DemonIsAI() && rules.AIDelayMS == 0 {
		info = append(info, "⚠ ai_vs_ai with no AI delay plays out instantly")
	}
	if rules.TrappedResetMS == 0 {
		info = append(info, "⚠ trapped_reset_ms is 0, tables reset as soon as the Angel is trapped")
	}
	return info
}

// presetFiles lists the preset files of dir in name order
func presetFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// validateDir validates every preset in dir and flags files whose base names
// collide, since only one of them can be loaded.
func validateDir(dir string) ([]ValidationResult, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("preset directory %s: %w", dir, err)
	}

	files, err := presetFiles(dir)
	if err != nil {
		return nil, err
	}

	owners := make(map[string]string)
	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		result := validatePreset(file)

		base := filepath.Base(file)
		id := strings.TrimSuffix(base, filepath.Ext(base))
		if owner, taken := owners[id]; taken {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("preset ID %q already provided by %s", id, owner))
		} else {
			owners[id] = base
		}

		results = append(results, result)
	}
	return results, nil
}

func main() {
	presetDir := "../presets"
	if len(os.Args) > 1 {
		presetDir = os.Args[1]
	}

	results, err := validateDir(presetDir)
	if err != nil {
		fmt.Printf("Error finding preset files: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Printf("No presets found in %s\n", presetDir)
		os.Exit(1)
	}

	allValid := true
	for _, result := range results {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") && !strings.HasPrefix(err, "⚠") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All presets are valid!")
	} else {
		fmt.Println("❌ Some presets have errors")
		os.Exit(1)
	}
}
