package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/angel-problem/game/engine"
	"github.com/wricardo/angel-problem/game/service"
)

var (
	ErrConfigNotFound = service.ErrPresetNotFound
	ErrInvalidConfig  = service.ErrInvalidPreset
)

// DefaultPreset is loaded as the default when present
const DefaultPreset = "classic"

// extensions are tried in this order when a preset is named without one
var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles game preset loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.Rules
	configs       map[string]*engine.Rules
	mu            sync.RWMutex
}

// NewManager creates a new preset manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("preset directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.Rules),
	}

	m.defaultConfig = m.findDefault()
	return m, nil
}

// LoadConfig loads a preset by name. The name may carry an extension.
func (m *Manager) LoadConfig(name string) (*engine.Rules, error) {
	id := presetID(name)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: bad preset name %q", ErrConfigNotFound, name)
	}

	m.mu.RLock()
	if rules, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return rules, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if rules, exists := m.configs[id]; exists {
		return rules, nil
	}

	path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	rules, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	m.configs[id] = rules
	return rules, nil
}

// ListConfigs returns information about all valid presets in the directory
func (m *Manager) ListConfigs() ([]*service.PresetInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	presets := []*service.PresetInfo{}
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isPresetFile(entry.Name()) {
			continue
		}

		id := presetID(entry.Name())
		if seen[id] {
			continue
		}

		rules, err := m.LoadConfig(entry.Name())
		if err != nil {
			// Skip invalid presets
			continue
		}
		seen[id] = true

		presets = append(presets, &service.PresetInfo{
			Filename:       entry.Name(),
			PresetID:       id,
			Name:           rules.Name,
			Description:    rules.Description,
			Power:          rules.Power,
			EscapeDistance: rules.EscapeDistance,
			Mode:           rules.StartMode(),
		})
	}

	sort.Slice(presets, func(i, j int) bool { return presets[i].PresetID < presets[j].PresetID })
	return presets, nil
}

// GetDefault returns the default preset
func (m *Manager) GetDefault() *engine.Rules {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default preset by name
func (m *Manager) SetDefault(name string) error {
	rules, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = rules
	return nil
}

// RefreshCache drops cached presets and re-resolves the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*engine.Rules)
	m.mu.Unlock()

	def := m.findDefault()

	m.mu.Lock()
	m.defaultConfig = def
	m.mu.Unlock()
}

// SaveConfig validates a preset and writes it as <name>.json
func (m *Manager) SaveConfig(name string, rules *engine.Rules) error {
	if err := engine.ValidateRules(rules); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	id := presetID(name)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: bad preset name %q", ErrInvalidConfig, name)
	}

	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	path := filepath.Join(m.configDir, id+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = rules
	m.mu.Unlock()

	return nil
}

// ReadFile parses and validates a single preset file, choosing the decoder
// from the extension.
func ReadFile(path string) (*engine.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var rules engine.Rules
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rules)
	default:
		err = json.Unmarshal(data, &rules)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}

	if err := engine.ValidateRules(&rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &rules, nil
}

// resolve finds the file backing a preset name
func (m *Manager) resolve(name string) (string, error) {
	if isPresetFile(name) {
		return filepath.Join(m.configDir, name), nil
	}
	for _, ext := range extensions {
		path := filepath.Join(m.configDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrConfigNotFound
}

// findDefault prefers classic, then the first valid preset, then the
// built-in rules
func (m *Manager) findDefault() *engine.Rules {
	if rules, err := m.LoadConfig(DefaultPreset); err == nil {
		return rules
	}

	presets, err := m.ListConfigs()
	if err == nil && len(presets) > 0 {
		if rules, err := m.LoadConfig(presets[0].Filename); err == nil {
			return rules
		}
	}

	return engine.DefaultRules()
}

func isPresetFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// presetID strips a known extension from a file or preset name
func presetID(name string) string {
	if isPresetFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// IsNotFound reports whether err means the preset does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound)
}
