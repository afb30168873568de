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

	"github.com/wricardo/partyhost/game/minefield"
	"github.com/wricardo/partyhost/game/service"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidPreset  = errors.New("invalid preset")
	ErrInvalidID      = errors.New("invalid preset id")
)

// DefaultPresetName is tried first when choosing the default preset.
const DefaultPresetName = "classic"

// Manager loads minefield presets from a directory of JSON files and caches them.
type Manager struct {
	dir           string
	defaultPreset *minefield.Preset
	presets       map[string]*minefield.Preset
	mu            sync.RWMutex
}

var _ service.PresetCatalog = (*Manager)(nil)

// NewManager creates a preset manager over dir, which must exist.
func NewManager(dir string) (*Manager, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("preset directory does not exist: %s", dir)
	}

	m := &Manager{
		dir:     dir,
		presets: make(map[string]*minefield.Preset),
	}
	m.loadDefaultPreset()

	return m, nil
}

// LoadPreset loads a preset by name, with or without the .json suffix.
func (m *Manager) LoadPreset(name string) (*minefield.Preset, error) {
	id := presetID(name)

	m.mu.RLock()
	if p, ok := m.presets[id]; ok {
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.presets[id]; ok {
		return p, nil
	}

	data, err := os.ReadFile(filepath.Join(m.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
		}
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	p, err := ParsePreset(data)
	if err != nil {
		return nil, err
	}

	m.presets[id] = p
	return p, nil
}

// ParsePreset decodes and validates one preset document.
func ParsePreset(data []byte) (*minefield.Preset, error) {
	var p minefield.Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	if err := minefield.ValidatePreset(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return &p, nil
}

// ListPresets describes every valid preset in the directory, sorted by id.
// Files that fail to load are skipped.
func (m *Manager) ListPresets() ([]*service.PresetInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	var infos []*service.PresetInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := presetID(entry.Name())
		p, err := m.LoadPreset(id)
		if err != nil {
			continue
		}

		infos = append(infos, &service.PresetInfo{
			Filename:    entry.Name(),
			PresetID:    id,
			Name:        p.Name,
			Description: p.Description,
			Rows:        p.Rows,
			Cols:        p.Cols,
			Mines:       p.Mines,
			Density:     p.Density(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].PresetID < infos[j].PresetID })
	return infos, nil
}

// GetDefault returns the default preset. It is never nil.
func (m *Manager) GetDefault() *minefield.Preset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPreset
}

// SetDefault makes the named preset the default.
func (m *Manager) SetDefault(name string) error {
	p, err := m.LoadPreset(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPreset = p
	return nil
}

// RefreshCache drops cached presets and re-resolves the default from disk.
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.presets = make(map[string]*minefield.Preset)
	m.mu.Unlock()

	m.loadDefaultPreset()
}

// SavePreset validates p and writes it to the directory under name.
func (m *Manager) SavePreset(name string, p *minefield.Preset) error {
	if err := minefield.ValidatePreset(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}

	id := presetID(name)
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, name)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.dir, id+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	m.mu.Lock()
	m.presets[id] = p
	m.mu.Unlock()

	return nil
}

// loadDefaultPreset picks classic, else the first valid file, else the built-in field.
func (m *Manager) loadDefaultPreset() {
	p, err := m.LoadPreset(DefaultPresetName)
	if err != nil {
		p = minefield.DefaultPreset()
		if infos, listErr := m.ListPresets(); listErr == nil && len(infos) > 0 {
			if first, err := m.LoadPreset(infos[0].PresetID); err == nil {
				p = first
			}
		}
	}

	m.mu.Lock()
	m.defaultPreset = p
	m.mu.Unlock()
}

// ValidID reports whether id can name a preset file: letters, digits,
// '-' and '_' only.
func ValidID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func presetID(name string) string {
	return strings.TrimSuffix(name, ".json")
}
