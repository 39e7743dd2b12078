package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/blackwell-systems/plexus/internal/status"
	"github.com/blackwell-systems/plexus/internal/store"
)

// StatusRadio selects which score dimension the status filter applies to.
type StatusRadio string

const (
	RadioNone StatusRadio = "none"
	RadioDg   StatusRadio = "dg"
	RadioMg   StatusRadio = "mg"
)

// Order is the name sort direction.
type Order string

const (
	OrderAZ Order = "a_z"
	OrderZA Order = "z_a"
)

// InstalledFromAny disables the install source filter.
const InstalledFromAny = "any"

// Preference keys as stored in preferences.yaml.
const (
	KeyStatusRadio   = "status_radio"
	KeyDgStatusSort  = "dg_status_sort"
	KeyMgStatusSort  = "mg_status_sort"
	KeyOrder         = "order"
	KeyInstalledFrom = "installed_from"
)

// Preferences are the list filter and sort selections.
type Preferences struct {
	StatusRadio   StatusRadio
	DgStatus      status.Chip
	MgStatus      status.Chip
	Order         Order
	InstalledFrom string // InstalledFromAny or a store.InstalledFrom* tag
}

// DefaultPreferences shows everything A-Z.
func DefaultPreferences() Preferences {
	return Preferences{
		StatusRadio:   RadioNone,
		DgStatus:      status.ChipAny,
		MgStatus:      status.ChipAny,
		Order:         OrderAZ,
		InstalledFrom: InstalledFromAny,
	}
}

var validValues = map[string][]string{
	KeyStatusRadio:   {string(RadioNone), string(RadioDg), string(RadioMg)},
	KeyDgStatusSort:  chipNames(),
	KeyMgStatusSort:  chipNames(),
	KeyOrder:         {string(OrderAZ), string(OrderZA)},
	KeyInstalledFrom: {InstalledFromAny, store.InstalledFromGooglePlay, store.InstalledFromFDroid, store.InstalledFromOther},
}

func chipNames() []string {
	names := make([]string, len(status.Chips))
	for i, c := range status.Chips {
		names[i] = string(c)
	}
	return names
}

// PreferenceKeys returns the known keys, sorted.
func PreferenceKeys() []string {
	keys := make([]string, 0, len(validValues))
	for k := range validValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidValues returns the accepted values for key.
func ValidValues(key string) ([]string, bool) {
	values, ok := validValues[key]
	return values, ok
}

func isValid(key, value string) bool {
	for _, v := range validValues[key] {
		if v == value {
			return true
		}
	}
	return false
}

// Get returns the value of key.
func (p Preferences) Get(key string) (string, error) {
	switch key {
	case KeyStatusRadio:
		return string(p.StatusRadio), nil
	case KeyDgStatusSort:
		return string(p.DgStatus), nil
	case KeyMgStatusSort:
		return string(p.MgStatus), nil
	case KeyOrder:
		return string(p.Order), nil
	case KeyInstalledFrom:
		return p.InstalledFrom, nil
	default:
		return "", fmt.Errorf("unknown preference %q", key)
	}
}

// With returns a copy of p with key set to value, validating both.
func (p Preferences) With(key, value string) (Preferences, error) {
	values, ok := validValues[key]
	if !ok {
		return p, fmt.Errorf("unknown preference %q (want one of %s)", key, strings.Join(PreferenceKeys(), ", "))
	}
	value = strings.ToLower(strings.TrimSpace(value))
	if !isValid(key, value) {
		return p, fmt.Errorf("invalid value %q for %s (want one of %s)", value, key, strings.Join(values, ", "))
	}

	switch key {
	case KeyStatusRadio:
		p.StatusRadio = StatusRadio(value)
	case KeyDgStatusSort:
		p.DgStatus = status.Chip(value)
	case KeyMgStatusSort:
		p.MgStatus = status.Chip(value)
	case KeyOrder:
		p.Order = Order(value)
	case KeyInstalledFrom:
		p.InstalledFrom = value
	}
	return p, nil
}

// PreferenceStore reads and writes preferences.yaml.
type PreferenceStore struct {
	v    *viper.Viper
	path string

	mu      sync.RWMutex
	current Preferences
}

// LoadPreferences reads {dir}/preferences.yaml. A missing file yields the
// defaults without an error. Unknown or invalid values fall back to the
// default for that key.
func LoadPreferences(dir string) (*PreferenceStore, error) {
	path := filepath.Join(dir, "preferences.yaml")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	ps := &PreferenceStore{v: v, path: path}
	if err := ps.reload(); err != nil {
		return nil, err
	}
	return ps, nil
}

func (ps *PreferenceStore) reload() error {
	if err := ps.v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read preferences: %w", err)
			}
		}
	}

	prefs := DefaultPreferences()
	for _, key := range PreferenceKeys() {
		raw := strings.ToLower(strings.TrimSpace(ps.v.GetString(key)))
		if raw == "" {
			continue
		}
		if next, err := prefs.With(key, raw); err == nil {
			prefs = next
		}
	}

	ps.mu.Lock()
	ps.current = prefs
	ps.mu.Unlock()
	return nil
}

// Path returns the preferences file path.
func (ps *PreferenceStore) Path() string {
	return ps.path
}

// Get returns the current preferences.
func (ps *PreferenceStore) Get() Preferences {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.current
}

// Set validates and persists a single preference.
func (ps *PreferenceStore) Set(key, value string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	next, err := ps.current.With(key, value)
	if err != nil {
		return err
	}
	if err := ps.write(next); err != nil {
		return err
	}
	ps.current = next
	return nil
}

func (ps *PreferenceStore) write(p Preferences) error {
	if err := os.MkdirAll(filepath.Dir(ps.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	for _, key := range PreferenceKeys() {
		value, _ := p.Get(key)
		ps.v.Set(key, value)
	}
	if err := ps.v.WriteConfigAs(ps.path); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

// Watch reloads preferences whenever the file changes and calls onChange with
// the new values. The file is created with the current values if missing.
func (ps *PreferenceStore) Watch(onChange func(Preferences)) error {
	if _, err := os.Stat(ps.path); errors.Is(err, os.ErrNotExist) {
		ps.mu.Lock()
		err := ps.write(ps.current)
		ps.mu.Unlock()
		if err != nil {
			return err
		}
	}

	ps.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := ps.reload(); err != nil {
			return
		}
		if onChange != nil {
			onChange(ps.Get())
		}
	})
	ps.v.WatchConfig()
	return nil
}
