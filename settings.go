package bayan

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	yamlv2 "gopkg.in/yaml.v2"
	"gopkg.in/yaml.v3"
)

// Settings is the configuration object shared with the settings panel. The
// core reads AccidentalType, Volume, Register, IsLocked and the layout
// dimensions; the other fields are presentation state carried along so that
// saving does not lose them.
type Settings struct {
	ButtonSize   float64    `yaml:"buttonSize"`
	RowGap       float64    `yaml:"rowGap"`
	ColGap       float64    `yaml:"colGap"`
	RowOffset    float64    `yaml:"rowOffset"`
	Accidental   Accidental `yaml:"accidentalType"`
	PanX         float64    `yaml:"panX"`
	PanY         float64    `yaml:"panY"`
	IsLocked     bool       `yaml:"isLocked"`
	TextRotation float64    `yaml:"textRotation"`
	Volume       int        `yaml:"volume"`
	Register     string     `yaml:"register"`
	Rotate180    bool       `yaml:"rotate180"`
	Rows         int        `yaml:"rows"`
	Columns      int        `yaml:"columns"`
	StartOctave  int        `yaml:"startOctave"`

	SplitScreenImage    string  `yaml:"splitScreenImage"`
	SplitScreenRatio    float64 `yaml:"splitScreenRatio"`
	SplitScreenPosition string  `yaml:"splitScreenPosition"`
}

//go:embed settings.yml
var defaultSettingsYaml []byte

// SettingsFile is the name of the user settings file inside the bayan
// directory of the user config dir.
const SettingsFile = "settings.yml"

// DefaultSettings returns the factory settings.
func DefaultSettings() Settings {
	var s Settings
	if err := yamlv2.UnmarshalStrict(defaultSettingsYaml, &s); err != nil {
		panic(fmt.Errorf("failed to unmarshal default settings: %w", err))
	}
	return s
}

// Layout returns the layout parameters of the settings.
func (s Settings) Layout() Layout {
	return Layout{Rows: s.Rows, Cols: s.Columns, StartOctave: s.StartOctave, Accidental: s.Accidental}
}

// Normalize clamps the fields the core reads into their valid ranges.
func (s Settings) Normalize() Settings {
	s.Volume = min(max(s.Volume, 0), 100)
	l := s.Layout().Clamp()
	s.Rows, s.Columns, s.StartOctave, s.Accidental = l.Rows, l.Cols, l.StartOctave, l.Accidental
	return s
}

// SettingsPath returns the default location of the user settings file.
func SettingsPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "bayan", SettingsFile), nil
}

// ReadSettings decodes settings from YAML on top of the defaults, so keys
// missing from data keep their default values.
func ReadSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("could not parse settings: %w", err)
	}
	return s.Normalize(), nil
}

// LoadSettings reads the settings file at path. A missing file is not an
// error and yields the defaults; a malformed file yields the defaults and
// the error.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return DefaultSettings(), fmt.Errorf("could not read settings %v: %w", path, err)
	}
	s, err := ReadSettings(data)
	if err != nil {
		return s, fmt.Errorf("%v: %w", path, err)
	}
	return s, nil
}

// SaveSettings writes the settings to path, creating the parent directory
// if needed.
func SaveSettings(path string, s Settings) error {
	contents, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("could not marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create settings directory: %w", err)
	}
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return fmt.Errorf("could not write settings %v: %w", path, err)
	}
	return nil
}
