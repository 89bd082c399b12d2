package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadSettings decodes settings.toml. Keys absent from the file keep
// their zero value; defaults are applied by fromSettings.
func LoadSettings(settingsPath string) (*Settings, error) {
	settings := &Settings{}

	if _, err := toml.DecodeFile(settingsPath, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return settings, nil
}

// CreateDefaultSettings writes the commented template if settingsPath
// does not exist yet.
func CreateDefaultSettings(settingsPath string) error {
	if FileExists(settingsPath) {
		return nil
	}

	if err := EnsureDir(filepath.Dir(settingsPath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := GenerateSettingsTemplate()
	if err := os.WriteFile(settingsPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}
