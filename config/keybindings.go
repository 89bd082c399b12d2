package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// KeyBindingsConfig holds the console modifier and optional per-action overrides
type KeyBindingsConfig struct {
	Modifiers ModifierConfig    `toml:"modifiers"`
	Actions   map[string]string `toml:"actions"`
}

type ModifierConfig struct {
	Primary string `toml:"primary"` // e.g., "ctrl", "alt"
}

type actionDef struct {
	modifier string // "primary" or "none"
	key      string
}

// Console actions and their default keys. Users can override any of these in
// the [actions] section of keybindings.toml.
var actionRegistry = map[string]actionDef{
	"run_tool":        {"primary", "s"},
	"copy_last_reply": {"primary", "y"},
	"clear_history":   {"primary", "l"},
	"explain":         {"primary", "e"},
	"complete":        {"none", "tab"},
	"switch_field":    {"none", "shift+tab"},
	"quit":            {"none", "esc"},
}

func DefaultKeybindings() *KeyBindingsConfig {
	return &KeyBindingsConfig{
		Modifiers: ModifierConfig{Primary: "ctrl"},
	}
}

// LoadKeybindings reads keybindings.toml from the data directory, writing
// the template on first use.
func LoadKeybindings(dataDir string) (*KeyBindingsConfig, error) {
	cfg := DefaultKeybindings()
	keybindingsPath := filepath.Join(dataDir, "keybindings.toml")

	if !FileExists(keybindingsPath) {
		if err := CreateDefaultKeybindings(dataDir); err != nil {
			return nil, fmt.Errorf("failed to create keybindings: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(keybindingsPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse keybindings: %w", err)
	}

	if cfg.Modifiers.Primary == "" {
		cfg.Modifiers.Primary = "ctrl"
	}

	if ok, msg := cfg.Validate(); !ok {
		return nil, fmt.Errorf("invalid keybindings: %s", msg)
	}

	return cfg, nil
}

func CreateDefaultKeybindings(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	keybindingsPath := filepath.Join(dataDir, "keybindings.toml")
	if FileExists(keybindingsPath) {
		return nil
	}

	if err := os.WriteFile(keybindingsPath, []byte(GenerateKeybindingsTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write keybindings: %w", err)
	}

	return nil
}

func GenerateKeybindingsTemplate() string {
	return `# mcpgate console keybindings
# Location: <data_directory>/keybindings.toml
# This file uses TOML format: https://toml.io

[modifiers]
primary = "ctrl"   # Options: ctrl, alt

# Override single actions. Available actions:
#   run_tool, copy_last_reply, clear_history, explain, complete, switch_field, quit
[actions]
# run_tool = "ctrl+r"
# quit = "ctrl+q"
`
}

func (kb *KeyBindingsConfig) Primary() string {
	if kb.Modifiers.Primary == "" {
		return "ctrl"
	}
	return kb.Modifiers.Primary
}

// PrimaryKey builds a keybinding string with the primary modifier.
// PrimaryKey("s") returns "ctrl+s" by default.
func (kb *KeyBindingsConfig) PrimaryKey(key string) string {
	return kb.Primary() + "+" + key
}

// GetActionKey returns the keybinding for an action, preferring user
// overrides over the registry defaults. Unknown actions return "".
func (kb *KeyBindingsConfig) GetActionKey(action string) string {
	if kb.Actions != nil {
		if override, exists := kb.Actions[action]; exists && override != "" {
			return override
		}
	}

	if def, exists := actionRegistry[action]; exists {
		switch def.modifier {
		case "primary":
			return kb.PrimaryKey(def.key)
		case "none":
			return def.key
		}
	}

	return ""
}

// DisplayActionKey returns a display-friendly version of an action's keybinding
// Example: "ctrl+shift+j" -> "Ctrl+Shift+J"
func (kb *KeyBindingsConfig) DisplayActionKey(action string) string {
	key := kb.GetActionKey(action)
	if key == "" {
		return ""
	}
	return capitalizeKeybinding(key)
}

// capitalizeKeybinding capitalizes each part of a keybinding. A lone
// uppercase letter after a modifier is shown as Shift+<letter>.
func capitalizeKeybinding(key string) string {
	parts := strings.Split(key, "+")
	hasShift := false
	for _, p := range parts {
		if strings.ToLower(p) == "shift" {
			hasShift = true
			break
		}
	}

	var result []string
	for i, part := range parts {
		if len(part) == 0 {
			continue
		}
		if len(part) == 1 && part[0] >= 'A' && part[0] <= 'Z' {
			if !hasShift && i > 0 {
				result = append(result, "Shift")
			}
			result = append(result, part)
			continue
		}
		result = append(result, strings.ToUpper(part[:1])+part[1:])
	}

	return strings.Join(result, "+")
}

// Validate checks the modifier. Returns (isValid, message).
func (kb *KeyBindingsConfig) Validate() (bool, string) {
	primary := kb.Primary()

	if primary == "shift" {
		return false, "Shift alone conflicts with typing"
	}

	// ctrl+c always quits, so it cannot be bound to anything else
	for action, key := range kb.Actions {
		if key == "ctrl+c" && action != "quit" {
			return false, fmt.Sprintf("ctrl+c is reserved (bound to %s)", action)
		}
	}

	return true, ""
}
