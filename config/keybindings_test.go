package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

func TestGetActionKey(t *testing.T) {
	kb := DefaultKeybindings()

	testboil.FailTestIfDiff(t, kb.GetActionKey("run_tool"), "ctrl+s")
	testboil.FailTestIfDiff(t, kb.GetActionKey("quit"), "esc")
	testboil.FailTestIfDiff(t, kb.GetActionKey("no_such_action"), "")

	kb.Modifiers.Primary = "alt"
	testboil.FailTestIfDiff(t, kb.GetActionKey("copy_last_reply"), "alt+y")

	kb.Actions = map[string]string{"copy_last_reply": "ctrl+o"}
	testboil.FailTestIfDiff(t, kb.GetActionKey("copy_last_reply"), "ctrl+o")
}

func TestDisplayActionKey(t *testing.T) {
	kb := DefaultKeybindings()
	kb.Actions = map[string]string{"explain": "alt+E"}

	testboil.FailTestIfDiff(t, kb.DisplayActionKey("run_tool"), "Ctrl+S")
	testboil.FailTestIfDiff(t, kb.DisplayActionKey("explain"), "Alt+Shift+E")
	testboil.FailTestIfDiff(t, kb.DisplayActionKey("switch_field"), "Shift+Tab")
}

func TestLoadKeybindings(t *testing.T) {
	t.Run("writes template on first use", func(t *testing.T) {
		dir := t.TempDir()
		kb, err := LoadKeybindings(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		testboil.FailTestIfDiff(t, kb.Primary(), "ctrl")
		if !FileExists(filepath.Join(dir, "keybindings.toml")) {
			t.Error("expected keybindings.toml to be written")
		}
	})

	t.Run("reads overrides", func(t *testing.T) {
		dir := t.TempDir()
		content := "[modifiers]\nprimary = \"alt\"\n\n[actions]\nquit = \"ctrl+q\"\n"
		if err := os.WriteFile(filepath.Join(dir, "keybindings.toml"), []byte(content), 0600); err != nil {
			t.Fatalf("failed to write: %v", err)
		}

		kb, err := LoadKeybindings(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		testboil.FailTestIfDiff(t, kb.GetActionKey("quit"), "ctrl+q")
		testboil.FailTestIfDiff(t, kb.GetActionKey("explain"), "alt+e")
	})

	t.Run("rejects ctrl+c override", func(t *testing.T) {
		dir := t.TempDir()
		content := "[actions]\nrun_tool = \"ctrl+c\"\n"
		if err := os.WriteFile(filepath.Join(dir, "keybindings.toml"), []byte(content), 0600); err != nil {
			t.Fatalf("failed to write: %v", err)
		}

		if _, err := LoadKeybindings(dir); err == nil {
			t.Error("expected error, got nil")
		}
	})
}
