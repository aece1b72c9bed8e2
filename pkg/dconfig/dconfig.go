// Package dconfig loads and saves the on-disk configuration document: AI
// settings, window geometry, hotkey bindings, rules/actions, and per-plugin
// option blobs. Decoded with the standard library encoding/json the way the
// teacher's provider clients decode wire payloads (see the project's design
// notes for why no config/viper-style library was reached for).
package dconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// HotkeyBinding mirrors one entry of the hotkey surface's accelerator table.
type HotkeyBinding struct {
	Accelerator string `json:"accelerator"`
	Mode        string `json:"mode"` // "toggle" | "push_to_talk"
}

// WindowGeometry is the last-known on-screen position of the status window.
type WindowGeometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AISettings configures the Flow Supervisor's optional transform phase.
type AISettings struct {
	Enabled      bool   `json:"enabled"`
	Provider     string `json:"provider"` // "anthropic" | "openai" | "google"
	Model        string `json:"model"`
	WritingStyle string `json:"writing_style"`
}

// PatternConfig is the on-disk shape of segment.Pattern.
type PatternConfig struct {
	Prefix        string `json:"prefix,omitempty"`
	Regexp        string `json:"regexp,omitempty"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
}

// HandlerConfig is the on-disk shape of segment.Handler; only the fields
// relevant to Kind are expected to be populated, mirroring the Go type.
type HandlerConfig struct {
	Kind string `json:"kind"`

	ApplyToNextSegment bool `json:"apply_to_next_segment,omitempty"`
	StopOnSuccess      bool `json:"stop_on_success,omitempty"`

	URL          string `json:"url,omitempty"`
	AppName      string `json:"app_name,omitempty"`
	ShellCommand string `json:"shell_command,omitempty"`

	SegmentOp   string `json:"segment_op,omitempty"`
	ReplaceText string `json:"replace_text,omitempty"`
	DeleteCount int    `json:"delete_count,omitempty"`

	TransformPrompt string `json:"transform_prompt,omitempty"`
}

// ActionConfig is the on-disk shape of segment.Action.
type ActionConfig struct {
	ID                  string          `json:"id"`
	Enabled             bool            `json:"enabled"`
	MatchPatterns       []PatternConfig `json:"match_patterns"`
	Handlers            []HandlerConfig `json:"handlers"`
	ClosesTranscription bool            `json:"closes_transcription,omitempty"`
	SkipsTransformation bool            `json:"skips_transformation,omitempty"`
	SkipsAllTransforms  bool            `json:"skips_all_transforms,omitempty"`
	ApplyToAllSegments  bool            `json:"apply_to_all_segments,omitempty"`
	Timing              string          `json:"timing,omitempty"` // "before_ai" | "after_ai"
}

// PluginOptions is an opaque per-plugin option blob (model choice, region,
// sample rate, ...), kept generic since every recognizer/transformer plugin
// declares its own Schema().
type PluginOptions map[string]interface{}

// Document is the full on-disk configuration document.
type Document struct {
	AI      AISettings               `json:"ai"`
	Window  WindowGeometry           `json:"window"`
	Hotkeys []HotkeyBinding          `json:"hotkeys"`
	Actions []ActionConfig           `json:"actions"`
	Plugins map[string]PluginOptions `json:"plugins"`

	ActiveTranscriber string `json:"active_transcriber"`
}

// Default returns the document shipped on first run.
func Default() Document {
	return Document{
		AI: AISettings{Enabled: false, Provider: "anthropic"},
		Window: WindowGeometry{
			X: 100, Y: 100, Width: 360, Height: 120,
		},
		Hotkeys: []HotkeyBinding{
			{Accelerator: "CommandOrControl+Shift+D", Mode: "toggle"},
		},
		Plugins:           map[string]PluginOptions{},
		ActiveTranscriber: "groq",
	}
}

// Load reads and decodes the document at path. A missing file is not an
// error: it returns Default().
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("dconfig: read %s: %w", path, err)
	}

	doc := Default()
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("dconfig: decode %s: %w", path, err)
	}
	return doc, nil
}

// Save writes doc to path as indented JSON, creating parent directories as
// needed.
func Save(path string, doc Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("dconfig: mkdir %s: %w", filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("dconfig: encode: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("dconfig: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("dconfig: rename %s -> %s: %w", tmp, path, err)
	}
	return nil
}

// DefaultPath returns the per-user config file location, following the
// teacher's convention of a single dotfile-adjacent path rather than a
// platform config-dir library (not reached for: spec.md's Non-goals exclude
// packaging/install concerns, and os.UserConfigDir covers the one path this
// document needs).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("dconfig: resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "diktilo", "config.json"), nil
}
