// Package config holds runtime settings for the document-session
// router and their file-backed persistence.
//
// Settings live in <root>/.drafty/config.json. A missing file is not
// an error: Load returns the defaults, so a fresh workspace works
// without any setup step.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// Dir is the subdirectory under the workspace root where drafty
	// keeps its settings and state database.
	Dir = ".drafty"
	// File is the settings filename inside Dir.
	File = "config.json"
)

// Settings are the tunable knobs consumed across the router.
type Settings struct {
	// AutoChatEnabled gates autochat.Context.Enable. Off means enable
	// calls are logged no-ops.
	AutoChatEnabled bool `json:"auto_chat_enabled"`
	// AutoChatTimeoutMinutes is the sticky-agent inactivity timeout.
	AutoChatTimeoutMinutes int `json:"auto_chat_timeout_minutes"`
	// ConfirmationWindowMinutes bounds how long a pending routing
	// decision waits for its yes/no answer.
	ConfirmationWindowMinutes int `json:"confirmation_window_minutes"`
	// DocumentCharBudget caps how much of a document is sent to the
	// model on each refinement turn.
	DocumentCharBudget int `json:"document_char_budget"`
	// Model names the language model used for classification and
	// drafting. Empty means no model: heuristic-only operation.
	Model string `json:"model"`
}

// Defaults returns the settings used when no config file exists.
func Defaults() *Settings {
	return &Settings{
		AutoChatEnabled:           true,
		AutoChatTimeoutMinutes:    30,
		ConfirmationWindowMinutes: 10,
		DocumentCharBudget:        6000,
		Model:                     "claude-sonnet-4-20250514",
	}
}

// DraftyPath returns the absolute path to the .drafty/ directory.
func DraftyPath(root string) string {
	return filepath.Join(root, Dir)
}

// ConfigPath returns the absolute path to the settings file.
func ConfigPath(root string) string {
	return filepath.Join(root, Dir, File)
}

// Store abstracts settings persistence for testability.
type Store interface {
	Load(root string) (*Settings, error)
	Save(root string, s *Settings) error
}

// FileStore implements Store on the local filesystem.
type FileStore struct{}

// NewFileStore creates a filesystem-backed settings store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Load reads settings from ConfigPath(root). Missing file yields the
// defaults. Fields absent from the file keep their default values.
func (fs *FileStore) Load(root string) (*Settings, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	s := Defaults()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return s, nil
}

// Save writes settings to ConfigPath(root), creating .drafty/ first.
func (fs *FileStore) Save(root string, s *Settings) error {
	if err := os.MkdirAll(DraftyPath(root), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
