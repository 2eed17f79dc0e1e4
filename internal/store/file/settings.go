// Package file implements the settings and rejoin-list persistence
// collaborators on top of plain JSON files with atomic replace-on-write.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Zeenat-Muzaffar/GHURLBot/internal/store"
)

// SettingsFile persists the whole settings document as one JSON file.
// Writes go to a temp file in the same directory followed by a rename, so a
// crash mid-write never corrupts the previous document.
type SettingsFile struct {
	path string
}

// NewSettingsFile creates a settings store backed by the given path. The
// parent directory is created if needed.
func NewSettingsFile(path string) (*SettingsFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create settings dir: %w", err)
		}
	}
	return &SettingsFile{path: path}, nil
}

// Path returns the backing file path.
func (f *SettingsFile) Path() string { return f.path }

// Load reads the settings document. A missing file is a first run and yields
// an empty document.
func (f *SettingsFile) Load() (*store.Settings, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &store.Settings{}, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var s store.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", f.path, err)
	}
	return &s, nil
}

// Save writes the settings document atomically.
func (f *SettingsFile) Save(s *store.Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close settings: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
