package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RejoinList persists the set of channels the bot should re-enter at startup,
// one channel name per line. Updated on every join and part.
type RejoinList struct {
	path string
}

// NewRejoinList creates a rejoin list backed by the given path.
func NewRejoinList(path string) *RejoinList {
	return &RejoinList{path: path}
}

// Load returns the channel names from the list. A missing file yields nil.
func (r *RejoinList) Load() ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rejoin list: %w", err)
	}

	var channels []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			channels = append(channels, line)
		}
	}
	return channels, nil
}

// Save replaces the list atomically.
func (r *RejoinList) Save(channels []string) error {
	sorted := append([]string(nil), channels...)
	sort.Strings(sorted)

	var sb strings.Builder
	for _, ch := range sorted {
		sb.WriteString(ch)
		sb.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), "rejoin-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp rejoin file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write rejoin list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close rejoin list: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace rejoin list: %w", err)
	}
	return nil
}

// Add inserts a channel into the list if absent and saves.
func (r *RejoinList) Add(channel string) error {
	channels, err := r.Load()
	if err != nil {
		return err
	}
	for _, ch := range channels {
		if ch == channel {
			return nil
		}
	}
	return r.Save(append(channels, channel))
}

// Remove deletes a channel from the list and saves.
func (r *RejoinList) Remove(channel string) error {
	channels, err := r.Load()
	if err != nil {
		return err
	}
	kept := channels[:0]
	for _, ch := range channels {
		if ch != channel {
			kept = append(kept, ch)
		}
	}
	return r.Save(kept)
}
