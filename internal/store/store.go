// Package store owns all per-channel bot state: repository lists, debounce
// delay, suspend flags, ignore sets, the global nick→login alias table, and
// the volatile reference history and line counters that drive debouncing.
// All access goes through ChannelStore; other components never retain
// references across calls.
package store

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// DefaultDelay is the debounce delay assigned to newly seen channels,
// in observed lines.
const DefaultDelay = 15

// ChannelConfig is the persisted configuration of one channel.
type ChannelConfig struct {
	Name          string            `json:"name"`
	Repositories  []string          `json:"repositories,omitempty"` // most-recently-used first, no duplicates
	Delay         int               `json:"delay"`
	SuspendIssues bool              `json:"suspend_issues,omitempty"`
	SuspendNames  bool              `json:"suspend_names,omitempty"`
	Ignored       map[string]string `json:"ignored,omitempty"` // folded nick → display form
}

// Settings is the full persisted settings document.
type Settings struct {
	Channels map[string]*ChannelConfig `json:"channels"`
	Aliases  map[string]string         `json:"aliases,omitempty"` // folded nick → GitHub login
}

// SettingsStore is the persistence collaborator. Load must tolerate a missing
// backing store by returning an empty document; Save must replace atomically.
type SettingsStore interface {
	Load() (*Settings, error)
	Save(*Settings) error
}

// Fold normalizes a nick for use as a case-insensitive map key.
func Fold(nick string) string { return strings.ToLower(nick) }

// ChannelStore holds all channel state. The main line-processing loop is the
// only mutator; the mutex exists because settings reloads (fsnotify) and
// status reads may come from other goroutines.
type ChannelStore struct {
	mu       sync.Mutex
	settings *Settings
	persist  SettingsStore // nil means in-memory only

	history map[string]map[string]int // channel → token → line last expanded
	lines   map[string]int            // channel → observed line count

	// selfWrite marks that the last settings-file change was our own atomic
	// save, so the next watcher-triggered reload can be skipped.
	selfWrite bool
}

// NewChannelStore loads settings from the persistence collaborator. A nil
// collaborator yields a purely in-memory store.
func NewChannelStore(persist SettingsStore) (*ChannelStore, error) {
	s := &ChannelStore{
		settings: emptySettings(),
		persist:  persist,
		history:  make(map[string]map[string]int),
		lines:    make(map[string]int),
	}
	if persist != nil {
		loaded, err := persist.Load()
		if err != nil {
			return nil, err
		}
		s.adopt(loaded)
	}
	return s, nil
}

func emptySettings() *Settings {
	return &Settings{
		Channels: make(map[string]*ChannelConfig),
		Aliases:  make(map[string]string),
	}
}

func (s *ChannelStore) adopt(loaded *Settings) {
	if loaded == nil {
		loaded = emptySettings()
	}
	if loaded.Channels == nil {
		loaded.Channels = make(map[string]*ChannelConfig)
	}
	if loaded.Aliases == nil {
		loaded.Aliases = make(map[string]string)
	}
	s.settings = loaded
}

// Reload replaces the in-memory settings with a freshly loaded document.
// Volatile state (history, line counters) is kept. The load happens under
// the mutex so a concurrent mutation cannot land between reading the file
// and adopting it. A reload triggered by our own save is a no-op: the file
// already matches memory, and re-reading it would be wasted work.
func (s *ChannelStore) Reload() error {
	if s.persist == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selfWrite {
		s.selfWrite = false
		return nil
	}
	loaded, err := s.persist.Load()
	if err != nil {
		return err
	}
	s.adopt(loaded)
	return nil
}

// channel returns the record for a channel, creating it on first reference.
// Caller holds the mutex.
func (s *ChannelStore) channel(name string) *ChannelConfig {
	if c, ok := s.settings.Channels[name]; ok {
		return c
	}
	c := &ChannelConfig{Name: name, Delay: DefaultDelay}
	s.settings.Channels[name] = c
	return c
}

// save persists the settings document. Persistence failures are logged and
// absorbed: the bot keeps running on in-memory state.
// Caller holds the mutex.
func (s *ChannelStore) save() {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(s.settings); err != nil {
		slog.Error("settings save failed, continuing in-memory", "error", err)
		return
	}
	s.selfWrite = true
}

// Snapshot returns a copy of a channel's configuration. The channel record is
// created if it does not exist yet (first join or first command).
func (s *ChannelStore) Snapshot(name string) ChannelConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(name)
	cp := *c
	cp.Repositories = append([]string(nil), c.Repositories...)
	cp.Ignored = make(map[string]string, len(c.Ignored))
	for k, v := range c.Ignored {
		cp.Ignored[k] = v
	}
	return cp
}

// UseRepository moves (or inserts) a repository URL to the front of the
// channel's list. Any change to the list wipes the channel's reference
// history: stale token associations would point at the wrong repository.
func (s *ChannelStore) UseRepository(name, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(name)
	out := make([]string, 0, len(c.Repositories)+1)
	out = append(out, url)
	for _, r := range c.Repositories {
		if r != url {
			out = append(out, r)
		}
	}
	c.Repositories = out
	delete(s.history, name)
	s.save()
}

// ForgetRepository removes a repository from the channel's list. Matching is
// by exact URL or by final path segment, so "forget rdf-star" works. Returns
// the removed URLs.
func (s *ChannelStore) ForgetRepository(name, ref string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(name)
	var kept, removed []string
	for _, r := range c.Repositories {
		if r == ref || lastSegment(r) == ref {
			removed = append(removed, r)
		} else {
			kept = append(kept, r)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	c.Repositories = kept
	delete(s.history, name)
	s.save()
	return removed
}

// ClearRepositories empties the channel's repository list and its history.
func (s *ChannelStore) ClearRepositories(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(name)
	c.Repositories = nil
	delete(s.history, name)
	s.save()
}

func lastSegment(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// SetDelay sets the channel's debounce delay. Negative values are a caller
// bug; they are clamped to 0.
func (s *ChannelStore) SetDelay(name string, delay int) {
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel(name).Delay = delay
	s.save()
}

// SetSuspendIssues toggles issue-reference expansion for the channel.
func (s *ChannelStore) SetSuspendIssues(name string, suspended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel(name).SuspendIssues = suspended
	s.save()
}

// SetSuspendNames toggles name-reference expansion for the channel.
func (s *ChannelStore) SetSuspendNames(name string, suspended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel(name).SuspendNames = suspended
	s.save()
}

// SetSuspendAll toggles both reference kinds at once ("on" / "off").
func (s *ChannelStore) SetSuspendAll(name string, suspended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(name)
	c.SuspendIssues = suspended
	c.SuspendNames = suspended
	s.save()
}

// Ignore adds a nick to the channel's ignore set, keeping the display form.
func (s *ChannelStore) Ignore(name, nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(name)
	if c.Ignored == nil {
		c.Ignored = make(map[string]string)
	}
	c.Ignored[Fold(nick)] = nick
	s.save()
}

// Unignore removes a nick from the ignore set. Returns false if it was not there.
func (s *ChannelStore) Unignore(name, nick string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.channel(name)
	if _, ok := c.Ignored[Fold(nick)]; !ok {
		return false
	}
	delete(c.Ignored, Fold(nick))
	s.save()
	return true
}

// IsIgnored reports whether a sender is on the channel's ignore set.
func (s *ChannelStore) IsIgnored(name, nick string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.settings.Channels[name]
	if !ok {
		return false
	}
	_, ignored := c.Ignored[Fold(nick)]
	return ignored
}

// IgnoredNicks returns the display forms of the channel's ignore set, sorted.
func (s *ChannelStore) IgnoredNicks(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.settings.Channels[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(c.Ignored))
	for _, display := range c.Ignored {
		out = append(out, display)
	}
	sort.Strings(out)
	return out
}

// SetAlias records a nick → GitHub login mapping in the global alias table.
func (s *ChannelStore) SetAlias(nick, login string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Aliases[Fold(nick)] = login
	s.save()
}

// Alias resolves a nick to its GitHub login, if one was assigned.
func (s *ChannelStore) Alias(nick string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	login, ok := s.settings.Aliases[Fold(nick)]
	return login, ok
}

// NextLine advances the channel's line counter and returns the new value.
// This counter is the clock for debounce decisions; it counts observed chat
// lines, not wall-clock time, and every inbound line bumps it.
func (s *ChannelStore) NextLine(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[name]++
	return s.lines[name]
}

// LastSeen returns the line number at which a token was last expanded.
func (s *ChannelStore) LastSeen(name, token string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.history[name][token]
	return line, ok
}

// RecordSeen records that a token was expanded at the given line. Ordering is
// enforced by the caller: the single-threaded loop never calls this with a
// smaller line number than a previous call.
func (s *ChannelStore) RecordSeen(name, token string, line int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.history[name]
	if !ok {
		h = make(map[string]int)
		s.history[name] = h
	}
	h[token] = line
}

// ClearHistory drops the channel's reference history.
func (s *ChannelStore) ClearHistory(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, name)
}
