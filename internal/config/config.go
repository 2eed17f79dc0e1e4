// Package config loads the bot configuration from a JSON5 file with
// environment overlays for secrets. Secrets are never written back to the
// config file.
package config

import (
	"fmt"
	"os"

	"github.com/titanous/json5"
)

// Config is the root configuration.
type Config struct {
	IRC    IRCConfig    `json:"irc"`
	GitHub GitHubConfig `json:"github"`
	Store  StoreConfig  `json:"store"`
}

// IRCConfig configures the chat transport.
type IRCConfig struct {
	Server   string   `json:"server"` // host:port
	TLS      bool     `json:"tls"`
	Nick     string   `json:"nick"`
	RealName string   `json:"real_name,omitempty"`
	Password string   `json:"-"` // from env GHURLBOT_IRC_PASSWORD only
	Channels []string `json:"channels,omitempty"`

	// Outbound pacing, to stay under server flood limits.
	SendRate  float64 `json:"send_rate,omitempty"`  // messages per second
	SendBurst int     `json:"send_burst,omitempty"` // burst size
}

// GitHubConfig configures the issue-tracker collaborator. An empty token
// degrades issue expansion to bare URLs and disables mutations.
type GitHubConfig struct {
	Token string `json:"-"` // from env GHURLBOT_GITHUB_TOKEN only
}

// StoreConfig selects and locates the settings persistence backend.
type StoreConfig struct {
	Backend      string `json:"backend"` // "file" (default) or "sqlite"
	SettingsFile string `json:"settings_file,omitempty"`
	RejoinFile   string `json:"rejoin_file,omitempty"`
	Database     string `json:"database,omitempty"` // sqlite path
	Watch        bool   `json:"watch,omitempty"`    // reload settings file on external edits
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		IRC: IRCConfig{
			Server:    "irc.libera.chat:6697",
			TLS:       true,
			Nick:      "ghurlbot",
			RealName:  "GHURLBot",
			SendRate:  2,
			SendBurst: 4,
		},
		Store: StoreConfig{
			Backend:      "file",
			SettingsFile: "ghurlbot.json",
			RejoinFile:   "ghurlbot-channels.txt",
			Database:     "ghurlbot.db",
			Watch:        true,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.overlayEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.overlayEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayEnv() {
	if v := os.Getenv("GHURLBOT_GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("GHURLBOT_IRC_PASSWORD"); v != "" {
		c.IRC.Password = v
	}
}

func (c *Config) validate() error {
	if c.IRC.Server == "" {
		return fmt.Errorf("config: irc.server is required")
	}
	if c.IRC.Nick == "" {
		return fmt.Errorf("config: irc.nick is required")
	}
	switch c.Store.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	return nil
}
