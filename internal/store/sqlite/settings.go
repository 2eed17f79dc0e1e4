package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/Zeenat-Muzaffar/GHURLBot/internal/store"
)

// Compile-time interface satisfaction check.
var _ store.SettingsStore = (*SettingsRepo)(nil)

// SettingsRepo implements store.SettingsStore on SQLite. The whole document
// is replaced inside one transaction on Save, matching the atomic
// replace-on-write contract of the file backend.
type SettingsRepo struct {
	db *DB
}

// NewSettingsRepo creates a settings repository on the given database.
func NewSettingsRepo(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Load reads the full settings document. An empty database yields an empty
// document (first run).
func (r *SettingsRepo) Load() (*store.Settings, error) {
	s := &store.Settings{
		Channels: make(map[string]*store.ChannelConfig),
		Aliases:  make(map[string]string),
	}

	rows, err := r.db.Reader.Query(
		`SELECT name, delay, suspend_issues, suspend_names FROM channels`)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c := &store.ChannelConfig{Ignored: make(map[string]string)}
		var suspIssues, suspNames int
		if err := rows.Scan(&c.Name, &c.Delay, &suspIssues, &suspNames); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		c.SuspendIssues = suspIssues != 0
		c.SuspendNames = suspNames != 0
		s.Channels[c.Name] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	if err := r.loadRepositories(s); err != nil {
		return nil, err
	}
	if err := r.loadIgnores(s); err != nil {
		return nil, err
	}

	aliasRows, err := r.db.Reader.Query(`SELECT nick, login FROM aliases`)
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}
	defer aliasRows.Close()
	for aliasRows.Next() {
		var nick, login string
		if err := aliasRows.Scan(&nick, &login); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		s.Aliases[nick] = login
	}
	if err := aliasRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aliases: %w", err)
	}

	return s, nil
}

func (r *SettingsRepo) loadRepositories(s *store.Settings) error {
	rows, err := r.db.Reader.Query(
		`SELECT channel, url FROM channel_repositories ORDER BY channel, position`)
	if err != nil {
		return fmt.Errorf("query repositories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var channel, url string
		if err := rows.Scan(&channel, &url); err != nil {
			return fmt.Errorf("scan repository: %w", err)
		}
		if c, ok := s.Channels[channel]; ok {
			c.Repositories = append(c.Repositories, url)
		}
	}
	return rows.Err()
}

func (r *SettingsRepo) loadIgnores(s *store.Settings) error {
	rows, err := r.db.Reader.Query(
		`SELECT channel, nick, display FROM channel_ignores`)
	if err != nil {
		return fmt.Errorf("query ignores: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var channel, nick, display string
		if err := rows.Scan(&channel, &nick, &display); err != nil {
			return fmt.Errorf("scan ignore: %w", err)
		}
		if c, ok := s.Channels[channel]; ok {
			c.Ignored[nick] = display
		}
	}
	return rows.Err()
}

// Save replaces the persisted document with the given one, transactionally.
func (r *SettingsRepo) Save(s *store.Settings) error {
	tx, err := r.db.Writer.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM channel_repositories`,
		`DELETE FROM channel_ignores`,
		`DELETE FROM channels`,
		`DELETE FROM aliases`,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("clear settings: %w", err)
		}
	}

	for name, c := range s.Channels {
		if err := saveChannel(tx, name, c); err != nil {
			return err
		}
	}
	for nick, login := range s.Aliases {
		if _, err := tx.Exec(
			`INSERT INTO aliases (nick, login) VALUES (?, ?)`, nick, login); err != nil {
			return fmt.Errorf("insert alias %s: %w", nick, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func saveChannel(tx *sql.Tx, name string, c *store.ChannelConfig) error {
	if _, err := tx.Exec(
		`INSERT INTO channels (name, delay, suspend_issues, suspend_names) VALUES (?, ?, ?, ?)`,
		name, c.Delay, boolInt(c.SuspendIssues), boolInt(c.SuspendNames)); err != nil {
		return fmt.Errorf("insert channel %s: %w", name, err)
	}
	for i, url := range c.Repositories {
		if _, err := tx.Exec(
			`INSERT INTO channel_repositories (channel, position, url) VALUES (?, ?, ?)`,
			name, i, url); err != nil {
			return fmt.Errorf("insert repository %s: %w", url, err)
		}
	}
	for nick, display := range c.Ignored {
		if _, err := tx.Exec(
			`INSERT INTO channel_ignores (channel, nick, display) VALUES (?, ?, ?)`,
			name, nick, display); err != nil {
			return fmt.Errorf("insert ignore %s: %w", nick, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
