package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeenat-Muzaffar/GHURLBot/internal/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettingsRepoEmptyIsFirstRun(t *testing.T) {
	repo := NewSettingsRepo(newTestDB(t))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Channels)
	assert.Empty(t, loaded.Aliases)
}

func TestSettingsRepoRoundTrip(t *testing.T) {
	repo := NewSettingsRepo(newTestDB(t))

	doc := &store.Settings{
		Channels: map[string]*store.ChannelConfig{
			"#w3c": {
				Name: "#w3c",
				Repositories: []string{
					"https://github.com/w3c/rdf-star",
					"https://github.com/w3c/sparql-dev",
				},
				Delay:         5,
				SuspendIssues: true,
				Ignored:       map[string]string{"rrsagent": "RRSAgent"},
			},
			"#quiet": {Name: "#quiet", Delay: 0, SuspendNames: true,
				Ignored: map[string]string{}},
		},
		Aliases: map[string]string{"alice": "alice-gh", "bob": "bob-gh"},
	}
	require.NoError(t, repo.Save(doc))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestSettingsRepoRepositoryOrderIsPreserved(t *testing.T) {
	repo := NewSettingsRepo(newTestDB(t))

	repos := []string{
		"https://github.com/w3c/c",
		"https://github.com/w3c/a",
		"https://github.com/w3c/b",
	}
	require.NoError(t, repo.Save(&store.Settings{
		Channels: map[string]*store.ChannelConfig{
			"#c": {Name: "#c", Repositories: repos, Ignored: map[string]string{}},
		},
		Aliases: map[string]string{},
	}))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, repos, loaded.Channels["#c"].Repositories)
}

func TestSettingsRepoSaveReplacesDocument(t *testing.T) {
	repo := NewSettingsRepo(newTestDB(t))

	require.NoError(t, repo.Save(&store.Settings{
		Channels: map[string]*store.ChannelConfig{
			"#old": {Name: "#old", Delay: 1, Ignored: map[string]string{}},
		},
		Aliases: map[string]string{"gone": "gone-gh"},
	}))
	require.NoError(t, repo.Save(&store.Settings{
		Channels: map[string]*store.ChannelConfig{
			"#new": {Name: "#new", Delay: 2, Ignored: map[string]string{}},
		},
		Aliases: map[string]string{},
	}))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.NotContains(t, loaded.Channels, "#old")
	assert.Contains(t, loaded.Channels, "#new")
	assert.Empty(t, loaded.Aliases)
}

func TestSettingsRepoBacksChannelStore(t *testing.T) {
	repo := NewSettingsRepo(newTestDB(t))

	s, err := store.NewChannelStore(repo)
	require.NoError(t, err)
	s.UseRepository("#c", "https://github.com/w3c/a")
	s.SetDelay("#c", 7)

	s2, err := store.NewChannelStore(repo)
	require.NoError(t, err)
	cfg := s2.Snapshot("#c")
	assert.Equal(t, []string{"https://github.com/w3c/a"}, cfg.Repositories)
	assert.Equal(t, 7, cfg.Delay)
}
