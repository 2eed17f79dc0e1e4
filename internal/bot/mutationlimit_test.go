package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(start time.Time) (*MutationLimiter, *time.Time) {
	clock := start
	l := NewMutationLimiter()
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestMutationLimiterCap(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))
	const repo = "https://github.com/w3c/rdf-star"

	for i := 0; i < mutationMaxActions; i++ {
		require.True(t, l.TryConsume(repo), "action %d should be allowed", i+1)
	}
	assert.False(t, l.TryConsume(repo), "action beyond the cap must be denied")
	assert.False(t, l.TryConsume(repo), "denied attempts stay denied within the window")
}

func TestMutationLimiterWindowReset(t *testing.T) {
	l, clock := newTestLimiter(time.Unix(1000, 0))
	const repo = "https://github.com/w3c/rdf-star"

	for i := 0; i < mutationMaxActions; i++ {
		require.True(t, l.TryConsume(repo))
	}
	require.False(t, l.TryConsume(repo))

	// Just short of the window boundary: still denied.
	*clock = clock.Add(mutationWindow - time.Second)
	assert.False(t, l.TryConsume(repo))

	// At the boundary the window restarts with a fresh budget.
	*clock = clock.Add(time.Second)
	assert.True(t, l.TryConsume(repo))
}

func TestMutationLimiterDeniedAttemptsDoNotExtendWindow(t *testing.T) {
	l, clock := newTestLimiter(time.Unix(1000, 0))
	const repo = "https://github.com/w3c/rdf-star"

	for i := 0; i < mutationMaxActions; i++ {
		require.True(t, l.TryConsume(repo))
	}

	// Hammering during the cooldown must not push the reset further out.
	for i := 0; i < 5; i++ {
		*clock = clock.Add(time.Minute)
		l.TryConsume(repo)
	}
	*clock = time.Unix(1000, 0).Add(mutationWindow)
	assert.True(t, l.TryConsume(repo))
}

func TestMutationLimiterPerRepository(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))

	for i := 0; i < mutationMaxActions; i++ {
		require.True(t, l.TryConsume("https://github.com/w3c/busy"))
	}
	require.False(t, l.TryConsume("https://github.com/w3c/busy"))

	// A different repository has its own untouched budget.
	assert.True(t, l.TryConsume("https://github.com/w3c/quiet"))
}

func TestMutationLimiterNormalizesSpellings(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))

	spellings := []string{
		"https://github.com/w3c/rdf-star",
		"https://github.com/W3C/RDF-Star",
		"https://github.com/w3c/rdf-star/",
		"https://github.com/w3c/rdf-star.git",
	}
	for i := 0; i < mutationMaxActions; i++ {
		require.True(t, l.TryConsume(spellings[i%len(spellings)]))
	}
	for _, s := range spellings {
		assert.False(t, l.TryConsume(s), "spelling %q must share the exhausted budget", s)
	}
}
