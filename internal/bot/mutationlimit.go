package bot

import (
	"strings"
	"sync"
	"time"
)

const (
	// mutationWindow is the sliding window for mutation counting.
	mutationWindow = 10 * time.Minute

	// mutationMaxActions is the max mutating GitHub actions per repository
	// within a window.
	mutationMaxActions = 100

	// maxTrackedRepos caps the number of tracked repositories to prevent
	// unbounded growth from rotating repository names.
	maxTrackedRepos = 4096
)

type mutationEntry struct {
	windowStart time.Time
	count       int
}

// MutationLimiter guards mutating GitHub operations with a per-repository
// sliding window. Keying per repository, not per channel, isolates a noisy
// repository from starving others and bounds worst-case API consumption.
// Safe for concurrent use.
type MutationLimiter struct {
	mu      sync.Mutex
	entries map[string]*mutationEntry
	now     func() time.Time
}

// NewMutationLimiter creates a mutation limiter.
func NewMutationLimiter() *MutationLimiter {
	return &MutationLimiter{
		entries: make(map[string]*mutationEntry),
		now:     time.Now,
	}
}

// TryConsume consumes one mutation slot for the repository. Returns false
// when the window's capacity is exhausted; the caller must report a cooldown
// and drop the action, never queue or retry it.
func (l *MutationLimiter) TryConsume(repository string) bool {
	key := normalizeRepoKey(repository)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if len(l.entries) >= maxTrackedRepos {
		for k, e := range l.entries {
			if now.Sub(e.windowStart) >= mutationWindow {
				delete(l.entries, k)
			}
		}
		for len(l.entries) >= maxTrackedRepos {
			for k := range l.entries {
				delete(l.entries, k)
				break
			}
		}
	}

	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= mutationWindow {
		l.entries[key] = &mutationEntry{windowStart: now, count: 1}
		return true
	}

	if e.count < mutationMaxActions {
		e.count++
		return true
	}
	return false
}

// normalizeRepoKey folds URL spelling variants (case, trailing slash, ".git")
// so the same repository cannot dodge the limiter under a different spelling.
func normalizeRepoKey(url string) string {
	url = strings.ToLower(strings.TrimSpace(url))
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")
	return url
}
