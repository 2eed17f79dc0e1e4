package refs

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Zeenat-Muzaffar/GHURLBot/internal/store"
)

// DefaultHost is the base for synthesized repository URLs.
const DefaultHost = "https://github.com"

// DefaultOwner is the documented convention default applied to a bare
// repository name when the channel has no known repository. Callers needing a
// different default must supply "owner/name".
const DefaultOwner = "w3c"

// ErrInvalidRepository reports a token that cannot denote a repository.
var ErrInvalidRepository = errors.New("not a repository reference")

// Resolve turns a free-form repository token ("name", "owner/name", or a full
// URL) into one canonical repository URL for the channel. Partial tokens
// inherit the missing parts from the channel's most-recently-used repository.
func Resolve(cfg store.ChannelConfig, token string) (string, error) {
	token = strings.TrimSuffix(strings.TrimSpace(token), "/")
	if strings.Contains(token, "://") {
		// Already absolute; leave untouched.
		return token, nil
	}

	owner, name := "", token
	if i := strings.LastIndexByte(token, '/'); i >= 0 {
		owner, name = token[:i], token[i+1:]
	}
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidRepository, token)
	}

	mru := ""
	if len(cfg.Repositories) > 0 {
		mru = cfg.Repositories[0]
	}

	if owner != "" {
		if mru == "" {
			return fmt.Sprintf("%s/%s/%s", DefaultHost, owner, name), nil
		}
		base, _, _ := splitRepoURL(mru)
		return fmt.Sprintf("%s/%s/%s", base, owner, name), nil
	}

	if mru == "" {
		return fmt.Sprintf("%s/%s/%s", DefaultHost, DefaultOwner, name), nil
	}
	base, mruOwner, _ := splitRepoURL(mru)
	return fmt.Sprintf("%s/%s/%s", base, mruOwner, name), nil
}

// InferRepository determines which repository a "[prefix]#number" issue
// reference belongs to. The channel's repository list is filtered first by
// exact final-segment match, then by prefix match, so a repository named
// "rdf-star" stays reachable even when "rdf-star-wg-charter" is also listed.
// An empty prefix selects the most-recently-used repository. Returns false
// when no repository can be inferred.
func InferRepository(cfg store.ChannelConfig, prefix string) (string, bool) {
	for _, r := range cfg.Repositories {
		if repoName(r) == prefix {
			return r, true
		}
	}
	for _, r := range cfg.Repositories {
		if strings.HasPrefix(repoName(r), prefix) {
			return r, true
		}
	}

	if strings.Contains(prefix, "/") {
		return fmt.Sprintf("%s/%s", DefaultHost, strings.Trim(prefix, "/")), true
	}
	if prefix != "" && len(cfg.Repositories) > 0 {
		// Same owner, different repository name.
		base, owner, _ := splitRepoURL(cfg.Repositories[0])
		return fmt.Sprintf("%s/%s/%s", base, owner, prefix), true
	}
	return "", false
}

var issueRefRe = regexp.MustCompile(`^([A-Za-z0-9/._-]*)#([0-9]+)$`)

// ParseIssueRef splits an issue reference token into its repository prefix
// (possibly empty) and issue number. Failure indicates a caller bug: the
// scanner only emits tokens this function accepts.
func ParseIssueRef(ref string) (prefix string, number int, err error) {
	m := issueRefRe.FindStringSubmatch(ref)
	if m == nil {
		return "", 0, fmt.Errorf("malformed issue reference %q", ref)
	}
	number, err = strconv.Atoi(m[2])
	if err != nil {
		return "", 0, fmt.Errorf("malformed issue number in %q: %w", ref, err)
	}
	return m[1], number, nil
}

// SplitOwnerRepo extracts the owner and repository name from a repository
// URL, for API calls that take them separately.
func SplitOwnerRepo(url string) (owner, repo string, err error) {
	_, owner, repo = splitRepoURL(url)
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("repository URL %q has no owner/name", url)
	}
	return owner, repo, nil
}

// repoName returns the final path segment of a repository URL.
func repoName(url string) string {
	_, _, name := splitRepoURL(url)
	return name
}

// splitRepoURL splits a repository URL into the base (scheme and host), the
// owner (second-to-last segment) and the repository name (last segment).
func splitRepoURL(url string) (base, owner, name string) {
	trimmed := strings.TrimSuffix(url, "/")
	i := strings.LastIndexByte(trimmed, '/')
	if i < 0 {
		return "", "", trimmed
	}
	name = trimmed[i+1:]
	rest := trimmed[:i]
	j := strings.LastIndexByte(rest, '/')
	if j < 0 {
		return "", rest, name
	}
	return rest[:j], rest[j+1:], name
}
