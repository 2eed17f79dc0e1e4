// Package dispatch implements the ordered command grammar. A line is matched
// against an explicit list of recognizers, top to bottom; the first match
// wins and yields a typed Command. Lines that match nothing fall through to
// reference scanning. The grammar itself is stateless: guards that need
// channel state (ignore list, suspend flags) are evaluated by the bot.
package dispatch

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind enumerates the closed set of command variants.
type Kind int

const (
	KindLeave        Kind = iota // leave the channel
	KindDiscuss                  // select a repository (addressed imperative)
	KindDeclareRepos             // "repo: a, b" declarative, works unaddressed
	KindForget                   // remove a repository
	KindClearRepos               // "forget all" / "clear repositories"
	KindDelay                    // set debounce delay
	KindStatus                   // report channel settings
	KindSuspendAll               // "on" / "off"
	KindSuspendIssues            // "issues on|off"
	KindSuspendNames             // "names on|off"
	KindCreateIssue              // "issue: TEXT"
	KindCloseIssue               // "close #N" / "#N closed"
	KindReopenIssue              // "reopen #N" / "#N reopened"
	KindCreateAction             // "action @a, @b: TEXT [- due DATE]"
	KindAccountInfo              // "who are you?"
	KindIgnore                   // "ignore NICK"
	KindUnignore                 // "don't ignore NICK"
	KindAlias                    // "NICK = githublogin"
)

// Command is one recognized command with its typed payload. Only the fields
// relevant to the Kind are set.
type Command struct {
	Kind      Kind
	Repo      string   // Discuss, Forget
	Repos     []string // DeclareRepos
	Delay     int      // Delay
	Suspend   bool     // Suspend*: true = suspend ("off")
	Text      string   // CreateIssue title, CreateAction text
	Ref       string   // CloseIssue, ReopenIssue: "[prefix]#N"
	Assignees []string // CreateAction, without "@"
	Due       string   // CreateAction, verbatim date text
	Nick      string   // Ignore, Unignore, Alias
	Login     string   // Alias
}

// Mutating reports whether the command triggers a GitHub mutation or query
// and is therefore gated on the sender not being ignored and on the issue
// suspend flag (unless addressed).
func (c Command) Mutating() bool {
	switch c.Kind {
	case KindCreateIssue, KindCloseIssue, KindReopenIssue, KindCreateAction:
		return true
	}
	return false
}

const issueRefPat = `[A-Za-z0-9/._-]*#[0-9]+`

// rule pairs a pattern with a builder. needsAddress rules only fire on lines
// directed at the bot.
type rule struct {
	needsAddress bool
	re           *regexp.Regexp
	build        func(m []string) (Command, bool)
}

// Declaration order is the ambiguity tie-break: earlier, more specific
// patterns must precede more general ones. The alias rule in particular is
// last because "NICK = x" would otherwise shadow nothing but catches a lot.
var rules = []rule{
	{true, regexp.MustCompile(`(?i)^(?:bye|leave|part)[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindLeave}, true }},

	{true, regexp.MustCompile(`(?i)^(?:discuss|take up|use)\s+(\S+)[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindDiscuss, Repo: m[1]}, true }},

	// Passive repository declaration; intentionally works unaddressed and
	// even while the channel is suspended.
	{false, regexp.MustCompile(`(?i)^repos?:\s*(.+?)\s*$`),
		func(m []string) (Command, bool) {
			repos := splitList(m[1])
			if len(repos) == 0 {
				return Command{}, false
			}
			return Command{Kind: KindDeclareRepos, Repos: repos}, true
		}},

	// Must precede the single-repository forget rule, which would otherwise
	// treat "all" as a repository name.
	{true, regexp.MustCompile(`(?i)^(?:forget\s+all|clear\s+repos(?:itories)?)[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindClearRepos}, true }},

	{true, regexp.MustCompile(`(?i)^forget\s+(\S+)[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindForget, Repo: m[1]}, true }},

	{true, regexp.MustCompile(`(?i)^delay\s*[:=]?\s*([0-9]+)[\s.!?]*$`),
		func(m []string) (Command, bool) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return Command{}, false
			}
			return Command{Kind: KindDelay, Delay: n}, true
		}},

	{true, regexp.MustCompile(`(?i)^status[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindStatus}, true }},

	{true, regexp.MustCompile(`(?i)^(on|off)[\s.!?]*$`),
		func(m []string) (Command, bool) {
			return Command{Kind: KindSuspendAll, Suspend: strings.EqualFold(m[1], "off")}, true
		}},

	{true, regexp.MustCompile(`(?i)^issues\s*[:=]?\s*(on|off)[\s.!?]*$`),
		func(m []string) (Command, bool) {
			return Command{Kind: KindSuspendIssues, Suspend: strings.EqualFold(m[1], "off")}, true
		}},

	{true, regexp.MustCompile(`(?i)^names\s*[:=]?\s*(on|off)[\s.!?]*$`),
		func(m []string) (Command, bool) {
			return Command{Kind: KindSuspendNames, Suspend: strings.EqualFold(m[1], "off")}, true
		}},

	{false, regexp.MustCompile(`(?i)^issue\s*:\s*(.+?)\s*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindCreateIssue, Text: m[1]}, true }},

	{false, regexp.MustCompile(`(?i)^close\s+(` + issueRefPat + `)[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindCloseIssue, Ref: m[1]}, true }},

	{false, regexp.MustCompile(`(?i)^(` + issueRefPat + `)\s+closed[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindCloseIssue, Ref: m[1]}, true }},

	{false, regexp.MustCompile(`(?i)^reopen\s+(` + issueRefPat + `)[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindReopenIssue, Ref: m[1]}, true }},

	{false, regexp.MustCompile(`(?i)^(` + issueRefPat + `)\s+reopened[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindReopenIssue, Ref: m[1]}, true }},

	{false, regexp.MustCompile(`(?i)^action\s+([^:]+?)\s*:\s*(.+?)\s*$`),
		func(m []string) (Command, bool) {
			assignees := splitList(m[1])
			for i, a := range assignees {
				assignees[i] = strings.TrimPrefix(a, "@")
			}
			text, due := splitDue(m[2])
			if text == "" {
				return Command{}, false
			}
			return Command{Kind: KindCreateAction, Assignees: assignees, Text: text, Due: due}, true
		}},

	{true, regexp.MustCompile(`(?i)^who\s+are\s+you[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindAccountInfo}, true }},

	{true, regexp.MustCompile(`(?i)^(?:don'?t|do\s+not)\s+ignore\s+(\S+)[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindUnignore, Nick: m[1]}, true }},

	{true, regexp.MustCompile(`(?i)^ignore\s+(\S+)[\s.!?]*$`),
		func(m []string) (Command, bool) { return Command{Kind: KindIgnore, Nick: m[1]}, true }},

	{true, regexp.MustCompile(`^(\S+)\s*=\s*(\S+)\s*$`),
		func(m []string) (Command, bool) {
			return Command{Kind: KindAlias, Nick: m[1], Login: m[2]}, true
		}},
}

// Recognize classifies a line. The second result is false when the line is
// plain conversation to be scanned for references instead.
func Recognize(text string, addressed bool) (Command, bool) {
	text = strings.TrimSpace(text)
	for _, r := range rules {
		if r.needsAddress && !addressed {
			continue
		}
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if cmd, ok := r.build(m); ok {
			return cmd, true
		}
	}
	return Command{}, false
}

// splitList splits a comma- or space-separated list.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	}) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

var dueRe = regexp.MustCompile(`(?i)^(.*?)\s+-\s+due\s+(.+?)\s*$`)

// splitDue separates a trailing "- due DATE" clause from action text. The
// date is carried verbatim; parsing it is the issue tracker's concern.
func splitDue(text string) (string, string) {
	if m := dueRe.FindStringSubmatch(text); m != nil {
		return m[1], m[2]
	}
	return text, ""
}
