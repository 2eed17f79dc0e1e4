// Package bot wires the dispatcher, scanner, resolver, debounce policy and
// rate limiter into the single-threaded line-processing loop, and offloads
// GitHub calls to worker goroutines that report back as chat lines.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Zeenat-Muzaffar/GHURLBot/internal/bus"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/dispatch"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/gh"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/refs"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/store"
)

// IssueTracker is the remote issue-tracker collaborator. Nil means no
// credential is configured; issue expansion then degrades to bare URLs.
type IssueTracker interface {
	GetIssue(ctx context.Context, owner, repo string, number int) (*gh.Issue, error)
	CreateIssue(ctx context.Context, owner, repo, title string, assignees []string, body string, labels []string) (*gh.Issue, error)
	SetIssueState(ctx context.Context, owner, repo string, number int, state string) (*gh.Issue, error)
	AuthenticatedUser(ctx context.Context) (string, error)
}

// RejoinList records which channels to re-enter at startup. Optional.
type RejoinList interface {
	Add(channel string) error
	Remove(channel string) error
}

// ActionLabel marks GitHub issues that model tracked action items.
const ActionLabel = "action"

// Bot is the reference-resolving bot core. All channel state mutations happen
// on the goroutine running Run; workers only read copies and send chat lines.
type Bot struct {
	store     *store.ChannelStore
	policy    *refs.Policy
	limiter   *MutationLimiter
	tracker   IssueTracker
	transport bus.Transport
	rejoin    RejoinList

	wg sync.WaitGroup
}

// New creates a bot. tracker and rejoin may be nil.
func New(st *store.ChannelStore, transport bus.Transport, tracker IssueTracker, rejoin RejoinList) *Bot {
	return &Bot{
		store:     st,
		policy:    &refs.Policy{Store: st},
		limiter:   NewMutationLimiter(),
		tracker:   tracker,
		transport: transport,
		rejoin:    rejoin,
	}
}

// Run processes inbound lines until the transport closes or ctx is done,
// then waits for in-flight GitHub workers.
func (b *Bot) Run(ctx context.Context) error {
	defer b.wg.Wait()
	lines := b.transport.Lines()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			b.HandleLine(ctx, line)
		}
	}
}

// HandleLine processes one inbound chat line: advance the line clock, drop
// ignored senders, try the command grammar, otherwise scan for references.
func (b *Bot) HandleLine(ctx context.Context, line bus.ChatLine) {
	currentLine := b.store.NextLine(line.Channel)

	// Ignored senders still advance the line clock (their lines are
	// observed conversation) but nothing else of theirs is processed.
	if b.store.IsIgnored(line.Channel, line.Sender) {
		slog.Debug("line from ignored sender dropped",
			"channel", line.Channel, "sender", line.Sender)
		return
	}

	if cmd, ok := dispatch.Recognize(line.Text, line.Addressed); ok {
		b.execute(ctx, line, cmd)
		return
	}

	b.scanReferences(ctx, line, currentLine)
}

// Wait blocks until all spawned GitHub workers have finished. Used by tests
// and shutdown.
func (b *Bot) Wait() { b.wg.Wait() }

func (b *Bot) send(ctx context.Context, channel, text string) {
	if err := b.transport.Send(ctx, bus.Outbound{Channel: channel, Text: text}); err != nil {
		slog.Warn("outbound send failed", "channel", channel, "error", err)
	}
}

// scanReferences runs each candidate token through the debounce policy and
// expands the survivors.
func (b *Bot) scanReferences(ctx context.Context, line bus.ChatLine, currentLine int) {
	cfg := b.store.Snapshot(line.Channel)
	sc := refs.NewScanner(line.Text)
	for {
		tok, ok := sc.Next()
		if !ok {
			return
		}
		switch tok.Kind {
		case refs.KindIssue:
			if !b.policy.ShouldExpand(line.Channel, tok.Text, currentLine,
				line.Addressed, !cfg.SuspendIssues, cfg.Delay) {
				continue
			}
			b.expandIssue(ctx, line, cfg, tok.Text)
		case refs.KindName:
			if !b.policy.ShouldExpand(line.Channel, tok.Text, currentLine,
				line.Addressed, !cfg.SuspendNames, cfg.Delay) {
				continue
			}
			b.expandName(ctx, line.Channel, tok.Text)
		}
	}
}

// expandIssue resolves which repository a "[prefix]#N" token belongs to and
// either emits a constructed URL or dispatches an asynchronous lookup for a
// richer summary. History was already updated by the policy, before any
// worker is spawned.
func (b *Bot) expandIssue(ctx context.Context, line bus.ChatLine, cfg store.ChannelConfig, ref string) {
	prefix, number, err := refs.ParseIssueRef(ref)
	if err != nil {
		// The scanner only emits parseable tokens; this is a bug, not a
		// user error. Skip the token and keep going.
		slog.Error("BUG: scanner token failed to parse", "token", ref, "error", err)
		return
	}

	repo, ok := refs.InferRepository(cfg, prefix)
	if !ok {
		if line.Addressed {
			b.send(ctx, line.Channel,
				fmt.Sprintf("Sorry, I don't know what repository to use for %s", ref))
		}
		return
	}

	issueURL := fmt.Sprintf("%s/issues/%d", repo, number)
	if b.tracker == nil {
		b.send(ctx, line.Channel, fmt.Sprintf("-> #%d %s", number, issueURL))
		return
	}

	owner, name, err := refs.SplitOwnerRepo(repo)
	if err != nil {
		slog.Error("BUG: inferred repository is not owner/name shaped", "repo", repo, "error", err)
		b.send(ctx, line.Channel, fmt.Sprintf("-> #%d %s", number, issueURL))
		return
	}

	channel := line.Channel
	b.spawn(ctx, channel, "issue lookup", func(ctx context.Context) string {
		issue, err := b.tracker.GetIssue(ctx, owner, name, number)
		if err != nil {
			// Lookup failures degrade to the bare URL; the failure table
			// is reserved for mutations the user explicitly asked for.
			slog.Warn("issue lookup failed", "repo", repo, "number", number,
				"status", gh.StatusCode(err), "error", err)
			return fmt.Sprintf("-> #%d %s", number, issueURL)
		}
		return formatIssue(issue)
	})
}

func (b *Bot) expandName(ctx context.Context, channel, token string) {
	handle := strings.TrimPrefix(token, "@")
	login := handle
	if mapped, ok := b.store.Alias(handle); ok {
		login = mapped
	}
	b.send(ctx, channel, fmt.Sprintf("-> @%s https://github.com/%s", handle, login))
}

func formatIssue(issue *gh.Issue) string {
	kind := "Issue"
	switch {
	case issue.IsPullRequest:
		kind = "Pull Request"
	case hasLabel(issue, ActionLabel):
		kind = "Action"
	}
	msg := fmt.Sprintf("-> %s #%d %s %s (%s)",
		kind, issue.Number, issue.HTMLURL, issue.Title, issue.State)
	if kind == "Action" && len(issue.Assignees) > 0 {
		msg += " on " + strings.Join(issue.Assignees, ", ")
	}
	return msg
}

func hasLabel(issue *gh.Issue, label string) bool {
	for _, l := range issue.Labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}
