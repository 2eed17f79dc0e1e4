package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Zeenat-Muzaffar/GHURLBot/internal/bus"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/dispatch"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/gh"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/refs"
)

// orchestrate sequences a mutating GitHub command: resolve the repository,
// check the rate limiter, then delegate to a worker. A limiter denial is
// answered synchronously with the fixed cooldown message and the action is
// dropped, never queued or retried.
func (b *Bot) orchestrate(ctx context.Context, line bus.ChatLine, cmd dispatch.Command) {
	channel := line.Channel
	cfg := b.store.Snapshot(channel)

	if b.tracker == nil {
		b.send(ctx, channel, "Sorry, I have no GitHub credentials, so I cannot do that.")
		return
	}

	// Close/reopen carry an optional repository prefix on the issue
	// reference; create commands use the most-recently-used repository.
	prefix := ""
	number := 0
	if cmd.Ref != "" {
		var err error
		prefix, number, err = refs.ParseIssueRef(cmd.Ref)
		if err != nil {
			slog.Error("BUG: grammar passed unparseable issue reference", "ref", cmd.Ref, "error", err)
			return
		}
	}

	repo, ok := refs.InferRepository(cfg, prefix)
	if !ok {
		b.send(ctx, channel, "Sorry, I don't know what repository to use.")
		return
	}
	owner, name, err := refs.SplitOwnerRepo(repo)
	if err != nil {
		slog.Error("BUG: inferred repository is not owner/name shaped", "repo", repo, "error", err)
		return
	}

	if !b.limiter.TryConsume(repo) {
		b.send(ctx, channel, fmt.Sprintf(
			"Sorry, I have done too much on %s in the last 10 minutes. Please wait a while and try again.",
			repo))
		return
	}

	switch cmd.Kind {
	case dispatch.KindCreateIssue:
		title := cmd.Text
		b.spawn(ctx, channel, "create issue", func(ctx context.Context) string {
			issue, err := b.tracker.CreateIssue(ctx, owner, name, title, nil, "", nil)
			if err != nil {
				return b.failure(fmt.Sprintf("create an issue in %s/%s", owner, name), err)
			}
			return fmt.Sprintf("Created -> Issue #%d %s %s", issue.Number, issue.HTMLURL, issue.Title)
		})

	case dispatch.KindCreateAction:
		title := cmd.Text
		assignees := b.resolveAssignees(cmd.Assignees)
		body := ""
		if cmd.Due != "" {
			body = "Due: " + cmd.Due
		}
		b.spawn(ctx, channel, "create action", func(ctx context.Context) string {
			issue, err := b.tracker.CreateIssue(ctx, owner, name, title, assignees, body, []string{ActionLabel})
			if err != nil {
				return b.failure(fmt.Sprintf("create an action in %s/%s", owner, name), err)
			}
			msg := fmt.Sprintf("Created -> Action #%d %s %s", issue.Number, issue.HTMLURL, issue.Title)
			if len(assignees) > 0 {
				msg += " on " + strings.Join(assignees, ", ")
			}
			if cmd.Due != "" {
				msg += " due " + cmd.Due
			}
			return msg
		})

	case dispatch.KindCloseIssue:
		b.spawn(ctx, channel, "close issue", func(ctx context.Context) string {
			issue, err := b.tracker.SetIssueState(ctx, owner, name, number, "closed")
			if err != nil {
				return b.failure(fmt.Sprintf("close %s/%s#%d", owner, name, number), err)
			}
			return fmt.Sprintf("Closed -> Issue #%d %s %s", issue.Number, issue.HTMLURL, issue.Title)
		})

	case dispatch.KindReopenIssue:
		b.spawn(ctx, channel, "reopen issue", func(ctx context.Context) string {
			issue, err := b.tracker.SetIssueState(ctx, owner, name, number, "open")
			if err != nil {
				return b.failure(fmt.Sprintf("reopen %s/%s#%d", owner, name, number), err)
			}
			return fmt.Sprintf("Reopened -> Issue #%d %s %s", issue.Number, issue.HTMLURL, issue.Title)
		})

	default:
		slog.Error("BUG: unhandled mutating command kind", "kind", int(cmd.Kind))
	}
}

// resolveAssignees maps nicks to GitHub logins through the alias table; a
// nick with no alias is assumed to be the login itself.
func (b *Bot) resolveAssignees(nicks []string) []string {
	out := make([]string, 0, len(nicks))
	for _, nick := range nicks {
		if login, ok := b.store.Alias(nick); ok {
			out = append(out, login)
			continue
		}
		out = append(out, nick)
	}
	return out
}

// failure logs a failed GitHub call with its numeric status for operator
// diagnosis and returns the fixed user-visible message.
func (b *Bot) failure(op string, err error) string {
	status := gh.StatusCode(err)
	slog.Warn("github operation failed", "op", op, "status", status, "error", err)
	return gh.FailureMessage(op, status)
}

// spawn runs a GitHub-bound task on its own goroutine. The task gets copies
// of everything it needs; any state change (history, settings) has already
// happened on the main loop before the worker starts. The task's returned
// string, if any, is delivered as an asynchronous chat line.
func (b *Bot) spawn(ctx context.Context, channel, op string, task func(context.Context) string) {
	taskID := uuid.NewString()[:8]
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		slog.Debug("github task started", "task", taskID, "op", op, "channel", channel)
		if msg := task(ctx); msg != "" {
			b.send(ctx, channel, msg)
		}
		slog.Debug("github task finished", "task", taskID, "op", op)
	}()
}
