package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Zeenat-Muzaffar/GHURLBot/internal/bus"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/dispatch"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/gh"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/refs"
)

// execute applies one recognized command. Configuration commands mutate the
// store synchronously; mutating GitHub commands go through the orchestrator.
func (b *Bot) execute(ctx context.Context, line bus.ChatLine, cmd dispatch.Command) {
	channel := line.Channel

	if cmd.Mutating() {
		// Mutations from a suspended channel are only honored when the
		// request was addressed at the bot explicitly.
		cfg := b.store.Snapshot(channel)
		if cfg.SuspendIssues && !line.Addressed {
			slog.Debug("mutation dropped: issues suspended and not addressed",
				"channel", channel, "kind", int(cmd.Kind))
			return
		}
		b.orchestrate(ctx, line, cmd)
		return
	}

	switch cmd.Kind {
	case dispatch.KindLeave:
		b.send(ctx, channel, "OK, bye.")
		if err := b.transport.Part(ctx, channel); err != nil {
			slog.Warn("part failed", "channel", channel, "error", err)
		}
		if b.rejoin != nil {
			if err := b.rejoin.Remove(channel); err != nil {
				slog.Warn("rejoin list update failed", "channel", channel, "error", err)
			}
		}

	case dispatch.KindDiscuss:
		b.useRepository(ctx, line, cmd.Repo, true)

	case dispatch.KindDeclareRepos:
		// Passive declaration: apply in order so the last named repository
		// ends up most-recently-used; never reply, never complain.
		for _, token := range cmd.Repos {
			b.useRepository(ctx, line, token, false)
		}

	case dispatch.KindForget:
		removed := b.store.ForgetRepository(channel, cmd.Repo)
		if len(removed) == 0 {
			b.send(ctx, channel, fmt.Sprintf("Sorry, I was not using %s", cmd.Repo))
			return
		}
		b.send(ctx, channel, fmt.Sprintf("OK, I forgot %s", strings.Join(removed, ", ")))

	case dispatch.KindClearRepos:
		b.store.ClearRepositories(channel)
		b.send(ctx, channel, "OK, I am no longer tracking any repositories.")

	case dispatch.KindDelay:
		b.store.SetDelay(channel, cmd.Delay)
		b.send(ctx, channel, fmt.Sprintf("OK, the delay is %d lines.", cmd.Delay))

	case dispatch.KindStatus:
		b.send(ctx, channel, b.statusLine(channel))

	case dispatch.KindSuspendAll:
		b.store.SetSuspendAll(channel, cmd.Suspend)
		b.send(ctx, channel, ackSuspend("link expansion", cmd.Suspend))

	case dispatch.KindSuspendIssues:
		b.store.SetSuspendIssues(channel, cmd.Suspend)
		b.send(ctx, channel, ackSuspend("issue links", cmd.Suspend))

	case dispatch.KindSuspendNames:
		b.store.SetSuspendNames(channel, cmd.Suspend)
		b.send(ctx, channel, ackSuspend("name links", cmd.Suspend))

	case dispatch.KindAccountInfo:
		if b.tracker == nil {
			b.send(ctx, channel, "I am not logged in to GitHub.")
			return
		}
		b.spawn(ctx, channel, "account info", func(ctx context.Context) string {
			login, err := b.tracker.AuthenticatedUser(ctx)
			if err != nil {
				slog.Warn("account info failed", "status", gh.StatusCode(err), "error", err)
				return gh.FailureMessage("find out who I am", gh.StatusCode(err))
			}
			return fmt.Sprintf("I am %s (https://github.com/%s)", login, login)
		})

	case dispatch.KindIgnore:
		b.store.Ignore(channel, cmd.Nick)
		b.send(ctx, channel, fmt.Sprintf("OK, I will ignore %s.", cmd.Nick))

	case dispatch.KindUnignore:
		if !b.store.Unignore(channel, cmd.Nick) {
			b.send(ctx, channel, fmt.Sprintf("I was not ignoring %s.", cmd.Nick))
			return
		}
		b.send(ctx, channel, fmt.Sprintf("OK, I will no longer ignore %s.", cmd.Nick))

	case dispatch.KindAlias:
		b.store.SetAlias(cmd.Nick, cmd.Login)
		b.send(ctx, channel, fmt.Sprintf("OK, %s is %s on GitHub.", cmd.Nick, cmd.Login))

	default:
		slog.Error("BUG: unhandled command kind", "kind", int(cmd.Kind))
	}
}

// useRepository resolves a repository token and makes it the channel's
// most-recently-used repository. Errors are reported only for the addressed
// imperative form.
func (b *Bot) useRepository(ctx context.Context, line bus.ChatLine, token string, reply bool) {
	cfg := b.store.Snapshot(line.Channel)
	url, err := refs.Resolve(cfg, token)
	if err != nil {
		if reply {
			b.send(ctx, line.Channel,
				fmt.Sprintf("Sorry, %s does not look like a repository.", token))
		}
		return
	}
	b.store.UseRepository(line.Channel, url)
	if reply {
		b.send(ctx, line.Channel, fmt.Sprintf("OK, using %s", url))
	}
}

func (b *Bot) statusLine(channel string) string {
	cfg := b.store.Snapshot(channel)
	var sb strings.Builder
	if len(cfg.Repositories) == 0 {
		sb.WriteString("I am not tracking any repositories.")
	} else {
		sb.WriteString("I am tracking ")
		sb.WriteString(strings.Join(cfg.Repositories, ", "))
		sb.WriteString(".")
	}
	fmt.Fprintf(&sb, " Delay is %d lines. Issue links are %s. Name links are %s.",
		cfg.Delay, onOff(!cfg.SuspendIssues), onOff(!cfg.SuspendNames))
	if ignored := b.store.IgnoredNicks(channel); len(ignored) > 0 {
		fmt.Fprintf(&sb, " I am ignoring %s.", strings.Join(ignored, ", "))
	}
	return sb.String()
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func ackSuspend(what string, suspended bool) string {
	if suspended {
		return fmt.Sprintf("OK, I will stop expanding %s.", what)
	}
	return fmt.Sprintf("OK, I will expand %s.", what)
}
