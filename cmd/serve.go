package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Zeenat-Muzaffar/GHURLBot/internal/bot"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/config"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/gh"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/irc"
	"github.com/Zeenat-Muzaffar/GHURLBot/internal/store"
	storefile "github.com/Zeenat-Muzaffar/GHURLBot/internal/store/file"
	storesqlite "github.com/Zeenat-Muzaffar/GHURLBot/internal/store/sqlite"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to IRC and run the bot",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	setupLogging()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	channelStore, watchPath, closeStore, err := buildStore(cfg)
	if err != nil {
		slog.Error("settings store setup failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var tracker bot.IssueTracker
	if cfg.GitHub.Token != "" {
		tracker = gh.NewClient(cfg.GitHub.Token)
	} else {
		slog.Warn("no GitHub token configured; issue summaries and mutations disabled")
	}

	client, err := irc.Dial(ctx, irc.Options{
		Server:   cfg.IRC.Server,
		UseTLS:   cfg.IRC.TLS,
		Nick:     cfg.IRC.Nick,
		RealName: cfg.IRC.RealName,
		Password: cfg.IRC.Password,
		SendRate: cfg.IRC.SendRate,
		Burst:    cfg.IRC.SendBurst,
	})
	if err != nil {
		slog.Error("irc connect failed", "error", err)
		os.Exit(1)
	}

	rejoin := storefile.NewRejoinList(cfg.Store.RejoinFile)
	b := bot.New(channelStore, client, tracker, rejoin)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return client.Run(ctx) })
	g.Go(func() error { return b.Run(ctx) })
	if watchPath != "" {
		g.Go(func() error {
			return storefile.Watch(ctx, watchPath, func() {
				if err := channelStore.Reload(); err != nil {
					slog.Warn("settings reload failed", "error", err)
				}
			})
		})
	}
	g.Go(func() error {
		joinChannels(ctx, client, rejoin, cfg.IRC.Channels)
		return nil
	})

	slog.Info("ghurlbot running", "server", cfg.IRC.Server, "nick", cfg.IRC.Nick)
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("bot stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("ghurlbot stopped")
}

// buildStore constructs the configured settings backend. The returned path is
// non-empty when a settings file should be watched for external edits.
func buildStore(cfg *config.Config) (*store.ChannelStore, string, func(), error) {
	switch cfg.Store.Backend {
	case "sqlite":
		db, err := storesqlite.NewDB(cfg.Store.Database)
		if err != nil {
			return nil, "", nil, err
		}
		st, err := store.NewChannelStore(storesqlite.NewSettingsRepo(db))
		if err != nil {
			db.Close()
			return nil, "", nil, err
		}
		return st, "", func() { db.Close() }, nil

	default: // "file"
		settings, err := storefile.NewSettingsFile(cfg.Store.SettingsFile)
		if err != nil {
			return nil, "", nil, err
		}
		st, err := store.NewChannelStore(settings)
		if err != nil {
			return nil, "", nil, err
		}
		watchPath := ""
		if cfg.Store.Watch {
			watchPath = settings.Path()
		}
		return st, watchPath, func() {}, nil
	}
}

// joinChannels enters the configured channels plus everything on the rejoin
// list, and records configured channels for next time.
func joinChannels(ctx context.Context, client *irc.Client, rejoin *storefile.RejoinList, configured []string) {
	remembered, err := rejoin.Load()
	if err != nil {
		slog.Warn("rejoin list load failed", "error", err)
	}

	seen := make(map[string]bool)
	for _, ch := range append(append([]string(nil), configured...), remembered...) {
		if ch == "" || seen[ch] {
			continue
		}
		seen[ch] = true
		if err := client.Join(ctx, ch); err != nil {
			slog.Warn("join failed", "channel", ch, "error", err)
			continue
		}
		if err := rejoin.Add(ch); err != nil {
			slog.Warn("rejoin list update failed", "channel", ch, "error", err)
		}
	}
}
