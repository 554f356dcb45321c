package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ewintr.nl/radiobot/bot"
	"ewintr.nl/radiobot/catalog"
	"ewintr.nl/radiobot/config"
	"ewintr.nl/radiobot/cooldown"
	"ewintr.nl/radiobot/fetcher"
	"ewintr.nl/radiobot/handler"
	"ewintr.nl/radiobot/model"
	"ewintr.nl/radiobot/notify"
	"ewintr.nl/radiobot/retry"
	"ewintr.nl/radiobot/storage"
	"ewintr.nl/radiobot/submit"
	"golang.org/x/exp/slog"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("unable to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	level.Set(cfg.LogLevel)
	if cfg.DiscordToken == "" || cfg.PlaylistID == "" {
		logger.Error("DISCORD_TOKEN and PLAYLIST_ID are required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := newCatalog(ctx, cfg, logger)

	var repo storage.SubmissionRepository = storage.Nop{}
	if cfg.DatabaseURL != "" {
		postgres, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("unable to connect to postgres", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer postgres.Close()
		repo = storage.NewPostgresSubmissionRepository(postgres)
	} else {
		logger.Info("no database configured, submissions are not recorded")
	}

	session, err := bot.NewSession(cfg.DiscordToken, cfg.GuildID, bool(cfg.EnableMessageScanning), logger)
	if err != nil {
		logger.Error("unable to create discord session", slog.String("error", err.Error()))
		os.Exit(1)
	}

	exec := retry.NewExecutor(retry.DefaultPlan, logger)
	policy := submit.NewPolicy(cat, exec, cfg.MaxVideoDuration())
	notifier := notify.NewNotifier(session, cfg.PlaylistLink(), logger)
	orchestrator := submit.NewOrchestrator(policy, cat, exec, cooldown.New(cfg.Cooldown()), notifier, repo, model.PlaylistID(cfg.PlaylistID), logger)

	botHandler := bot.NewHandler(session, orchestrator, notifier, bot.Settings{
		ChannelID:   cfg.ChannelID,
		Keyword:     cfg.Keyword,
		MaxDuration: policy.MaxDuration(),
	}, logger)
	if err := session.Open(ctx, botHandler); err != nil {
		logger.Error("unable to connect to discord", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("bot started", slog.String("playlist", cfg.PlaylistID), slog.String("channel", cfg.ChannelID))

	if cfg.MinifluxEndpoint != "" {
		mflx := fetcher.NewMiniflux(fetcher.MinifluxInfo{
			Endpoint: cfg.MinifluxEndpoint,
			ApiKey:   cfg.MinifluxAPIKey,
		})
		go fetcher.NewFetch(mflx, cfg.FeedInterval, orchestrator, cfg.ChannelID, logger).Run(ctx)
		logger.Info("feed reader started")
	}

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := handler.NewServer(session.Ready, logger).ListenAndServe(ctx, cfg.HealthAddress()); err != nil {
			logger.Error("health server failed", slog.String("error", err.Error()))
		}
	}()

	<-ctx.Done()
	if err := session.Close(); err != nil {
		logger.Error("could not close discord session", slog.String("error", err.Error()))
	}
	<-serverDone

	logger.Info("service stopped")
}

// newCatalog falls back to a catalog that rejects every call when the
// credentials cannot be used, so the bot still answers users.
func newCatalog(ctx context.Context, cfg config.Config, logger *slog.Logger) catalog.Catalog {
	ts, err := catalog.LoadTokenSource(ctx, cfg.GoogleCredsPath, logger)
	if err != nil {
		logger.Warn("youtube catalog unavailable", slog.String("error", err.Error()))
		return catalog.Unavailable{Reason: err.Error()}
	}

	ytClient, err := youtube.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		logger.Warn("unable to create youtube service", slog.String("error", err.Error()))
		return catalog.Unavailable{Reason: err.Error()}
	}

	return catalog.NewYoutube(ytClient, cfg.GoogleCredsPath)
}
