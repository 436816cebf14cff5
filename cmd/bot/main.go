package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/discord"
	"github.com/set-night/captionbot/internal/handler"
	"github.com/set-night/captionbot/internal/service"
	"github.com/set-night/captionbot/internal/telegram"
	"github.com/set-night/captionbot/internal/vision"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Setup structured logging
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.SlogLevel())

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize caption model
	captioner, err := vision.New(cfg)
	if err != nil {
		slog.Error("failed to create captioner", "error", err)
		os.Exit(1)
	}
	slog.Info("captioner ready", "provider", cfg.CaptionProvider, "timeout", cfg.CaptionTimeout)

	pipeline := service.NewCaptionPipeline(captioner, cfg.CaptionTimeout)
	tracker := service.NewSessionTracker()

	var (
		run      func(context.Context, *handler.Handler) error
		reporter handler.ErrorReporter
	)

	switch cfg.Platform {
	case config.PlatformTelegram:
		adapter, err := telegram.NewAdapter(cfg.TelegramToken)
		if err != nil {
			slog.Error("failed to create telegram adapter", "error", err)
			os.Exit(1)
		}
		run = adapter.Run
		reporter = operatorLog(adapter.Bot(), cfg)
	case config.PlatformDiscord:
		adapter, err := discord.NewAdapter(cfg.DiscordToken)
		if err != nil {
			slog.Error("failed to create discord adapter", "error", err)
			os.Exit(1)
		}
		run = adapter.Run
		if cfg.TelegramToken != "" && cfg.LogTelegramChatID != 0 {
			b, err := bot.New(cfg.TelegramToken)
			if err != nil {
				slog.Warn("operator log disabled", "error", err)
			} else {
				reporter = operatorLog(b, cfg)
			}
		}
	}

	// Initialize handler
	h := handler.New(handler.Deps{
		Tracker:       tracker,
		Pipeline:      pipeline,
		Dedup:         handler.NewDedup(cfg.DedupTTL),
		Reporter:      reporter,
		CommandPrefix: cfg.CommandPrefix,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return run(gctx, h)
	})

	// Start bot
	slog.Info("starting bot", "platform", cfg.Platform, "prefix", cfg.CommandPrefix)
	if err := g.Wait(); err != nil {
		slog.Error("bot stopped with error", "error", err)
		h.Wait()
		os.Exit(1)
	}

	// Graceful shutdown
	slog.Info("waiting for in-flight messages")
	h.Wait()
	slog.Info("bot stopped gracefully")
}

// operatorLog returns nil when no operator chat is configured so the handler
// skips reporting entirely.
func operatorLog(b *bot.Bot, cfg *config.Config) handler.ErrorReporter {
	tgLogger := telegram.NewTelegramLogger(b, cfg)
	if !tgLogger.Enabled() {
		return nil
	}
	return tgLogger
}
