// Package bot implements lifecycle management and component orchestration
// for the vaqtbot Telegram bot.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/bekzod-dev/vaqtbot/internal/config"
	"github.com/bekzod-dev/vaqtbot/internal/notify"
)

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger *slog.Logger
	cfg    *config.Config
	tgBot  *tgbot.Bot
	engine *notify.Engine
}

// NewBot creates a new instance of the bot with all required dependencies.
func NewBot(logger *slog.Logger, cfg *config.Config, tgBot *tgbot.Bot, engine *notify.Engine) *Bot {
	return &Bot{
		logger: logger.With("component", "bot_orchestrator"),
		cfg:    cfg,
		tgBot:  tgBot,
		engine: engine,
	}
}

// Run starts the Telegram listener and the notification engine, handling
// graceful shutdown on context cancellation.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")

		b.tgBot.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		if !b.cfg.Notify.Enabled {
			b.logger.Info("Notification engine disabled by configuration")
			return nil
		}

		b.logger.Info("Starting notification engine...")
		if err := b.engine.Start(); err != nil {
			b.logger.Error("Failed to start notification engine", "error", err)
			return fmt.Errorf("failed to start notification engine: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping notification engine...")

		if err := b.engine.Stop(); err != nil {
			b.logger.Error("Error stopping notification engine", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
