// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"medibot/config"
	"medibot/internal/bot"
	"medibot/internal/scheduler"
	"medibot/internal/server"
	"medibot/internal/speech"
	"medibot/internal/store"
	"medibot/pkg/logger"
)

func main() {
	l := logger.New()
	l.Info("Starting medication reminder bot...")

	cfg, err := config.Load()
	if err != nil {
		l.Fatal("Failed to load config", err)
	}
	if err := cfg.Validate(); err != nil {
		l.Fatal("Invalid configuration", err)
	}

	st, err := store.Open(cfg.Data.File, l)
	if err != nil {
		l.Fatal("Failed to open state file", err)
	}

	var sp *speech.Client
	if cfg.Speech.APIKey != "" {
		sp = speech.NewClient(cfg.Speech.APIKey).WithVoice(cfg.Speech.Voice)
		l.Info("Voice reminders enabled")
	}

	telegramBot, err := bot.New(cfg, st, sp, l)
	if err != nil {
		l.Fatal("Failed to create Telegram bot", err)
	}

	sched, err := scheduler.New(l, telegramBot.Fire)
	if err != nil {
		l.Fatal("Failed to create scheduler", err)
	}
	telegramBot.UseScheduler(sched)

	// Job state lives only in memory; derive it all from the store.
	sched.RebuildAll(st.SnapshotAll())
	sched.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch cfg.Telegram.Mode {
	case config.ModePoll:
		if err := telegramBot.StartPolling(ctx); err != nil {
			l.Fatal("Failed to start polling", err)
		}
	case config.ModeWebhook:
		if err := telegramBot.RegisterWebhook(); err != nil {
			l.Fatal("Failed to register webhook", err)
		}
		l.Info("Webhook registered")
	}

	httpServer := server.NewServer(cfg.Server.Port, telegramBot, l)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Failed to start HTTP server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down bot...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		l.Error("Error during HTTP server shutdown", err)
	}
	if err := telegramBot.Stop(shutdownCtx); err != nil {
		l.Error("Error during bot shutdown", err)
	}
	if err := sched.Stop(); err != nil {
		l.Error("Error during scheduler shutdown", err)
	}

	l.Info("Bot stopped")
}
