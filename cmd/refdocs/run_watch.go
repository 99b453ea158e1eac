package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/watch"
)

func runWatch(cfgPath string, promote bool) error {
	// Validate up front so a broken config fails fast instead of on the
	// first change event.
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	regenerate := func(ctx context.Context) error {
		// The config is reloaded each pass; a config edit is one of the
		// watched triggers.
		return runGenerate(cfgPath, promote, false)
	}

	w, err := watch.New(regenerate, cfgPath, cfg.Metadata)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("watch mode started", "config", cfgPath, "metadata", cfg.Metadata)
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	slog.Info("watch mode stopped")
	return nil
}
