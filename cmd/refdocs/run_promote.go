package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/history"
	"git.home.luguber.info/inful/refdocs/internal/metrics"
	"git.home.luguber.info/inful/refdocs/internal/observability"
	"git.home.luguber.info/inful/refdocs/internal/report"
	"git.home.luguber.info/inful/refdocs/internal/storage"
	"git.home.luguber.info/inful/refdocs/internal/versioning"
)

func runPromote(cfgPath, tag string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	archive, err := storage.NewFSStore(filepath.Join(cfg.Output.Directory, ".refdocs"))
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	rec := metrics.NewPrometheusRecorder(prom.NewRegistry())
	rep := report.New()

	runID := uuid.NewString()
	ctx := observability.WithRunID(context.Background(), runID)
	observability.InfoContext(ctx, "promoting version", slog.String("tag", tag))

	mgr := versioning.NewManager(cfg.Output.Directory, archive, rec)
	promErr := mgr.Promote(ctx, tag, rep)
	rep.Finish()

	if cfg.History.Database != "" {
		store, histErr := history.NewSQLiteStore(cfg.History.Database)
		if histErr != nil {
			slog.Warn("failed to open run history", "error", histErr)
		} else {
			if err := store.RecordPromotion(ctx, runID, tag, rep); err != nil {
				slog.Warn("failed to record run history", "error", err)
			}
			_ = store.Close()
		}
	}

	for _, w := range rep.Warnings() {
		fmt.Fprintln(os.Stderr, "warning:", w.String())
	}
	observability.InfoContext(ctx, "promotion finished",
		slog.Int("shells_converted", rep.ShellsConverted),
		slog.String("outcome", string(rep.Outcome())))

	return promErr
}
