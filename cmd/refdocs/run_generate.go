package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/generate"
	"git.home.luguber.info/inful/refdocs/internal/history"
	"git.home.luguber.info/inful/refdocs/internal/manifest"
	"git.home.luguber.info/inful/refdocs/internal/metadata"
	"git.home.luguber.info/inful/refdocs/internal/metrics"
	"git.home.luguber.info/inful/refdocs/internal/observability"
	"git.home.luguber.info/inful/refdocs/internal/report"
	"git.home.luguber.info/inful/refdocs/internal/storage"
	"git.home.luguber.info/inful/refdocs/internal/versioning"
)

func runGenerate(cfgPath string, promote, printMetrics bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	graph, graphHash, err := metadata.LoadGraph(cfg.Metadata)
	if err != nil {
		return err
	}

	configHash, err := hashFile(cfgPath)
	if err != nil {
		return err
	}

	rec := metrics.NewPrometheusRecorder(prom.NewRegistry())

	runID := uuid.NewString()
	ctx := observability.WithRunID(context.Background(), runID)
	observability.InfoContext(ctx, "starting generation",
		slog.String("version", cfg.Version),
		slog.String("graph_hash", graphHash))

	result, runErr := generate.Run(ctx, graph, cfg, rec)
	rep := result.Report
	dur := rep.Finish()
	rec.ObserveRunDuration(dur)
	rec.IncRunOutcome(string(rep.Outcome()))

	if promote && runErr == nil {
		archive, archErr := storage.NewFSStore(filepath.Join(cfg.Output.Directory, ".refdocs"))
		if archErr != nil {
			return archErr
		}
		defer func() { _ = archive.Close() }()
		mgr := versioning.NewManager(cfg.Output.Directory, archive, rec)
		if promErr := mgr.Promote(ctx, cfg.Version, rep); promErr != nil {
			runErr = promErr
		}
	}

	m := manifest.New(cfg.Version, graphHash, configHash, rep)
	if snapshot, snapErr := rec.Snapshot(); snapErr == nil {
		m.Outputs.Metrics = snapshot
	}
	versionRoot := filepath.Join(cfg.Output.Directory, generate.VersionsFolder, cfg.Version)
	if runErr == nil {
		if err := m.Write(versionRoot); err != nil {
			return err
		}
	}

	if cfg.History.Database != "" {
		if histErr := recordHistory(ctx, cfg.History.Database, m, rep); histErr != nil {
			slog.Warn("failed to record run history", "error", histErr)
		}
	}

	for _, w := range rep.Warnings() {
		fmt.Fprintln(os.Stderr, "warning:", w.String())
	}
	if printMetrics {
		printSnapshot(rec)
	}

	observability.InfoContext(ctx, "generation finished",
		slog.String("outcome", string(rep.Outcome())),
		slog.Int("pages", rep.PagesGenerated),
		slog.Int("skeletons", rep.SkeletonsWritten),
		slog.Duration("duration", dur))

	return runErr
}

func recordHistory(ctx context.Context, dbPath string, m *manifest.GenerationManifest, rep *report.Report) error {
	store, err := history.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.RecordGeneration(ctx, m, rep)
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func printSnapshot(rec *metrics.PrometheusRecorder) {
	snapshot, err := rec.Snapshot()
	if err != nil {
		slog.Warn("failed to gather metrics", "error", err)
		return
	}
	for name, value := range snapshot {
		fmt.Printf("%s %g\n", name, value)
	}
}
