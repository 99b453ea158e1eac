// Package generate runs one documentation generation pass: metadata graph
// in, documentation tree plus sidecar skeletons out.
//
// Generation is idempotent: identical (graph, config) inputs produce a
// byte-identical tree, and partial output from an aborted run is safe to
// leave in place because the next run rewrites every node.
package generate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/errors"
	"git.home.luguber.info/inful/refdocs/internal/metadata"
	"git.home.luguber.info/inful/refdocs/internal/metrics"
	"git.home.luguber.info/inful/refdocs/internal/observability"
	"git.home.luguber.info/inful/refdocs/internal/page"
	"git.home.luguber.info/inful/refdocs/internal/report"
	"git.home.luguber.info/inful/refdocs/internal/sidecar"
	"git.home.luguber.info/inful/refdocs/internal/structure"
)

// VersionsFolder is the folder under the output root holding one qualified
// tree per version. The unqualified address of the current version lives in
// LatestFolder.
const (
	VersionsFolder = "versions"
	LatestFolder   = "latest"
)

// Result carries the outcome of one generation pass.
type Result struct {
	Report *report.Report
	Plan   *structure.Plan
}

// Run executes a full generation pass for cfg.Version.
//
// The tree is written twice: under versions/<tag>/ (the version-qualified
// address) and under latest/ (the unqualified address of the current
// version). Sidecar skeletons are written once per first-seen UID; existing
// sidecar files are never touched.
func Run(ctx context.Context, g *metadata.Graph, cfg *config.Config, rec metrics.Recorder) (*Result, error) {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	rep := report.New()
	ctx = observability.WithVersion(ctx, cfg.Version)

	// Schema guarantees are checked up front so traversal never recurses
	// into a namespace cycle.
	for _, err := range g.Validate() {
		if ce, ok := errors.AsClassified(err); ok {
			uid, _ := ce.Context()["uid"].(string)
			rep.Warnf(uid, "", "schema violation, branch skipped: %s", ce.Message())
		} else {
			rep.Warnf("", "", "schema violation, branch skipped: %v", err)
		}
	}

	ctx = observability.WithStage(ctx, "plan")
	plan := structure.BuildPlan(g, cfg, rep)
	for i := 0; i < plan.Ignored; i++ {
		rec.IncIgnoredEntities()
	}
	observability.InfoContext(ctx, "structure plan built",
		slog.Int("nodes", len(plan.Nodes)), slog.Int("ignored", plan.Ignored))

	// A failure to write to the output root at all is fatal and aborts the
	// whole run before any node is attempted.
	qualifiedRoot := filepath.Join(cfg.Output.Directory, VersionsFolder, cfg.Version)
	latestRoot := filepath.Join(cfg.Output.Directory, LatestFolder)
	for _, root := range []string{qualifiedRoot, latestRoot} {
		if err := os.MkdirAll(root, 0o750); err != nil {
			fatal := errors.WrapFatalFileSystemError(err, "create output root").
				WithContext("path", root)
			rep.SetFatal(fatal)
			return &Result{Report: rep, Plan: plan}, fatal
		}
	}

	store := sidecar.NewStore(cfg.Sidecar.Directory, cfg.Version)

	// Skeleton pass runs before rendering so listing descriptions see every
	// entry, including ones created this run.
	if cfg.Sidecar.EmitSkeletons {
		ctx = observability.WithStage(ctx, "skeletons")
		for _, node := range plan.Nodes {
			created, err := store.EnsureSkeleton(node.UID, node.Path)
			if err != nil {
				rep.SetFatal(err)
				return &Result{Report: rep, Plan: plan}, err
			}
			if created {
				rep.SkeletonsWritten++
				rec.IncSkeletonsWritten()
			} else {
				rec.IncSidecarsPreserved()
			}
		}
		observability.InfoContext(ctx, "sidecar skeletons ensured",
			slog.Int("created", rep.SkeletonsWritten))
	}

	renderer := page.NewRenderer(g, plan, store, rep, cfg.Version)

	ctx = observability.WithStage(ctx, "render")
	for _, node := range plan.Nodes {
		select {
		case <-ctx.Done():
			err := errors.Wrap(ctx.Err(), errors.CategoryInternal, errors.SeverityFatal, "generation canceled")
			rep.SetFatal(err)
			return &Result{Report: rep, Plan: plan}, err
		default:
		}

		content, err := renderer.Render(node)
		if err != nil {
			rep.Warnf(string(node.UID), node.Path, "render failed: %v", err)
			rec.IncResolutionFailures()
			continue
		}

		for _, root := range []string{qualifiedRoot, latestRoot} {
			if err := writeNode(root, node.Path, content); err != nil {
				rep.SetFatal(err)
				return &Result{Report: rep, Plan: plan}, err
			}
		}
		rep.PagesGenerated++
		rec.IncPagesGenerated(string(node.Kind))
	}

	observability.InfoContext(ctx, "generation pass complete",
		slog.Int("pages", rep.PagesGenerated),
		slog.Int("warnings", rep.WarningCount()))

	return &Result{Report: rep, Plan: plan}, nil
}

// writeNode writes one page. The plan's top-down order guarantees the parent
// directory of every node either exists or is created here before the file.
func writeNode(root, relPath string, content []byte) error {
	full := filepath.Join(root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.WrapFileSystemError(err, "create node directory").
			WithContext("path", filepath.Dir(full))
	}
	if err := os.WriteFile(full, content, 0o640); err != nil {
		return errors.WrapFileSystemError(err, "write node").
			WithContext("path", full)
	}
	return nil
}
