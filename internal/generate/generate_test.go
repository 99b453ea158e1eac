package generate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/metadata"
	"git.home.luguber.info/inful/refdocs/internal/report"
)

func testGraph() *metadata.Graph {
	g := metadata.NewGraph()
	g.AddNamespace(&metadata.Namespace{
		UID: "N:Foo", Name: "Foo",
		Types: []metadata.UID{"T:Foo.Bar"},
	})
	g.AddType(&metadata.Class{TypeBase: metadata.TypeBase{
		UID: "T:Foo.Bar", Name: "Bar", Namespace: "N:Foo",
		Members: []metadata.UID{"M:Foo.Bar.Do(System.Int32)", "M:Foo.Bar.Do(System.String)"},
	}})
	g.AddMember(&metadata.Member{UID: "M:Foo.Bar.Do(System.Int32)", Name: "Do", Kind: metadata.MemberMethod, DeclaringType: "T:Foo.Bar"})
	g.AddMember(&metadata.Member{UID: "M:Foo.Bar.Do(System.String)", Name: "Do", Kind: metadata.MemberMethod, DeclaringType: "T:Foo.Bar"})
	g.Seal()
	return g
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Output:          config.OutputConfig{Directory: filepath.Join(t.TempDir(), "docs")},
		Sidecar:         config.SidecarConfig{Directory: filepath.Join(t.TempDir(), "sidecars"), EmitSkeletons: true},
		GlobalNamespace: "Global",
		Version:         "1.0.0",
	}
}

func treeSnapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	snap := map[string]string{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return readErr
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		snap[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return snap
}

func TestRunGeneratesQualifiedAndLatestTrees(t *testing.T) {
	cfg := testConfig(t)
	result, err := Run(context.Background(), testGraph(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, report.OutcomeSuccess, result.Report.Outcome())

	qualified := treeSnapshot(t, filepath.Join(cfg.Output.Directory, VersionsFolder, "1.0.0"))
	latest := treeSnapshot(t, filepath.Join(cfg.Output.Directory, LatestFolder))
	require.Equal(t, qualified, latest, "qualified and unqualified trees are byte-identical")

	require.Contains(t, qualified, "Foo/_index.md")
	require.Contains(t, qualified, "Foo/Types/Bar/_index.md")
	require.Contains(t, qualified, "Foo/Types/Bar/Methods/Do.md")
	require.Equal(t, len(result.Plan.Nodes), result.Report.PagesGenerated)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := testConfig(t)
	_, err := Run(context.Background(), testGraph(), cfg, nil)
	require.NoError(t, err)
	first := treeSnapshot(t, filepath.Join(cfg.Output.Directory, VersionsFolder, "1.0.0"))

	_, err = Run(context.Background(), testGraph(), cfg, nil)
	require.NoError(t, err)
	second := treeSnapshot(t, filepath.Join(cfg.Output.Directory, VersionsFolder, "1.0.0"))

	require.Equal(t, first, second)
}

func TestRunEmitsSkeletonsOncePerUID(t *testing.T) {
	cfg := testConfig(t)
	result, err := Run(context.Background(), testGraph(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, len(result.Plan.Nodes), result.Report.SkeletonsWritten)

	// Second run: everything already exists, nothing new is written.
	result, err = Run(context.Background(), testGraph(), cfg, nil)
	require.NoError(t, err)
	require.Zero(t, result.Report.SkeletonsWritten)
}

func TestRunPreservesEditedSidecarAndInjectsIt(t *testing.T) {
	cfg := testConfig(t)
	_, err := Run(context.Background(), testGraph(), cfg, nil)
	require.NoError(t, err)

	// A human replaces the skeleton wholesale.
	sidecarPath := filepath.Join(cfg.Sidecar.Directory, "1.0.0", "Foo", "Types", "Bar", "_index.md")
	human := []byte("---\nuid: T:Foo.Bar\ndescription: Hand-written summary.\n---\nHand-written intro.\n")
	require.NoError(t, os.WriteFile(sidecarPath, human, 0o640))

	_, err = Run(context.Background(), testGraph(), cfg, nil)
	require.NoError(t, err)

	after, err := os.ReadFile(sidecarPath)
	require.NoError(t, err)
	require.Equal(t, human, after, "regeneration must not touch the edited sidecar")

	page, err := os.ReadFile(filepath.Join(cfg.Output.Directory, VersionsFolder, "1.0.0", "Foo", "Types", "Bar", "_index.md"))
	require.NoError(t, err)
	require.Contains(t, string(page), "Hand-written summary.")
	require.Contains(t, string(page), "Hand-written intro.")
}

func TestRunSkeletonsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sidecar.EmitSkeletons = false

	result, err := Run(context.Background(), testGraph(), cfg, nil)
	require.NoError(t, err)
	require.Zero(t, result.Report.SkeletonsWritten)

	_, statErr := os.Stat(cfg.Sidecar.Directory)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunCanceledContext(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testGraph(), cfg, nil)
	require.Error(t, err)
}
