package versioning

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/refdocs/internal/frontmatter"
	"git.home.luguber.info/inful/refdocs/internal/report"
	"git.home.luguber.info/inful/refdocs/internal/storage"
)

func writePage(t *testing.T, root, relPath, title, uid, body string) []byte {
	t.Helper()
	fields := map[string]any{"title": title, "uid": uid, "version": "1.0.0"}
	fm, err := frontmatter.SerializeYAML(fields, frontmatter.Style{Newline: "\n"})
	require.NoError(t, err)
	content := frontmatter.Join(fm, []byte(body), true, frontmatter.Style{Newline: "\n"})

	full := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, content, 0o640))
	return content
}

func fixedNowManager(outputRoot string, archive storage.ArchiveStore) *Manager {
	m := NewManager(outputRoot, archive, nil)
	m.Now = func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestStateSetCurrentKeepsSingleCurrent(t *testing.T) {
	s := &State{}
	now := time.Now()
	s.SetCurrent("1.0.0", now)
	s.SetCurrent("1.1.0", now)

	require.Len(t, s.Versions, 2)
	require.Equal(t, "1.1.0", s.Current().Tag)
	require.Equal(t, []string{"1.0.0"}, s.Historical())

	count := 0
	for _, v := range s.Versions {
		if v.Current {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestStateSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := &State{}
	s.SetCurrent("1.0.0", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, s.Save(dir))

	loaded, err := LoadState(dir)
	require.NoError(t, err)
	require.Len(t, loaded.Versions, 1)
	require.Equal(t, "1.0.0", loaded.Current().Tag)
}

func TestLoadStateMissingFileIsEmpty(t *testing.T) {
	s, err := LoadState(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, s.Versions)
	require.Nil(t, s.Current())
}

func TestPromoteConvertsPreviousCurrentToShells(t *testing.T) {
	out := t.TempDir()
	v1Root := filepath.Join(out, "versions", "1.0.0")
	original := writePage(t, v1Root, "Foo/Types/Bar/_index.md", "Bar", "T:Foo.Bar", "# Bar\n\nFull content.\n")

	archive := storage.NewMemStore()
	mgr := fixedNowManager(out, archive)
	ctx := context.Background()

	// 1.0.0 becomes current; nothing to archive yet.
	require.NoError(t, mgr.Promote(ctx, "1.0.0", report.New()))

	// 1.1.0 supersedes it; 1.0.0 pages become shells.
	rep := report.New()
	require.NoError(t, mgr.Promote(ctx, "1.1.0", rep))
	require.Equal(t, 1, rep.ShellsConverted)

	shell, err := os.ReadFile(filepath.Join(v1Root, "Foo", "Types", "Bar", "_index.md"))
	require.NoError(t, err)

	fm, _, had, _, err := frontmatter.Split(shell)
	require.NoError(t, err)
	require.True(t, had)
	fields, err := frontmatter.ParseYAML(fm)
	require.NoError(t, err)

	require.Equal(t, true, fields["shell"])
	require.Equal(t, "1.0.0", fields["version"])
	require.Equal(t, "T:Foo.Bar", fields["uid"])

	// The archived snapshot is the original page, byte for byte.
	hash, _ := fields["archive"].(string)
	require.NotEmpty(t, hash)
	archived, err := archive.Get(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, original, archived)

	// The redirect climbs out of versions/1.0.0/ into the current tree.
	redirect, _ := fields["redirect"].(string)
	require.Equal(t, "../../../../../latest/Foo/Types/Bar/_index.md", redirect)

	// Registry holds exactly one current version.
	state, err := LoadState(out)
	require.NoError(t, err)
	require.Equal(t, "1.1.0", state.Current().Tag)
	require.Equal(t, []string{"1.0.0"}, state.Historical())
}

func TestPromoteIsIdempotent(t *testing.T) {
	out := t.TempDir()
	v1Root := filepath.Join(out, "versions", "1.0.0")
	writePage(t, v1Root, "Foo/_index.md", "Foo", "N:Foo", "# Foo\n")

	archive := storage.NewMemStore()
	mgr := fixedNowManager(out, archive)
	ctx := context.Background()

	require.NoError(t, mgr.Promote(ctx, "1.0.0", report.New()))
	require.NoError(t, mgr.Promote(ctx, "1.1.0", report.New()))

	first, err := os.ReadFile(filepath.Join(v1Root, "Foo", "_index.md"))
	require.NoError(t, err)

	rep := report.New()
	require.NoError(t, mgr.Promote(ctx, "1.1.0", rep))
	require.Zero(t, rep.ShellsConverted, "already-shell pages are not converted again")

	second, err := os.ReadFile(filepath.Join(v1Root, "Foo", "_index.md"))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestPromoteRejectsHistoricalTag(t *testing.T) {
	out := t.TempDir()
	v1Root := filepath.Join(out, "versions", "1.0.0")
	v2Root := filepath.Join(out, "versions", "1.1.0")
	writePage(t, v1Root, "Foo/_index.md", "Foo", "N:Foo", "# Foo\n")
	current := writePage(t, v2Root, "Foo/_index.md", "Foo", "N:Foo", "# Foo\n\nNewer content.\n")

	mgr := fixedNowManager(out, storage.NewMemStore())
	ctx := context.Background()
	require.NoError(t, mgr.Promote(ctx, "1.0.0", report.New()))
	require.NoError(t, mgr.Promote(ctx, "1.1.0", report.New()))

	// Promotion is one-directional: a superseded tag cannot come back.
	err := mgr.Promote(ctx, "1.0.0", report.New())
	require.Error(t, err)
	require.Contains(t, err.Error(), "historical")

	// The registry still points at 1.1.0 and its tree is still full pages.
	state, err := LoadState(out)
	require.NoError(t, err)
	require.Equal(t, "1.1.0", state.Current().Tag)

	after, err := os.ReadFile(filepath.Join(v2Root, "Foo", "_index.md"))
	require.NoError(t, err)
	require.Equal(t, current, after)
}

func TestPromoteNeverTouchesSidecars(t *testing.T) {
	out := t.TempDir()
	v1Root := filepath.Join(out, "versions", "1.0.0")
	writePage(t, v1Root, "Foo/_index.md", "Foo", "N:Foo", "# Foo\n")

	// Sidecars live outside the output root; put some inside a sibling dir
	// and assert the promotion walk cannot reach them.
	sidecarDir := filepath.Join(filepath.Dir(out), "sidecars-"+filepath.Base(out))
	require.NoError(t, os.MkdirAll(filepath.Join(sidecarDir, "1.0.0", "Foo"), 0o750))
	sidecarPath := filepath.Join(sidecarDir, "1.0.0", "Foo", "_index.md")
	human := []byte("---\nuid: N:Foo\n---\nHuman words.\n")
	require.NoError(t, os.WriteFile(sidecarPath, human, 0o640))

	mgr := fixedNowManager(out, storage.NewMemStore())
	ctx := context.Background()
	require.NoError(t, mgr.Promote(ctx, "1.0.0", report.New()))
	require.NoError(t, mgr.Promote(ctx, "1.1.0", report.New()))

	after, err := os.ReadFile(sidecarPath)
	require.NoError(t, err)
	require.Equal(t, human, after)
}

func TestPromoteSynthesizesMissingIndex(t *testing.T) {
	out := t.TempDir()
	v1Root := filepath.Join(out, "versions", "1.0.0")
	// A folder with a member page but no _index.md.
	writePage(t, v1Root, "Foo/Methods/Do.md", "Do", "M:Foo.Do", "# Do\n")

	mgr := fixedNowManager(out, storage.NewMemStore())
	ctx := context.Background()
	require.NoError(t, mgr.Promote(ctx, "1.0.0", report.New()))

	rep := report.New()
	require.NoError(t, mgr.Promote(ctx, "1.1.0", rep))

	stub, err := os.ReadFile(filepath.Join(v1Root, "Foo", "Methods", IndexFile))
	require.NoError(t, err)

	fm, _, _, _, err := frontmatter.Split(stub)
	require.NoError(t, err)
	fields, err := frontmatter.ParseYAML(fm)
	require.NoError(t, err)
	require.Equal(t, true, fields["shell"])
	require.Equal(t, true, fields["stub"])

	require.NotZero(t, rep.WarningCount())
}

func TestPromoteRecordsVersionRef(t *testing.T) {
	out := t.TempDir()
	v1Root := filepath.Join(out, "versions", "1.0.0")
	writePage(t, v1Root, "A/_index.md", "A", "N:A", "# A\n")
	writePage(t, v1Root, "B/_index.md", "B", "N:B", "# B\n")

	archive := storage.NewMemStore()
	mgr := fixedNowManager(out, archive)
	ctx := context.Background()
	require.NoError(t, mgr.Promote(ctx, "1.0.0", report.New()))
	require.NoError(t, mgr.Promote(ctx, "1.1.0", report.New()))

	hashes, err := archive.GetVersionRef("1.0.0")
	require.NoError(t, err)
	require.Len(t, hashes, 2)
}
