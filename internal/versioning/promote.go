package versioning

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/refdocs/internal/errors"
	"git.home.luguber.info/inful/refdocs/internal/frontmatter"
	"git.home.luguber.info/inful/refdocs/internal/metrics"
	"git.home.luguber.info/inful/refdocs/internal/report"
	"git.home.luguber.info/inful/refdocs/internal/storage"
)

// IndexFile is the per-folder index page name. Kept in sync with the
// structure planner.
const IndexFile = "_index.md"

// Manager performs the one-directional promotion step: after a new version
// has been generated, the previously current tree is archived and each of
// its pages is replaced by a shell that points at the snapshot and at the
// current page.
//
// Promotion only ever touches generated trees. Sidecar files belong to the
// authors and are out of bounds.
type Manager struct {
	OutputRoot string
	Archive    storage.ArchiveStore
	Recorder   metrics.Recorder
	Now        func() time.Time
}

// NewManager creates a promotion manager over an output root.
func NewManager(outputRoot string, archive storage.ArchiveStore, rec metrics.Recorder) *Manager {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Manager{OutputRoot: outputRoot, Archive: archive, Recorder: rec, Now: time.Now}
}

// Promote makes newTag the current version and converts every other
// registered version's qualified tree into shell pages. Trees already
// consisting of shells are left alone, so Promote is idempotent.
func (m *Manager) Promote(ctx context.Context, newTag string, rep *report.Report) error {
	state, err := LoadState(m.OutputRoot)
	if err != nil {
		return err
	}

	// Promotion is one-directional. A tag that is already registered and
	// not current has been superseded; making it current again would shell
	// the real current tree.
	if v := state.Find(newTag); v != nil && !v.Current {
		return errors.New(errors.CategoryConfig, errors.SeverityFatal,
			fmt.Sprintf("version %s is historical and cannot be promoted back to current", newTag))
	}

	prev := state.Current()
	state.SetCurrent(newTag, m.Now())
	if err := state.Save(m.OutputRoot); err != nil {
		return err
	}
	if prev != nil && prev.Tag != newTag {
		if err := m.convertTree(ctx, prev.Tag, rep); err != nil {
			return err
		}
	}

	// Older historical trees normally already hold shells; converting again
	// covers trees produced before retention was enabled.
	for _, tag := range state.Historical() {
		if prev != nil && tag == prev.Tag {
			continue
		}
		if err := m.convertTree(ctx, tag, rep); err != nil {
			return err
		}
	}
	return nil
}

// convertTree archives every full page under versions/<tag>/ and rewrites it
// as a shell. Folders missing an index page get a synthesized stub shell so
// the historical tree stays navigable.
func (m *Manager) convertTree(ctx context.Context, tag string, rep *report.Report) error {
	root := filepath.Join(m.OutputRoot, "versions", tag)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		rep.Warnf("", root, "no generated tree for version %s, nothing to archive", tag)
		return nil
	}

	var hashes []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WrapFileSystemError(err, "walk version tree").WithContext("path", p)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		content, readErr := os.ReadFile(p) // #nosec G304
		if readErr != nil {
			return errors.WrapFileSystemError(readErr, "read page").WithContext("path", p)
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		relSlash := filepath.ToSlash(rel)

		shell, wasShell, convErr := m.toShell(ctx, tag, relSlash, content, &hashes)
		if convErr != nil {
			return convErr
		}
		if wasShell {
			return nil
		}
		if writeErr := os.WriteFile(p, shell, 0o640); writeErr != nil {
			return errors.WrapFileSystemError(writeErr, "write shell page").WithContext("path", p)
		}
		rep.ShellsConverted++
		m.Recorder.IncShellsConverted()
		return nil
	})
	if err != nil {
		return err
	}

	if err := m.synthesizeMissingIndexes(root, tag, rep); err != nil {
		return err
	}

	if len(hashes) > 0 {
		if err := m.Archive.AddVersionRef(tag, hashes); err != nil {
			return err
		}
	}
	return nil
}

// toShell archives one page and builds its shell replacement. A page whose
// frontmatter already carries shell: true is returned unchanged.
func (m *Manager) toShell(ctx context.Context, tag, relPath string, content []byte, hashes *[]string) ([]byte, bool, error) {
	fm, _, had, style, err := frontmatter.Split(content)
	fields := map[string]any{}
	if err == nil && had {
		if parsed, perr := frontmatter.ParseYAML(fm); perr == nil {
			fields = parsed
		}
	}
	if isShell, _ := fields["shell"].(bool); isShell {
		return content, true, nil
	}

	hash, err := m.Archive.Put(ctx, content)
	if err != nil {
		return nil, false, err
	}
	*hashes = append(*hashes, hash)

	title, _ := fields["title"].(string)
	if title == "" {
		title = strings.TrimSuffix(path.Base(relPath), ".md")
	}
	uid, _ := fields["uid"].(string)

	shellFields := map[string]any{
		"title":    title,
		"shell":    true,
		"version":  tag,
		"archive":  hash,
		"redirect": redirectTarget(relPath),
	}
	if uid != "" {
		shellFields["uid"] = uid
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	fmBytes, err := frontmatter.SerializeYAML(shellFields, style)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.CategoryInternal, errors.SeverityError, "serialize shell frontmatter")
	}

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString(nl + nl)
	fmt.Fprintf(&b, "This page documents version %s, which is no longer current.%s%s", tag, nl, nl)
	fmt.Fprintf(&b, "- [Current version](%s)%s", redirectTarget(relPath), nl)
	fmt.Fprintf(&b, "- Archived snapshot: `%s`%s", hash, nl)

	return frontmatter.Join(fmBytes, []byte(b.String()), true, style), false, nil
}

// redirectTarget points from a page under versions/<tag>/ at the same path
// in the current (unqualified) tree.
func redirectTarget(relPath string) string {
	up := strings.Repeat("../", strings.Count(relPath, "/")+2)
	return up + "latest/" + relPath
}

// synthesizeMissingIndexes writes a stub index shell into every directory of
// a historical tree that lacks one, and warns about it.
func (m *Manager) synthesizeMissingIndexes(root, tag string, rep *report.Report) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		indexPath := filepath.Join(p, IndexFile)
		if _, statErr := os.Stat(indexPath); statErr == nil {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		relSlash := filepath.ToSlash(rel)
		title := filepath.Base(p)
		if rel == "." {
			relSlash = ""
			title = tag
		}

		indexRel := path.Join(relSlash, IndexFile)
		fields := map[string]any{
			"title":    title,
			"shell":    true,
			"stub":     true,
			"version":  tag,
			"redirect": redirectTarget(indexRel),
		}
		fmBytes, serErr := frontmatter.SerializeYAML(fields, frontmatter.Style{Newline: "\n"})
		if serErr != nil {
			return errors.Wrap(serErr, errors.CategoryInternal, errors.SeverityError, "serialize stub frontmatter")
		}
		body := fmt.Sprintf("# %s\n\nThis folder had no index page when version %s was archived.\n\n- [Current version](%s)\n",
			title, tag, redirectTarget(indexRel))
		content := frontmatter.Join(fmBytes, []byte(body), true, frontmatter.Style{Newline: "\n"})

		if writeErr := os.WriteFile(indexPath, content, 0o640); writeErr != nil {
			return errors.WrapFileSystemError(writeErr, "write stub index").WithContext("path", indexPath)
		}
		rep.Warnf("", path.Join("versions", tag, indexRel), "folder had no index page, stub synthesized")
		return nil
	})
}
