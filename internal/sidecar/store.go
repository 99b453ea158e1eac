package sidecar

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/refdocs/internal/errors"
	"git.home.luguber.info/inful/refdocs/internal/metadata"
)

// Store is the UID-indexed sidecar collection for one version. Entries live
// under <root>/<version>/ with relative paths mirroring the generated tree.
type Store struct {
	root    string
	version string

	mu      sync.RWMutex
	indexed bool
	byUID   map[metadata.UID]*Entry
	paths   map[metadata.UID]string // relative path of the entry file
}

// NewStore creates a store rooted at root for the given version tag.
func NewStore(root, version string) *Store {
	return &Store{
		root:    root,
		version: version,
		byUID:   make(map[metadata.UID]*Entry),
		paths:   make(map[metadata.UID]string),
	}
}

// VersionDir returns the directory holding this version's sidecar tree.
func (s *Store) VersionDir() string {
	return filepath.Join(s.root, s.version)
}

func (s *Store) entryPath(relPath string) string {
	return filepath.Join(s.VersionDir(), filepath.FromSlash(relPath))
}

// Get returns the entry for a UID, or nil and false when no sidecar exists.
// The sidecar tree is indexed lazily on first access.
func (s *Store) Get(uid metadata.UID) (*Entry, bool) {
	if err := s.ensureIndex(); err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byUID[uid]
	return e, ok
}

// Description returns the one-line description for a UID, or "" when the
// entry is missing or empty.
func (s *Store) Description(uid metadata.UID) string {
	if e, ok := s.Get(uid); ok {
		return e.Description
	}
	return ""
}

// EnsureSkeleton writes an empty skeleton entry for uid at relPath unless a
// sidecar file already exists there. It reports whether a new skeleton was
// created.
//
// This is the zero-trust write: O_EXCL guarantees an existing file is never
// truncated or overwritten, whatever its content.
func (s *Store) EnsureSkeleton(uid metadata.UID, relPath string) (bool, error) {
	path := s.entryPath(relPath)

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, errors.WrapFileSystemError(err, "create sidecar directory").
			WithContext("path", filepath.Dir(path))
	}

	skeleton := &Entry{
		UID:   uid,
		Intro: "<!-- Add documentation for " + string(uid) + " here. -->",
	}
	content, err := Serialize(skeleton, s.version)
	if err != nil {
		return false, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640) // #nosec G304
	if err != nil {
		if os.IsExist(err) {
			s.rememberPath(uid, relPath)
			return false, nil
		}
		return false, errors.WrapFileSystemError(err, "create sidecar skeleton").
			WithContext("path", path)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(content); err != nil {
		return false, errors.WrapFileSystemError(err, "write sidecar skeleton").
			WithContext("path", path)
	}

	s.remember(uid, relPath, skeleton)
	return true, nil
}

// Load reads and parses the entry at a relative path, bypassing the index.
func (s *Store) Load(relPath string) (*Entry, error) {
	data, err := os.ReadFile(s.entryPath(relPath)) // #nosec G304
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Walk visits every sidecar file of this version with its relative path and
// raw content. Used by lint.
func (s *Store) Walk(fn func(relPath string, content []byte) error) error {
	dir := s.VersionDir()
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		data, err := os.ReadFile(path) // #nosec G304
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), data)
	})
}

// ensureIndex walks the version's sidecar tree once and indexes entries by
// the uid in their frontmatter. Unparseable files are skipped; lint reports
// them.
func (s *Store) ensureIndex() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexed {
		return nil
	}
	s.indexed = true

	dir := s.VersionDir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		data, readErr := os.ReadFile(path) // #nosec G304
		if readErr != nil {
			return nil
		}
		entry, parseErr := Parse(data)
		if parseErr != nil || entry.UID.IsZero() {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		s.byUID[entry.UID] = entry
		s.paths[entry.UID] = filepath.ToSlash(rel)
		return nil
	})
}

func (s *Store) remember(uid metadata.UID, relPath string, e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUID[uid] = e
	s.paths[uid] = relPath
}

func (s *Store) rememberPath(uid metadata.UID, relPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[uid]; !ok {
		s.paths[uid] = relPath
	}
}
