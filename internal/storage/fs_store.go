package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/refdocs/internal/errors"
)

// FSStore is a filesystem-based implementation of ArchiveStore.
// It stores snapshots in a content-addressable layout:
//
//	.refdocs/
//	  objects/
//	    ab/
//	      cd1234... (first 2 chars = subdir, rest = filename)
//	  refs/
//	    versions/
//	      1.0.0 (file listing the snapshot hashes of that version)
type FSStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFSStore creates a new filesystem-based archive store.
func NewFSStore(basePath string) (*FSStore, error) {
	dirs := []string{
		filepath.Join(basePath, "objects"),
		filepath.Join(basePath, "refs", "versions"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.WrapStorageError(err, "create archive directory").
				WithContext("path", dir)
		}
	}
	return &FSStore{basePath: basePath}, nil
}

// Put stores a snapshot and returns its content hash. An already-stored
// snapshot is left untouched, which keeps archived bytes immutable.
func (fs *FSStore) Put(ctx context.Context, data []byte) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	objectPath := fs.objectPath(hash)
	if _, err := os.Stat(objectPath); err == nil {
		return hash, nil
	}

	if err := os.MkdirAll(filepath.Dir(objectPath), 0o750); err != nil {
		return "", errors.WrapStorageError(err, "create object directory")
	}
	if err := os.WriteFile(objectPath, data, 0o640); err != nil {
		return "", errors.WrapStorageError(err, "write snapshot").
			WithContext("hash", hash)
	}
	return hash, nil
}

// Get retrieves a snapshot by content hash and verifies its integrity: the
// stored bytes must re-hash to the requested address.
func (fs *FSStore) Get(ctx context.Context, hash string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	// #nosec G304 - path is built from a hex hash, not user input
	data, err := os.ReadFile(fs.objectPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Hash: hash}
		}
		return nil, errors.WrapStorageError(err, "read snapshot").
			WithContext("hash", hash)
	}

	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != hash {
		return nil, errors.WrapStorageError(
			fmt.Errorf("snapshot %s corrupted, content hashes to %s", hash, got),
			"verify snapshot")
	}
	return data, nil
}

// Exists checks if a snapshot with the given hash exists.
func (fs *FSStore) Exists(ctx context.Context, hash string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if _, err := os.Stat(fs.objectPath(hash)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.WrapStorageError(err, "stat snapshot")
	}
	return true, nil
}

// AddVersionRef merges snapshot hashes into a version tag's ref, preserving
// first-seen order. Hashes recorded by an earlier, possibly interrupted,
// promotion of the same tag stay referenced and survive GC.
func (fs *FSStore) AddVersionRef(tag string, hashes []string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	existing, err := fs.getVersionRefUnlocked(tag)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing)+len(hashes))
	merged := existing
	for _, h := range existing {
		seen[h] = true
	}
	for _, h := range hashes {
		if !seen[h] {
			seen[h] = true
			merged = append(merged, h)
		}
	}

	refPath := filepath.Join(fs.basePath, "refs", "versions", tag)
	var buf bytes.Buffer
	for _, h := range merged {
		buf.WriteString(h)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(refPath, buf.Bytes(), 0o640); err != nil {
		return errors.WrapStorageError(err, "write version ref").
			WithContext("tag", tag)
	}
	return nil
}

// GetVersionRef retrieves the snapshot hashes archived for a version tag.
func (fs *FSStore) GetVersionRef(tag string) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	refPath := filepath.Join(fs.basePath, "refs", "versions", tag)
	// #nosec G304 - tag is a validated version string
	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapStorageError(err, "read version ref").
			WithContext("tag", tag)
	}

	var hashes []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			hashes = append(hashes, line)
		}
	}
	return hashes, nil
}

// GC removes snapshots no version ref points at.
func (fs *FSStore) GC(ctx context.Context) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	referenced := make(map[string]bool)
	refsDir := filepath.Join(fs.basePath, "refs", "versions")
	entries, err := os.ReadDir(refsDir)
	if err != nil {
		return 0, errors.WrapStorageError(err, "list version refs")
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		hashes, err := fs.getVersionRefUnlocked(e.Name())
		if err != nil {
			return 0, err
		}
		for _, h := range hashes {
			referenced[h] = true
		}
	}

	removed := 0
	objectsDir := filepath.Join(fs.basePath, "objects")
	err = filepath.Walk(objectsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(objectsDir, path)
		if relErr != nil {
			return nil
		}
		hash := strings.ReplaceAll(rel, string(filepath.Separator), "")
		if referenced[hash] {
			return nil
		}
		if rmErr := os.Remove(path); rmErr != nil {
			return rmErr
		}
		os.Remove(filepath.Dir(path)) // Best effort
		removed++
		return nil
	})
	if err != nil {
		return removed, errors.WrapStorageError(err, "sweep snapshots")
	}
	return removed, nil
}

// Close releases resources.
func (fs *FSStore) Close() error { return nil }

func (fs *FSStore) getVersionRefUnlocked(tag string) ([]string, error) {
	refPath := filepath.Join(fs.basePath, "refs", "versions", tag)
	// #nosec G304 - tag comes from our own refs directory listing
	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapStorageError(err, "read version ref")
	}
	var hashes []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			hashes = append(hashes, line)
		}
	}
	return hashes, nil
}

// objectPath returns the filesystem path for a snapshot.
func (fs *FSStore) objectPath(hash string) string {
	if len(hash) < 2 {
		return filepath.Join(fs.basePath, "objects", hash)
	}
	return filepath.Join(fs.basePath, "objects", hash[:2], hash[2:])
}
