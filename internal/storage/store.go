// Package storage provides the content-addressable archive store that
// retention uses to keep full page snapshots for historical versions.
package storage

import (
	"context"
	"fmt"
)

// ArchiveStore stores immutable page snapshots addressed by content hash.
// Shell pages reference snapshots by the hash returned from Put.
type ArchiveStore interface {
	// Put stores a snapshot and returns its sha256 content hash. Storing the
	// same bytes twice is a no-op returning the same hash.
	Put(ctx context.Context, data []byte) (string, error)

	// Get retrieves a snapshot by content hash.
	// Returns ErrNotFound if no such snapshot exists.
	Get(ctx context.Context, hash string) ([]byte, error)

	// Exists reports whether a snapshot with the given hash exists.
	Exists(ctx context.Context, hash string) (bool, error)

	// AddVersionRef merges snapshot hashes into the version tag's ref,
	// preserving first-seen order. Hashes already in the ref stay there.
	AddVersionRef(tag string, hashes []string) error

	// GetVersionRef retrieves the snapshot hashes archived for a version
	// tag, or nil when the tag has no archive.
	GetVersionRef(tag string) ([]string, error)

	// GC removes snapshots not referenced by any version ref and returns
	// the number removed.
	GC(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// ErrNotFound is returned when a snapshot doesn't exist.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("snapshot not found: %s", e.Hash)
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}
