package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// MemStore is an in-memory implementation of ArchiveStore for testing.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	refs    map[string][]string
}

// NewMemStore creates an empty in-memory archive store.
func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[string][]byte),
		refs:    make(map[string][]string),
	}
}

func (m *MemStore) Put(ctx context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[hash]; !ok {
		cp := make([]byte, len(data))
		copy(cp, data)
		m.objects[hash] = cp
	}
	return hash, nil
}

func (m *MemStore) Get(ctx context.Context, hash string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemStore) Exists(ctx context.Context, hash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[hash]
	return ok, nil
}

func (m *MemStore) AddVersionRef(tag string, hashes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.refs[tag]
	seen := make(map[string]bool, len(existing)+len(hashes))
	merged := make([]string, 0, len(existing)+len(hashes))
	for _, h := range existing {
		seen[h] = true
		merged = append(merged, h)
	}
	for _, h := range hashes {
		if !seen[h] {
			seen[h] = true
			merged = append(merged, h)
		}
	}
	m.refs[tag] = merged
	return nil
}

func (m *MemStore) GetVersionRef(tag string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hashes, ok := m.refs[tag]
	if !ok {
		return nil, nil
	}
	cp := make([]string, len(hashes))
	copy(cp, hashes)
	return cp, nil
}

func (m *MemStore) GC(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	referenced := make(map[string]bool)
	for _, hashes := range m.refs {
		for _, h := range hashes {
			referenced[h] = true
		}
	}
	removed := 0
	for hash := range m.objects {
		if !referenced[hash] {
			delete(m.objects, hash)
			removed++
		}
	}
	return removed, nil
}

func (m *MemStore) Close() error { return nil }

// Len returns the number of stored snapshots.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
