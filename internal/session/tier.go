// ABOUTME: Storage tier abstraction for session persistence
// ABOUTME: MemoryTier (ephemeral) and FileTier (persistent) implement one small interface

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Tier is a minimal key-value store. The session Store composes two of
// these with different durability: one that dies with the process and one
// that survives restarts.
type Tier interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)
	// Set stores a value under key, replacing any existing value.
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string)
}

// MemoryTier is an in-process Tier. Its contents are lost when the process
// exits, which is exactly the lifetime an ephemeral session wants.
type MemoryTier struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryTier creates an empty MemoryTier.
func NewMemoryTier() *MemoryTier {
	return &MemoryTier{values: make(map[string]string)}
}

// Get returns the value for key.
func (t *MemoryTier) Get(key string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[key]
	return v, ok
}

// Set stores a value under key.
func (t *MemoryTier) Set(key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[key] = value
	return nil
}

// Remove deletes key.
func (t *MemoryTier) Remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.values, key)
}

// FileTier is a Tier backed by a single JSON file, rewritten atomically on
// every mutation via a temp-file rename. A missing file reads as empty.
type FileTier struct {
	mu   sync.Mutex
	path string
}

// NewFileTier creates a FileTier at the given path. Parent directories are
// created if needed.
func NewFileTier(path string) (*FileTier, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	return &FileTier{path: path}, nil
}

// Get returns the value for key.
func (t *FileTier) Get(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	values := t.load()
	v, ok := values[key]
	return v, ok
}

// Set stores a value under key and rewrites the backing file.
func (t *FileTier) Set(key, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	values := t.load()
	values[key] = value
	return t.flush(values)
}

// Remove deletes key and rewrites the backing file. Errors on rewrite are
// swallowed: a Remove that fails to persist leaves at worst a stale entry,
// which restore already treats as untrusted.
func (t *FileTier) Remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	values := t.load()
	if _, ok := values[key]; !ok {
		return
	}
	delete(values, key)
	_ = t.flush(values)
}

// load reads the backing file. A missing or unreadable file yields an empty map.
func (t *FileTier) load() map[string]string {
	values := make(map[string]string)
	data, err := os.ReadFile(t.path)
	if err != nil {
		return values
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return make(map[string]string)
	}
	return values
}

// flush writes the map to the backing file atomically.
func (t *FileTier) flush(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding session file: %w", err)
	}

	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}
