package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	storeFileName = "state.json"
	filePerms     = 0600 // Owner read/write only
)

// fileData is the on-disk layout of the file store. Values are base64 to keep
// the file valid JSON regardless of what bytes callers persist.
type fileData struct {
	Version int               `json:"version"`
	Entries map[string]string `json:"entries"`
}

// FileStore is a Store backed by a single JSON file. Writes go through a temp
// file and rename so a crash mid-write never leaves a torn file behind.
type FileStore struct {
	mu       sync.RWMutex
	filePath string
	data     *fileData
}

// NewFileStore creates a file store rooted at dataDir, loading any existing
// state file.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &FileStore{
		filePath: filepath.Join(dataDir, storeFileName),
		data: &fileData{
			Version: 1,
			Entries: make(map[string]string),
		},
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load state file: %w", err)
	}

	return store, nil
}

// load reads the state file from disk.
func (f *FileStore) load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.filePath)
	if err != nil {
		return err
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	// Invariant: Entries map is never nil, even if the file was manually
	// edited to remove the entries field.
	if data.Entries == nil {
		data.Entries = make(map[string]string)
	}

	f.data = &data
	return nil
}

// save writes the state file to disk with secure permissions. Callers must
// hold the write lock.
func (f *FileStore) save() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Write to temp file first, then rename (atomic)
	tmpPath := f.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, raw, filePerms); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmpPath, f.filePath); err != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup of temp file
		return fmt.Errorf("failed to save state file: %w", err)
	}

	return nil
}

// Get returns the value for key.
func (f *FileStore) Get(key string) ([]byte, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	encoded, ok := f.data.Entries[key]
	if !ok {
		return nil, false, nil
	}

	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("corrupt entry for key %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key and persists to disk.
func (f *FileStore) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data.Entries[key] = base64.StdEncoding.EncodeToString(value)
	return f.save()
}

// Delete removes key and persists to disk.
func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.data.Entries[key]; !ok {
		return nil
	}
	delete(f.data.Entries, key)
	return f.save()
}

// Reset removes all keys and persists to disk.
func (f *FileStore) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data.Entries = make(map[string]string)
	return f.save()
}

// Close is a no-op for the file store; every write is already flushed.
func (f *FileStore) Close() error {
	return nil
}
