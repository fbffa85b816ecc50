// Package storage provides the key/value persistence layer backing the
// connector's durable state. Implementations must be safe for concurrent use.
package storage

import "sync"

// Store is a minimal key/value persistence abstraction. Get reports presence
// separately from failure so callers can distinguish "absent" from "broken".
type Store interface {
	// Get returns the value for key, whether it exists, and any storage error.
	Get(key string) ([]byte, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string) error

	// Reset removes all keys.
	Reset() error

	// Close releases any underlying resources.
	Close() error
}

// MemoryStore is a map-backed Store for tests and ephemeral clients.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns the value for key.
func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Reset removes all keys.
func (m *MemoryStore) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string][]byte)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
