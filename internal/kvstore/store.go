// Package kvstore implements the string key-value stores that back the
// profile cache and search history: in-memory, per-key files, SQLite and Redis.
package kvstore

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Store is a synchronous string key-value store.
// Each operation is atomic for a single key; there are no cross-key transactions.
type Store interface {
	// Get returns (value, true, nil) if key exists, ("", false, nil) if not.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any existing value.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// KeysWithPrefix returns all keys starting with prefix in sorted order.
	KeysWithPrefix(prefix string) ([]string, error)
}

// ClosableStore is a Store holding resources that must be released.
type ClosableStore interface {
	Store
	io.Closer
}

// ErrInvalidKey indicates an empty key.
var ErrInvalidKey = errors.New("kvstore: invalid key")

func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Verify MemoryStore satisfies ClosableStore at compile time.
var _ ClosableStore = (*MemoryStore)(nil)

// MemoryStore keeps values in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Remove deletes key.
func (m *MemoryStore) Remove(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// KeysWithPrefix returns the sorted keys starting with prefix.
func (m *MemoryStore) KeysWithPrefix(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0)
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
