package kvstore

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	// fileExt marks value files named by the hex-encoded key.
	fileExt = ".kv"
	// hashedExt marks value files named by the key's SHA-256. Their first
	// line holds the hex-encoded key.
	hashedExt = ".kvh"
	// maxHexName keeps file names under the common 255-byte limit.
	maxHexName = 200
)

// Verify FileStore satisfies ClosableStore at compile time.
var _ ClosableStore = (*FileStore)(nil)

// FileStore persists each key as a file under a base directory.
// File names are the hex-encoded key, so any key maps to a safe name. Keys
// too long for that are stored under their SHA-256 with the key inside.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
}

// NewFileStore creates a FileStore that saves values under baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

// Get reads the value for key.
// Returns (value, true, nil) if found, ("", false, nil) if not found.
func (s *FileStore) Get(key string) (string, bool, error) {
	p, hashed, err := s.path(key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kvstore: reading %s: %w", p, err)
	}
	if !hashed {
		return string(data), true, nil
	}
	stored, value, ok := splitHashed(data)
	if !ok || stored != key {
		return "", false, nil
	}
	return value, true, nil
}

// Set writes value for key. The write goes to a temp file that is renamed
// into place so readers never observe a partial value.
func (s *FileStore) Set(key, value string) error {
	p, hashed, err := s.path(key)
	if err != nil {
		return err
	}
	if hashed {
		value = hex.EncodeToString([]byte(key)) + "\n" + value
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("kvstore: creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.baseDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("kvstore: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("kvstore: writing %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("kvstore: writing %s: %w", p, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("kvstore: writing %s: %w", p, err)
	}
	return nil
}

// Remove deletes the file for key.
func (s *FileStore) Remove(key string) error {
	p, _, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("kvstore: removing %s: %w", p, err)
	}
	return nil
}

// KeysWithPrefix lists the directory and returns the sorted keys starting with prefix.
// A missing directory has no keys.
func (s *FileStore) KeysWithPrefix(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("kvstore: listing %s: %w", s.baseDir, err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, ok := s.keyOf(e.Name())
		if ok && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// path returns the filesystem path for a key and whether it is a hashed name.
func (s *FileStore) path(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	name := hex.EncodeToString([]byte(key))
	if len(name) <= maxHexName {
		return filepath.Join(s.baseDir, name+fileExt), false, nil
	}
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.baseDir, hex.EncodeToString(sum[:])+hashedExt), true, nil
}

// keyOf recovers the key stored in the named file. Files the store did not
// write are reported as not ok.
func (s *FileStore) keyOf(name string) (string, bool) {
	switch {
	case strings.HasSuffix(name, fileExt):
		raw, err := hex.DecodeString(strings.TrimSuffix(name, fileExt))
		if err != nil {
			return "", false
		}
		return string(raw), true
	case strings.HasSuffix(name, hashedExt):
		data, err := os.ReadFile(filepath.Join(s.baseDir, name))
		if err != nil {
			return "", false
		}
		key, _, ok := splitHashed(data)
		return key, ok
	default:
		return "", false
	}
}

func splitHashed(data []byte) (key, value string, ok bool) {
	header, rest, found := bytes.Cut(data, []byte("\n"))
	if !found {
		return "", "", false
	}
	raw, err := hex.DecodeString(string(header))
	if err != nil {
		return "", "", false
	}
	return string(raw), string(rest), true
}
