package kvstore

import (
	"fmt"
	"sort"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and parameterizes a store backend.
type Options struct {
	Backend     string // memory | file | sqlite | redis
	Path        string // directory for file, database path for sqlite
	RedisURL    string
	RedisPrefix string
}

// Backends returns the supported backend names in sorted order.
func Backends() []string {
	names := []string{BackendMemory, BackendFile, BackendSQLite, BackendRedis}
	sort.Strings(names)
	return names
}

// UnknownBackendError indicates a backend name Open does not support.
type UnknownBackendError struct {
	Name string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("kvstore: unknown backend %q (available: %s)", e.Name, strings.Join(Backends(), ", "))
}

// Open creates the store named by opts.Backend. The caller must Close it.
func Open(opts Options) (ClosableStore, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("kvstore: file backend requires a path")
		}
		return NewFileStore(opts.Path), nil
	case BackendSQLite:
		return OpenSQLite(opts.Path)
	case BackendRedis:
		if strings.TrimSpace(opts.RedisURL) == "" {
			return nil, fmt.Errorf("kvstore: redis backend requires a URL")
		}
		return OpenRedis(opts.RedisURL, opts.RedisPrefix)
	default:
		return nil, &UnknownBackendError{Name: opts.Backend}
	}
}
