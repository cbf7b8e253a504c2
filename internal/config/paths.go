package config

import (
	"os"
	"path/filepath"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/kvstore"
)

// ProjectPath is the project-local config layer, relative to the working directory.
const ProjectPath = ".soinfo/config.yaml"

// UserPath returns the per-user config layer.
func UserPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "soinfo", "config.yaml")
}

// StorePath returns the configured store location, or the per-user default
// for the selected backend when none is set.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	dir := filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), "soinfo")
	if c.Store.Backend == kvstore.BackendFile {
		return filepath.Join(dir, "kv")
	}
	return filepath.Join(dir, "soinfo.db")
}

// LogPath returns the configured log file, or the per-user default.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state")), "soinfo", "soinfo.log")
}

// StoreOptions converts the store section into kvstore options.
func (c *Config) StoreOptions() kvstore.Options {
	return kvstore.Options{
		Backend:     c.Store.Backend,
		Path:        c.StorePath(),
		RedisURL:    c.Store.RedisURL,
		RedisPrefix: c.Store.RedisPrefix,
	}
}

// xdgDir returns $envVar when set, otherwise $HOME/fallback.
func xdgDir(envVar, fallback string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return dir
	}
	return os.ExpandEnv(filepath.Join("$HOME", fallback))
}
