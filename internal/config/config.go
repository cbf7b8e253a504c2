// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/kvstore"
)

// Config holds all soinfo configuration.
type Config struct {
	Provider Provider `yaml:"provider"`
	Cache    Cache    `yaml:"cache"`
	History  History  `yaml:"history"`
	Store    Store    `yaml:"store"`
	Log      Log      `yaml:"log"`
}

// Provider selects and parameterizes the profile source.
type Provider struct {
	Name     string        `yaml:"name" env:"SOINFO_PROVIDER"`        // "http" | "fixture"
	BaseURL  string        `yaml:"base_url" env:"SOINFO_API_BASE_URL"` // profile service root
	Timeout  time.Duration `yaml:"timeout" env:"SOINFO_TIMEOUT"`
	Fixtures string        `yaml:"fixtures" env:"SOINFO_FIXTURES"` // directory overriding the embedded profiles.yaml
}

// Cache holds the profile cache thresholds.
type Cache struct {
	Expiration     time.Duration `yaml:"expiration" env:"SOINFO_CACHE_EXPIRATION"`
	StaleThreshold time.Duration `yaml:"stale_threshold" env:"SOINFO_CACHE_STALE_THRESHOLD"`
}

// History holds search history settings.
type History struct {
	Capacity int `yaml:"capacity" env:"SOINFO_HISTORY_CAPACITY"`
}

// Store selects the key-value backend shared by cache and history.
type Store struct {
	Backend     string `yaml:"backend" env:"SOINFO_STORE"`
	Path        string `yaml:"path" env:"SOINFO_STORE_PATH"` // empty means the per-user default
	RedisURL    string `yaml:"redis_url" env:"SOINFO_REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" env:"SOINFO_REDIS_PREFIX"`
}

// Log holds logging settings.
type Log struct {
	Level  string `yaml:"level" env:"SOINFO_LOG_LEVEL"`   // debug | info | warn | error
	Format string `yaml:"format" env:"SOINFO_LOG_FORMAT"` // text | json
	File   string `yaml:"file" env:"SOINFO_LOG_FILE"`     // empty means the per-user default
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: Provider{
			Name:     "http",
			BaseURL:  "http://localhost:3000/api",
			Timeout:  10 * time.Second,
			Fixtures: ".soinfo/fixtures",
		},
		Cache: Cache{
			Expiration:     30 * time.Minute,
			StaleThreshold: 10 * time.Minute,
		},
		History: History{
			Capacity: 10,
		},
		Store: Store{
			Backend:     kvstore.BackendSQLite,
			RedisPrefix: "soinfo:",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	return LoadLayered(path)
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Provider.Name == "" {
		return errors.New("config: provider.name cannot be empty")
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("config: provider.timeout must be positive, got %v", c.Provider.Timeout)
	}
	if c.Cache.Expiration <= 0 {
		return fmt.Errorf("config: cache.expiration must be positive, got %v", c.Cache.Expiration)
	}
	if c.Cache.StaleThreshold <= 0 || c.Cache.StaleThreshold >= c.Cache.Expiration {
		return fmt.Errorf("config: cache.stale_threshold must be positive and below cache.expiration (%v), got %v",
			c.Cache.Expiration, c.Cache.StaleThreshold)
	}
	if c.History.Capacity <= 0 {
		return fmt.Errorf("config: history.capacity must be positive, got %d", c.History.Capacity)
	}
	if !slices.Contains(kvstore.Backends(), c.Store.Backend) {
		return fmt.Errorf("config: store.backend must be one of %s, got %q",
			strings.Join(kvstore.Backends(), ", "), c.Store.Backend)
	}
	if c.Store.Backend == kvstore.BackendRedis && c.Store.RedisURL == "" {
		return errors.New("config: store.redis_url is required for the redis backend")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
		// valid
	default:
		return fmt.Errorf("config: log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}
	return nil
}

// SlogLevel parses Level.
func (l Log) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: log.level must be debug, info, warn or error, got %q", l.Level)
	}
}

// ApplyEnv applies SOINFO_* environment variable overrides to the config.
// Unset variables leave the loaded values in place.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Provider *rawProvider `yaml:"provider"`
	Cache    *rawCache    `yaml:"cache"`
	History  *rawHistory  `yaml:"history"`
	Store    *rawStore    `yaml:"store"`
	Log      *rawLog      `yaml:"log"`
}

type rawProvider struct {
	Name     *string        `yaml:"name"`
	BaseURL  *string        `yaml:"base_url"`
	Timeout  *time.Duration `yaml:"timeout"`
	Fixtures *string        `yaml:"fixtures"`
}

type rawCache struct {
	Expiration     *time.Duration `yaml:"expiration"`
	StaleThreshold *time.Duration `yaml:"stale_threshold"`
}

type rawHistory struct {
	Capacity *int `yaml:"capacity"`
}

type rawStore struct {
	Backend     *string `yaml:"backend"`
	Path        *string `yaml:"path"`
	RedisURL    *string `yaml:"redis_url"`
	RedisPrefix *string `yaml:"redis_prefix"`
}

type rawLog struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
	File   *string `yaml:"file"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// set copies *src into *dst when src is non-nil.
func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if p := layer.Provider; p != nil {
		set(&c.Provider.Name, p.Name)
		set(&c.Provider.BaseURL, p.BaseURL)
		set(&c.Provider.Timeout, p.Timeout)
		set(&c.Provider.Fixtures, p.Fixtures)
	}
	if ca := layer.Cache; ca != nil {
		set(&c.Cache.Expiration, ca.Expiration)
		set(&c.Cache.StaleThreshold, ca.StaleThreshold)
	}
	if h := layer.History; h != nil {
		set(&c.History.Capacity, h.Capacity)
	}
	if s := layer.Store; s != nil {
		set(&c.Store.Backend, s.Backend)
		set(&c.Store.Path, s.Path)
		set(&c.Store.RedisURL, s.RedisURL)
		set(&c.Store.RedisPrefix, s.RedisPrefix)
	}
	if l := layer.Log; l != nil {
		set(&c.Log.Level, l.Level)
		set(&c.Log.Format, l.Format)
		set(&c.Log.File, l.File)
	}
}
