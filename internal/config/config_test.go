package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider.Name != "http" {
		t.Errorf("default provider = %q, want %q", cfg.Provider.Name, "http")
	}
	if cfg.Cache.Expiration != 30*time.Minute {
		t.Errorf("default expiration = %v, want %v", cfg.Cache.Expiration, 30*time.Minute)
	}
	if cfg.Cache.StaleThreshold != 10*time.Minute {
		t.Errorf("default stale threshold = %v, want %v", cfg.Cache.StaleThreshold, 10*time.Minute)
	}
	if cfg.History.Capacity != 10 {
		t.Errorf("default capacity = %d, want 10", cfg.History.Capacity)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("default backend = %q, want %q", cfg.Store.Backend, "sqlite")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: fixture
  timeout: 3s
cache:
  expiration: 1h
  stale_threshold: 20m
history:
  capacity: 25
store:
  backend: file
  path: /tmp/soinfo-kv
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider.Name != "fixture" {
		t.Errorf("provider = %q, want %q", cfg.Provider.Name, "fixture")
	}
	if cfg.Provider.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want %v", cfg.Provider.Timeout, 3*time.Second)
	}
	if cfg.Cache.Expiration != time.Hour || cfg.Cache.StaleThreshold != 20*time.Minute {
		t.Errorf("cache = %+v, want 1h/20m", cfg.Cache)
	}
	if cfg.History.Capacity != 25 {
		t.Errorf("capacity = %d, want 25", cfg.History.Capacity)
	}
	if cfg.Store.Backend != "file" || cfg.Store.Path != "/tmp/soinfo-kv" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load() should return defaults for missing file, got error: %v", err)
	}
	want := DefaultConfig()
	if *cfg != want {
		t.Errorf("Load(missing) = %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "{{invalid yaml")

	if _, err := Load(path); err == nil {
		t.Fatal("Load(invalid YAML) should return error")
	}
}

func TestLoad_PartialConfig(t *testing.T) {
	path := writeConfig(t, `
cache:
  stale_threshold: 5m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.StaleThreshold != 5*time.Minute {
		t.Errorf("stale threshold = %v, want %v", cfg.Cache.StaleThreshold, 5*time.Minute)
	}
	// Unset fields should retain defaults.
	if cfg.Cache.Expiration != 30*time.Minute {
		t.Errorf("expiration = %v, want default %v", cfg.Cache.Expiration, 30*time.Minute)
	}
	if cfg.Provider.BaseURL != "http://localhost:3000/api" {
		t.Errorf("base url = %q, want default", cfg.Provider.BaseURL)
	}
}

func TestLoad_LayeredPriority(t *testing.T) {
	// Given: user config sets provider and timeout, project config overrides timeout.
	userCfg := writeConfig(t, `
provider:
  name: fixture
  timeout: 2s
`)
	projectCfg := writeConfig(t, `
provider:
  timeout: 8s
`)

	// When: layers are loaded in user, project order
	cfg, err := LoadLayered(userCfg, projectCfg)
	if err != nil {
		t.Fatalf("LoadLayered() error = %v", err)
	}

	// Then: user provider survives, project timeout wins
	if cfg.Provider.Name != "fixture" {
		t.Errorf("provider = %q, want %q (from user config)", cfg.Provider.Name, "fixture")
	}
	if cfg.Provider.Timeout != 8*time.Second {
		t.Errorf("timeout = %v, want %v (from project config)", cfg.Provider.Timeout, 8*time.Second)
	}
}

func TestLoadLayered_ZeroValueOverrides(t *testing.T) {
	// An explicit empty string in a later layer still overrides.
	userCfg := writeConfig(t, `
store:
  redis_prefix: custom
`)
	projectCfg := writeConfig(t, `
store:
  redis_prefix: ""
`)

	cfg, err := LoadLayered(userCfg, projectCfg)
	if err != nil {
		t.Fatalf("LoadLayered() error = %v", err)
	}
	if cfg.Store.RedisPrefix != "" {
		t.Errorf("redis prefix = %q, want empty", cfg.Store.RedisPrefix)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "provider and base url",
			env: map[string]string{
				"SOINFO_PROVIDER":     "fixture",
				"SOINFO_API_BASE_URL": "https://api.example.test",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Provider.Name != "fixture" {
					t.Errorf("provider = %q, want %q", cfg.Provider.Name, "fixture")
				}
				if cfg.Provider.BaseURL != "https://api.example.test" {
					t.Errorf("base url = %q", cfg.Provider.BaseURL)
				}
			},
		},
		{
			name: "durations",
			env: map[string]string{
				"SOINFO_TIMEOUT":          "2s",
				"SOINFO_CACHE_EXPIRATION": "45m",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Provider.Timeout != 2*time.Second {
					t.Errorf("timeout = %v, want 2s", cfg.Provider.Timeout)
				}
				if cfg.Cache.Expiration != 45*time.Minute {
					t.Errorf("expiration = %v, want 45m", cfg.Cache.Expiration)
				}
			},
		},
		{
			name: "store",
			env: map[string]string{
				"SOINFO_STORE":     "redis",
				"SOINFO_REDIS_URL": "redis://localhost:6379/0",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Store.Backend != "redis" || cfg.Store.RedisURL != "redis://localhost:6379/0" {
					t.Errorf("store = %+v", cfg.Store)
				}
			},
		},
		{
			name: "unset leaves values",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Provider.Name != "http" {
					t.Errorf("provider = %q, want default", cfg.Provider.Name)
				}
				if cfg.History.Capacity != 10 {
					t.Errorf("capacity = %d, want default", cfg.History.Capacity)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			if err := cfg.ApplyEnv(); err != nil {
				t.Fatalf("ApplyEnv() error = %v", err)
			}
			tt.check(t, &cfg)
		})
	}
}

func TestApplyEnv_InvalidDuration(t *testing.T) {
	t.Setenv("SOINFO_TIMEOUT", "soon")

	cfg := DefaultConfig()
	err := cfg.ApplyEnv()
	if err == nil {
		t.Fatal("ApplyEnv() should reject an unparseable duration")
	}
	if !strings.Contains(err.Error(), "config: parse env") {
		t.Errorf("error = %q, want config: parse env prefix", err)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: http
  retries: 3
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() should reject unknown fields")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty provider", func(c *Config) { c.Provider.Name = "" }, "provider.name"},
		{"zero timeout", func(c *Config) { c.Provider.Timeout = 0 }, "provider.timeout"},
		{"zero expiration", func(c *Config) { c.Cache.Expiration = 0 }, "cache.expiration"},
		{"stale equals expiration", func(c *Config) { c.Cache.StaleThreshold = c.Cache.Expiration }, "stale_threshold"},
		{"stale above expiration", func(c *Config) { c.Cache.StaleThreshold = time.Hour }, "stale_threshold"},
		{"zero capacity", func(c *Config) { c.History.Capacity = 0 }, "history.capacity"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "etcd" }, "store.backend"},
		{"redis without url", func(c *Config) { c.Store.Backend = "redis" }, "redis_url"},
		{"redis with url", func(c *Config) {
			c.Store.Backend = "redis"
			c.Store.RedisURL = "redis://localhost:6379"
		}, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLog_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := Log{Level: tt.level}.SlogLevel()
		if err != nil {
			t.Errorf("SlogLevel(%q) error = %v", tt.level, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestLoad_CommentOnlyFile(t *testing.T) {
	path := writeConfig(t, "# nothing configured yet\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(comment-only) error = %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("Load(comment-only) = %+v, want defaults", *cfg)
	}
}

func TestLoadLayered_AllMissing(t *testing.T) {
	cfg, err := LoadLayered("/nonexistent/a.yaml", "/nonexistent/b.yaml")
	if err != nil {
		t.Fatalf("LoadLayered() error = %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("LoadLayered(all missing) = %+v, want defaults", *cfg)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(empty) error = %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("Load(empty) = %+v, want defaults", *cfg)
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	if got := UserPath(); got != "/xdg/config/soinfo/config.yaml" {
		t.Errorf("UserPath() = %q", got)
	}

	cfg := DefaultConfig()
	if got := cfg.StorePath(); got != "/xdg/data/soinfo/soinfo.db" {
		t.Errorf("StorePath(sqlite) = %q", got)
	}
	cfg.Store.Backend = "file"
	if got := cfg.StorePath(); got != "/xdg/data/soinfo/kv" {
		t.Errorf("StorePath(file) = %q", got)
	}
	cfg.Store.Path = "/explicit"
	if got := cfg.StoreOptions().Path; got != "/explicit" {
		t.Errorf("StoreOptions().Path = %q, want /explicit", got)
	}
	if got := cfg.LogPath(); got != "/xdg/state/soinfo/soinfo.log" {
		t.Errorf("LogPath() = %q", got)
	}
}

func TestPaths_HomeFallback(t *testing.T) {
	t.Setenv("HOME", "/home/ada")
	t.Setenv("XDG_STATE_HOME", "")

	cfg := DefaultConfig()
	if got := cfg.LogPath(); got != "/home/ada/.local/state/soinfo/soinfo.log" {
		t.Errorf("LogPath() = %q", got)
	}
}
