package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	soinfo "github.com/Pan-Thu-dev/soinfo-client-side"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/cache"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/config"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/history"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/kvstore"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/orchestrator"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/provider"
)

// loadConfig loads layered config from user and project paths with env
// overrides, then applies global flag overrides and validates.
func loadConfig(g *Globals) (*config.Config, error) {
	paths := []string{config.UserPath(), config.ProjectPath}
	if g.Config != "" {
		paths = append(paths, g.Config)
	}
	cfg, err := config.LoadLayered(paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	g.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is the wired runtime shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   kvstore.ClosableStore
	cache   *cache.Layer
	history *history.Ledger
	orch    *orchestrator.Orchestrator
	logFile io.Closer
}

// setup builds the store, cache, history, provider and orchestrator from
// config. When toFile is set, logs go to the configured log file instead of
// stderr so they do not draw over the TUI. The caller must Close the app.
func setup(g *Globals, toFile bool, opts ...orchestrator.Option) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	var logOut io.Writer = os.Stderr
	if toFile {
		f, err := openLogFile(cfg.LogPath())
		if err != nil {
			return nil, err
		}
		a.logFile = f
		logOut = f
	}
	a.logger, err = newLogger(cfg.Log, logOut)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.store, err = kvstore.Open(cfg.StoreOptions())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("store: %w", err)
	}

	p, err := newProvider(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.cache = cache.New(a.store,
		cache.WithExpiration(cfg.Cache.Expiration),
		cache.WithStaleThreshold(cfg.Cache.StaleThreshold),
		cache.WithLogger(a.logger),
	)
	a.history = history.New(a.store,
		history.WithCapacity(cfg.History.Capacity),
		history.WithLogger(a.logger),
	)
	opts = append([]orchestrator.Option{orchestrator.WithLogger(a.logger)}, opts...)
	a.orch = orchestrator.New(p, a.cache, a.history, opts...)

	a.logger.Debug("soinfo ready",
		"provider", p.Name(),
		"store", cfg.Store.Backend,
		"expiration", cfg.Cache.Expiration,
		"stale_threshold", cfg.Cache.StaleThreshold,
	)
	return a, nil
}

// Close waits for background refreshes, then releases the store and log file.
func (a *app) Close() {
	if a.orch != nil {
		a.orch.Wait()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Warn("closing store", "error", err)
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// newProvider builds the configured provider from the builtin registry.
func newProvider(cfg *config.Config) (provider.Fetcher, error) {
	return provider.NewBuiltinRegistry().New(cfg.Provider.Name, provider.Settings{
		BaseURL:  cfg.Provider.BaseURL,
		Timeout:  cfg.Provider.Timeout,
		Fixtures: soinfo.OverlayFS(cfg.Provider.Fixtures, soinfo.Fixtures),
	})
}

// newLogger builds the slog logger described by cfg, writing to w.
func newLogger(cfg config.Log, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("log: creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	return f, nil
}

// signalContext returns a context cancelled on interrupt or termination.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
