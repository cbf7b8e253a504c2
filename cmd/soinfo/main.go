package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/config"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/orchestrator"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are flags shared by every command. Set values override config.
type Globals struct {
	Config   string `help:"Extra config file layered over the user and project files." type:"path" placeholder:"PATH"`
	Provider string `help:"Profile provider (http or fixture)." placeholder:"NAME"`
	Store    string `help:"Store backend (memory, file, sqlite or redis)." placeholder:"BACKEND"`
	LogLevel string `help:"Log level (debug, info, warn or error)." placeholder:"LEVEL"`
}

// apply copies set flags onto cfg.
func (g *Globals) apply(cfg *config.Config) {
	if g.Provider != "" {
		cfg.Provider.Name = g.Provider
	}
	if g.Store != "" {
		cfg.Store.Backend = g.Store
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
}

// CLI is the top-level command structure for soinfo.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	Lookup  LookupCmd        `cmd:"" help:"Look up a profile, serving it from the cache when fresh."`
	Refresh RefreshCmd       `cmd:"" help:"Fetch a profile from the service, bypassing the cache."`
	Retry   RetryCmd         `cmd:"" help:"Repeat the most recent lookup."`
	History HistoryCmd       `cmd:"" help:"Show or clear recent searches."`
	Cache   CacheCmd         `cmd:"" help:"Manage cached profiles."`
	TUI     TUICmd           `cmd:"" name:"tui" help:"Open the interactive lookup screen."`
}

// lookupService abstracts the orchestrator for command testing.
type lookupService interface {
	Lookup(ctx context.Context, handle string) error
	Refresh(ctx context.Context) error
	Retry(ctx context.Context) error
	State() orchestrator.State
}

// --- lookup ---

// LookupCmd looks up one handle.
type LookupCmd struct {
	Handle string `arg:"" help:"Discord username."`
	JSON   bool   `help:"Print the profile as JSON." name:"json"`
}

// Run executes the lookup command.
func (l *LookupCmd) Run(g *Globals) error {
	a, err := setup(g, false)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()
	return l.run(ctx, os.Stdout, a.orch, time.Now)
}

// run performs the lookup against svc, enabling testable wiring.
func (l *LookupCmd) run(ctx context.Context, w io.Writer, svc lookupService, now func() time.Time) error {
	if err := svc.Lookup(ctx, l.Handle); err != nil {
		return err
	}
	return printProfile(w, svc.State(), l.JSON, now())
}

// --- refresh ---

// RefreshCmd fetches one handle from the service.
type RefreshCmd struct {
	Handle string `arg:"" help:"Discord username."`
	JSON   bool   `help:"Print the profile as JSON." name:"json"`
}

// Run executes the refresh command.
func (r *RefreshCmd) Run(g *Globals) error {
	a, err := setup(g, false)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()
	return r.run(ctx, os.Stdout, a.orch, time.Now)
}

// run makes handle current with a lookup and, if that was served from the
// cache, refreshes it. A cache miss already fetched, so it is not repeated.
func (r *RefreshCmd) run(ctx context.Context, w io.Writer, svc lookupService, now func() time.Time) error {
	start := now()
	if err := svc.Lookup(ctx, r.Handle); err != nil {
		return err
	}
	if p := svc.State().Profile; p != nil && p.FetchedAt.Before(start) {
		if err := svc.Refresh(ctx); err != nil {
			return err
		}
	}
	return printProfile(w, svc.State(), r.JSON, now())
}

// --- retry ---

// RetryCmd repeats the most recent lookup recorded in history.
type RetryCmd struct {
	JSON bool `help:"Print the profile as JSON." name:"json"`
}

// Run executes the retry command.
func (r *RetryCmd) Run(g *Globals) error {
	a, err := setup(g, false)
	if err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()
	return r.run(ctx, os.Stdout, a.orch, time.Now)
}

// run retries against svc, enabling testable wiring.
func (r *RetryCmd) run(ctx context.Context, w io.Writer, svc lookupService, now func() time.Time) error {
	if err := svc.Retry(ctx); err != nil {
		return err
	}
	return printProfile(w, svc.State(), r.JSON, now())
}

// --- history ---

// historyStore abstracts the history ledger for command testing.
type historyStore interface {
	List() []profile.HistoryEntry
	Clear()
}

// HistoryCmd lists or clears recent searches.
type HistoryCmd struct {
	Clear bool `help:"Remove every history entry."`
	JSON  bool `help:"Print entries as JSON." name:"json"`
}

// Run executes the history command.
func (h *HistoryCmd) Run(g *Globals) error {
	a, err := setup(g, false)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer a.Close()
	return h.run(os.Stdout, a.history, time.Now())
}

// run lists or clears hist, enabling testable wiring.
func (h *HistoryCmd) run(w io.Writer, hist historyStore, now time.Time) error {
	if h.Clear {
		hist.Clear()
		_, _ = fmt.Fprintln(w, "History cleared")
		return nil
	}
	entries := hist.List()
	if h.JSON {
		if entries == nil {
			entries = []profile.HistoryEntry{}
		}
		return writeJSON(w, entries)
	}
	return tui.WriteHistory(w, entries, now)
}

// --- cache ---

// CacheCmd groups cache maintenance commands.
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Remove every cached profile. History is kept."`
}

// profileCache abstracts the cache layer for command testing.
type profileCache interface {
	ClearAll() int
}

// CacheClearCmd removes cached profiles.
type CacheClearCmd struct{}

// Run executes the cache clear command.
func (c *CacheClearCmd) Run(g *Globals) error {
	a, err := setup(g, false)
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	defer a.Close()
	return c.run(os.Stdout, a.cache)
}

// run clears pc, enabling testable wiring.
func (c *CacheClearCmd) run(w io.Writer, pc profileCache) error {
	n := pc.ClearAll()
	_, _ = fmt.Fprintf(w, "Removed %d cached %s\n", n, plural(n, "profile"))
	return nil
}

// --- tui ---

// TUICmd opens the interactive lookup screen.
type TUICmd struct{}

// Run builds real dependencies and launches the lookup screen.
func (c *TUICmd) Run(g *Globals) error {
	if !tui.IsTerminal(os.Stdout) {
		return c.run(false, nil)
	}

	bridge := tui.NewBridge()
	a, err := setup(g, true, orchestrator.WithObserver(bridge.Observe))
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()
	return c.run(true, func() error {
		return tui.Run(ctx, a.orch, a.history, bridge, os.Stdout)
	})
}

// run starts the screen when attached to a terminal, enabling testable wiring.
func (c *TUICmd) run(isTTY bool, start func() error) error {
	if !isTTY {
		return errors.New("tui: requires a terminal (TTY); use lookup for scripted output")
	}
	return start()
}

// --- output ---

// printProfile renders the displayed profile as text or JSON.
func printProfile(w io.Writer, s orchestrator.State, asJSON bool, now time.Time) error {
	if s.Profile == nil {
		return errors.New("no profile to display")
	}
	if asJSON {
		return writeJSON(w, s.Profile)
	}
	return tui.WriteProfile(w, *s.Profile, now)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

const (
	exitSuccess = 0
	exitSetup   = 1
	exitLookup  = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var pe *profile.Error
	if errors.As(err, &pe) {
		return exitLookup
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("soinfo"),
		kong.Description("Look up Discord profiles with a self-healing local cache."),
		kong.UsageOnError(),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
